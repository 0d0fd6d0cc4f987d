package gherkin

import "strings"

// ValidationResult reports syntax checks plus the quality metrics the
// validate endpoint returns.
type ValidationResult struct {
	IsValid       bool     `json:"is_valid"`
	Issues        []string `json:"issues"`
	ScenarioCount int      `json:"scenario_count"`
	LineCount     int      `json:"line_count"`
	QualityScore  float64  `json:"quality_score"`
}

// Validate checks that the content declares a Feature, at least one
// Scenario, and that every scenario carries Given/When/Then steps.
func Validate(content string) ValidationResult {
	result := ValidationResult{IsValid: true, Issues: []string{}}

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			result.LineCount++
		}
	}

	hasFeature := false
	scenarioStarted := false
	hasGiven, hasWhen, hasThen := false, false, false

	flushScenario := func() {
		if !scenarioStarted {
			return
		}
		var missing []string
		if !hasGiven {
			missing = append(missing, "Given")
		}
		if !hasWhen {
			missing = append(missing, "When")
		}
		if !hasThen {
			missing = append(missing, "Then")
		}
		if len(missing) > 0 {
			result.Issues = append(result.Issues, "Missing step(s): "+strings.Join(missing, ", "))
			result.IsValid = false
		}
	}

	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(stripped, "Feature:"):
			hasFeature = true
		case strings.HasPrefix(stripped, "Scenario:"):
			flushScenario()
			scenarioStarted = true
			result.ScenarioCount++
			hasGiven, hasWhen, hasThen = false, false, false
		case scenarioStarted && strings.HasPrefix(stripped, "Given"):
			hasGiven = true
		case scenarioStarted && strings.HasPrefix(stripped, "When"):
			hasWhen = true
		case scenarioStarted && strings.HasPrefix(stripped, "Then"):
			hasThen = true
		}
	}
	flushScenario()

	if !hasFeature {
		result.Issues = append(result.Issues, "Missing 'Feature:' declaration")
		result.IsValid = false
	}
	if result.ScenarioCount == 0 {
		result.Issues = append(result.Issues, "Missing 'Scenario:' declaration")
		result.IsValid = false
	}

	result.QualityScore = scoreQuality(result)
	return result
}

func scoreQuality(result ValidationResult) float64 {
	if result.LineCount == 0 {
		return 0
	}
	score := 1.0
	score -= 0.25 * float64(len(result.Issues))
	if result.ScenarioCount >= 2 {
		score += 0.1
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
