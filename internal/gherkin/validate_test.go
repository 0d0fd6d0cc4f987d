package gherkin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"autodevhub/internal/gherkin"
)

const validDoc = `Feature: Password reset
  As a user
  I want to reset my password
  So that I can regain access

  Scenario: Reset with valid email
    Given I am on the reset page
    When I submit my registered email
    Then I receive a reset link`

func TestValidate(t *testing.T) {
	t.Run("Well formed document", func(t *testing.T) {
		result := gherkin.Validate(validDoc)

		assert.True(t, result.IsValid)
		assert.Empty(t, result.Issues)
		assert.Equal(t, 1, result.ScenarioCount)
		assert.Equal(t, 8, result.LineCount)
		assert.InDelta(t, 1.0, result.QualityScore, 0.001)
	})

	t.Run("Scenario missing a Then step", func(t *testing.T) {
		doc := "Feature: Demo\n  Scenario: Incomplete\n    Given a precondition\n    When something happens"
		result := gherkin.Validate(doc)

		assert.False(t, result.IsValid)
		assert.Contains(t, result.Issues, "Missing step(s): Then")
	})

	t.Run("Plain text is rejected", func(t *testing.T) {
		result := gherkin.Validate("just some prose without structure")

		assert.False(t, result.IsValid)
		assert.Contains(t, result.Issues, "Missing 'Feature:' declaration")
		assert.Contains(t, result.Issues, "Missing 'Scenario:' declaration")
		assert.Equal(t, 0, result.ScenarioCount)
	})

	t.Run("Two scenarios earn a quality bonus", func(t *testing.T) {
		doc := validDoc + `

  Scenario: Reset with unknown email
    Given I am on the reset page
    When I submit an unknown email
    Then I see a generic confirmation`
		result := gherkin.Validate(doc)

		assert.True(t, result.IsValid)
		assert.Equal(t, 2, result.ScenarioCount)
		assert.InDelta(t, 1.0, result.QualityScore, 0.001)
	})
}

func TestSuggest(t *testing.T) {
	t.Run("Complete description yields no hints", func(t *testing.T) {
		out := gherkin.Suggest("As a manager I want weekly reports so that I can track progress and see an error when data is invalid")

		assert.Empty(t, out.Suggestions)
		assert.Empty(t, out.Categories)
	})

	t.Run("Terse auth description triggers several categories", func(t *testing.T) {
		out := gherkin.Suggest("login")

		assert.Contains(t, out.Categories, "clarity")
		assert.Contains(t, out.Categories, "error-handling")
		assert.Contains(t, out.Categories, "security")
		assert.Contains(t, out.Categories, "detail")
		assert.Len(t, out.Suggestions, 6)
	})

	t.Run("Overly broad scope is flagged", func(t *testing.T) {
		out := gherkin.Suggest("Build the complete system with every screen we ever discussed as a team, I want it all so that we ship, errors included, nothing invalid")

		assert.Contains(t, out.Categories, "scope")
	})
}
