package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"autodevhub/internal/app"
	"autodevhub/internal/repository"
	"autodevhub/internal/transport/http/middleware"
	"autodevhub/internal/transport/http/response"
)

type StoryHandler struct {
	storyService *app.StoryService
}

type GenerateStoryRequest struct {
	Description    string `json:"description" binding:"required,min=10,max=1000"`
	ProjectContext string `json:"project_context" binding:"max=500"`
	StoryType      string `json:"story_type"`
	Complexity     string `json:"complexity"`
}

type UpdateStoryRequest struct {
	Title              *string  `json:"title" binding:"omitempty,max=200"`
	Description        *string  `json:"description" binding:"omitempty,max=1000"`
	Gherkin            *string  `json:"gherkin" binding:"omitempty,max=5000"`
	AcceptanceCriteria []string `json:"acceptance_criteria" binding:"omitempty,max=20"`
	Status             *string  `json:"status"`
	EstimatedPoints    *int     `json:"estimated_points" binding:"omitempty,gte=1,lte=21"`
	Tags               []string `json:"tags" binding:"omitempty,max=10"`
}

type RefineStoryRequest struct {
	Feedback string `json:"feedback" binding:"required,min=5,max=1000"`
}

type ValidateStoryRequest struct {
	Gherkin string `json:"gherkin" binding:"required,min=10"`
}

type SuggestionsRequest struct {
	Description string `json:"description" binding:"required,min=5,max=1000"`
}

func NewStoryHandler(storyService *app.StoryService) *StoryHandler {
	return &StoryHandler{storyService: storyService}
}

func (h *StoryHandler) Generate(c *gin.Context) {
	var req GenerateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	userID, _ := getUserIDFromContext(c)
	story, err := h.storyService.Generate(c.Request.Context(), app.GenerateStoryInput{
		CallerID:       callerID(c, userID),
		UserID:         userID,
		Description:    req.Description,
		ProjectContext: req.ProjectContext,
		StoryType:      req.StoryType,
		Complexity:     req.Complexity,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrRateLimited):
			response.Error(c, http.StatusTooManyRequests, response.CodeRateLimited, err.Error())
		case errors.Is(err, app.ErrGenerationFailed):
			response.Error(c, http.StatusInternalServerError, response.CodeGenerationFailed, "story generation failed")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "generate story failed")
		}
		return
	}

	response.Created(c, story)
}

func (h *StoryHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 || pageSize < 1 || pageSize > 100 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid pagination parameters")
		return
	}

	result, err := h.storyService.List(c.Request.Context(), repository.StoryFilter{
		Status:    c.Query("status"),
		StoryType: c.Query("story_type"),
		Search:    c.Query("search"),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list stories failed")
		return
	}

	response.OK(c, result)
}

func (h *StoryHandler) Get(c *gin.Context) {
	storyID, ok := storyIDFromPath(c)
	if !ok {
		return
	}

	story, err := h.storyService.Get(storyID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrStoryNotFound):
			response.Error(c, http.StatusNotFound, response.CodeStoryNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get story failed")
		}
		return
	}

	response.OK(c, story)
}

func (h *StoryHandler) Update(c *gin.Context) {
	storyID, ok := storyIDFromPath(c)
	if !ok {
		return
	}

	var req UpdateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	story, err := h.storyService.Update(c.Request.Context(), storyID, app.UpdateStoryInput{
		Title:              req.Title,
		Description:        req.Description,
		Gherkin:            req.Gherkin,
		AcceptanceCriteria: req.AcceptanceCriteria,
		Status:             req.Status,
		EstimatedPoints:    req.EstimatedPoints,
		Tags:               req.Tags,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrStoryNotFound):
			response.Error(c, http.StatusNotFound, response.CodeStoryNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "update story failed")
		}
		return
	}

	response.OK(c, story)
}

func (h *StoryHandler) Delete(c *gin.Context) {
	storyID, ok := storyIDFromPath(c)
	if !ok {
		return
	}

	if err := h.storyService.Delete(c.Request.Context(), storyID); err != nil {
		switch {
		case errors.Is(err, app.ErrStoryNotFound):
			response.Error(c, http.StatusNotFound, response.CodeStoryNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete story failed")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *StoryHandler) Refine(c *gin.Context) {
	storyID, ok := storyIDFromPath(c)
	if !ok {
		return
	}

	var req RefineStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	story, err := h.storyService.Refine(c.Request.Context(), app.RefineStoryInput{
		StoryID:  storyID,
		Feedback: req.Feedback,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrStoryNotFound):
			response.Error(c, http.StatusNotFound, response.CodeStoryNotFound, err.Error())
		case errors.Is(err, app.ErrGenerationFailed):
			response.Error(c, http.StatusInternalServerError, response.CodeGenerationFailed, "story refinement failed")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "refine story failed")
		}
		return
	}

	response.OK(c, story)
}

func (h *StoryHandler) Validate(c *gin.Context) {
	var req ValidateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.storyService.ValidateGherkin(req.Gherkin)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		return
	}

	response.OK(c, result)
}

func (h *StoryHandler) Suggestions(c *gin.Context) {
	var req SuggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	suggestions, err := h.storyService.Suggestions(req.Description)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		return
	}

	response.OK(c, gin.H{
		"analyzed_description":  req.Description,
		"suggestions":           suggestions.Suggestions,
		"suggestion_categories": suggestions.Categories,
	})
}

func (h *StoryHandler) Events(c *gin.Context) {
	storyID, ok := storyIDFromPath(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	events, err := h.storyService.Events(storyID, limit)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrStoryNotFound):
			response.Error(c, http.StatusNotFound, response.CodeStoryNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list story events failed")
		}
		return
	}

	response.OK(c, gin.H{
		"story_id": storyID,
		"events":   events,
	})
}

func (h *StoryHandler) Stats(c *gin.Context) {
	stats, err := h.storyService.Stats()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "story stats failed")
		return
	}

	response.OK(c, stats)
}

func storyIDFromPath(c *gin.Context) (uint, bool) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id64 == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid story id")
		return 0, false
	}
	return uint(id64), true
}

func getUserIDFromContext(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	return userID, ok
}

// callerID keys the rate limiter: authenticated users by id, anonymous
// callers by client IP.
func callerID(c *gin.Context, userID uint) string {
	if userID != 0 {
		return fmt.Sprintf("user:%d", userID)
	}
	return "ip:" + c.ClientIP()
}
