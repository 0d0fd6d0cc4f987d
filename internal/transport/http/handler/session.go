package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"autodevhub/internal/app"
	"autodevhub/internal/model"
	"autodevhub/internal/transport/http/response"
)

type SessionHandler struct {
	sessionService *app.SessionService
}

type CreateSessionRequest struct {
	Preferences map[string]any `json:"preferences"`
}

type UpdatePreferencesRequest struct {
	Preferences map[string]any `json:"preferences" binding:"required"`
}

func NewSessionHandler(sessionService *app.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	userID, _ := getUserIDFromContext(c)
	session, err := h.sessionService.Create(app.CreateSessionInput{
		UserID:      userID,
		Preferences: req.Preferences,
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create session failed")
		return
	}

	response.Created(c, sessionPayload(session))
}

func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.sessionService.Get(c.Param("id"))
	if err != nil {
		writeSessionError(c, err, "get session failed")
		return
	}

	response.OK(c, sessionPayload(session))
}

func (h *SessionHandler) UpdatePreferences(c *gin.Context) {
	var req UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session, err := h.sessionService.UpdatePreferences(c.Param("id"), req.Preferences)
	if err != nil {
		writeSessionError(c, err, "update preferences failed")
		return
	}

	response.OK(c, sessionPayload(session))
}

func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.sessionService.Delete(c.Param("id")); err != nil {
		writeSessionError(c, err, "delete session failed")
		return
	}

	c.Status(http.StatusNoContent)
}

func writeSessionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

func sessionPayload(session *model.Session) gin.H {
	prefs := session.PreferenceMap()
	if prefs == nil {
		prefs = map[string]any{}
	}
	return gin.H{
		"id":          session.ID,
		"user_id":     session.UserID,
		"preferences": prefs,
		"created_at":  session.CreatedAt,
		"updated_at":  session.UpdatedAt,
	}
}
