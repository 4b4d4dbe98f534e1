package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/task-board-api/internal/auth"
	"github.com/yukikurage/task-board-api/internal/constants"
	"github.com/yukikurage/task-board-api/internal/dto"
	apierrors "github.com/yukikurage/task-board-api/internal/errors"
	"github.com/yukikurage/task-board-api/internal/middleware"
	"github.com/yukikurage/task-board-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	verifier  auth.Verifier
	directory *services.DirectoryService
	log       logrus.FieldLogger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(verifier auth.Verifier, directory *services.DirectoryService, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		verifier:  verifier,
		directory: directory,
		log:       log,
	}
}

// CreateSession verifies an ID token and initializes the session.
func (h *AuthHandler) CreateSession(c *gin.Context) {
	type SessionRequest struct {
		Token string `json:"token" binding:"required"`
	}

	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	principal, err := h.verifier.Verify(c.Request.Context(), req.Token)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	if _, err := h.directory.RecordSignIn(c.Request.Context(), principal); err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	if err := middleware.SaveSessionPrincipal(sessions.Default(c), principal); err != nil {
		h.log.WithError(err).Error("failed to save session")
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.JSON(http.StatusOK, dto.ToPrincipalDTO(principal))
}

// Logout removes the authentication session and the token cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.SetCookie(constants.TokenCookieName, "", -1, "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated principal.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	principal, exists := middleware.GetPrincipal(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	c.JSON(http.StatusOK, dto.ToPrincipalDTO(principal))
}
