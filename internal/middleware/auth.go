package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/task-board-api/internal/auth"
	"github.com/yukikurage/task-board-api/internal/constants"
	apierrors "github.com/yukikurage/task-board-api/internal/errors"
	"github.com/yukikurage/task-board-api/internal/services"
)

// RequireAuth resolves the request's principal. A principal stored in the session
// wins; otherwise the token cookie or a bearer token is checked with verifier and the
// sign-in is recorded in the directory.
func RequireAuth(verifier auth.Verifier, directory *services.DirectoryService, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if principal, ok := SessionPrincipal(sessions.Default(c)); ok {
			c.Set(constants.ContextKeyPrincipal, principal)
			c.Next()
			return
		}

		token := requestToken(c)
		if token == "" {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		principal, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				log.WithError(err).Warn("token verification failed")
			}
			apierrors.AbortWithError(c, http.StatusUnauthorized, apierrors.NewAPIError(apierrors.ErrCodeInvalidToken, "Invalid or expired token"))
			return
		}

		if _, err := directory.RecordSignIn(c.Request.Context(), principal); err != nil {
			log.WithError(err).WithField("subject", principal.Subject).Error("failed to record sign-in")
			apierrors.AbortWithError(c, http.StatusInternalServerError, apierrors.NewAPIError(apierrors.ErrCodeInternalError, "Failed to record sign-in"))
			return
		}

		c.Set(constants.ContextKeyPrincipal, principal)
		c.Next()
	}
}

func requestToken(c *gin.Context) string {
	if token, err := c.Cookie(constants.TokenCookieName); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// SessionPrincipal reads the principal saved by a successful sign-in.
func SessionPrincipal(session sessions.Session) (auth.Principal, bool) {
	subject, _ := session.Get(constants.SessionKeySubject).(string)
	if subject == "" {
		return auth.Principal{}, false
	}
	email, _ := session.Get(constants.SessionKeyEmail).(string)
	name, _ := session.Get(constants.SessionKeyName).(string)
	return auth.Principal{Subject: subject, Email: email, Name: name}, true
}

// SaveSessionPrincipal stores principal in the session.
func SaveSessionPrincipal(session sessions.Session, principal auth.Principal) error {
	session.Set(constants.SessionKeySubject, principal.Subject)
	session.Set(constants.SessionKeyEmail, principal.Email)
	session.Set(constants.SessionKeyName, principal.Name)
	return session.Save()
}

// GetPrincipal retrieves the current principal from context
func GetPrincipal(c *gin.Context) (auth.Principal, bool) {
	v, exists := c.Get(constants.ContextKeyPrincipal)
	if !exists {
		return auth.Principal{}, false
	}
	principal, ok := v.(auth.Principal)
	return principal, ok
}

// GetPrincipalKeys derives the member keys of the current principal. An email that
// cannot be encoded leaves the principal with its confirmed key only.
func GetPrincipalKeys(c *gin.Context) (services.PrincipalKeys, bool) {
	principal, ok := GetPrincipal(c)
	if !ok {
		return services.PrincipalKeys{}, false
	}

	keys, err := services.ResolvePrincipalKeys(principal.Subject, principal.Email)
	if err == nil {
		return keys, true
	}

	keys, err = services.ResolvePrincipalKeys(principal.Subject, "")
	if err != nil {
		return services.PrincipalKeys{}, false
	}
	keys.Email = principal.Email
	return keys, true
}
