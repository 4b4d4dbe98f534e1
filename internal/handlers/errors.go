package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/task-board-api/internal/auth"
	apierrors "github.com/yukikurage/task-board-api/internal/errors"
	"github.com/yukikurage/task-board-api/internal/identity"
	"github.com/yukikurage/task-board-api/internal/services"
)

// respondServiceError maps service errors to API responses. Unknown errors are
// logged and reported as internal errors without their message.
func respondServiceError(c *gin.Context, log logrus.FieldLogger, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		apierrors.Unauthorized(c, "Invalid or expired token")
	case errors.Is(err, services.ErrBoardNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrNotBoardCreator):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrAlreadyMember):
		apierrors.ConflictWithCode(c, apierrors.ErrCodeAlreadyMember, err.Error())
	case errors.Is(err, services.ErrBoardModified):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, identity.ErrInvalidEmail):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidEmail, "Invalid email address")
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleTooLong),
		errors.Is(err, services.ErrTextRequired),
		errors.Is(err, services.ErrTextTooLong),
		errors.Is(err, services.ErrInvalidTaskAssignee),
		errors.Is(err, identity.ErrInvalidKey):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured. Please set OPENAI_API_KEY environment variable.")
	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.RespondWithError(c, http.StatusUnprocessableEntity, apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, err.Error()))
	default:
		log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		apierrors.InternalError(c, "")
	}
}
