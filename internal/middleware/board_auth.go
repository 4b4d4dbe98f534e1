package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/task-board-api/internal/constants"
	apierrors "github.com/yukikurage/task-board-api/internal/errors"
	"github.com/yukikurage/task-board-api/internal/models"
	"github.com/yukikurage/task-board-api/internal/services"
)

// RequireBoardAccess loads the board named by the :id parameter and checks that the
// principal has standing on it. A provisional membership is reconciled to the
// principal's confirmed key before the handler runs.
func RequireBoardAccess(boards *services.BoardService, membership *services.MembershipService, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		keys, ok := GetPrincipalKeys(c)
		if !ok {
			apierrors.AbortWithError(c, http.StatusUnauthorized, apierrors.NewAPIError(apierrors.ErrCodeUnauthorized, "Authentication required"))
			return
		}

		board, err := loadReconciledBoard(c, boards, membership, keys)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrBoardNotFound):
				// Return 404 instead of 403 to avoid leaking board existence
				apierrors.AbortWithError(c, http.StatusNotFound, apierrors.NewAPIError(apierrors.ErrCodeNotFound, "Board not found"))
			case errors.Is(err, services.ErrBoardModified):
				apierrors.AbortWithError(c, http.StatusConflict, apierrors.NewAPIError(apierrors.ErrCodeConflict, err.Error()))
			default:
				log.WithError(err).WithField("board_id", c.Param("id")).Error("failed to load board")
				apierrors.AbortWithError(c, http.StatusInternalServerError, apierrors.NewAPIError(apierrors.ErrCodeInternalError, "Failed to load board"))
			}
			return
		}

		c.Set(constants.ContextKeyBoard, board)
		c.Next()
	}
}

// loadReconciledBoard reloads once when the reconciliation lost a race, since the
// winning write may already have migrated the principal.
func loadReconciledBoard(c *gin.Context, boards *services.BoardService, membership *services.MembershipService, keys services.PrincipalKeys) (*models.Board, error) {
	ctx := c.Request.Context()

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		var board *models.Board
		board, err = boards.GetBoard(ctx, c.Param("id"))
		if err != nil {
			return nil, err
		}
		if !services.HasStanding(board, keys) {
			return nil, services.ErrBoardNotFound
		}

		board, err = membership.ReconcileOnAccess(ctx, board, keys)
		if err == nil {
			return board, nil
		}
		if !errors.Is(err, services.ErrBoardModified) {
			return nil, err
		}
	}
	return nil, err
}

// RequireBoardCreator restricts a route to the creator of the board loaded by
// RequireBoardAccess.
func RequireBoardCreator() gin.HandlerFunc {
	return func(c *gin.Context) {
		board, ok := GetBoard(c)
		if !ok {
			apierrors.AbortWithError(c, http.StatusForbidden, apierrors.NewAPIError(apierrors.ErrCodeForbidden, "Board access required"))
			return
		}

		keys, _ := GetPrincipalKeys(c)
		if err := services.EnsureCreator(board, keys); err != nil {
			apierrors.AbortWithError(c, http.StatusForbidden, apierrors.NewAPIError(apierrors.ErrCodeForbidden, err.Error()))
			return
		}

		c.Next()
	}
}

// GetBoard retrieves the board stored by RequireBoardAccess
func GetBoard(c *gin.Context) (*models.Board, bool) {
	v, exists := c.Get(constants.ContextKeyBoard)
	if !exists {
		return nil, false
	}
	board, ok := v.(*models.Board)
	return board, ok
}
