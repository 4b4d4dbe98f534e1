package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/task-board-api/internal/dto"
	apierrors "github.com/yukikurage/task-board-api/internal/errors"
	"github.com/yukikurage/task-board-api/internal/identity"
	"github.com/yukikurage/task-board-api/internal/middleware"
	"github.com/yukikurage/task-board-api/internal/models"
	"github.com/yukikurage/task-board-api/internal/services"
)

type BoardHandler struct {
	boards     *services.BoardService
	membership *services.MembershipService
	log        logrus.FieldLogger
}

func NewBoardHandler(boards *services.BoardService, membership *services.MembershipService, log logrus.FieldLogger) *BoardHandler {
	return &BoardHandler{
		boards:     boards,
		membership: membership,
		log:        log,
	}
}

// CreateBoard creates a new board owned by the current user
func (h *BoardHandler) CreateBoard(c *gin.Context) {
	keys, exists := middleware.GetPrincipalKeys(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateBoardRequest struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
	}

	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	board, err := h.boards.CreateBoard(c.Request.Context(), services.CreateBoardInput{
		Owner:       keys,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	h.respondWithBoard(c, http.StatusCreated, board, keys)
}

// ListBoards returns every board the user belongs to under either key
func (h *BoardHandler) ListBoards(c *gin.Context) {
	keys, exists := middleware.GetPrincipalKeys(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	boards, err := h.boards.ListBoardsForPrincipal(c.Request.Context(), keys)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	items := make([]dto.BoardListItemDTO, len(boards))
	for i, b := range boards {
		items[i] = dto.ToBoardListItemDTO(b)
	}

	c.JSON(http.StatusOK, gin.H{
		"boards": items,
	})
}

// GetBoard returns the board with its members
func (h *BoardHandler) GetBoard(c *gin.Context) {
	board, keys, ok := h.boardContext(c)
	if !ok {
		return
	}

	h.respondWithBoard(c, http.StatusOK, board, keys)
}

// UpdateBoard updates the board's title or description (creator only)
func (h *BoardHandler) UpdateBoard(c *gin.Context) {
	board, keys, ok := h.boardContext(c)
	if !ok {
		return
	}

	type UpdateBoardRequest struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}

	var req UpdateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.boards.UpdateBoard(c.Request.Context(), board, services.UpdateBoardInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	h.respondWithBoard(c, http.StatusOK, updated, keys)
}

// InviteMember invites a user to the board by email (creator only)
func (h *BoardHandler) InviteMember(c *gin.Context) {
	board, keys, ok := h.boardContext(c)
	if !ok {
		return
	}

	type InviteRequest struct {
		Email string `json:"email" binding:"required"`
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	// the creator may never have signed in through the directory
	if keys.Email != "" && identity.NormalizeEmail(req.Email) == keys.Email {
		respondServiceError(c, h.log, services.ErrAlreadyMember)
		return
	}

	result, err := h.membership.InviteByEmail(c.Request.Context(), board, req.Email)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	members, err := h.membership.DescribeMembers(c.Request.Context(), result.Board, keys)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.InvitationDTO{
		MemberKey:   result.MemberKey.String(),
		Provisional: result.MemberKey.IsProvisional(),
		NewRecord:   result.IsNewProvisional,
		Board:       dto.ToBoardDTO(*result.Board, members),
	})
}

func (h *BoardHandler) boardContext(c *gin.Context) (*models.Board, services.PrincipalKeys, bool) {
	keys, exists := middleware.GetPrincipalKeys(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return nil, services.PrincipalKeys{}, false
	}

	board, exists := middleware.GetBoard(c)
	if !exists {
		apierrors.NotFound(c, "Board not found")
		return nil, services.PrincipalKeys{}, false
	}

	return board, keys, true
}

func (h *BoardHandler) respondWithBoard(c *gin.Context, status int, board *models.Board, viewer services.PrincipalKeys) {
	members, err := h.membership.DescribeMembers(c.Request.Context(), board, viewer)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(status, dto.ToBoardDTO(*board, members))
}
