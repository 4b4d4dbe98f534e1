package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/task-board-api/internal/constants"
	"github.com/yukikurage/task-board-api/internal/identity"
	"github.com/yukikurage/task-board-api/internal/models"
	"github.com/yukikurage/task-board-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrBoardNotFound   = errors.New("board not found")
	ErrNotBoardCreator = errors.New("only the board creator can perform this action")
	ErrTitleRequired   = errors.New("title is required")
	ErrTitleTooLong    = errors.New("title is too long")
)

// BoardService provides business logic for board operations.
type BoardService struct {
	boards repository.BoardRepository
	log    logrus.FieldLogger
}

// NewBoardService creates a new BoardService.
func NewBoardService(boards repository.BoardRepository, log logrus.FieldLogger) *BoardService {
	return &BoardService{
		boards: boards,
		log:    log,
	}
}

// CreateBoardInput represents parameters to create a new board.
type CreateBoardInput struct {
	Owner       PrincipalKeys
	Title       string
	Description string
}

// CreateBoard creates a board whose creator is its sole member.
func (s *BoardService) CreateBoard(ctx context.Context, input CreateBoardInput) (*models.Board, error) {
	title, err := normalizeTitle(input.Title)
	if err != nil {
		return nil, err
	}

	owner := input.Owner.Confirmed.String()
	board := &models.Board{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		CreatorKey:  owner,
		Members: []models.BoardMember{
			{MemberKey: owner, Email: input.Owner.Email},
		},
	}

	if err := s.boards.Create(ctx, board); err != nil {
		return nil, persistenceError("create board", err)
	}

	s.log.WithField("board_id", board.ID).Info("board created")
	return board, nil
}

// GetBoard returns a board with its members.
func (s *BoardService) GetBoard(ctx context.Context, id string) (*models.Board, error) {
	board, err := s.boards.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, persistenceError("find board", err)
	}
	return board, nil
}

// ListBoardsForMember returns every board whose member set contains key.
func (s *BoardService) ListBoardsForMember(ctx context.Context, key identity.Key) ([]models.Board, error) {
	boards, err := s.boards.ListByMemberKey(ctx, key.String())
	if err != nil {
		return nil, persistenceError("list boards", err)
	}
	return boards, nil
}

// ListBoardsForPrincipal merges the boards found under the confirmed key and under the
// provisional key. Each board appears once; the confirmed-key entry wins.
func (s *BoardService) ListBoardsForPrincipal(ctx context.Context, keys PrincipalKeys) ([]models.Board, error) {
	boards, err := s.ListBoardsForMember(ctx, keys.Confirmed)
	if err != nil {
		return nil, err
	}
	if !keys.HasProvisional() {
		return boards, nil
	}

	provisional, err := s.ListBoardsForMember(ctx, keys.Provisional)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(boards)+len(provisional))
	for _, b := range boards {
		seen[b.ID] = struct{}{}
	}
	for _, b := range provisional {
		if _, exists := seen[b.ID]; exists {
			continue
		}
		seen[b.ID] = struct{}{}
		boards = append(boards, b)
	}

	return boards, nil
}

// UpdateBoardInput represents input for updating a board.
type UpdateBoardInput struct {
	Title       *string
	Description *string
}

// UpdateBoard changes a board's title or description.
func (s *BoardService) UpdateBoard(ctx context.Context, board *models.Board, input UpdateBoardInput) (*models.Board, error) {
	next := board.Clone()
	if input.Title != nil {
		title, err := normalizeTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		next.Title = title
	}
	if input.Description != nil {
		next.Description = strings.TrimSpace(*input.Description)
	}

	if err := s.boards.UpdateDetails(ctx, next); err != nil {
		if errors.Is(err, repository.ErrStaleBoard) {
			return nil, ErrBoardModified
		}
		return nil, persistenceError("update board", err)
	}
	return next, nil
}

// EnsureCreator verifies that keys belong to the board's creator.
func EnsureCreator(board *models.Board, keys PrincipalKeys) error {
	if keys.Confirmed.String() != board.CreatorKey {
		return ErrNotBoardCreator
	}
	return nil
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}
	if len(title) > constants.MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}
