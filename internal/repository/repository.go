package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/task-board-api/internal/models"
)

// ErrStaleBoard is returned when a board write loses a compare-and-swap against a
// concurrent writer.
var ErrStaleBoard = errors.New("board repository: board was modified concurrently")

// KeyMigration moves task assignments from a retired member key to its replacement.
type KeyMigration struct {
	From string
	To   string
}

// Page selects a window of a listing. A zero Limit selects everything.
type Page struct {
	Offset int
	Limit  int
}

// UserRepository defines the interface for Identity Directory data access
type UserRepository interface {
	// FindByKey finds a user by member key
	FindByKey(ctx context.Context, key string) (*models.User, error)

	// FindConfirmedByEmail finds the confirmed (non-provisional) user with an email
	FindConfirmedByEmail(ctx context.Context, email string) (*models.User, error)

	// Upsert creates the user or refreshes its email, name and provisional flag
	Upsert(ctx context.Context, user *models.User) error

	// CreateIfAbsent creates the user unless a record with the same key exists.
	// It reports whether a record was created.
	CreateIfAbsent(ctx context.Context, user *models.User) (bool, error)
}

// BoardRepository defines the interface for board data access
type BoardRepository interface {
	// Create creates a board together with its initial members
	Create(ctx context.Context, board *models.Board) error

	// FindByID finds a board by ID with members in board order
	FindByID(ctx context.Context, id string) (*models.Board, error)

	// ListByMemberKey lists every board whose member set contains key
	ListByMemberKey(ctx context.Context, key string) ([]models.Board, error)

	// UpdateDetails writes title and description if board.Version is current
	UpdateDetails(ctx context.Context, board *models.Board) error

	// SaveMembers replaces the member set if board.Version is current, applying
	// the optional key migration to the board's task assignments in the same
	// transaction. On success board.Version is advanced.
	SaveMembers(ctx context.Context, board *models.Board, migration *KeyMigration) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task of a board with its assignees
	FindByID(ctx context.Context, boardID, taskID string) (*models.Task, error)

	// ListByBoard lists one page of a board's tasks and the board's task count
	ListByBoard(ctx context.Context, boardID string, page Page) ([]models.Task, int64, error)

	// Update writes the task's own columns
	Update(ctx context.Context, task *models.Task) error

	// AddAssignee assigns a member key to a task; assigning twice is a no-op
	AddAssignee(ctx context.Context, taskID, memberKey string) error
}
