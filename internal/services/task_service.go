package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/task-board-api/internal/constants"
	"github.com/yukikurage/task-board-api/internal/identity"
	"github.com/yukikurage/task-board-api/internal/models"
	"github.com/yukikurage/task-board-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrInvalidTaskAssignee    = errors.New("assignee is not a member of the board")
	ErrTextRequired           = errors.New("text is required")
	ErrTextTooLong            = errors.New("text is too long")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// TaskService handles task business logic. Callers establish the principal's
// standing on the board before calling it.
type TaskService struct {
	tasks   repository.TaskRepository
	drafter TaskDrafter
	log     logrus.FieldLogger
	now     func() time.Time
}

// NewTaskService creates a new TaskService. drafter may be nil.
func NewTaskService(tasks repository.TaskRepository, drafter TaskDrafter, log logrus.FieldLogger) *TaskService {
	return &TaskService{
		tasks:   tasks,
		drafter: drafter,
		log:     log,
		now:     time.Now,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	CreatorKey  identity.Key
}

// CreateTask creates a pending task with no assignees
func (s *TaskService) CreateTask(ctx context.Context, boardID string, input CreateTaskInput) (*models.Task, error) {
	title, err := normalizeTitle(input.Title)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		ID:          uuid.NewString(),
		BoardID:     boardID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		CreatorKey:  input.CreatorKey.String(),
		Status:      models.TaskStatusPending,
		DueDate:     input.DueDate,
		Assignees:   []models.TaskAssignee{},
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, persistenceError("create task", err)
	}

	return task, nil
}

// ListTasks returns one page of a board's tasks and the board's task count
func (s *TaskService) ListTasks(ctx context.Context, boardID string, page repository.Page) ([]models.Task, int64, error) {
	tasks, total, err := s.tasks.ListByBoard(ctx, boardID, page)
	if err != nil {
		return nil, 0, persistenceError("list tasks", err)
	}
	return tasks, total, nil
}

// GetTask returns a task of the board
func (s *TaskService) GetTask(ctx context.Context, boardID, taskID string) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, boardID, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, persistenceError("find task", err)
	}
	return task, nil
}

// CompleteTask marks a task completed and stamps the completion time. Completing an
// already completed task stamps it again.
func (s *TaskService) CompleteTask(ctx context.Context, boardID, taskID string) (*models.Task, error) {
	task, err := s.GetTask(ctx, boardID, taskID)
	if err != nil {
		return nil, err
	}

	completedAt := s.now()
	task.Status = models.TaskStatusCompleted
	task.CompletedAt = &completedAt

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, persistenceError("complete task", err)
	}

	return task, nil
}

// AssignMember adds a board member to the task's assignees
func (s *TaskService) AssignMember(ctx context.Context, board *models.Board, taskID, memberKey string) (*models.Task, error) {
	if !board.HasMember(memberKey) {
		return nil, ErrInvalidTaskAssignee
	}

	task, err := s.GetTask(ctx, board.ID, taskID)
	if err != nil {
		return nil, err
	}

	for _, a := range task.Assignees {
		if a.MemberKey == memberKey {
			return task, nil
		}
	}

	if err := s.tasks.AddAssignee(ctx, task.ID, memberKey); err != nil {
		return nil, persistenceError("assign member", err)
	}

	return s.GetTask(ctx, board.ID, taskID)
}

// DraftTasks uses AI to propose tasks from text. Drafts are not persisted.
func (s *TaskService) DraftTasks(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s.drafter == nil {
		return nil, ErrAIServiceNotConfigured
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrTextRequired
	}
	if len(text) > constants.MaxAIInputLength {
		return nil, ErrTextTooLong
	}

	drafts, err := s.drafter.DraftTasks(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(drafts) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(drafts) > constants.MaxAIGeneratedTasks {
		drafts = drafts[:constants.MaxAIGeneratedTasks]
	}

	validTasks := make([]GeneratedTask, 0, len(drafts))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, draft := range drafts {
		title, err := normalizeTitle(draft.Title)
		if err != nil {
			continue
		}
		draft.Title = title

		if draft.DueDate != nil && draft.DueDate.Before(cutoff) {
			draft.DueDate = nil
		}

		validTasks = append(validTasks, draft)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}
