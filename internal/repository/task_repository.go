package repository

import (
	"context"

	"github.com/yukikurage/task-board-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error
}

// FindByID finds a task of a board
func (r *GormTaskRepository) FindByID(ctx context.Context, boardID, taskID string) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).
		Preload("Assignees").
		Where("id = ? AND board_id = ?", taskID, boardID).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByBoard lists a board's tasks, oldest first, together with the total count
func (r *GormTaskRepository) ListByBoard(ctx context.Context, boardID string, page Page) ([]models.Task, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("board_id = ?", boardID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []models.Task
	if err := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Preload("Assignees").
		Scopes(paginate(page)).
		Order("created_at ASC").
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func paginate(page Page) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page.Limit <= 0 {
			return db
		}
		return db.Offset(page.Offset).Limit(page.Limit)
	}
}

// Update writes the task's own columns
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(task).Error
}

// AddAssignee assigns a member key to a task
func (r *GormTaskRepository) AddAssignee(ctx context.Context, taskID, memberKey string) error {
	assignee := models.TaskAssignee{
		TaskID:    taskID,
		MemberKey: memberKey,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&assignee).Error
}
