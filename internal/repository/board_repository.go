package repository

import (
	"context"
	"time"

	"github.com/yukikurage/task-board-api/internal/models"
	"gorm.io/gorm"
)

// GormBoardRepository is a GORM implementation of BoardRepository
type GormBoardRepository struct {
	db *gorm.DB
}

// NewBoardRepository creates a new BoardRepository
func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &GormBoardRepository{db: db}
}

func orderedMembers(db *gorm.DB) *gorm.DB {
	return db.Order("board_members.position ASC")
}

// Create creates a board and its members in one transaction
func (r *GormBoardRepository) Create(ctx context.Context, board *models.Board) error {
	for i := range board.Members {
		board.Members[i].BoardID = board.ID
		board.Members[i].Position = i
	}
	if board.Version == 0 {
		board.Version = 1
	}
	return r.db.WithContext(ctx).Create(board).Error
}

// FindByID finds a board by ID
func (r *GormBoardRepository) FindByID(ctx context.Context, id string) (*models.Board, error) {
	var board models.Board
	if err := r.db.WithContext(ctx).
		Preload("Members", orderedMembers).
		Where("id = ?", id).
		First(&board).Error; err != nil {
		return nil, err
	}
	return &board, nil
}

// ListByMemberKey lists every board whose member set contains key
func (r *GormBoardRepository) ListByMemberKey(ctx context.Context, key string) ([]models.Board, error) {
	var boards []models.Board

	memberOf := r.db.WithContext(ctx).Model(&models.BoardMember{}).
		Select("board_id").
		Where("member_key = ?", key)

	if err := r.db.WithContext(ctx).
		Preload("Members", orderedMembers).
		Where("id IN (?)", memberOf).
		Order("created_at ASC").
		Find(&boards).Error; err != nil {
		return nil, err
	}
	return boards, nil
}

// UpdateDetails writes title and description guarded by the board version
func (r *GormBoardRepository) UpdateDetails(ctx context.Context, board *models.Board) error {
	next := board.Version + 1
	result := r.db.WithContext(ctx).
		Model(&models.Board{}).
		Where("id = ? AND version = ?", board.ID, board.Version).
		Updates(map[string]interface{}{
			"title":       board.Title,
			"description": board.Description,
			"version":     next,
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleBoard
	}
	board.Version = next
	return nil
}

// SaveMembers replaces the member set guarded by the board version
func (r *GormBoardRepository) SaveMembers(ctx context.Context, board *models.Board, migration *KeyMigration) error {
	next := board.Version + 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Board{}).
			Where("id = ? AND version = ?", board.ID, board.Version).
			Updates(map[string]interface{}{
				"version":    next,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleBoard
		}

		if err := tx.Where("board_id = ?", board.ID).Delete(&models.BoardMember{}).Error; err != nil {
			return err
		}

		for i := range board.Members {
			board.Members[i].BoardID = board.ID
			board.Members[i].Position = i
		}
		if len(board.Members) > 0 {
			if err := tx.Create(&board.Members).Error; err != nil {
				return err
			}
		}

		if migration != nil {
			return migrateAssignees(tx, board.ID, *migration)
		}
		return nil
	})
	if err != nil {
		return err
	}

	board.Version = next
	return nil
}

func migrateAssignees(tx *gorm.DB, boardID string, migration KeyMigration) error {
	boardTasks := tx.Model(&models.Task{}).Select("id").Where("board_id = ?", boardID)
	alreadyAssigned := tx.Model(&models.TaskAssignee{}).Select("task_id").Where("member_key = ?", migration.To)

	// the confirmed key is already on some tasks; drop the duplicates first
	if err := tx.
		Where("member_key = ? AND task_id IN (?) AND task_id IN (?)", migration.From, boardTasks, alreadyAssigned).
		Delete(&models.TaskAssignee{}).Error; err != nil {
		return err
	}

	return tx.Model(&models.TaskAssignee{}).
		Where("member_key = ? AND task_id IN (?)", migration.From, boardTasks).
		Update("member_key", migration.To).Error
}
