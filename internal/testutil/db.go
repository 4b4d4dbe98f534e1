// Package testutil provides database and fixture helpers shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-board-api/internal/database"
	"github.com/yukikurage/task-board-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB returns a migrated in-memory sqlite database that is closed when the test ends.
// The pool is limited to one connection so every query sees the same in-memory database.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts a directory record.
func CreateUser(t *testing.T, db *gorm.DB, key, email string, provisional bool) *models.User {
	t.Helper()

	user := &models.User{
		Key:         key,
		Email:       email,
		Provisional: provisional,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateBoard inserts a board whose members are memberKeys in order; the first key
// is the creator.
func CreateBoard(t *testing.T, db *gorm.DB, title string, memberKeys ...string) *models.Board {
	t.Helper()
	require.NotEmpty(t, memberKeys, "a board needs its creator")

	board := &models.Board{
		ID:         uuid.NewString(),
		Title:      title,
		CreatorKey: memberKeys[0],
		Version:    1,
	}
	for i, key := range memberKeys {
		board.Members = append(board.Members, models.BoardMember{
			BoardID:   board.ID,
			MemberKey: key,
			Position:  i,
		})
	}
	require.NoError(t, db.WithContext(context.Background()).Create(board).Error)
	return board
}

// CreateTask inserts a pending task on a board.
func CreateTask(t *testing.T, db *gorm.DB, boardID, title, creatorKey string, assignees ...string) *models.Task {
	t.Helper()

	task := &models.Task{
		ID:         uuid.NewString(),
		BoardID:    boardID,
		Title:      title,
		CreatorKey: creatorKey,
		Status:     models.TaskStatusPending,
	}
	for _, key := range assignees {
		task.Assignees = append(task.Assignees, models.TaskAssignee{TaskID: task.ID, MemberKey: key})
	}
	require.NoError(t, db.Create(task).Error)
	return task
}

// ReloadBoard reads a board back with its members in order.
func ReloadBoard(t *testing.T, db *gorm.DB, id string) *models.Board {
	t.Helper()

	var board models.Board
	require.NoError(t, db.
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", id).
		First(&board).Error)
	return &board
}
