package database

import (
	"fmt"

	"github.com/yukikurage/task-board-api/internal/models"
	"gorm.io/gorm"
)

// Models lists every persisted record, in dependency order.
var Models = []interface{}{
	&models.User{},
	&models.Board{},
	&models.BoardMember{},
	&models.Task{},
	&models.TaskAssignee{},
}

// Migrate creates or updates the schema for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
