package repository

import (
	"context"

	"github.com/yukikurage/task-board-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// FindByKey finds a user by member key
func (r *GormUserRepository) FindByKey(ctx context.Context, key string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("member_key = ?", key).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindConfirmedByEmail finds the confirmed user registered with an email
func (r *GormUserRepository) FindConfirmedByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("email = ? AND provisional = ?", email, false).
		Order("created_at ASC").
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Upsert creates the user or refreshes its mutable columns
func (r *GormUserRepository) Upsert(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "member_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "display_name", "provisional", "updated_at"}),
		}).
		Create(user).Error
}

// CreateIfAbsent creates the user unless the key is already taken
func (r *GormUserRepository) CreateIfAbsent(ctx context.Context, user *models.User) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(user)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
