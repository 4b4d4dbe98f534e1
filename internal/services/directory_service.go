package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/task-board-api/internal/auth"
	"github.com/yukikurage/task-board-api/internal/identity"
	"github.com/yukikurage/task-board-api/internal/models"
	"github.com/yukikurage/task-board-api/internal/repository"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

// DirectoryService is the Identity Directory: it maps member keys to user records.
type DirectoryService struct {
	users repository.UserRepository
	log   logrus.FieldLogger
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(users repository.UserRepository, log logrus.FieldLogger) *DirectoryService {
	return &DirectoryService{
		users: users,
		log:   log,
	}
}

// RecordSignIn creates the confirmed user on first sign-in and refreshes the email and
// display name on later ones.
func (s *DirectoryService) RecordSignIn(ctx context.Context, principal auth.Principal) (*models.User, error) {
	key, err := identity.Confirmed(principal.Subject)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Key:         key.String(),
		Email:       principal.Email,
		DisplayName: principal.Name,
		Provisional: false,
	}

	existing, err := s.users.FindByKey(ctx, user.Key)
	switch {
	case err == nil:
		if user.DisplayName == "" {
			user.DisplayName = existing.DisplayName
		}
		if existing.Email == user.Email && existing.DisplayName == user.DisplayName {
			return existing, nil
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		s.log.WithField("member_key", user.Key).Info("recording first sign-in")
	default:
		return nil, persistenceError("find user", err)
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, persistenceError("save user", err)
	}
	return user, nil
}

// FindByKey returns the user record for a member key.
func (s *DirectoryService) FindByKey(ctx context.Context, key identity.Key) (*models.User, error) {
	user, err := s.users.FindByKey(ctx, key.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, persistenceError("find user", err)
	}
	return user, nil
}

// FindConfirmedByEmail returns the confirmed user that signed in with email.
func (s *DirectoryService) FindConfirmedByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.FindConfirmedByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, persistenceError("find user by email", err)
	}
	return user, nil
}

// EnsureProvisional creates the provisional record for key unless one exists, and
// reports whether it was created.
func (s *DirectoryService) EnsureProvisional(ctx context.Context, key identity.Key) (bool, error) {
	email, ok := key.Email()
	if !ok {
		return false, identity.ErrInvalidKey
	}

	created, err := s.users.CreateIfAbsent(ctx, &models.User{
		Key:         key.String(),
		Email:       email,
		Provisional: true,
	})
	if err != nil {
		return false, persistenceError("create provisional user", err)
	}
	return created, nil
}
