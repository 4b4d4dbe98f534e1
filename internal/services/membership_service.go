package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/task-board-api/internal/identity"
	"github.com/yukikurage/task-board-api/internal/models"
	"github.com/yukikurage/task-board-api/internal/repository"
)

var (
	ErrAlreadyMember = errors.New("already a member of this board")
	ErrBoardModified = errors.New("board was modified by another request")
)

const maskedKeyLength = 6

// PrincipalKeys are the member keys an authenticated principal may appear under.
type PrincipalKeys struct {
	Confirmed   identity.Key
	Provisional identity.Key
	Email       string
}

// HasProvisional reports whether the principal has an email-derived key.
func (k PrincipalKeys) HasProvisional() bool {
	return !k.Provisional.IsZero()
}

// ResolvePrincipalKeys derives both keys of a principal without any I/O. A principal
// without an email has no provisional key; a malformed email is rejected.
func ResolvePrincipalKeys(subject, email string) (PrincipalKeys, error) {
	confirmed, err := identity.Confirmed(subject)
	if err != nil {
		return PrincipalKeys{}, err
	}

	keys := PrincipalKeys{Confirmed: confirmed}
	if email == "" {
		return keys, nil
	}

	provisional, err := identity.Provisional(email)
	if err != nil {
		return PrincipalKeys{}, err
	}
	keys.Provisional = provisional
	keys.Email = email
	return keys, nil
}

// HasStanding is the only membership check: the principal's confirmed or provisional
// key must literally be in the board's member set.
func HasStanding(board *models.Board, keys PrincipalKeys) bool {
	if board.HasMember(keys.Confirmed.String()) {
		return true
	}
	return keys.HasProvisional() && board.HasMember(keys.Provisional.String())
}

// MemberView is a display-ready board member.
type MemberView struct {
	Key       identity.Key
	Email     string
	IsCreator bool
}

// InviteResult describes the outcome of a successful invitation.
type InviteResult struct {
	Board            *models.Board
	MemberKey        identity.Key
	IsNewProvisional bool
}

// MembershipService reconciles provisional and confirmed identities on boards.
type MembershipService struct {
	boards    repository.BoardRepository
	directory *DirectoryService
	log       logrus.FieldLogger
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(boards repository.BoardRepository, directory *DirectoryService, log logrus.FieldLogger) *MembershipService {
	return &MembershipService{
		boards:    boards,
		directory: directory,
		log:       log,
	}
}

// ReconcileOnAccess replaces the principal's provisional key with the confirmed key
// when only the provisional one is on the board. The replacement keeps the member's
// position, and the retired key never returns. Any other state is left untouched.
func (s *MembershipService) ReconcileOnAccess(ctx context.Context, board *models.Board, keys PrincipalKeys) (*models.Board, error) {
	if !keys.HasProvisional() {
		return board, nil
	}

	provisional := keys.Provisional.String()
	confirmed := keys.Confirmed.String()
	if !board.HasMember(provisional) || board.HasMember(confirmed) {
		return board, nil
	}

	next := board.Clone()
	for i, m := range next.Members {
		if m.MemberKey == provisional {
			next.Members[i] = models.BoardMember{
				BoardID:   next.ID,
				MemberKey: confirmed,
				Email:     keys.Email,
			}
		}
	}

	migration := &repository.KeyMigration{From: provisional, To: confirmed}
	if err := s.saveMembers(ctx, next, migration); err != nil {
		return board, err
	}

	s.log.WithFields(logrus.Fields{
		"board_id":        next.ID,
		"provisional_key": provisional,
		"confirmed_key":   confirmed,
	}).Info("reconciled provisional member")

	return next, nil
}

// InviteByEmail adds the owner of email to the board. Only the board creator may
// invite; callers enforce that. Existing confirmed users are added under their
// confirmed key, everyone else under the provisional key derived from the email.
func (s *MembershipService) InviteByEmail(ctx context.Context, board *models.Board, email string) (*InviteResult, error) {
	email = identity.NormalizeEmail(email)
	provisional, err := identity.Provisional(email)
	if err != nil {
		return nil, err
	}

	memberKey := provisional
	user, err := s.directory.FindConfirmedByEmail(ctx, email)
	switch {
	case err == nil:
		confirmed, err := identity.Confirmed(user.Key)
		if err != nil {
			return nil, fmt.Errorf("directory returned unusable key %q: %w", user.Key, err)
		}
		memberKey = confirmed
	case errors.Is(err, ErrUserNotFound):
	default:
		return nil, err
	}

	// the provisional key counts too: it is replaced on the invitee's next visit
	if board.HasMember(memberKey.String()) || board.HasMember(provisional.String()) {
		return nil, ErrAlreadyMember
	}
	// a member reconciled without a directory record is only known by the cached email
	if hasCachedEmail(board, email) {
		return nil, ErrAlreadyMember
	}

	created := false
	if memberKey.IsProvisional() {
		created, err = s.directory.EnsureProvisional(ctx, memberKey)
		if err != nil {
			return nil, err
		}
	}

	next := board.Clone()
	next.Members = append(next.Members, models.BoardMember{
		BoardID:   next.ID,
		MemberKey: memberKey.String(),
		Email:     email,
	})
	if err := s.saveMembers(ctx, next, nil); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"board_id": next.ID,
		"key_kind": memberKey.Kind().String(),
	}).Info("member invited")

	return &InviteResult{
		Board:            next,
		MemberKey:        memberKey,
		IsNewProvisional: created,
	}, nil
}

// DescribeMembers lists the board's members in board order with a display email.
// Emails come from the board's cache, then the viewer's own email, then the
// provisional key itself, then the directory, and finally a masked placeholder.
func (s *MembershipService) DescribeMembers(ctx context.Context, board *models.Board, viewer PrincipalKeys) ([]MemberView, error) {
	views := make([]MemberView, 0, len(board.Members))

	for _, m := range board.Members {
		key, err := identity.Parse(m.MemberKey)
		if err != nil {
			return nil, fmt.Errorf("board %s has unusable member key %q: %w", board.ID, m.MemberKey, err)
		}

		email, err := s.displayEmail(ctx, m, key, viewer)
		if err != nil {
			return nil, err
		}

		views = append(views, MemberView{
			Key:       key,
			Email:     email,
			IsCreator: m.MemberKey == board.CreatorKey,
		})
	}

	return views, nil
}

func (s *MembershipService) displayEmail(ctx context.Context, m models.BoardMember, key identity.Key, viewer PrincipalKeys) (string, error) {
	if m.Email != "" {
		return m.Email, nil
	}
	if key == viewer.Confirmed && viewer.Email != "" {
		return viewer.Email, nil
	}
	if email, ok := key.Email(); ok {
		return email, nil
	}

	user, err := s.directory.FindByKey(ctx, key)
	switch {
	case err == nil && user.Email != "":
		return user.Email, nil
	case err == nil, errors.Is(err, ErrUserNotFound):
		return maskKey(m.MemberKey), nil
	default:
		return "", err
	}
}

func hasCachedEmail(board *models.Board, email string) bool {
	for _, m := range board.Members {
		if m.Email != "" && identity.NormalizeEmail(m.Email) == email {
			return true
		}
	}
	return false
}

func maskKey(key string) string {
	if len(key) > maskedKeyLength {
		key = key[:maskedKeyLength]
	}
	return "member-" + key
}

func (s *MembershipService) saveMembers(ctx context.Context, board *models.Board, migration *repository.KeyMigration) error {
	if err := s.boards.SaveMembers(ctx, board, migration); err != nil {
		if errors.Is(err, repository.ErrStaleBoard) {
			return ErrBoardModified
		}
		s.log.WithError(err).WithField("board_id", board.ID).Error("failed to save board members")
		return persistenceError("save board members", err)
	}
	return nil
}
