package dto

import (
	"time"

	"github.com/yukikurage/task-board-api/internal/auth"
	"github.com/yukikurage/task-board-api/internal/models"
	"github.com/yukikurage/task-board-api/internal/services"
)

// PrincipalDTO represents the signed-in user in API responses
type PrincipalDTO struct {
	Key   string `json:"key"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// MemberDTO represents a board member in API responses
type MemberDTO struct {
	Key         string `json:"key"`
	Email       string `json:"email"`
	Provisional bool   `json:"provisional"`
	IsCreator   bool   `json:"is_creator"`
}

// BoardDTO represents a board in API responses
type BoardDTO struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	CreatorKey  string      `json:"creator_key"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Members     []MemberDTO `json:"members,omitempty"`
}

// BoardListItemDTO represents a board in list responses
type BoardListItemDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatorKey  string    `json:"creator_key"`
	MemberCount int       `json:"member_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InvitationDTO represents the outcome of an invitation
type InvitationDTO struct {
	MemberKey   string   `json:"member_key"`
	Provisional bool     `json:"provisional"`
	NewRecord   bool     `json:"new_record"`
	Board       BoardDTO `json:"board"`
}

// Conversion functions

// ToPrincipalDTO converts a verified principal
func ToPrincipalDTO(principal auth.Principal) PrincipalDTO {
	return PrincipalDTO{
		Key:   principal.Subject,
		Email: principal.Email,
		Name:  principal.Name,
	}
}

// ToBoardDTO converts a board and its described members
func ToBoardDTO(board models.Board, members []services.MemberView) BoardDTO {
	dto := BoardDTO{
		ID:          board.ID,
		Title:       board.Title,
		Description: board.Description,
		CreatorKey:  board.CreatorKey,
		CreatedAt:   board.CreatedAt,
		UpdatedAt:   board.UpdatedAt,
	}

	if len(members) > 0 {
		dto.Members = make([]MemberDTO, len(members))
		for i, m := range members {
			dto.Members[i] = MemberDTO{
				Key:         m.Key.String(),
				Email:       m.Email,
				Provisional: m.Key.IsProvisional(),
				IsCreator:   m.IsCreator,
			}
		}
	}

	return dto
}

// ToBoardListItemDTO converts a board to its list form
func ToBoardListItemDTO(board models.Board) BoardListItemDTO {
	return BoardListItemDTO{
		ID:          board.ID,
		Title:       board.Title,
		Description: board.Description,
		CreatorKey:  board.CreatorKey,
		MemberCount: len(board.Members),
		UpdatedAt:   board.UpdatedAt,
	}
}
