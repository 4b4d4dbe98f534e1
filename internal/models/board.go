package models

import "time"

type Board struct {
	ID          string    `gorm:"primarykey;type:varchar(36)" json:"id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	CreatorKey  string    `gorm:"type:varchar(255);not null;index" json:"creator_key"`
	Version     int64     `gorm:"not null;default:1" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Members []BoardMember `gorm:"foreignKey:BoardID" json:"members,omitempty"`
	Tasks   []Task        `gorm:"foreignKey:BoardID" json:"-"`
}

// BoardMember is one entry of a board's ordered member set. Email caches the
// address known for the key when the member was added.
type BoardMember struct {
	BoardID   string `gorm:"primarykey;type:varchar(36)" json:"board_id"`
	MemberKey string `gorm:"primarykey;type:varchar(255);index" json:"member_key"`
	Position  int    `gorm:"not null" json:"position"`
	Email     string `gorm:"type:varchar(255)" json:"email,omitempty"`
}

// MemberKeys returns the member keys in board order.
func (b *Board) MemberKeys() []string {
	keys := make([]string, len(b.Members))
	for i, m := range b.Members {
		keys[i] = m.MemberKey
	}
	return keys
}

// HasMember reports whether key is literally present in the member set.
func (b *Board) HasMember(key string) bool {
	for _, m := range b.Members {
		if m.MemberKey == key {
			return true
		}
	}
	return false
}

// CachedEmail returns the cached email for a member key.
func (b *Board) CachedEmail(key string) (string, bool) {
	for _, m := range b.Members {
		if m.MemberKey == key && m.Email != "" {
			return m.Email, true
		}
	}
	return "", false
}

// Clone copies the board and its member slice so callers can mutate the copy
// without affecting the original.
func (b *Board) Clone() *Board {
	c := *b
	c.Members = append([]BoardMember(nil), b.Members...)
	c.Tasks = nil
	return &c
}
