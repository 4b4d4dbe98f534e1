package models

import (
	"time"
)

// User is an Identity Directory record. Key is the persisted member key: the oracle
// subject for confirmed users, the derived provisional key for invitees.
type User struct {
	Key         string    `gorm:"column:member_key;primarykey;type:varchar(255)" json:"key"`
	Email       string    `gorm:"type:varchar(255);index;not null" json:"email"`
	DisplayName string    `gorm:"type:varchar(255)" json:"display_name,omitempty"`
	Provisional bool      `gorm:"not null;default:false;index" json:"provisional"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
