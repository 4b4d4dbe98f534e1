package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

type Task struct {
	ID          string     `gorm:"primarykey;type:varchar(36)" json:"id"`
	BoardID     string     `gorm:"type:varchar(36);not null;index" json:"board_id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	CreatorKey  string     `gorm:"type:varchar(255);not null" json:"creator_key"`
	Status      TaskStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	DueDate     *time.Time `json:"due_date"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Assignees []TaskAssignee `gorm:"foreignKey:TaskID" json:"assignees,omitempty"`
}

type TaskAssignee struct {
	TaskID    string    `gorm:"primarykey;type:varchar(36)" json:"task_id"`
	MemberKey string    `gorm:"primarykey;type:varchar(255);index" json:"member_key"`
	CreatedAt time.Time `json:"created_at"`
}

// AssigneeKeys returns the assigned member keys.
func (t *Task) AssigneeKeys() []string {
	keys := make([]string, len(t.Assignees))
	for i, a := range t.Assignees {
		keys[i] = a.MemberKey
	}
	return keys
}
