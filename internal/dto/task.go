package dto

import (
	"time"

	"github.com/yukikurage/task-board-api/internal/models"
	"github.com/yukikurage/task-board-api/internal/services"
	"github.com/yukikurage/task-board-api/internal/utils"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID           string            `json:"id"`
	BoardID      string            `json:"board_id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Status       models.TaskStatus `json:"status"`
	DueDate      *time.Time        `json:"due_date"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	CreatorKey   string            `json:"creator_key"`
	AssigneeKeys []string          `json:"assignee_keys"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO                `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// TaskDraftDTO represents an AI drafted task
type TaskDraftDTO struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:           task.ID,
		BoardID:      task.BoardID,
		Title:        task.Title,
		Description:  task.Description,
		Status:       task.Status,
		DueDate:      task.DueDate,
		CompletedAt:  task.CompletedAt,
		CreatorKey:   task.CreatorKey,
		AssigneeKeys: task.AssigneeKeys(),
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}
}

// ToTaskListResponse converts a page of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, params utils.PaginationParams, total int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Tasks:      items,
		Pagination: params.Response(total),
	}
}

// ToTaskDraftDTOs converts AI drafts
func ToTaskDraftDTOs(drafts []services.GeneratedTask) []TaskDraftDTO {
	items := make([]TaskDraftDTO, len(drafts))
	for i, d := range drafts {
		items[i] = TaskDraftDTO{
			Title:       d.Title,
			Description: d.Description,
			DueDate:     d.DueDate,
		}
	}
	return items
}
