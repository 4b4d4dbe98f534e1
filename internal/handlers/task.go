package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/task-board-api/internal/dto"
	apierrors "github.com/yukikurage/task-board-api/internal/errors"
	"github.com/yukikurage/task-board-api/internal/middleware"
	"github.com/yukikurage/task-board-api/internal/services"
	"github.com/yukikurage/task-board-api/internal/utils"
)

type TaskHandler struct {
	tasks *services.TaskService
	log   logrus.FieldLogger
}

func NewTaskHandler(tasks *services.TaskService, log logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{
		tasks: tasks,
		log:   log,
	}
}

// ListTasks returns the board's tasks with pagination
func (h *TaskHandler) ListTasks(c *gin.Context) {
	board, exists := middleware.GetBoard(c)
	if !exists {
		apierrors.NotFound(c, "Board not found")
		return
	}

	params := utils.GetPaginationParams(c)
	tasks, total, err := h.tasks.ListTasks(c.Request.Context(), board.ID, params.Window())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params, total))
}

// CreateTask creates a new task on the board
func (h *TaskHandler) CreateTask(c *gin.Context) {
	board, exists := middleware.GetBoard(c)
	if !exists {
		apierrors.NotFound(c, "Board not found")
		return
	}
	keys, _ := middleware.GetPrincipalKeys(c)

	type CreateTaskRequest struct {
		Title       string     `json:"title" binding:"required"`
		Description string     `json:"description"`
		DueDate     *time.Time `json:"due_date"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), board.ID, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		CreatorKey:  keys.Confirmed,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// GenerateTasks drafts tasks from free text using AI. Drafts are returned, not saved.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	drafts, err := h.tasks.DraftTasks(c.Request.Context(), req.Text)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": dto.ToTaskDraftDTOs(drafts),
	})
}

// CompleteTask marks a task as completed
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	board, exists := middleware.GetBoard(c)
	if !exists {
		apierrors.NotFound(c, "Board not found")
		return
	}

	task, err := h.tasks.CompleteTask(c.Request.Context(), board.ID, c.Param("task_id"))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// AssignMember assigns a board member to a task
func (h *TaskHandler) AssignMember(c *gin.Context) {
	board, exists := middleware.GetBoard(c)
	if !exists {
		apierrors.NotFound(c, "Board not found")
		return
	}

	type AssignRequest struct {
		MemberKey string `json:"member_key" binding:"required"`
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.tasks.AssignMember(c.Request.Context(), board, c.Param("task_id"), req.MemberKey)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}
