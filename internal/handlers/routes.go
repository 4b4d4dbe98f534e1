package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/task-board-api/internal/auth"
	"github.com/yukikurage/task-board-api/internal/middleware"
	"github.com/yukikurage/task-board-api/internal/services"
)

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Verifier   auth.Verifier
	Directory  *services.DirectoryService
	Boards     *services.BoardService
	Membership *services.MembershipService
	Tasks      *services.TaskService
	Log        logrus.FieldLogger
}

// RegisterRoutes mounts the API on r. Session middleware must already be installed.
func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	authHandler := NewAuthHandler(deps.Verifier, deps.Directory, deps.Log)
	boardHandler := NewBoardHandler(deps.Boards, deps.Membership, deps.Log)
	taskHandler := NewTaskHandler(deps.Tasks, deps.Log)

	requireAuth := middleware.RequireAuth(deps.Verifier, deps.Directory, deps.Log)
	boardAccess := middleware.RequireBoardAccess(deps.Boards, deps.Membership, deps.Log)
	boardCreator := middleware.RequireBoardCreator()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Task Board API is running",
		})
	})

	api := r.Group("/api")
	{
		// Auth routes
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/session", authHandler.CreateSession)
			authRoutes.POST("/logout", authHandler.Logout)
			authRoutes.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		// Board routes (protected)
		boards := api.Group("/boards")
		boards.Use(requireAuth)
		{
			boards.GET("", boardHandler.ListBoards)
			boards.POST("", boardHandler.CreateBoard)
			boards.GET("/:id", boardAccess, boardHandler.GetBoard)
			boards.PUT("/:id", boardAccess, boardCreator, boardHandler.UpdateBoard)
			boards.POST("/:id/invitations", boardAccess, boardCreator, boardHandler.InviteMember)

			// Task routes, scoped to a board
			boards.GET("/:id/tasks", boardAccess, taskHandler.ListTasks)
			boards.POST("/:id/tasks", boardAccess, taskHandler.CreateTask)
			boards.POST("/:id/tasks/generate", boardAccess, taskHandler.GenerateTasks)
			boards.POST("/:id/tasks/:task_id/complete", boardAccess, taskHandler.CompleteTask)
			boards.POST("/:id/tasks/:task_id/assignees", boardAccess, taskHandler.AssignMember)
		}
	}
}
