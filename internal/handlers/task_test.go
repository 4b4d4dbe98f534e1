package handlers

import (
	"net/http"
	"time"

	"github.com/yukikurage/task-board-api/internal/dto"
	"github.com/yukikurage/task-board-api/internal/models"
	"github.com/yukikurage/task-board-api/internal/services"
	"github.com/yukikurage/task-board-api/internal/testutil"
)

func (suite *APITestSuite) TestCreateAndListTasks() {
	alice := suite.tokenFor("u1", "alice@x.com")
	board := testutil.CreateBoard(suite.T(), suite.db, "Team", "u1")
	path := "/api/boards/" + board.ID + "/tasks"

	w := suite.request("POST", path, map[string]interface{}{
		"title":       "Write docs",
		"description": "README first",
		"due_date":    time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339),
	}, withBearer(alice))
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var task dto.TaskDTO
	suite.decode(w, &task)
	suite.Equal("Write docs", task.Title)
	suite.Equal(models.TaskStatusPending, task.Status)
	suite.Equal("u1", task.CreatorKey)
	suite.Empty(task.AssigneeKeys)
	suite.NotNil(task.DueDate)

	w = suite.request("POST", path, map[string]string{"title": "Review"}, withBearer(alice))
	suite.Require().Equal(http.StatusCreated, w.Code)

	w = suite.request("GET", path+"?page=1&limit=1", nil, withBearer(alice))
	suite.Require().Equal(http.StatusOK, w.Code)
	var list dto.TaskListResponse
	suite.decode(w, &list)
	suite.Len(list.Tasks, 1)
	suite.Equal(int64(2), list.Pagination.Total)
	suite.Equal(1, list.Pagination.Limit)

	w = suite.request("GET", path+"?limit=0", nil, withBearer(alice))
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &list)
	suite.Len(list.Tasks, 2)
	suite.Equal(int64(2), list.Pagination.Total)

	w = suite.request("GET", path, nil, withBearer(suite.tokenFor("u3", "carol@x.com")))
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestCompleteTask() {
	alice := suite.tokenFor("u1", "alice@x.com")
	board := testutil.CreateBoard(suite.T(), suite.db, "Team", "u1")
	task := testutil.CreateTask(suite.T(), suite.db, board.ID, "Ship", "u1")
	path := "/api/boards/" + board.ID + "/tasks/" + task.ID + "/complete"

	for i := 0; i < 2; i++ {
		w := suite.request("POST", path, nil, withBearer(alice))
		suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

		var got dto.TaskDTO
		suite.decode(w, &got)
		suite.Equal(models.TaskStatusCompleted, got.Status)
		suite.NotNil(got.CompletedAt)
	}

	other := testutil.CreateBoard(suite.T(), suite.db, "Other", "u9")
	foreign := testutil.CreateTask(suite.T(), suite.db, other.ID, "Not yours", "u9")
	w := suite.request("POST", "/api/boards/"+board.ID+"/tasks/"+foreign.ID+"/complete", nil, withBearer(alice))
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestAssignMember() {
	alice := suite.tokenFor("u1", "alice@x.com")
	board := testutil.CreateBoard(suite.T(), suite.db, "Team", "u1", "temp_bob_at_x_dot_com")
	task := testutil.CreateTask(suite.T(), suite.db, board.ID, "Ship", "u1")
	path := "/api/boards/" + board.ID + "/tasks/" + task.ID + "/assignees"

	w := suite.request("POST", path, map[string]string{"member_key": "temp_bob_at_x_dot_com"}, withBearer(alice))
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var got dto.TaskDTO
	suite.decode(w, &got)
	suite.Equal([]string{"temp_bob_at_x_dot_com"}, got.AssigneeKeys)

	w = suite.request("POST", path, map[string]string{"member_key": "u9"}, withBearer(alice))
	suite.Equal(http.StatusBadRequest, w.Code)

	// bob's first visit moves the assignment to his confirmed key
	w = suite.request("GET", "/api/boards/"+board.ID+"/tasks", nil, withBearer(suite.tokenFor("u2", "bob@x.com")))
	suite.Require().Equal(http.StatusOK, w.Code)
	var list dto.TaskListResponse
	suite.decode(w, &list)
	suite.Require().Len(list.Tasks, 1)
	suite.Equal([]string{"u2"}, list.Tasks[0].AssigneeKeys)
}

func (suite *APITestSuite) TestGenerateTasks() {
	alice := suite.tokenFor("u1", "alice@x.com")
	board := testutil.CreateBoard(suite.T(), suite.db, "Team", "u1")
	path := "/api/boards/" + board.ID + "/tasks/generate"

	w := suite.request("POST", path, map[string]string{"text": "plan the offsite"}, withBearer(alice))
	suite.Equal(http.StatusServiceUnavailable, w.Code)

	suite.buildRouter(&stubDrafter{tasks: []services.GeneratedTask{{Title: "Book venue"}}})

	w = suite.request("POST", path, map[string]string{"text": "plan the offsite"}, withBearer(alice))
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Tasks []dto.TaskDraftDTO `json:"tasks"`
	}
	suite.decode(w, &body)
	suite.Require().Len(body.Tasks, 1)
	suite.Equal("Book venue", body.Tasks[0].Title)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.Task{}).Count(&count).Error)
	suite.Zero(count, "drafts are not saved")
}
