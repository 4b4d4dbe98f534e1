package handlers

import (
	"net/http"

	"github.com/yukikurage/task-board-api/internal/dto"
	"github.com/yukikurage/task-board-api/internal/models"
	"github.com/yukikurage/task-board-api/internal/testutil"
)

func (suite *APITestSuite) createBoard(token, title string) dto.BoardDTO {
	w := suite.request("POST", "/api/boards", map[string]string{"title": title}, withBearer(token))
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var board dto.BoardDTO
	suite.decode(w, &board)
	return board
}

func memberKeys(board dto.BoardDTO) []string {
	keys := make([]string, len(board.Members))
	for i, m := range board.Members {
		keys[i] = m.Key
	}
	return keys
}

func (suite *APITestSuite) TestCreateBoard() {
	board := suite.createBoard(suite.tokenFor("u1", "alice@x.com"), "Launch")

	suite.Equal("Launch", board.Title)
	suite.Equal("u1", board.CreatorKey)
	suite.Require().Len(board.Members, 1)
	suite.Equal("alice@x.com", board.Members[0].Email)
	suite.True(board.Members[0].IsCreator)

	w := suite.request("POST", "/api/boards", map[string]string{"title": ""}, withBearer(suite.tokenFor("u1", "alice@x.com")))
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.request("POST", "/api/boards", map[string]string{"title": "x"})
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *APITestSuite) TestInviteAndReconcile() {
	alice := suite.tokenFor("u1", "alice@x.com")
	bob := suite.tokenFor("u2", "bob@x.com")
	board := suite.createBoard(alice, "Launch")
	path := "/api/boards/" + board.ID

	w := suite.request("POST", path+"/invitations", map[string]string{"email": "bob@x.com"}, withBearer(alice))
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var invitation dto.InvitationDTO
	suite.decode(w, &invitation)
	suite.Equal("temp_bob_at_x_dot_com", invitation.MemberKey)
	suite.True(invitation.Provisional)
	suite.True(invitation.NewRecord)
	suite.Equal([]string{"u1", "temp_bob_at_x_dot_com"}, memberKeys(invitation.Board))
	suite.Equal("bob@x.com", invitation.Board.Members[1].Email)

	// the invitee sees the board before their first visit
	w = suite.request("GET", "/api/boards", nil, withBearer(bob))
	suite.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		Boards []dto.BoardListItemDTO `json:"boards"`
	}
	suite.decode(w, &list)
	suite.Require().Len(list.Boards, 1)
	suite.Equal(board.ID, list.Boards[0].ID)

	w = suite.request("GET", path, nil, withBearer(bob))
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var got dto.BoardDTO
	suite.decode(w, &got)
	suite.Equal([]string{"u1", "u2"}, memberKeys(got))
	suite.Equal("bob@x.com", got.Members[1].Email)
	suite.False(got.Members[1].Provisional)

	suite.Equal([]string{"u1", "u2"}, testutil.ReloadBoard(suite.T(), suite.db, board.ID).MemberKeys())

	// inviting a current member changes nothing
	w = suite.request("POST", path+"/invitations", map[string]string{"email": "bob@x.com"}, withBearer(alice))
	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal("ALREADY_MEMBER", suite.errorCode(w))
	suite.Equal([]string{"u1", "u2"}, testutil.ReloadBoard(suite.T(), suite.db, board.ID).MemberKeys())

	// only the creator invites
	w = suite.request("POST", path+"/invitations", map[string]string{"email": "carol@x.com"}, withBearer(bob))
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *APITestSuite) TestInvite_InvalidEmail() {
	alice := suite.tokenFor("u1", "alice@x.com")
	board := suite.createBoard(alice, "Launch")

	w := suite.request("POST", "/api/boards/"+board.ID+"/invitations", map[string]string{"email": "me_at_home@x.com"}, withBearer(alice))
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("INVALID_EMAIL", suite.errorCode(w))

	w = suite.request("POST", "/api/boards/"+board.ID+"/invitations", map[string]string{"email": "Alice@x.com"}, withBearer(alice))
	suite.Equal(http.StatusConflict, w.Code, "inviting yourself")

	suite.Equal([]string{"u1"}, testutil.ReloadBoard(suite.T(), suite.db, board.ID).MemberKeys())
}

func (suite *APITestSuite) TestGetBoard_NoStanding() {
	board := suite.createBoard(suite.tokenFor("u1", "alice@x.com"), "Private")

	w := suite.request("GET", "/api/boards/"+board.ID, nil, withBearer(suite.tokenFor("u3", "carol@x.com")))
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request("GET", "/api/boards/missing", nil, withBearer(suite.tokenFor("u1", "alice@x.com")))
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestGetBoard_PrincipalWithoutEmail() {
	testutil.CreateBoard(suite.T(), suite.db, "Pending", "u1", "temp_bob_at_x_dot_com")
	board := testutil.CreateBoard(suite.T(), suite.db, "Mine", "u2")

	// without an email the provisional membership is invisible
	w := suite.request("GET", "/api/boards", nil, withBearer(suite.tokenFor("u2", "")))
	suite.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		Boards []dto.BoardListItemDTO `json:"boards"`
	}
	suite.decode(w, &list)
	suite.Require().Len(list.Boards, 1)
	suite.Equal(board.ID, list.Boards[0].ID)
}

func (suite *APITestSuite) TestUpdateBoard() {
	board := testutil.CreateBoard(suite.T(), suite.db, "Old", "u1", "u2")
	path := "/api/boards/" + board.ID

	w := suite.request("PUT", path, map[string]string{"title": "New"}, withBearer(suite.tokenFor("u1", "alice@x.com")))
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var got dto.BoardDTO
	suite.decode(w, &got)
	suite.Equal("New", got.Title)

	w = suite.request("PUT", path, map[string]string{"title": "Mine now"}, withBearer(suite.tokenFor("u2", "bob@x.com")))
	suite.Equal(http.StatusForbidden, w.Code)

	suite.Equal("New", testutil.ReloadBoard(suite.T(), suite.db, board.ID).Title)
}

func (suite *APITestSuite) TestInvite_BearerOnlySignIn() {
	alice := suite.tokenFor("u1", "alice@x.com")
	bob := suite.tokenFor("u2", "bob@x.com")

	// bob has only ever presented a bearer token
	w := suite.request("GET", "/api/boards", nil, withBearer(bob))
	suite.Require().Equal(http.StatusOK, w.Code)

	var user models.User
	suite.Require().NoError(suite.db.Where("member_key = ?", "u2").First(&user).Error)
	suite.Equal("bob@x.com", user.Email)
	suite.False(user.Provisional)

	board := suite.createBoard(alice, "Launch")
	w = suite.request("POST", "/api/boards/"+board.ID+"/invitations", map[string]string{"email": "bob@x.com"}, withBearer(alice))
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var invitation dto.InvitationDTO
	suite.decode(w, &invitation)
	suite.Equal("u2", invitation.MemberKey)
	suite.False(invitation.Provisional)
	suite.False(invitation.NewRecord)
	suite.Equal([]string{"u1", "u2"}, memberKeys(invitation.Board))

	w = suite.request("POST", "/api/boards/"+board.ID+"/invitations", map[string]string{"email": "bob@x.com"}, withBearer(alice))
	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal([]string{"u1", "u2"}, testutil.ReloadBoard(suite.T(), suite.db, board.ID).MemberKeys())
}
