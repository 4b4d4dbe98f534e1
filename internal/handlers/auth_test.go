package handlers

import (
	"net/http"

	"github.com/yukikurage/task-board-api/internal/constants"
	"github.com/yukikurage/task-board-api/internal/dto"
	"github.com/yukikurage/task-board-api/internal/models"
)

func (suite *APITestSuite) TestHealth() {
	w := suite.request("GET", "/health", nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestCreateSession_Success() {
	w := suite.request("POST", "/api/auth/session", map[string]string{
		"token": suite.tokenFor("u1", "Alice@X.com"),
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var principal dto.PrincipalDTO
	suite.decode(w, &principal)
	suite.Equal("u1", principal.Key)
	suite.Equal("alice@x.com", principal.Email)

	var user models.User
	suite.Require().NoError(suite.db.Where("member_key = ?", "u1").First(&user).Error)
	suite.Equal("alice@x.com", user.Email)
	suite.False(user.Provisional)

	// the session alone authenticates later requests
	w = suite.request("GET", "/api/auth/me", nil, withCookies(w.Result().Cookies()...))
	suite.Equal(http.StatusOK, w.Code)
	suite.decode(w, &principal)
	suite.Equal("u1", principal.Key)
}

func (suite *APITestSuite) TestCreateSession_InvalidToken() {
	w := suite.request("POST", "/api/auth/session", map[string]string{"token": "not-a-token"})
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.request("POST", "/api/auth/session", map[string]string{})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestMe_Unauthorized() {
	w := suite.request("GET", "/api/auth/me", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)

	w = suite.request("GET", "/api/auth/me", nil, withBearer("garbage"))
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal("INVALID_TOKEN", suite.errorCode(w))
}

func (suite *APITestSuite) TestMe_TokenCookie() {
	w := suite.request("GET", "/api/auth/me", nil, withCookies(&http.Cookie{
		Name:  constants.TokenCookieName,
		Value: suite.tokenFor("u2", "bob@x.com"),
	}))
	suite.Require().Equal(http.StatusOK, w.Code)

	var principal dto.PrincipalDTO
	suite.decode(w, &principal)
	suite.Equal("u2", principal.Key)
}

func (suite *APITestSuite) TestLogout() {
	w := suite.request("POST", "/api/auth/session", map[string]string{
		"token": suite.tokenFor("u1", "alice@x.com"),
	})
	suite.Require().Equal(http.StatusOK, w.Code)
	sessionCookies := w.Result().Cookies()

	w = suite.request("POST", "/api/auth/logout", nil, withCookies(sessionCookies...))
	suite.Require().Equal(http.StatusOK, w.Code)

	var tokenCleared bool
	var remaining []*http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == constants.TokenCookieName && c.MaxAge < 0 {
			tokenCleared = true
		}
		if c.MaxAge >= 0 && c.Value != "" {
			remaining = append(remaining, c)
		}
	}
	suite.True(tokenCleared, "token cookie is deleted")

	w = suite.request("GET", "/api/auth/me", nil, withCookies(remaining...))
	suite.Equal(http.StatusUnauthorized, w.Code)
}
