package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/task-board-api/internal/constants"
	"github.com/yukikurage/task-board-api/internal/repository"
)

func paramsFor(query string) PaginationParams {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/tasks?"+query, nil)
	return GetPaginationParams(c)
}

func TestGetPaginationParams(t *testing.T) {
	p := paramsFor("")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, constants.DefaultPageSize, p.Limit)
	assert.Equal(t, 0, p.Offset)

	p = paramsFor("page=3&limit=10")
	assert.Equal(t, repository.Page{Offset: 20, Limit: 10}, p.Window())
	assert.Equal(t, PaginationResponse{Page: 3, Limit: 10, Total: 42}, p.Response(42))

	p = paramsFor("page=-1&limit=100000")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, constants.DefaultPageSize, p.Limit)

	p = paramsFor("page=abc&limit=xyz")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, constants.DefaultPageSize, p.Limit)

	p = paramsFor("page=4&limit=0")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, repository.Page{}, p.Window(), "limit=0 lists everything")
	assert.Equal(t, PaginationResponse{Page: 1, Limit: 0, Total: 7}, p.Response(7))
}
