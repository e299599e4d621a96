package feed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend-picshare/internal/apperr"
	"backend-picshare/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(svc *Service, actor auth.Context) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.FiberHandler(zerolog.Nop())})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("auth", actor)
		return c.Next()
	})
	RegisterRoutes(app.Group("/posts"), svc)
	return app
}

func TestListPostsHandler(t *testing.T) {
	mock := newMock(t)
	expectFeedQueries(mock)

	app := newTestApp(newFeed(mock, nil), auth.Authenticated(viewerID))
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/posts", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Posts []map[string]any `json:"posts"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Posts, 2)
	assert.Contains(t, body.Posts[0], "latest_comment")
	assert.Nil(t, body.Posts[0]["latest_comment"])
	assert.NotNil(t, body.Posts[1]["latest_comment"])
}

func TestListPostsHandlerAnonymous(t *testing.T) {
	mock := newMock(t)
	app := newTestApp(newFeed(mock, nil), auth.Context{})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/posts", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPostHandlerWrongURL(t *testing.T) {
	mock := newMock(t)
	app := newTestApp(newFeed(mock, nil), auth.Authenticated(viewerID))
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/posts/short", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Post unavailable! Wrong URL", body["message"])
}
