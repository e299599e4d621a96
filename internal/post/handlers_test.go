package post

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend-picshare/internal/apperr"
	"backend-picshare/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/rs/zerolog"
)

// actingAs stands in for the guard middleware.
func actingAs(identityID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if identityID != "" {
			c.Locals("auth", auth.Authenticated(identityID))
		}
		return c.Next()
	}
}

func newTestApp(svc *Service, identityID string) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.FiberHandler(zerolog.Nop())})
	app.Use(actingAs(identityID))
	RegisterRoutes(app.Group("/posts"), svc)
	return app
}

func TestCreatePostHandler(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs(pgxmock.AnyArg(), ownerID, "https://img.example/a.jpg", "pics/a", "sunset").
		WillReturnRows(postRows())

	app := newTestApp(NewService(mock, &fakeCleanup{}, nil), ownerID)
	body, _ := json.Marshal(CreatePostInput{ImageURL: "https://img.example/a.jpg", ImagePublicID: "pics/a", Caption: "sunset"})
	req := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: %v %v", resp.StatusCode, err)
	}
	var created Post
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Owner.ID != ownerID {
		t.Fatalf("unexpected owner: %+v", created.Owner)
	}
}

func TestCreatePostHandlerAnonymous(t *testing.T) {
	app := newTestApp(NewService(newMock(t), &fakeCleanup{}, nil), "")
	body, _ := json.Marshal(CreatePostInput{ImageURL: "u", ImagePublicID: "p"})
	req := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v %v", resp.StatusCode, err)
	}
	var payload map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	if payload["message"] != "Not authenticated" {
		t.Fatalf("unexpected body: %v", payload)
	}
}

func TestDeletePostHandlerNonOwner(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM posts p JOIN identities o`).WithArgs(postID).WillReturnRows(postRows())

	app := newTestApp(NewService(mock, &fakeCleanup{}, nil), otherID)
	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/posts/"+postID, nil))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v %v", resp.StatusCode, err)
	}
}

func TestDeletePostHandler(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM posts p JOIN identities o`).WithArgs(postID).WillReturnRows(postRows())
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM posts`).
		WithArgs(postID, ownerID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	app := newTestApp(NewService(mock, &fakeCleanup{}, nil), ownerID)
	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/posts/"+postID, nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status: %v %v", resp.StatusCode, err)
	}
}

func TestToggleLikeHandler(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(toggleLikeSQL).WithArgs(postID, otherID).WillReturnRows(postRows(otherID))

	app := newTestApp(NewService(mock, &fakeCleanup{}, nil), otherID)
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/posts/"+postID+"/like", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("like status: %v %v", resp.StatusCode, err)
	}
	var updated Post
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !updated.HasLike(otherID) {
		t.Fatalf("expected like in response: %v", updated.Likes)
	}
}
