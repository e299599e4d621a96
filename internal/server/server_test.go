package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend-picshare/internal/config"

	"github.com/rs/zerolog"
)

func newTestServer() *Server {
	return NewServer(config.Config{JWTSecret: "secret", ServerPort: ":0"}, nil, nil, nil, zerolog.Nop())
}

func TestHealthRoute(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 status")
	}
}

func TestCleanupDisabledWithoutStore(t *testing.T) {
	if newTestServer().Cleanup != nil {
		t.Fatalf("cleanup worker should be disabled without a database")
	}
}

func TestPostsRequireToken(t *testing.T) {
	s := newTestServer()

	cases := []struct {
		method, path string
	}{
		{http.MethodGet, "/posts"},
		{http.MethodGet, "/posts/f47ac10b-58cc-4372-a567-0e02b2c3d479"},
		{http.MethodPost, "/posts/f47ac10b-58cc-4372-a567-0e02b2c3d479/like"},
		{http.MethodDelete, "/posts/f47ac10b-58cc-4372-a567-0e02b2c3d479"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		resp, err := s.App.Test(req)
		if err != nil {
			t.Fatalf("%s %s: %v", tc.method, tc.path, err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", tc.method, tc.path, resp.StatusCode)
		}
	}
}

func TestLoginValidationRendersErrorBody(t *testing.T) {
	s := newTestServer()

	body, _ := json.Marshal(map[string]string{"email": "nope", "password": "x"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	var payload struct {
		Message    string `json:"message"`
		Status     int    `json:"status"`
		Violations []struct {
			Message string `json:"message"`
		} `json:"violations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Status != 422 || len(payload.Violations) != 1 || payload.Violations[0].Message != "Please enter a valid email" {
		t.Fatalf("unexpected body: %+v", payload)
	}
}
