package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/subtitle-merge/backend/internal/auth"
	"github.com/subtitle-merge/backend/internal/db"
)

func newTestDB(t *testing.T) *db.Database {
	t.Helper()
	database, err := db.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	return bytes.NewReader(data)
}

func TestLogin(t *testing.T) {
	database := newTestDB(t)
	hash, err := auth.HashPassword("opensesame")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if _, err := database.CreateUser("alice", hash, "editor"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	h := NewAuthHandler(database, auth.NewJWTService("test-secret"))

	tests := []struct {
		name       string
		username   string
		password   string
		wantStatus int
	}{
		{"valid credentials", "alice", "opensesame", http.StatusOK},
		{"wrong password", "alice", "nope", http.StatusUnauthorized},
		{"unknown user", "mallory", "opensesame", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/auth/login",
				jsonBody(t, map[string]string{"username": tt.username, "password": tt.password}))
			w := httptest.NewRecorder()
			h.Login(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp loginResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Token == "" {
				t.Error("expected a token in the response")
			}
			if resp.User.Username != "alice" || resp.User.Role != "editor" {
				t.Errorf("user = %+v, want alice/editor", resp.User)
			}
		})
	}
}

func TestLoginBadBody(t *testing.T) {
	h := NewAuthHandler(newTestDB(t), auth.NewJWTService("test-secret"))
	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.Login(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
