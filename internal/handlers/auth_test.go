package handlers

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"survey-go/internal/models"
	"survey-go/internal/repository"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type stubAdmins struct {
	admin *models.AdminUser
}

func (s *stubAdmins) GetAdminByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	if s.admin == nil || s.admin.Email != email {
		return nil, repository.ErrNotFound
	}
	return s.admin, nil
}

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Secret#123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	h := NewAuthHandler(zap.NewNop(), &stubAdmins{admin: &models.AdminUser{ID: 7, Email: "admin@example.com", PasswordHash: string(hash)}})

	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret-test-secret-test-sec"))))
	r.POST("/admin/login", h.Login)
	r.POST("/admin/logout", h.Logout)
	return r
}

func TestLogin(t *testing.T) {
	r := newAuthRouter(t)

	tests := []struct {
		name     string
		email    string
		password string
		code     int
	}{
		{"valid", " Admin@Example.com ", "Secret#123", http.StatusSeeOther},
		{"wrong password", "admin@example.com", "nope", http.StatusUnauthorized},
		{"unknown admin", "other@example.com", "Secret#123", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postForm(r, "/admin/login", url.Values{"email": {tt.email}, "password": {tt.password}})
			if w.Code != tt.code {
				t.Fatalf("got %d, want %d", w.Code, tt.code)
			}
			hasCookie := w.Header().Get("Set-Cookie") != ""
			if hasCookie != (tt.code == http.StatusSeeOther) {
				t.Fatalf("session cookie set: %v", hasCookie)
			}
			if tt.code == http.StatusSeeOther && w.Header().Get("Location") != "/admin" {
				t.Fatalf("redirected to %q", w.Header().Get("Location"))
			}
		})
	}
}

func TestLogout(t *testing.T) {
	r := newAuthRouter(t)
	w := postForm(r, "/admin/logout", nil)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/admin/login" {
		t.Fatalf("got %d to %q", w.Code, w.Header().Get("Location"))
	}
}
