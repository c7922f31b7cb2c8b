package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name string
		ping func(ctx context.Context) error
		code int
		want string
	}{
		{"up", func(ctx context.Context) error { return nil }, http.StatusOK, `"database":"up"`},
		{"down", func(ctx context.Context) error { return errors.New("refused") }, http.StatusServiceUnavailable, `"database":"down"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewHealthHandler(zap.NewNop(), tt.ping).Check)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			if w.Code != tt.code || !strings.Contains(w.Body.String(), tt.want) {
				t.Fatalf("got %d %s", w.Code, w.Body.String())
			}
		})
	}
}
