package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"empires-server/internal/auth"
	"empires-server/internal/shared/config"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{name: "header", header: "Bearer abc", want: "abc"},
		{name: "wrong scheme", header: "Basic abc", cookie: "ignored", want: ""},
		{name: "cookie", cookie: "xyz", want: "xyz"},
		{name: "none", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "auth_token", Value: tt.cookie})
			}
			if got := bearerToken(req); got != tt.want {
				t.Errorf("bearerToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJWTMiddlewareStoresClaims(t *testing.T) {
	previous := config.GlobalConfig
	config.GlobalConfig = &config.Config{Auth: config.AuthConfig{JWTSecret: strings.Repeat("m", 32), TokenExpiration: time.Hour}}
	t.Cleanup(func() { config.GlobalConfig = previous })

	token, err := auth.GenerateToken(5, "ui", auth.RoleCommander)
	if err != nil {
		t.Fatal(err)
	}

	var seen *auth.Claims
	h := JWTMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCommanderFromContext(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen == nil || seen.EmpireID != 5 {
		t.Errorf("claims = %+v", seen)
	}
}
