package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveAuth(keys []string, method, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, http.NoBody)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	BearerAuthMiddleware(keys)(okHandler()).ServeHTTP(rr, req)
	return rr
}

func TestAuthMiddleware_NoKeysIsOpen(t *testing.T) {
	for _, keys := range [][]string{nil, {"", "  "}} {
		rr := serveAuth(keys, http.MethodDelete, "/v1/cache/all", "")
		if rr.Code != http.StatusOK {
			t.Errorf("keys %q: got %d, want %d", keys, rr.Code, http.StatusOK)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	keys := []string{"reader-key", "ops-key"}

	tests := []struct {
		name       string
		method     string
		path       string
		header     string
		wantStatus int
		wantMsg    string
	}{
		{"missing header", http.MethodGet, "/v1/games/search", "", http.StatusUnauthorized, "missing authorization header"},
		{"basic scheme", http.MethodGet, "/v1/games/search", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "authorization header must use Bearer scheme"},
		{"bearer without token", http.MethodGet, "/v1/games", "Bearer ", http.StatusUnauthorized, "authorization header must use Bearer scheme"},
		{"wrong key", http.MethodGet, "/v1/games/search", "Bearer nope", http.StatusUnauthorized, "invalid api key"},
		{"prefix of a key", http.MethodGet, "/v1/games/search", "Bearer reader", http.StatusUnauthorized, "invalid api key"},
		{"first key", http.MethodGet, "/v1/games/search", "Bearer reader-key", http.StatusOK, ""},
		{"second key", http.MethodDelete, "/v1/cache", "Bearer ops-key", http.StatusOK, ""},
		{"lowercase scheme", http.MethodGet, "/v1/games", "bearer reader-key", http.StatusOK, ""},
		{"health is open", http.MethodGet, "/health", "", http.StatusOK, ""},
		{"metrics is open", http.MethodGet, "/metrics", "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serveAuth(keys, tt.method, tt.path, tt.header)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				return
			}

			var errResp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if errResp.Code != ErrorCodeUnauthorized {
				t.Errorf("code: got %s, want %s", errResp.Code, ErrorCodeUnauthorized)
			}
			if errResp.Message != tt.wantMsg {
				t.Errorf("message: got %q, want %q", errResp.Message, tt.wantMsg)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"BEARER  abc ", "abc", true},
		{"Bearer", "", false},
		{"Token abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}
