package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// okHandler stands in for the protected MCP endpoint.
func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func Test_NewAuthMiddleware_Cases(t *testing.T) {
	const serverToken = "ds-7f3a21c8"

	tests := []struct {
		name       string
		token      string // configured on the middleware
		header     string // Authorization value; sendHeader false leaves it unset
		sendHeader bool
		wantStatus int
	}{
		{
			name:       "exact bearer token is accepted",
			token:      serverToken,
			header:     "Bearer ds-7f3a21c8",
			sendHeader: true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "no Authorization header",
			token:      serverToken,
			sendHeader: false,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong token value",
			token:      serverToken,
			header:     "Bearer ds-deadbeef",
			sendHeader: true,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "non-bearer scheme",
			token:      serverToken,
			header:     "Basic ZHM6ZHM=",
			sendHeader: true,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no configured token disables auth without header",
			token:      "",
			sendHeader: false,
			wantStatus: http.StatusOK,
		},
		{
			name:       "no configured token disables auth with arbitrary header",
			token:      "",
			header:     "Bearer whatever",
			sendHeader: true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "double space after Bearer",
			token:      serverToken,
			header:     "Bearer  ds-7f3a21c8",
			sendHeader: true,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty Authorization header present",
			token:      serverToken,
			header:     "",
			sendHeader: true,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Bearer prefix with nothing after it",
			token:      serverToken,
			header:     "Bearer ",
			sendHeader: true,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "bare Bearer word",
			token:      serverToken,
			header:     "Bearer",
			sendHeader: true,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "lowercase bearer prefix",
			token:      serverToken,
			header:     "bearer ds-7f3a21c8",
			sendHeader: true,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAuthMiddleware(tt.token)(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.sendHeader {
				req.Header.Set("Authorization", tt.header)
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func Test_NewAuthMiddleware_NextHandlerGating(t *testing.T) {
	const serverToken = "ds-7f3a21c8"

	tests := []struct {
		name       string
		header     string
		wantCalled bool
	}{
		{"valid token reaches the endpoint", "Bearer ds-7f3a21c8", true},
		{"invalid token never reaches the endpoint", "Bearer ds-deadbeef", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})

			handler := NewAuthMiddleware(serverToken)(next)

			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.Header.Set("Authorization", tt.header)

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if called != tt.wantCalled {
				t.Errorf("next handler called = %v, want %v", called, tt.wantCalled)
			}
		})
	}
}
