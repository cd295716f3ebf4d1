package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		code int
	}{
		{"validation", ValidationError("bad input"), http.StatusBadRequest},
		{"conflict", ConflictError("Email already registered"), http.StatusBadRequest},
		{"authentication", AuthenticationError("Not authenticated"), http.StatusUnauthorized},
		{"authorization", AuthorizationError("Access denied"), http.StatusForbidden},
		{"not found", NotFoundError("File not found"), http.StatusNotFound},
		{"upstream", UpstreamError(), http.StatusBadGateway},
		{"server", ServerError(), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.err.WriteError(rec)

			require.Equal(t, tt.code, rec.Code)
			require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tt.err.Code, body["error"])
			require.Equal(t, tt.err.Message, body["message"])
		})
	}
}

func TestCORS(t *testing.T) {
	h := Chain(okHandler(), CORS([]string{"https://app.example.com"}))

	t.Run("allowed origin echoed with credentials", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://app.example.com")
		h.ServeHTTP(rec, req)

		require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("disallowed origin gets no CORS headers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		h.ServeHTTP(rec, req)

		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://app.example.com")
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Session-ID")
	})
}
