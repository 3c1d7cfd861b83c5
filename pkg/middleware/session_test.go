package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/logger"
)

func TestRequireSession(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantCode int
		wantErr  string
	}{
		{"missing", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"malformed", "bad id!", http.StatusBadRequest, "INVALID_INPUT"},
		{"too long", strings.Repeat("a", 129), http.StatusBadRequest, "INVALID_INPUT"},
		{"uuid", "0b9a3c1e-8f3d-4c55-9a0e-2f8d1c7b6a54", http.StatusOK, ""},
		{"dotted", "web.tab_1", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = logger.SessionIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
			if tt.header != "" {
				req.Header.Set(SessionHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantErr == "" {
				assert.Equal(t, tt.header, seen)
				return
			}

			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantErr, body.Error.Code)
			assert.Empty(t, seen)
		})
	}
}

func TestValidSessionID(t *testing.T) {
	assert.True(t, ValidSessionID("a"))
	assert.True(t, ValidSessionID(strings.Repeat("Z", 128)))
	assert.False(t, ValidSessionID(""))
	assert.False(t, ValidSessionID("semi;colon"))
	assert.False(t, ValidSessionID("space here"))
}
