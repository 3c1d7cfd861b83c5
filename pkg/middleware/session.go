package middleware

import (
	"net/http"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
)

// SessionHeader identifies the storefront session that owns a cart.
const SessionHeader = "X-Session-ID"

const maxSessionIDLen = 128

// RequireSession rejects requests without a usable X-Session-ID header and
// stores the id in context for logger.SessionIDFromContext.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if id == "" {
			httputil.WriteError(w, r, apperrors.Unauthorized("missing "+SessionHeader+" header"), nil)
			return
		}
		if !ValidSessionID(id) {
			httputil.WriteError(w, r, apperrors.InvalidInput("malformed "+SessionHeader+" header"), nil)
			return
		}

		ctx := logger.WithSessionID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ValidSessionID accepts 1-128 characters from [A-Za-z0-9._-].
func ValidSessionID(id string) bool {
	if id == "" || len(id) > maxSessionIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
