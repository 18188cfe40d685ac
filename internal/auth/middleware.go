package auth

import (
	"context"
	"net/http"

	"github.com/linkshield/linkshield-go/internal/db"
)

type userKey struct{}

// RequireAuth rejects requests without a valid session. Lookup failures
// count as unauthenticated, not as server errors.
func (sm *SessionManager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := sm.Validate(r.Context(), r)
		if err != nil {
			sm.logger.Warn("auth: session validation failed", "err", err)
		}
		if user == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"authentication required"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(
			context.WithValue(r.Context(), userKey{}, user)))
	})
}

// GetUserFromCtx extracts the logged-in user from the request context.
func GetUserFromCtx(ctx context.Context) *db.User {
	u, _ := ctx.Value(userKey{}).(*db.User)
	return u
}
