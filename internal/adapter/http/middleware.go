package adapthttp

import (
	"context"
	"errors"
	"net/http"

	"itemboard/internal/app"
	"itemboard/internal/domain"
)

type contextKey string

const userContextKey contextKey = "user"

// authMiddleware resolves the request's web session into a Session snapshot
// and gates owner-only routes on it. Token lookup is synchronous, so the
// loading state never occurs here.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := domain.Session{}

		if cookie, err := r.Cookie("session"); err == nil {
			user, err := s.auth.ValidateToken(r.Context(), cookie.Value)
			switch {
			case errors.Is(err, app.ErrSessionNotFound), errors.Is(err, app.ErrSessionExpired):
				// fall through logged out
			case err != nil:
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			default:
				session = domain.Session{User: user, IsLoggedIn: true}
			}
		}

		switch domain.ResolveRoute(session) {
		case domain.Allow:
			ctx := context.WithValue(r.Context(), userContextKey, session.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		case domain.ShowLoading:
			w.Header().Set("Retry-After", "1")
			http.Error(w, "session initialising", http.StatusServiceUnavailable)
		default:
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}
	})
}

// userFrom returns the authenticated user attached by authMiddleware.
func userFrom(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userContextKey).(*domain.User)
	return u
}
