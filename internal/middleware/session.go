package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/szooyang/ai-project01/internal/config"
	apierrors "github.com/szooyang/ai-project01/internal/errors"
	"github.com/szooyang/ai-project01/internal/services"
)

// SessionHeader carries the session id in both directions.
const SessionHeader = config.SessionHeader

type sessionContextKey struct{}

// SessionResolver finds or opens the session for a request.
// *services.SessionStore satisfies it.
type SessionResolver interface {
	Resolve(ctx context.Context, id string) (*services.Session, bool, error)
}

// Sessions attaches the caller's session to the request context. A request
// without X-Session-ID opens a new session; an unknown or expired id is
// answered with 404 so the client can start over explicitly.
func Sessions(resolver SessionResolver, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) func(next http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(SessionHeader)
			sess, created, err := resolver.Resolve(r.Context(), id)
			if err != nil {
				if errors.Is(err, services.ErrSessionNotFound) {
					logger.InfoContext(r.Context(), "unknown session", slog.String("session_id", id))
					errorHandler.HandleError(w, r, apierrors.ErrSessionNotFound)
					return
				}
				errorHandler.HandleError(w, r, err)
				return
			}

			w.Header().Set(SessionHeader, sess.ID)
			if created {
				logger.DebugContext(r.Context(), "session opened for request", slog.String("session_id", sess.ID))
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// WithSession stores sess in ctx.
func WithSession(ctx context.Context, sess *services.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext returns the session attached by Sessions, or nil.
func SessionFromContext(ctx context.Context) *services.Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*services.Session)
	return sess
}
