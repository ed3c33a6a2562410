package httpserver

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"messaging/internal/domain"
	"messaging/internal/identity"
)

type contextKey string

const actorContextKey contextKey = "actor"

// WithActor returns a new context carrying the resolved actor.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// CurrentActor extracts the resolved actor from the request context.
func CurrentActor(r *http.Request) (domain.Actor, bool) {
	actor, ok := r.Context().Value(actorContextKey).(domain.Actor)
	return actor, ok
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[len("Bearer "):])
}

// AuthMiddleware resolves the actor once through the identity gate and
// attaches it to the request context. Everything downstream works with the
// explicit actor, never the raw token.
func AuthMiddleware(gate *identity.Gate, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := gate.ResolveActor(r.Context(), bearerToken(r))
			if err != nil {
				log.Debug("auth failed", zap.String("path", r.URL.Path), zap.Error(err))
				writeError(w, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}
