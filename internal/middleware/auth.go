package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/friendstransport/fleetgo/internal/apperr"
	"github.com/friendstransport/fleetgo/internal/models"
	"github.com/friendstransport/fleetgo/internal/utils"
)

type contextKey string

const actorContextKey contextKey = "actor"

// AuthMiddleware verifies the bearer token and puts the acting employee in the request context
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				deny(w, apperr.Unauthorized("authorization header required"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				deny(w, apperr.Unauthorized("invalid authorization header format"))
				return
			}

			actor, err := utils.ValidateToken(parts[1], secret)
			if err != nil {
				deny(w, apperr.Unauthorized("invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RequireAdmin lets only admins through. It must run after AuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			deny(w, apperr.Unauthorized("authentication required"))
			return
		}
		if !actor.IsAdmin() {
			deny(w, apperr.Forbidden("admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithActor stores the acting employee in ctx
func WithActor(ctx context.Context, actor models.EmployeeContext) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFromContext returns the acting employee set by AuthMiddleware
func ActorFromContext(ctx context.Context) (models.EmployeeContext, bool) {
	actor, ok := ctx.Value(actorContextKey).(models.EmployeeContext)
	return actor, ok
}

func deny(w http.ResponseWriter, err *apperr.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.HTTPStatus(err.Kind))
	json.NewEncoder(w).Encode(map[string]string{
		"error": err.Message,
		"kind":  string(err.Kind),
	})
}
