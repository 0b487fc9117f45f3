package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/nurtureapp/nurture-api/internal/security/audit"
	"github.com/nurtureapp/nurture-api/internal/security/auth"
	"github.com/nurtureapp/nurture-api/internal/security/ratelimit"
)

type UserContextKey struct{}
type ClaimsContextKey struct{}

// publicPath reports whether a path is served without authentication.
func publicPath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

// JWTMiddleware authenticates every request outside the public set. The
// mobile client expects this exact message body on 401.
func JWTMiddleware(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				unauthorized(w)
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				log.Debug("token rejected", slog.String("error", err.Error()))
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			ctx = context.WithValue(ctx, UserContextKey{}, claims.Identity())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"message":"You are not logged in."}`))
}

// RateLimitMiddleware limits requests per authenticated user. Image
// identification is limited more tightly since every call fans out to a
// paid provider.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			userID := GetUserFromContext(r.Context())

			// The strict identify budget is charged on top of the general
			// one: an identify call still counts against the user's overall
			// request allowance.
			if r.Method == http.MethodPost && r.URL.Path == "/identify" {
				if !limiter.AllowStrict(userID, 10, time.Minute) {
					tooManyRequests(w)
					return
				}
			}

			if !limiter.Allow(userID) {
				log.Warn("rate limit exceeded", slog.String("user_id", userID))
				tooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func tooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"message":"rate limit exceeded"}`))
}

// AuditMiddleware records mutating requests against plant data. The record
// is emitted after the handler runs: the ServeMux fills in pattern matches
// during its own dispatch, so path values are empty until next returns.
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			userID := GetUserFromContext(r.Context())

			switch {
			case r.Method == http.MethodPost && r.URL.Path == "/plants":
				auditLog.LogAction(r.Context(), userID, "create", "plant", "", "completed", "")
			case r.Method == http.MethodDelete:
				resource, resourceID := auditTarget(r)
				auditLog.LogAction(r.Context(), userID, "delete", resource, resourceID, "completed", "")
			case r.Method == http.MethodPut:
				resource, resourceID := auditTarget(r)
				auditLog.LogAction(r.Context(), userID, "update", resource, resourceID, "completed", "")
			}
		})
	}
}

// auditTarget names the mutated resource and its id from the matched route.
func auditTarget(r *http.Request) (string, string) {
	if rid := r.PathValue("rid"); rid != "" {
		return "reminder", rid
	}
	if token := r.PathValue("token"); token != "" {
		return "device", token
	}
	return "plant", r.PathValue("id")
}

func GetUserFromContext(ctx context.Context) string {
	if u := ctx.Value(UserContextKey{}); u != nil {
		return u.(string)
	}
	return ""
}

func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c := ctx.Value(ClaimsContextKey{}); c != nil {
		return c.(*auth.Claims)
	}
	return nil
}
