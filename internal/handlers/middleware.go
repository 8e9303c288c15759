package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"kidcoins/internal/apperr"
	"kidcoins/internal/metrics"
	"kidcoins/internal/models"
	"kidcoins/internal/security"
	"kidcoins/internal/service"

	"github.com/sirupsen/logrus"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	ActorContextKey  ContextKey = "actor"
	ClaimsContextKey ContextKey = "claims"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	log         *logrus.Logger
	metrics     *metrics.Metrics
	limiter     *security.RateLimiter
}

// NewMiddleware creates a new middleware instance. A nil limiter disables
// rate limiting.
func NewMiddleware(authService *service.AuthService, log *logrus.Logger, m *metrics.Metrics, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		authService: authService,
		log:         log,
		metrics:     m,
		limiter:     limiter,
	}
}

// RequireAuth is middleware that requires a valid bearer token
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(AuthorizationHeader)
		token, ok := strings.CutPrefix(header, BearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			respondWithError(w, m.log, apperr.New(apperr.KindUnauthenticated, ErrMissingToken))
			return
		}

		actor, claims, err := m.authService.Authenticate(r.Context(), strings.TrimSpace(token))
		if err != nil {
			respondWithError(w, m.log, err)
			return
		}

		ctx := context.WithValue(r.Context(), ActorContextKey, actor)
		ctx = context.WithValue(ctx, ClaimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole is RequireAuth restricted to the given roles
func (m *Middleware) RequireRole(next http.HandlerFunc, roles ...models.Role) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		actor := GetActorFromContext(r.Context())
		for _, role := range roles {
			if actor.Role == role {
				next(w, r)
				return
			}
		}
		respondWithError(w, m.log, apperr.Unauthorized("this endpoint is not available to %s accounts", actor.Role))
	})
}

// RateLimit limits attempts per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow(security.GetClientIP(r)) {
			m.log.WithField("ip", security.GetClientIP(r)).Warn("rate limit exceeded")
			respondJSON(w, http.StatusTooManyRequests, errorResponse{Error: ErrTooManyRequests})
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Logging middleware logs HTTP requests and records their latency
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.metrics.ObserveRequest(r.Method, route, rec.status, elapsed)
		m.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": elapsed,
		}).Info("request")
	})
}

// GetActorFromContext retrieves the authenticated actor from the request context
func GetActorFromContext(ctx context.Context) service.Actor {
	actor, _ := ctx.Value(ActorContextKey).(service.Actor)
	return actor
}

// GetClaimsFromContext retrieves the token claims from the request context
func GetClaimsFromContext(ctx context.Context) *security.Claims {
	claims, _ := ctx.Value(ClaimsContextKey).(*security.Claims)
	return claims
}
