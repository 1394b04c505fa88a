package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/restro-hq/restro-server/internal/auth"
	"github.com/restro-hq/restro-server/internal/config"
	"github.com/restro-hq/restro-server/internal/events"
	"github.com/restro-hq/restro-server/internal/license"
	"github.com/restro-hq/restro-server/internal/models"
	"github.com/restro-hq/restro-server/internal/storage"
	"github.com/restro-hq/restro-server/internal/validation"
)

// sessionCookie is the cookie mirroring the bearer token
const sessionCookie = "token"

// ctxKey is the context key type for request-scoped values
type ctxKey int

const userCtxKey ctxKey = iota

// RESTServer represents the REST API server
type RESTServer struct {
	config    *config.Config
	store     storage.Store
	ledger    *license.Ledger
	auth      *auth.JWTManager
	validator *validation.Validator
	events    *events.Publisher
	router    chi.Router
	server    *http.Server
}

// NewRESTServer creates a new REST API server
func NewRESTServer(cfg *config.Config, store storage.Store, publisher *events.Publisher) *RESTServer {
	s := &RESTServer{
		config:    cfg,
		store:     store,
		ledger:    license.NewLedger(cfg.License.ValidKeys, store),
		auth:      auth.NewJWTManager(&cfg.JWT),
		validator: validation.NewValidator(),
		events:    publisher,
		router:    chi.NewRouter(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all routes
func (s *RESTServer) setupRoutes() {
	// Middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		s.setupAPIRoutes(r)
	})
}

// Handler exposes the router, mainly for tests
func (s *RESTServer) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the server
func (s *RESTServer) ListenAndServe(addr string) error {
	s.server.Addr = addr
	log.Info().Str("addr", addr).Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *RESTServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// authMiddleware verifies the session token, reloads the account and
// enforces the account status and subscription gates before any handler
// runs. The resolved user is attached to the request context.
func (s *RESTServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			s.respondError(w, http.StatusUnauthorized, "Access denied. No token provided.")
			return
		}

		claims, err := s.auth.ValidateToken(token)
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "Token is not valid.")
			return
		}

		user, err := s.store.GetUser(r.Context(), claims.UserID)
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "Token is not valid. User not found.")
			return
		}

		if !user.IsActive() {
			s.respondError(w, http.StatusUnauthorized, "Account is inactive. Please contact administrator.")
			return
		}

		// Staff remain usable only while their restaurant subscription is
		if !user.IsAdmin() && user.RestaurantID != nil {
			restaurant, err := s.store.GetRestaurant(r.Context(), *user.RestaurantID)
			if err != nil || !restaurant.HasActiveSubscription() {
				s.respondError(w, http.StatusForbidden, "Restaurant subscription is inactive.")
				return
			}
		}

		ctx := context.WithValue(r.Context(), userCtxKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRoles gates a route to the given roles. Must run after
// authMiddleware.
func (s *RESTServer) requireRoles(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r)
			if user == nil {
				s.respondError(w, http.StatusUnauthorized, "Access denied. Please login first.")
				return
			}
			if !allowed[user.Role] {
				s.respondError(w, http.StatusForbidden,
					"Access denied. Role '"+user.Role+"' is not authorized to access this resource.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser returns the authenticated user attached by authMiddleware
func CurrentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(userCtxKey).(*models.User)
	return user
}

// extractToken pulls the bearer token from the Authorization header,
// falling back to the session cookie
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}

	if cookie, err := r.Cookie(sessionCookie); err == nil {
		return cookie.Value
	}

	return ""
}

// sendTokenResponse issues a session token for the user and writes it
// both as an http-only cookie and in the JSON body
func (s *RESTServer) sendTokenResponse(w http.ResponseWriter, status int, user *models.User) {
	token, err := s.auth.GenerateToken(user)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate session token")
		s.respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.auth.TokenTTL()),
		HttpOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})

	user.PasswordHash = ""
	s.respondJSON(w, status, map[string]interface{}{
		"success": true,
		"token":   token,
		"user":    user,
	})
}

// clearTokenCookie expires the session cookie
func (s *RESTServer) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
}

// respondJSON responds with JSON
func (s *RESTServer) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

// respondError responds with the standard failure envelope
func (s *RESTServer) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

// respondMessage responds with the standard success envelope
func (s *RESTServer) respondMessage(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{
		"success": true,
		"message": message,
	})
}
