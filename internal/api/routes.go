package api

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/restro-hq/restro-server/internal/models"
)

// setupAPIRoutes sets up API routes
func (s *RESTServer) setupAPIRoutes(r chi.Router) {
	// Health check
	r.Get("/health", s.HandleHealth)

	// Throttles on the unauthenticated surface
	authLimiter := newRateLimiter(5, 15*time.Minute,
		"Too many authentication attempts, please try again later.")
	loginLimiter := newRateLimiter(10, 15*time.Minute,
		"Too many login attempts, please try again later.")

	// Auth routes
	r.Route("/auth", func(r chi.Router) {
		// Public
		r.With(authLimiter.middleware).Post("/validate-product-key", s.HandleValidateProductKey)
		r.With(authLimiter.middleware).Post("/register-admin", s.HandleRegisterAdmin)
		r.With(loginLimiter.middleware).Post("/login", s.HandleLogin)

		// Protected
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/me", s.HandleGetCurrentUser)
			r.Post("/logout", s.HandleLogout)
			r.Put("/updatepassword", s.HandleUpdatePassword)
		})
	})

	// User management routes
	r.Route("/users", func(r chi.Router) {
		r.Use(s.authMiddleware)

		// Staff management
		r.With(s.requireRoles(models.RoleAdmin)).Post("/register-staff", s.HandleRegisterStaff)
		r.Route("/staff", func(r chi.Router) {
			r.With(s.requireRoles(models.RoleAdmin, models.RoleManager)).Get("/", s.HandleListStaff)
			r.Route("/{id}", func(r chi.Router) {
				r.With(s.requireRoles(models.RoleAdmin, models.RoleManager)).Get("/", s.HandleGetStaffMember)
				r.With(s.requireRoles(models.RoleAdmin)).Put("/", s.HandleUpdateStaff)
				r.With(s.requireRoles(models.RoleAdmin)).Delete("/", s.HandleDeleteStaff)
			})
		})

		// Profile routes for all authenticated users
		r.Get("/profile", s.HandleGetProfile)
		r.Put("/profile", s.HandleUpdateProfile)
	})
}
