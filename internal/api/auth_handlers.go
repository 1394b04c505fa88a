package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/restro-hq/restro-server/internal/license"
	"github.com/restro-hq/restro-server/internal/models"
	"github.com/restro-hq/restro-server/internal/storage"
	"github.com/restro-hq/restro-server/pkg/crypto"
)

// HandleHealth health check
func (s *RESTServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now(),
	})
}

// HandleValidateProductKey checks a product key before registration
func (s *RESTServer) HandleValidateProductKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductKey string `json:"productKey" validate:"required,min=10"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ledger.CheckAvailability(r.Context(), req.ProductKey); err != nil {
		s.respondKeyError(w, err)
		return
	}

	s.respondMessage(w, http.StatusOK, "Product key is valid")
}

// HandleRegisterAdmin registers an admin together with their restaurant,
// gated by a product key. Credential, restaurant and key redemption are
// written in one transaction so a failure anywhere leaves no partial state.
func (s *RESTServer) HandleRegisterAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name              string          `json:"name" validate:"required,min=2,max=50"`
		Email             string          `json:"email" validate:"required,email"`
		Password          string          `json:"password" validate:"required,min=6"`
		ProductKey        string          `json:"productKey" validate:"required,min=10"`
		RestaurantName    string          `json:"restaurantName" validate:"required,min=2,max=100"`
		RestaurantAddress *models.Address `json:"restaurantAddress"`
		RestaurantPhone   string          `json:"restaurantPhone"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !passwordOK(req.Password) {
		s.respondError(w, http.StatusBadRequest,
			"Password must contain at least one uppercase letter, one lowercase letter, and one number")
		return
	}

	ctx := r.Context()

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to begin registration transaction")
		s.respondError(w, http.StatusInternalServerError, "Server error during admin registration")
		return
	}
	defer tx.Rollback()

	ledger := s.ledger.WithStore(tx)

	if err := ledger.CheckAvailability(ctx, req.ProductKey); err != nil {
		s.respondKeyError(w, err)
		return
	}

	email := models.NormalizeEmail(req.Email)
	if _, err := tx.GetUserByEmail(ctx, email); err == nil {
		s.respondError(w, http.StatusBadRequest, "User already exists with this email")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		log.Error().Err(err).Msg("Failed to check email availability")
		s.respondError(w, http.StatusInternalServerError, "Server error during admin registration")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password")
		s.respondError(w, http.StatusInternalServerError, "Server error during admin registration")
		return
	}

	admin := models.NewAdminUser(req.Name, email, hash)
	if err := tx.CreateUser(ctx, admin); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			s.respondError(w, http.StatusBadRequest, "User already exists with this email")
			return
		}
		log.Error().Err(err).Msg("Failed to create admin user")
		s.respondError(w, http.StatusInternalServerError, "Server error during admin registration")
		return
	}

	plan, err := ledger.PlanFor(ctx, req.ProductKey)
	if err != nil {
		log.Error().Err(err).Msg("Failed to resolve product key plan")
		s.respondError(w, http.StatusInternalServerError, "Server error during admin registration")
		return
	}

	restaurant := models.NewRestaurant(
		req.RestaurantName, req.RestaurantAddress, req.RestaurantPhone,
		email, admin.ID, license.Normalize(req.ProductKey), plan,
	)
	if err := tx.CreateRestaurant(ctx, restaurant); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			s.respondError(w, http.StatusBadRequest, "Product key has already been used")
			return
		}
		log.Error().Err(err).Msg("Failed to create restaurant")
		s.respondError(w, http.StatusInternalServerError, "Server error during admin registration")
		return
	}

	admin.RestaurantID = &restaurant.ID
	if err := tx.UpdateUser(ctx, admin); err != nil {
		log.Error().Err(err).Msg("Failed to link admin to restaurant")
		s.respondError(w, http.StatusInternalServerError, "Server error during admin registration")
		return
	}

	if err := ledger.Redeem(ctx, req.ProductKey, admin.ID); err != nil {
		if errors.Is(err, license.ErrKeyNotAllowed) || errors.Is(err, license.ErrKeyAlreadyUsed) {
			s.respondKeyError(w, err)
			return
		}
		log.Error().Err(err).Msg("Failed to redeem product key")
		s.respondError(w, http.StatusInternalServerError, "Server error during admin registration")
		return
	}

	if err := tx.Commit(); err != nil {
		log.Error().Err(err).Msg("Failed to commit registration transaction")
		s.respondError(w, http.StatusInternalServerError, "Server error during admin registration")
		return
	}

	log.Info().Str("email", admin.Email).Str("restaurant", restaurant.Name).Msg("Admin registered")
	s.events.AdminRegistered(admin, restaurant.ID)
	s.events.ProductKeyRedeemed(license.Normalize(req.ProductKey), admin.ID)

	s.sendTokenResponse(w, http.StatusCreated, admin)
}

// HandleLogin handles user login
func (s *RESTServer) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()

	// The unknown-email and wrong-password failures share one message
	// so callers cannot probe which addresses have accounts
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		log.Error().Err(err).Msg("Failed to look up user")
		s.respondError(w, http.StatusInternalServerError, "Server error during login")
		return
	}

	if !user.IsActive() {
		s.respondError(w, http.StatusUnauthorized, "Account is inactive. Please contact administrator.")
		return
	}

	if !s.auth.VerifyPassword(req.Password, user.PasswordHash) {
		s.respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	// Staff may log in only while their restaurant subscription is active
	if !user.IsAdmin() && user.RestaurantID != nil {
		restaurant, err := s.store.GetRestaurant(ctx, *user.RestaurantID)
		if err != nil || !restaurant.HasActiveSubscription() {
			s.respondError(w, http.StatusForbidden, "Restaurant subscription is inactive. Please contact administrator.")
			return
		}
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.store.UpdateUser(ctx, user); err != nil {
		log.Error().Err(err).Msg("Failed to stamp last login")
		s.respondError(w, http.StatusInternalServerError, "Server error during login")
		return
	}

	s.events.UserLoggedIn(user)
	s.sendTokenResponse(w, http.StatusOK, user)
}

// HandleGetCurrentUser returns the authenticated identity together with
// their restaurant, when linked
func (s *RESTServer) HandleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)

	var restaurant *models.Restaurant
	if user.RestaurantID != nil {
		restaurant, _ = s.store.GetRestaurant(r.Context(), *user.RestaurantID)
	}

	user.PasswordHash = ""
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"user":       user,
		"restaurant": restaurant,
	})
}

// HandleLogout clears the session cookie. The bearer token itself stays
// valid until its natural expiry; there is no server-side revocation.
func (s *RESTServer) HandleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearTokenCookie(w)
	s.respondMessage(w, http.StatusOK, "User logged out successfully")
}

// HandleUpdatePassword re-verifies the current password, stores a new
// hash and issues a fresh token
func (s *RESTServer) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,min=6"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := CurrentUser(r)

	if !s.auth.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
		s.respondError(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}

	hash, err := crypto.HashPassword(req.NewPassword)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password")
		s.respondError(w, http.StatusInternalServerError, "Server error during password update")
		return
	}

	if err := s.store.UpdateUserPassword(r.Context(), user.ID, hash); err != nil {
		log.Error().Err(err).Msg("Failed to update password")
		s.respondError(w, http.StatusInternalServerError, "Server error during password update")
		return
	}

	s.events.PasswordChanged(user)
	s.sendTokenResponse(w, http.StatusOK, user)
}

// respondKeyError maps ledger errors onto the public key messages
func (s *RESTServer) respondKeyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, license.ErrKeyNotAllowed):
		s.respondError(w, http.StatusBadRequest, "Invalid product key")
	case errors.Is(err, license.ErrKeyAlreadyUsed):
		s.respondError(w, http.StatusBadRequest, "Product key has already been used")
	default:
		log.Error().Err(err).Msg("Product key check failed")
		s.respondError(w, http.StatusInternalServerError, "Server error during product key validation")
	}
}

// passwordOK enforces the upper/lower/digit complexity rule
func passwordOK(password string) bool {
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}
