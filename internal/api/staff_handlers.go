package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/restro-hq/restro-server/internal/models"
	"github.com/restro-hq/restro-server/internal/storage"
	"github.com/restro-hq/restro-server/pkg/crypto"
)

// HandleRegisterStaff creates a staff account scoped to the admin's
// restaurant
func (s *RESTServer) HandleRegisterStaff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string   `json:"name" validate:"required,min=2,max=50"`
		Email    string   `json:"email" validate:"required,email"`
		Password string   `json:"password" validate:"required,min=6"`
		Role     string   `json:"role" validate:"required,oneof=manager cashier kitchen"`
		Phone    string   `json:"phone"`
		Address  string   `json:"address" validate:"max=200"`
		Salary   *float64 `json:"salary" validate:"gt=0"`
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
	admin := CurrentUser(r)

	restaurant, err := s.store.GetRestaurantByAdmin(ctx, admin.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Restaurant not found")
			return
		}
		log.Error().Err(err).Msg("Failed to load restaurant")
		s.respondError(w, http.StatusInternalServerError, "Server error during staff registration")
		return
	}

	email := models.NormalizeEmail(req.Email)
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		s.respondError(w, http.StatusBadRequest, "User already exists with this email")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		log.Error().Err(err).Msg("Failed to check email availability")
		s.respondError(w, http.StatusInternalServerError, "Server error during staff registration")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password")
		s.respondError(w, http.StatusInternalServerError, "Server error during staff registration")
		return
	}

	staff, err := models.NewStaffUser(req.Name, email, hash, req.Role, restaurant.ID, admin.ID)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	staff.Phone = req.Phone
	staff.Address = req.Address
	staff.Salary = req.Salary

	if err := staff.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.CreateUser(ctx, staff); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			s.respondError(w, http.StatusBadRequest, "User already exists with this email")
			return
		}
		log.Error().Err(err).Msg("Failed to create staff user")
		s.respondError(w, http.StatusInternalServerError, "Server error during staff registration")
		return
	}

	s.events.StaffCreated(staff)

	staff.PasswordHash = ""
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Staff member registered successfully",
		"user":    staff,
	})
}

// HandleListStaff lists the staff of the requester's restaurant
func (s *RESTServer) HandleListStaff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	restaurantID, ok := s.scopedRestaurantID(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit == 0 {
		limit = 50
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	staff, total, err := s.store.ListStaff(ctx, restaurantID, limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list staff")
		s.respondError(w, http.StatusInternalServerError, "Server error while fetching staff")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   total,
		"staff":   staff,
	})
}

// HandleGetStaffMember gets one staff member of the requester's restaurant
func (s *RESTServer) HandleGetStaffMember(w http.ResponseWriter, r *http.Request) {
	staff, ok := s.scopedStaffMember(w, r)
	if !ok {
		return
	}

	staff.PasswordHash = ""
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"staff":   staff,
	})
}

// HandleUpdateStaff updates a staff member's mutable fields
func (s *RESTServer) HandleUpdateStaff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    *string  `json:"name" validate:"min=2,max=50"`
		Phone   *string  `json:"phone"`
		Address *string  `json:"address" validate:"max=200"`
		Salary  *float64 `json:"salary" validate:"gt=0"`
		Status  *string  `json:"status" validate:"oneof=active inactive"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	staff, ok := s.scopedStaffMember(w, r)
	if !ok {
		return
	}

	if req.Name != nil {
		staff.Name = *req.Name
	}
	if req.Phone != nil {
		staff.Phone = *req.Phone
	}
	if req.Address != nil {
		staff.Address = *req.Address
	}
	if req.Salary != nil {
		staff.Salary = req.Salary
	}
	if req.Status != nil {
		staff.Status = *req.Status
	}

	if err := staff.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.UpdateUser(r.Context(), staff); err != nil {
		log.Error().Err(err).Msg("Failed to update staff user")
		s.respondError(w, http.StatusInternalServerError, "Server error during staff update")
		return
	}

	s.events.StaffUpdated(staff)

	staff.PasswordHash = ""
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Staff member updated successfully",
		"staff":   staff,
	})
}

// HandleDeleteStaff permanently removes a staff member
func (s *RESTServer) HandleDeleteStaff(w http.ResponseWriter, r *http.Request) {
	staff, ok := s.scopedStaffMember(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteUser(r.Context(), staff.ID); err != nil {
		log.Error().Err(err).Msg("Failed to delete staff user")
		s.respondError(w, http.StatusInternalServerError, "Server error during staff deletion")
		return
	}

	s.events.StaffDeleted(staff)
	s.respondMessage(w, http.StatusOK, "Staff member deleted successfully")
}

// HandleGetProfile returns the requester's own profile
func (s *RESTServer) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)

	user.PasswordHash = ""
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// HandleUpdateProfile updates the requester's own contact fields
func (s *RESTServer) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    *string `json:"name" validate:"min=2,max=50"`
		Phone   *string `json:"phone"`
		Address *string `json:"address" validate:"max=200"`
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

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Address != nil {
		user.Address = *req.Address
	}

	if err := s.store.UpdateUser(r.Context(), user); err != nil {
		log.Error().Err(err).Msg("Failed to update profile")
		s.respondError(w, http.StatusInternalServerError, "Server error during profile update")
		return
	}

	user.PasswordHash = ""
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// scopedRestaurantID resolves the restaurant the requester may operate
// on: admins own one, staff carry a reference. Writes the error response
// itself when resolution fails.
func (s *RESTServer) scopedRestaurantID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	user := CurrentUser(r)

	if user.IsAdmin() {
		restaurant, err := s.store.GetRestaurantByAdmin(r.Context(), user.ID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.respondError(w, http.StatusNotFound, "Restaurant not found")
				return uuid.Nil, false
			}
			log.Error().Err(err).Msg("Failed to load restaurant")
			s.respondError(w, http.StatusInternalServerError, "Server error in restaurant access check")
			return uuid.Nil, false
		}
		return restaurant.ID, true
	}

	if user.RestaurantID == nil {
		s.respondError(w, http.StatusForbidden, "Access denied. You can only access your assigned restaurant.")
		return uuid.Nil, false
	}
	return *user.RestaurantID, true
}

// scopedStaffMember loads the staff member addressed by the route and
// enforces the restaurant-scope gate. Writes the error response itself
// when the lookup or the gate fails.
func (s *RESTServer) scopedStaffMember(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid staff id")
		return nil, false
	}

	staff, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Staff member not found")
			return nil, false
		}
		log.Error().Err(err).Msg("Failed to load staff user")
		s.respondError(w, http.StatusInternalServerError, "Server error while fetching staff member")
		return nil, false
	}

	restaurantID, ok := s.scopedRestaurantID(w, r)
	if !ok {
		return nil, false
	}

	if staff.RestaurantID == nil || *staff.RestaurantID != restaurantID {
		s.respondError(w, http.StatusForbidden, "Access denied")
		return nil, false
	}

	return staff, true
}
