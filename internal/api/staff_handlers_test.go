package api_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restro-hq/restro-server/internal/models"
	"github.com/restro-hq/restro-server/internal/storage"
)

func TestRegisterStaff(t *testing.T) {
	h, _ := newTestServer(t)

	adminToken, adminUser := registerAdmin(t, h, keyOne, "asha@example.com")

	staff := registerStaff(t, h, adminToken, "ravi@example.com", models.RoleKitchen)
	assert.Equal(t, models.RoleKitchen, staff["role"])
	assert.Equal(t, "ravi@example.com", staff["email"])
	assert.Equal(t, adminUser["restaurantId"], staff["restaurantId"])
	assert.Equal(t, adminUser["id"], staff["createdBy"])

	employeeID, ok := staff["employeeId"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(employeeID, "KIT-"))

	// The new account can log in right away
	token := loginToken(t, h, "ravi@example.com", testPassword)
	assert.NotEmpty(t, token)
}

func TestRegisterStaffDuplicateEmail(t *testing.T) {
	h, _ := newTestServer(t)

	adminToken, _ := registerAdmin(t, h, keyOne, "asha@example.com")
	registerStaff(t, h, adminToken, "ravi@example.com", models.RoleCashier)

	rec := doJSON(t, h, http.MethodPost, "/api/users/register-staff", adminToken, map[string]interface{}{
		"name":     "Ravi Again",
		"email":    "Ravi@Example.com",
		"password": testPassword,
		"role":     models.RoleKitchen,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User already exists with this email", decode(t, rec)["message"])
}

func TestRegisterStaffValidation(t *testing.T) {
	h, store := newTestServer(t)

	adminToken, _ := registerAdmin(t, h, keyOne, "asha@example.com")

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"negative salary", map[string]interface{}{
			"name": "Ravi", "email": "ravi@example.com", "password": testPassword,
			"role": models.RoleCashier, "salary": -100.0,
		}},
		{"admin role not allowed", map[string]interface{}{
			"name": "Ravi", "email": "ravi@example.com", "password": testPassword,
			"role": models.RoleAdmin,
		}},
		{"unknown role", map[string]interface{}{
			"name": "Ravi", "email": "ravi@example.com", "password": testPassword,
			"role": "janitor",
		}},
		{"missing name", map[string]interface{}{
			"email": "ravi@example.com", "password": testPassword,
			"role": models.RoleCashier,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/api/users/register-staff", adminToken, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	_, err := store.GetUserByEmail(context.Background(), "ravi@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRegisterStaffRequiresAdmin(t *testing.T) {
	h, _ := newTestServer(t)

	adminToken, _ := registerAdmin(t, h, keyOne, "asha@example.com")
	registerStaff(t, h, adminToken, "meera@example.com", models.RoleManager)
	managerToken := loginToken(t, h, "meera@example.com", testPassword)

	rec := doJSON(t, h, http.MethodPost, "/api/users/register-staff", managerToken, map[string]interface{}{
		"name":     "Ravi",
		"email":    "ravi@example.com",
		"password": testPassword,
		"role":     models.RoleCashier,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t,
		"Access denied. Role 'manager' is not authorized to access this resource.",
		decode(t, rec)["message"])
}

func TestListStaff(t *testing.T) {
	h, _ := newTestServer(t)

	adminToken, _ := registerAdmin(t, h, keyOne, "asha@example.com")
	registerStaff(t, h, adminToken, "meera@example.com", models.RoleManager)
	registerStaff(t, h, adminToken, "ravi@example.com", models.RoleCashier)

	rec := doJSON(t, h, http.MethodGet, "/api/users/staff", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 2, body["count"])
	staff, ok := body["staff"].([]interface{})
	require.True(t, ok)
	assert.Len(t, staff, 2)

	// The admin account itself is never in the staff listing
	for _, raw := range staff {
		member := raw.(map[string]interface{})
		assert.NotEqual(t, models.RoleAdmin, member["role"])
	}

	// Managers can read the roster, cashiers cannot
	managerToken := loginToken(t, h, "meera@example.com", testPassword)
	rec = doJSON(t, h, http.MethodGet, "/api/users/staff", managerToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	cashierToken := loginToken(t, h, "ravi@example.com", testPassword)
	rec = doJSON(t, h, http.MethodGet, "/api/users/staff", cashierToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t,
		"Access denied. Role 'cashier' is not authorized to access this resource.",
		decode(t, rec)["message"])
}

func TestGetStaffMember(t *testing.T) {
	h, _ := newTestServer(t)

	adminToken, _ := registerAdmin(t, h, keyOne, "asha@example.com")
	staff := registerStaff(t, h, adminToken, "ravi@example.com", models.RoleCashier)
	staffID := staff["id"].(string)

	rec := doJSON(t, h, http.MethodGet, "/api/users/staff/"+staffID, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	member, ok := decode(t, rec)["staff"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ravi@example.com", member["email"])

	rec = doJSON(t, h, http.MethodGet, "/api/users/staff/not-a-uuid", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/users/staff/00000000-0000-0000-0000-000000000001", adminToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Staff member not found", decode(t, rec)["message"])
}

func TestUpdateStaff(t *testing.T) {
	h, _ := newTestServer(t)

	adminToken, _ := registerAdmin(t, h, keyOne, "asha@example.com")
	staff := registerStaff(t, h, adminToken, "ravi@example.com", models.RoleCashier)
	staffID := staff["id"].(string)

	rec := doJSON(t, h, http.MethodPut, "/api/users/staff/"+staffID, adminToken, map[string]interface{}{
		"salary": 30000.0,
		"status": models.StatusInactive,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	member, ok := decode(t, rec)["staff"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 30000, member["salary"])
	assert.Equal(t, models.StatusInactive, member["status"])

	// Deactivation locks the account out of login
	loginRec := login(t, h, "ravi@example.com", testPassword)
	require.Equal(t, http.StatusUnauthorized, loginRec.Code)
	assert.Equal(t, "Account is inactive. Please contact administrator.", decode(t, loginRec)["message"])

	// Invalid updates are rejected wholesale
	rec = doJSON(t, h, http.MethodPut, "/api/users/staff/"+staffID, adminToken, map[string]interface{}{
		"salary": 0.0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateStaffRequiresAdmin(t *testing.T) {
	h, _ := newTestServer(t)

	adminToken, _ := registerAdmin(t, h, keyOne, "asha@example.com")
	registerStaff(t, h, adminToken, "meera@example.com", models.RoleManager)
	staff := registerStaff(t, h, adminToken, "ravi@example.com", models.RoleCashier)
	staffID := staff["id"].(string)

	managerToken := loginToken(t, h, "meera@example.com", testPassword)

	rec := doJSON(t, h, http.MethodPut, "/api/users/staff/"+staffID, managerToken, map[string]interface{}{
		"salary": 1.0,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/users/staff/"+staffID, managerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteStaff(t *testing.T) {
	h, _ := newTestServer(t)

	adminToken, _ := registerAdmin(t, h, keyOne, "asha@example.com")
	staff := registerStaff(t, h, adminToken, "ravi@example.com", models.RoleCashier)
	staffID := staff["id"].(string)

	rec := doJSON(t, h, http.MethodDelete, "/api/users/staff/"+staffID, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Staff member deleted successfully", decode(t, rec)["message"])

	rec = doJSON(t, h, http.MethodGet, "/api/users/staff/"+staffID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaffRestaurantScope(t *testing.T) {
	h, _ := newTestServer(t)

	adminOne, _ := registerAdmin(t, h, keyOne, "asha@example.com")
	adminTwo, _ := registerAdmin(t, h, keyTwo, "meera@example.com")

	registerStaff(t, h, adminOne, "manager1@example.com", models.RoleManager)
	staffTwo := registerStaff(t, h, adminTwo, "ravi2@example.com", models.RoleCashier)
	staffTwoID := staffTwo["id"].(string)

	// Another restaurant's admin cannot read, change or remove the member
	rec := doJSON(t, h, http.MethodGet, "/api/users/staff/"+staffTwoID, adminOne, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied", decode(t, rec)["message"])

	rec = doJSON(t, h, http.MethodPut, "/api/users/staff/"+staffTwoID, adminOne, map[string]interface{}{
		"salary": 1.0,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/users/staff/"+staffTwoID, adminOne, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Nor can a manager of the other restaurant
	managerOne := loginToken(t, h, "manager1@example.com", testPassword)
	rec = doJSON(t, h, http.MethodGet, "/api/users/staff/"+staffTwoID, managerOne, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Listings stay scoped to the caller's restaurant
	rec = doJSON(t, h, http.MethodGet, "/api/users/staff", adminTwo, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])
}

func TestProfile(t *testing.T) {
	h, _ := newTestServer(t)

	adminToken, _ := registerAdmin(t, h, keyOne, "asha@example.com")
	registerStaff(t, h, adminToken, "ravi@example.com", models.RoleCashier)
	staffToken := loginToken(t, h, "ravi@example.com", testPassword)

	rec := doJSON(t, h, http.MethodGet, "/api/users/profile", staffToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user, ok := decode(t, rec)["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ravi@example.com", user["email"])

	rec = doJSON(t, h, http.MethodPut, "/api/users/profile", staffToken, map[string]interface{}{
		"name":  "Ravi K",
		"phone": "+91-9000000000",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	user, ok = decode(t, rec)["user"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Ravi K", user["name"])
	assert.Equal(t, "+91-9000000000", user["phone"])
}
