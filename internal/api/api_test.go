package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/restro-hq/restro-server/internal/api"
	"github.com/restro-hq/restro-server/internal/config"
	"github.com/restro-hq/restro-server/internal/models"
	"github.com/restro-hq/restro-server/internal/storage"
)

const (
	keyOne   = "RPK-2024-ADMIN-001"
	keyTwo   = "RPK-2024-ADMIN-002"
	keyThree = "RPK-2024-ADMIN-003"

	testPassword = "Password1"
)

// newTestServer builds a server over an in-memory store with a fresh set
// of rate limit windows, so tests never throttle each other.
func newTestServer(t *testing.T) (http.Handler, *storage.MemoryStore) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Environment = "development"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.TokenTTL = time.Hour
	cfg.License.ValidKeys = []string{keyOne, keyTwo, keyThree}

	store := storage.NewMemoryStore()
	require.NoError(t, store.SeedProductKeys(context.Background(), []*models.ProductKey{
		models.NewProductKey(keyOne, ""),
		models.NewProductKey(keyTwo, models.PlanProfessional),
	}))

	return api.NewRESTServer(cfg, store, nil).Handler(), store
}

// doJSON performs a JSON request against the handler
func doJSON(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// doJSONWithCookie performs a request authenticated via the session
// cookie rather than the Authorization header
func doJSONWithCookie(t *testing.T, h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// decode parses the JSON response envelope
func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// registerAdmin registers an admin with their restaurant and returns the
// session token and the user payload
func registerAdmin(t *testing.T, h http.Handler, key, email string) (string, map[string]interface{}) {
	t.Helper()

	rec := doJSON(t, h, http.MethodPost, "/api/auth/register-admin", "", map[string]interface{}{
		"name":           "Asha Rao",
		"email":          email,
		"password":       testPassword,
		"productKey":     key,
		"restaurantName": "Spice Route",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	token, ok := body["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)
	user, ok := body["user"].(map[string]interface{})
	require.True(t, ok)
	return token, user
}

// registerStaff creates a staff account under the admin's restaurant
func registerStaff(t *testing.T, h http.Handler, adminToken, email, role string) map[string]interface{} {
	t.Helper()

	salary := 25000.0
	rec := doJSON(t, h, http.MethodPost, "/api/users/register-staff", adminToken, map[string]interface{}{
		"name":     "Ravi Kumar",
		"email":    email,
		"password": testPassword,
		"role":     role,
		"salary":   salary,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	user, ok := decode(t, rec)["user"].(map[string]interface{})
	require.True(t, ok)
	return user
}

// login performs a login and returns the raw response
func login(t *testing.T, h http.Handler, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	return doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": password,
	})
}

// loginToken performs a login that must succeed and returns the token
func loginToken(t *testing.T, h http.Handler, email, password string) string {
	t.Helper()

	rec := login(t, h, email, password)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token, ok := decode(t, rec)["token"].(string)
	require.True(t, ok)
	return token
}
