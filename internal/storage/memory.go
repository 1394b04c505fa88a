package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/restro-hq/restro-server/internal/models"
)

// MemoryStore is an in-memory Store for tests and local development.
// It mirrors the PostgresStore constraints: unique emails and employee
// identifiers, one restaurant per admin, unique product keys, and
// atomic mark-used-if-unused key redemption. Values are copied on the
// way in and out so callers never alias stored records.
type MemoryStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]models.User
	restaurants map[uuid.UUID]models.Restaurant
	keys        map[string]models.ProductKey
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[uuid.UUID]models.User),
		restaurants: make(map[uuid.UUID]models.Restaurant),
		keys:        make(map[string]models.ProductKey),
	}
}

// BeginTx returns the store itself: writes apply immediately and
// Rollback is a no-op. Sufficient for the flows exercised in tests.
func (m *MemoryStore) BeginTx(ctx context.Context) (Store, error) {
	return m, nil
}

// Commit commits the transaction
func (m *MemoryStore) Commit() error { return nil }

// Rollback rolls back the transaction
func (m *MemoryStore) Rollback() error { return nil }

// Close closes the store
func (m *MemoryStore) Close() error { return nil }

// CreateUser creates a new user
func (m *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.HireDate.IsZero() {
		user.HireDate = now
	}

	for _, existing := range m.users {
		if existing.Email == user.Email {
			return ErrDuplicateKey
		}
		if user.EmployeeID != nil && existing.EmployeeID != nil && *existing.EmployeeID == *user.EmployeeID {
			return ErrDuplicateKey
		}
	}

	m.users[user.ID] = *user
	return nil
}

// GetUser gets a user by ID
func (m *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := user
	return &out, nil
}

// GetUserByEmail gets a user by email, including the password hash
func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email = models.NormalizeEmail(email)
	for _, user := range m.users {
		if user.Email == email {
			out := user
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// UpdateUser updates a user
func (m *MemoryStore) UpdateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.users[user.ID]
	if !ok {
		return ErrNotFound
	}

	user.UpdatedAt = time.Now()
	updated := *user
	// The password hash column is not part of UpdateUser writes
	updated.PasswordHash = stored.PasswordHash
	m.users[user.ID] = updated
	return nil
}

// UpdateUserPassword replaces the stored password hash
func (m *MemoryStore) UpdateUserPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()
	m.users[id] = user
	return nil
}

// DeleteUser deletes a user
func (m *MemoryStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// ListStaff lists the non-admin users of a restaurant, newest first
func (m *MemoryStore) ListStaff(ctx context.Context, restaurantID uuid.UUID, limit, offset int) ([]*models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var staff []*models.User
	for _, user := range m.users {
		if user.Role == models.RoleAdmin {
			continue
		}
		if user.RestaurantID == nil || *user.RestaurantID != restaurantID {
			continue
		}
		out := user
		out.PasswordHash = ""
		staff = append(staff, &out)
	}

	sort.Slice(staff, func(i, j int) bool {
		return staff[i].CreatedAt.After(staff[j].CreatedAt)
	})

	total := int64(len(staff))
	if offset >= len(staff) {
		return nil, total, nil
	}
	staff = staff[offset:]
	if limit > 0 && limit < len(staff) {
		staff = staff[:limit]
	}
	return staff, total, nil
}

// CreateRestaurant creates a new restaurant
func (m *MemoryStore) CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if restaurant.ID == uuid.Nil {
		restaurant.ID = uuid.New()
	}
	now := time.Now()
	restaurant.CreatedAt = now
	restaurant.UpdatedAt = now

	for _, existing := range m.restaurants {
		if existing.AdminID == restaurant.AdminID || existing.ProductKey == restaurant.ProductKey {
			return ErrDuplicateKey
		}
	}

	m.restaurants[restaurant.ID] = *restaurant
	return nil
}

// GetRestaurant gets a restaurant by ID
func (m *MemoryStore) GetRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	restaurant, ok := m.restaurants[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := restaurant
	return &out, nil
}

// GetRestaurantByAdmin gets the restaurant owned by an admin
func (m *MemoryStore) GetRestaurantByAdmin(ctx context.Context, adminID uuid.UUID) (*models.Restaurant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, restaurant := range m.restaurants {
		if restaurant.AdminID == adminID {
			out := restaurant
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// PutRestaurant stores a restaurant as-is. Test helper for mutating
// subscription state, which the core deliberately has no write path for.
func (m *MemoryStore) PutRestaurant(restaurant *models.Restaurant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restaurants[restaurant.ID] = *restaurant
}

// GetProductKey gets a product key record by its key string
func (m *MemoryStore) GetProductKey(ctx context.Context, key string) (*models.ProductKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pk, ok := m.keys[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := pk
	return &out, nil
}

// RedeemProductKey marks a key used, atomically under the store lock
func (m *MemoryStore) RedeemProductKey(ctx context.Context, key string, userID uuid.UUID, plan string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()

	if pk, ok := m.keys[key]; ok {
		if pk.IsUsed {
			return ErrKeyAlreadyUsed
		}
		pk.IsUsed = true
		pk.UsedBy = &userID
		pk.UsedAt = &now
		pk.UpdatedAt = now
		m.keys[key] = pk
		return nil
	}

	pk := models.NewProductKey(key, plan)
	pk.IsUsed = true
	pk.UsedBy = &userID
	pk.UsedAt = &now
	pk.CreatedAt = now
	pk.UpdatedAt = now
	m.keys[key] = *pk
	return nil
}

// SeedProductKeys inserts the given keys, skipping ones already present
func (m *MemoryStore) SeedProductKeys(ctx context.Context, keys []*models.ProductKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for _, pk := range keys {
		if _, ok := m.keys[pk.Key]; ok {
			continue
		}
		if pk.ID == uuid.Nil {
			pk.ID = uuid.New()
		}
		stored := *pk
		stored.CreatedAt = now
		stored.UpdatedAt = now
		m.keys[pk.Key] = stored
	}
	return nil
}
