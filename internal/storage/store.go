package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/restro-hq/restro-server/internal/models"
)

// Common errors
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrKeyAlreadyUsed = errors.New("product key already used")
)

// Store defines the storage interface
type Store interface {
	// Transaction support
	BeginTx(ctx context.Context) (Store, error)
	Commit() error
	Rollback() error

	// User methods
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	UpdateUserPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListStaff(ctx context.Context, restaurantID uuid.UUID, limit, offset int) ([]*models.User, int64, error)

	// Restaurant methods
	CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) error
	GetRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	GetRestaurantByAdmin(ctx context.Context, adminID uuid.UUID) (*models.Restaurant, error)

	// Product key methods
	GetProductKey(ctx context.Context, key string) (*models.ProductKey, error)
	RedeemProductKey(ctx context.Context, key string, userID uuid.UUID, plan string) error
	SeedProductKeys(ctx context.Context, keys []*models.ProductKey) error

	// Close the store
	Close() error
}
