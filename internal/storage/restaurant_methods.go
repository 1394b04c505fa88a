package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/restro-hq/restro-server/internal/models"
)

// CreateRestaurant creates a new restaurant
func (s *PostgresStore) CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) error {
	if restaurant.ID == uuid.Nil {
		restaurant.ID = uuid.New()
	}

	now := time.Now()
	restaurant.CreatedAt = now
	restaurant.UpdatedAt = now

	query := `
		INSERT INTO restaurants (
			id, created_at, updated_at, name, address, phone, email,
			admin_id, product_key, subscription, is_active
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)`

	_, err := s.getDB().ExecContext(ctx, query,
		restaurant.ID, restaurant.CreatedAt, restaurant.UpdatedAt,
		restaurant.Name, restaurant.Address, restaurant.Phone, restaurant.Email,
		restaurant.AdminID, restaurant.ProductKey, restaurant.Subscription,
		restaurant.IsActive,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetRestaurant gets a restaurant by ID
func (s *PostgresStore) GetRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	query := `
		SELECT id, created_at, updated_at, name, address, phone, email,
		       admin_id, product_key, subscription, is_active
		FROM restaurants
		WHERE id = $1`

	return s.scanRestaurant(s.getDB().QueryRowContext(ctx, query, id))
}

// GetRestaurantByAdmin gets the restaurant owned by an admin
func (s *PostgresStore) GetRestaurantByAdmin(ctx context.Context, adminID uuid.UUID) (*models.Restaurant, error) {
	query := `
		SELECT id, created_at, updated_at, name, address, phone, email,
		       admin_id, product_key, subscription, is_active
		FROM restaurants
		WHERE admin_id = $1`

	return s.scanRestaurant(s.getDB().QueryRowContext(ctx, query, adminID))
}

// scanRestaurant scans a single restaurant row
func (s *PostgresStore) scanRestaurant(row *sql.Row) (*models.Restaurant, error) {
	restaurant := &models.Restaurant{}
	err := row.Scan(
		&restaurant.ID, &restaurant.CreatedAt, &restaurant.UpdatedAt,
		&restaurant.Name, &restaurant.Address, &restaurant.Phone,
		&restaurant.Email, &restaurant.AdminID, &restaurant.ProductKey,
		&restaurant.Subscription, &restaurant.IsActive,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return restaurant, err
}
