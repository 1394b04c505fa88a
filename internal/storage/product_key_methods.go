package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/restro-hq/restro-server/internal/models"
)

// GetProductKey gets a product key record by its key string
func (s *PostgresStore) GetProductKey(ctx context.Context, key string) (*models.ProductKey, error) {
	query := `
		SELECT id, created_at, updated_at, key, is_used, used_by, used_at,
		       expires_at, plan
		FROM product_keys
		WHERE key = $1`

	pk := &models.ProductKey{}
	err := s.getDB().QueryRowContext(ctx, query, key).Scan(
		&pk.ID, &pk.CreatedAt, &pk.UpdatedAt, &pk.Key, &pk.IsUsed,
		&pk.UsedBy, &pk.UsedAt, &pk.ExpiresAt, &pk.Plan,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return pk, err
}

// RedeemProductKey marks a key used by userID. The mark is a single
// conditional update so two concurrent redemptions of one key cannot
// both succeed; when no record exists yet the key is inserted already
// marked used, guarded by the unique constraint on the key column.
func (s *PostgresStore) RedeemProductKey(ctx context.Context, key string, userID uuid.UUID, plan string) error {
	now := time.Now()

	result, err := s.getDB().ExecContext(ctx, `
		UPDATE product_keys
		SET is_used = TRUE, used_by = $2, used_at = $3, updated_at = $3
		WHERE key = $1 AND is_used = FALSE`,
		key, userID, now,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 1 {
		return nil
	}

	// No unused record: either the key was never persisted or it is spent.
	// Insert a used-marked record; a conflict means someone beat us to it.
	pk := models.NewProductKey(key, plan)
	result, err = s.getDB().ExecContext(ctx, `
		INSERT INTO product_keys (
			id, created_at, updated_at, key, is_used, used_by, used_at,
			expires_at, plan
		) VALUES ($1, $2, $3, $4, TRUE, $5, $6, $7, $8)
		ON CONFLICT (key) DO NOTHING`,
		pk.ID, now, now, key, userID, now, pk.ExpiresAt, pk.Plan,
	)
	if err != nil {
		return err
	}

	rows, err = result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrKeyAlreadyUsed
	}

	return nil
}

// SeedProductKeys inserts the given keys, skipping ones already present
func (s *PostgresStore) SeedProductKeys(ctx context.Context, keys []*models.ProductKey) error {
	now := time.Now()

	for _, pk := range keys {
		if pk.ID == uuid.Nil {
			pk.ID = uuid.New()
		}
		_, err := s.getDB().ExecContext(ctx, `
			INSERT INTO product_keys (
				id, created_at, updated_at, key, is_used, used_by, used_at,
				expires_at, plan
			) VALUES ($1, $2, $3, $4, FALSE, NULL, NULL, $5, $6)
			ON CONFLICT (key) DO NOTHING`,
			pk.ID, now, now, pk.Key, pk.ExpiresAt, pk.Plan,
		)
		if err != nil {
			return err
		}
	}

	return nil
}
