package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/restro-hq/restro-server/internal/models"
)

// CreateUser creates a new user
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.HireDate.IsZero() {
		user.HireDate = now
	}

	query := `
		INSERT INTO users (
			id, created_at, updated_at, name, email, password_hash, role, status,
			restaurant_id, created_by, employee_id, phone, address, hire_date,
			salary, last_login_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)`

	_, err := s.getDB().ExecContext(ctx, query,
		user.ID, user.CreatedAt, user.UpdatedAt, user.Name, user.Email,
		user.PasswordHash, user.Role, user.Status, user.RestaurantID,
		user.CreatedBy, user.EmployeeID, user.Phone, user.Address,
		user.HireDate, user.Salary, user.LastLoginAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetUser gets a user by ID
func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		SELECT id, created_at, updated_at, name, email, password_hash, role, status,
		       restaurant_id, created_by, employee_id, phone, address, hire_date,
		       salary, last_login_at
		FROM users
		WHERE id = $1`

	return s.scanUser(s.getDB().QueryRowContext(ctx, query, id))
}

// GetUserByEmail gets a user by email, including the password hash.
// This is the lookup used by credential verification flows.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, created_at, updated_at, name, email, password_hash, role, status,
		       restaurant_id, created_by, employee_id, phone, address, hire_date,
		       salary, last_login_at
		FROM users
		WHERE email = $1`

	return s.scanUser(s.getDB().QueryRowContext(ctx, query, models.NormalizeEmail(email)))
}

// scanUser scans a single user row
func (s *PostgresStore) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.CreatedAt, &user.UpdatedAt, &user.Name, &user.Email,
		&user.PasswordHash, &user.Role, &user.Status, &user.RestaurantID,
		&user.CreatedBy, &user.EmployeeID, &user.Phone, &user.Address,
		&user.HireDate, &user.Salary, &user.LastLoginAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return user, err
}

// UpdateUser updates a user. The employee identifier is never touched.
func (s *PostgresStore) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users SET
			updated_at = $2, name = $3, email = $4, role = $5, status = $6,
			restaurant_id = $7, created_by = $8, phone = $9, address = $10,
			hire_date = $11, salary = $12, last_login_at = $13
		WHERE id = $1`

	result, err := s.getDB().ExecContext(ctx, query,
		user.ID, user.UpdatedAt, user.Name, user.Email, user.Role, user.Status,
		user.RestaurantID, user.CreatedBy, user.Phone, user.Address,
		user.HireDate, user.Salary, user.LastLoginAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateUserPassword replaces the stored password hash
func (s *PostgresStore) UpdateUserPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := s.getDB().ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id, passwordHash, time.Now(),
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteUser deletes a user
func (s *PostgresStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	result, err := s.getDB().ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ListStaff lists the non-admin users of a restaurant, newest first.
// Password hashes are not selected.
func (s *PostgresStore) ListStaff(ctx context.Context, restaurantID uuid.UUID, limit, offset int) ([]*models.User, int64, error) {
	countQuery := `SELECT COUNT(*) FROM users WHERE restaurant_id = $1 AND role <> 'admin'`

	var count int64
	err := s.getDB().QueryRowContext(ctx, countQuery, restaurantID).Scan(&count)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, created_at, updated_at, name, email, role, status,
		       restaurant_id, created_by, employee_id, phone, address, hire_date,
		       salary, last_login_at
		FROM users
		WHERE restaurant_id = $1 AND role <> 'admin'`
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := s.getDB().QueryContext(ctx, query, restaurantID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(
			&user.ID, &user.CreatedAt, &user.UpdatedAt, &user.Name, &user.Email,
			&user.Role, &user.Status, &user.RestaurantID, &user.CreatedBy,
			&user.EmployeeID, &user.Phone, &user.Address, &user.HireDate,
			&user.Salary, &user.LastLoginAt,
		)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}

	return users, count, rows.Err()
}
