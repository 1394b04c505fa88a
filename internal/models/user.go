package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/restro-hq/restro-server/pkg/crypto"
)

// User roles
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleCashier = "cashier"
	RoleKitchen = "kitchen"
)

// User statuses
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// employeeIDPrefix maps a staff role to its employee ID prefix
var employeeIDPrefix = map[string]string{
	RoleManager: "MGR",
	RoleCashier: "CSH",
	RoleKitchen: "KIT",
}

// User represents a back-office account. Admins own a restaurant;
// staff belong to one and carry a generated employee identifier.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`

	PasswordHash string `json:"-" db:"password_hash"`

	Role   string `json:"role" db:"role"`     // admin, manager, cashier, kitchen
	Status string `json:"status" db:"status"` // active, inactive

	RestaurantID *uuid.UUID `json:"restaurantId,omitempty" db:"restaurant_id"`
	CreatedBy    *uuid.UUID `json:"createdBy,omitempty" db:"created_by"`

	// Assigned once at creation for staff roles, immutable afterwards
	EmployeeID *string `json:"employeeId,omitempty" db:"employee_id"`

	Phone    string     `json:"phone,omitempty" db:"phone"`
	Address  string     `json:"address,omitempty" db:"address"`
	HireDate time.Time  `json:"hireDate" db:"hire_date"`
	Salary   *float64   `json:"salary,omitempty" db:"salary"`

	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
}

// NewAdminUser builds an owner-admin account. The restaurant reference is
// back-filled once the restaurant row exists.
func NewAdminUser(name, email, passwordHash string) *User {
	return &User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         RoleAdmin,
		Status:       StatusActive,
		HireDate:     time.Now(),
	}
}

// NewStaffUser builds a staff account scoped to a restaurant. The employee
// identifier is generated here and never changes.
func NewStaffUser(name, email, passwordHash, role string, restaurantID, createdBy uuid.UUID) (*User, error) {
	if _, ok := employeeIDPrefix[role]; !ok {
		return nil, fmt.Errorf("invalid staff role %q", role)
	}

	employeeID, err := NewEmployeeID(role)
	if err != nil {
		return nil, fmt.Errorf("generate employee id: %w", err)
	}

	return &User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         role,
		Status:       StatusActive,
		RestaurantID: &restaurantID,
		CreatedBy:    &createdBy,
		EmployeeID:   &employeeID,
		HireDate:     time.Now(),
	}, nil
}

// NewEmployeeID synthesizes a human-readable staff identifier: a role
// prefix, the last six digits of the current unix-milli timestamp and
// three random base36 characters, e.g. MGR-847201-X4B.
func NewEmployeeID(role string) (string, error) {
	prefix, ok := employeeIDPrefix[role]
	if !ok {
		return "", fmt.Errorf("no employee id prefix for role %q", role)
	}

	ts := fmt.Sprintf("%d", time.Now().UnixMilli())
	if len(ts) > 6 {
		ts = ts[len(ts)-6:]
	}

	random, err := crypto.RandomBase36(3)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%s-%s", prefix, ts, random), nil
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAdmin reports whether the user holds the owner-admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsActive reports whether the account may authenticate
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// Validate checks the role-conditioned field requirements before a write.
// Staff accounts must carry a restaurant reference, a creator reference
// and an employee identifier; admins must not carry a creator.
func (u *User) Validate() error {
	if u.Name == "" {
		return fmt.Errorf("name is required")
	}
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("password hash is required")
	}

	switch u.Role {
	case RoleAdmin:
		if u.CreatedBy != nil {
			return fmt.Errorf("admin accounts cannot have a creator")
		}
	case RoleManager, RoleCashier, RoleKitchen:
		if u.RestaurantID == nil {
			return fmt.Errorf("staff accounts require a restaurant")
		}
		if u.CreatedBy == nil {
			return fmt.Errorf("staff accounts require a creator")
		}
		if u.EmployeeID == nil || *u.EmployeeID == "" {
			return fmt.Errorf("staff accounts require an employee id")
		}
	default:
		return fmt.Errorf("invalid role %q", u.Role)
	}

	if u.Salary != nil && *u.Salary <= 0 {
		return fmt.Errorf("salary must be greater than zero")
	}

	return nil
}
