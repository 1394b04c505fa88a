package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Subscription statuses
const (
	SubscriptionActive    = "active"
	SubscriptionInactive  = "inactive"
	SubscriptionSuspended = "suspended"
)

// DefaultCountry is applied when a restaurant address omits the country
const DefaultCountry = "India"

// defaultSubscriptionPeriod is granted on registration
const defaultSubscriptionPeriod = 30 * 24 * time.Hour

// Restaurant represents a tenant: one restaurant's isolated account scope.
// It is created only as a side effect of admin registration.
type Restaurant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Name    string  `json:"name" db:"name"`
	Address Address `json:"address" db:"address"`
	Phone   string  `json:"phone,omitempty" db:"phone"`
	Email   string  `json:"email,omitempty" db:"email"`

	// Owning admin, exactly one per restaurant
	AdminID uuid.UUID `json:"adminId" db:"admin_id"`

	// The product key consumed to create this restaurant, unique
	ProductKey string `json:"productKey" db:"product_key"`

	Subscription Subscription `json:"subscription" db:"subscription"`

	IsActive bool `json:"isActive" db:"is_active"`
}

// NewRestaurant builds a restaurant owned by the given admin, with a fresh
// subscription on the plan tied to the consumed product key.
func NewRestaurant(name string, address *Address, phone, email string, adminID uuid.UUID, productKey, plan string) *Restaurant {
	addr := Address{}
	if address != nil {
		addr = *address
	}
	if addr.Country == "" {
		addr.Country = DefaultCountry
	}

	return &Restaurant{
		ID:         uuid.New(),
		Name:       name,
		Address:    addr,
		Phone:      phone,
		Email:      NormalizeEmail(email),
		AdminID:    adminID,
		ProductKey: productKey,
		Subscription: Subscription{
			Plan:      plan,
			Status:    SubscriptionActive,
			ExpiresAt: time.Now().Add(defaultSubscriptionPeriod),
		},
		IsActive: true,
	}
}

// HasActiveSubscription reports whether staff of this restaurant may
// authenticate: the restaurant itself and its subscription must be active.
func (r *Restaurant) HasActiveSubscription() bool {
	return r.IsActive && r.Subscription.Status == SubscriptionActive
}

// Address is a structured restaurant address, stored as JSONB
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

// Value implements driver.Valuer
func (a Address) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported address type %T", value)
	}
}

// Subscription describes a restaurant's plan state, stored as JSONB
type Subscription struct {
	Plan      string    `json:"plan"`   // starter, professional, enterprise
	Status    string    `json:"status"` // active, inactive, suspended
	ExpiresAt time.Time `json:"expiresAt"`
}

// Value implements driver.Valuer
func (s Subscription) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner
func (s *Subscription) Scan(value interface{}) error {
	if value == nil {
		*s = Subscription{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported subscription type %T", value)
	}
}
