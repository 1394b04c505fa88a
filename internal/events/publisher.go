// Package events publishes audit events for the back-office over NATS.
// Publishing is fire-and-forget: failures are logged, never surfaced to
// the request that triggered them. A nil publisher discards everything,
// so the server runs standalone when NATS is not configured.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/restro-hq/restro-server/internal/models"
)

// Audit event types
const (
	EventAdminRegistered    = "admin.registered"
	EventUserLoggedIn       = "user.login"
	EventPasswordChanged    = "user.password_changed"
	EventStaffCreated       = "staff.created"
	EventStaffUpdated       = "staff.updated"
	EventStaffDeleted       = "staff.deleted"
	EventProductKeyRedeemed = "key.redeemed"
)

const subjectPrefix = "backoffice.audit."

// Event is the wire form of an audit event
type Event struct {
	Type         string     `json:"type"`
	Time         time.Time  `json:"time"`
	UserID       uuid.UUID  `json:"userId"`
	Email        string     `json:"email,omitempty"`
	Role         string     `json:"role,omitempty"`
	RestaurantID *uuid.UUID `json:"restaurantId,omitempty"`
	ProductKey   string     `json:"productKey,omitempty"`
}

// Publisher publishes audit events
type Publisher struct {
	nc *nats.Conn
}

// NewPublisher creates a publisher over an established NATS connection
func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc}
}

// publish serializes and sends one event
func (p *Publisher) publish(event Event) {
	if p == nil || p.nc == nil {
		return
	}

	event.Time = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("Failed to marshal audit event")
		return
	}

	if err := p.nc.Publish(subjectPrefix+event.Type, data); err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("Failed to publish audit event")
	}
}

// AdminRegistered records a successful admin + restaurant registration
func (p *Publisher) AdminRegistered(user *models.User, restaurantID uuid.UUID) {
	p.publish(Event{
		Type:         EventAdminRegistered,
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		RestaurantID: &restaurantID,
	})
}

// UserLoggedIn records a successful login
func (p *Publisher) UserLoggedIn(user *models.User) {
	p.publish(Event{
		Type:         EventUserLoggedIn,
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		RestaurantID: user.RestaurantID,
	})
}

// PasswordChanged records a password update
func (p *Publisher) PasswordChanged(user *models.User) {
	p.publish(Event{
		Type:   EventPasswordChanged,
		UserID: user.ID,
		Email:  user.Email,
	})
}

// StaffCreated records a new staff account
func (p *Publisher) StaffCreated(user *models.User) {
	p.publish(Event{
		Type:         EventStaffCreated,
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		RestaurantID: user.RestaurantID,
	})
}

// StaffUpdated records a staff account change
func (p *Publisher) StaffUpdated(user *models.User) {
	p.publish(Event{
		Type:         EventStaffUpdated,
		UserID:       user.ID,
		Role:         user.Role,
		RestaurantID: user.RestaurantID,
	})
}

// StaffDeleted records a staff account removal
func (p *Publisher) StaffDeleted(user *models.User) {
	p.publish(Event{
		Type:         EventStaffDeleted,
		UserID:       user.ID,
		Email:        user.Email,
		RestaurantID: user.RestaurantID,
	})
}

// ProductKeyRedeemed records a license key consumption
func (p *Publisher) ProductKeyRedeemed(key string, userID uuid.UUID) {
	p.publish(Event{
		Type:       EventProductKeyRedeemed,
		UserID:     userID,
		ProductKey: key,
	})
}
