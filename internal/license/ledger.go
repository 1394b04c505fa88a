// Package license implements the product key ledger gating restaurant
// registration. Validity is two-tiered: membership in a configured
// allow-list, plus persisted single-use state in storage. A key can be
// syntactically valid yet already spent.
package license

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/restro-hq/restro-server/internal/models"
	"github.com/restro-hq/restro-server/internal/storage"
)

// Ledger errors
var (
	ErrKeyNotAllowed  = errors.New("invalid product key")
	ErrKeyAlreadyUsed = errors.New("product key has already been used")
)

// Ledger validates and redeems product keys. The allow-list is injected
// at construction and never mutated.
type Ledger struct {
	allowed map[string]struct{}
	store   storage.Store
}

// NewLedger builds a ledger over the configured allow-list and a store
func NewLedger(validKeys []string, store storage.Store) *Ledger {
	allowed := make(map[string]struct{}, len(validKeys))
	for _, k := range validKeys {
		allowed[Normalize(k)] = struct{}{}
	}
	return &Ledger{allowed: allowed, store: store}
}

// WithStore returns a ledger bound to another store, typically an open
// transaction, sharing the same allow-list.
func (l *Ledger) WithStore(store storage.Store) *Ledger {
	return &Ledger{allowed: l.allowed, store: store}
}

// Normalize case-normalizes a key string
func Normalize(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// IsAllowed reports allow-list membership
func (l *Ledger) IsAllowed(key string) bool {
	_, ok := l.allowed[Normalize(key)]
	return ok
}

// CheckAvailability reports whether a key can still be redeemed.
// Returns ErrKeyNotAllowed or ErrKeyAlreadyUsed, nil when available.
func (l *Ledger) CheckAvailability(ctx context.Context, key string) error {
	if !l.IsAllowed(key) {
		return ErrKeyNotAllowed
	}

	pk, err := l.store.GetProductKey(ctx, Normalize(key))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Allow-listed but never persisted: available, the record
			// is created lazily at redemption
			return nil
		}
		return err
	}

	if pk.IsUsed {
		return ErrKeyAlreadyUsed
	}

	return nil
}

// PlanFor returns the plan tier tied to a key. Keys without a persisted
// record default to the starter plan.
func (l *Ledger) PlanFor(ctx context.Context, key string) (string, error) {
	pk, err := l.store.GetProductKey(ctx, Normalize(key))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.PlanStarter, nil
		}
		return "", err
	}
	if pk.Plan == "" {
		return models.PlanStarter, nil
	}
	return pk.Plan, nil
}

// Redeem consumes a key, attributing usage to userID. The storage layer
// performs the mark-used-if-unused step atomically, so at most one
// caller wins a given key.
func (l *Ledger) Redeem(ctx context.Context, key string, userID uuid.UUID) error {
	if !l.IsAllowed(key) {
		return ErrKeyNotAllowed
	}

	plan, err := l.PlanFor(ctx, key)
	if err != nil {
		return err
	}

	if err := l.store.RedeemProductKey(ctx, Normalize(key), userID, plan); err != nil {
		if errors.Is(err, storage.ErrKeyAlreadyUsed) {
			return ErrKeyAlreadyUsed
		}
		return err
	}

	return nil
}
