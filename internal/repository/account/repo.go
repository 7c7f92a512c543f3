package account

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/smartdesk/internal/domain"
	domacct "github.com/kailas-cloud/smartdesk/internal/domain/account"
)

// store is the consumer interface for account settings (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSetIfExists(ctx context.Context, key string, fields map[string]string) (bool, error)
	HSetIfAbsent(ctx context.Context, key string, fields map[string]string) (bool, error)
}

const (
	fieldPlan  = "plan"
	fieldEmail = "email"
)

// Repo implements usecase/account.Repository: one hash per user.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates an account repository. keyPrefix namespaces every key, e.g. "smartdesk:".
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Get returns the settings for userID or domain.ErrAccountNotFound.
func (r *Repo) Get(ctx context.Context, userID string) (domacct.Settings, error) {
	m, err := r.store.HGetAll(ctx, r.key(userID))
	if err != nil {
		return domacct.Settings{}, fmt.Errorf("hgetall account %s: %w", userID, err)
	}
	if len(m) == 0 {
		return domacct.Settings{}, domain.ErrAccountNotFound
	}
	return domacct.Settings{Plan: m[fieldPlan], Email: m[fieldEmail]}, nil
}

// Put overwrites every field of the account.
func (r *Repo) Put(ctx context.Context, userID string, s domacct.Settings) error {
	if err := r.store.HSet(ctx, r.key(userID), fields(s)); err != nil {
		return fmt.Errorf("hset account %s: %w", userID, err)
	}
	return nil
}

// Create writes the account only if userID has no record yet.
// Reports whether the record was created.
func (r *Repo) Create(ctx context.Context, userID string, s domacct.Settings) (bool, error) {
	ok, err := r.store.HSetIfAbsent(ctx, r.key(userID), fields(s))
	if err != nil {
		return false, fmt.Errorf("create account %s: %w", userID, err)
	}
	return ok, nil
}

// SetPlan writes only the plan field, so a concurrent email update is not lost.
// Returns domain.ErrAccountNotFound instead of creating a record.
func (r *Repo) SetPlan(ctx context.Context, userID, plan string) error {
	ok, err := r.store.HSetIfExists(ctx, r.key(userID), map[string]string{fieldPlan: plan})
	if err != nil {
		return fmt.Errorf("hset plan %s: %w", userID, err)
	}
	if !ok {
		return domain.ErrAccountNotFound
	}
	return nil
}

func fields(s domacct.Settings) map[string]string {
	return map[string]string{fieldPlan: s.Plan, fieldEmail: s.Email}
}

// Key pattern: {prefix}account:{user_id}
func (r *Repo) key(userID string) string {
	return r.keyPrefix + "account:" + userID
}
