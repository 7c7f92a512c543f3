package account

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/smartdesk/internal/domain"
	domacct "github.com/kailas-cloud/smartdesk/internal/domain/account"
)

// Service is the account store used by the HTTP layer and the triage rules.
type Service struct {
	repo Repository
}

// New creates an account service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the settings for userID or domain.ErrAccountNotFound.
func (s *Service) Get(ctx context.Context, userID string) (domacct.Settings, error) {
	userID, err := normalizeID(userID)
	if err != nil {
		return domacct.Settings{}, err
	}
	settings, err := s.repo.Get(ctx, userID)
	if err != nil {
		return domacct.Settings{}, fmt.Errorf("get account: %w", err)
	}
	return settings, nil
}

// Put overwrites every field of userID's settings.
func (s *Service) Put(ctx context.Context, userID string, settings domacct.Settings) error {
	userID, err := normalizeID(userID)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidAccount, err)
	}
	if err := s.repo.Put(ctx, userID, settings); err != nil {
		return fmt.Errorf("put account: %w", err)
	}
	return nil
}

// SetPlan replaces the plan and keeps the email. Unknown users get
// domain.ErrAccountNotFound and no record is created.
func (s *Service) SetPlan(ctx context.Context, userID, plan string) error {
	userID, err := normalizeID(userID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(plan) == "" {
		return fmt.Errorf("plan is required: %w", domain.ErrInvalidAccount)
	}
	if err := s.repo.SetPlan(ctx, userID, plan); err != nil {
		return fmt.Errorf("set plan: %w", err)
	}
	return nil
}

// Seed creates the given accounts that have no record yet; existing records
// are left as they are. Returns the number of accounts created.
func (s *Service) Seed(ctx context.Context, accounts map[string]domacct.Settings) (int, error) {
	ids := make([]string, 0, len(accounts))
	for id := range accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	created := 0
	for _, id := range ids {
		settings := accounts[id]
		key, err := normalizeID(id)
		if err != nil {
			return created, fmt.Errorf("seed account %q: %w", id, err)
		}
		if err := settings.Validate(); err != nil {
			return created, fmt.Errorf("seed account %s: %w: %v", id, domain.ErrInvalidAccount, err)
		}
		ok, err := s.repo.Create(ctx, key, settings)
		if err != nil {
			return created, fmt.Errorf("seed account %s: %w", id, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// normalizeID trims userID the same way ticket.New does.
func normalizeID(userID string) (string, error) {
	id := strings.TrimSpace(userID)
	if id == "" {
		return "", fmt.Errorf("user id is required: %w", domain.ErrInvalidAccount)
	}
	return id, nil
}
