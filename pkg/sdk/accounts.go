package smartdesk

import (
	"context"
	"fmt"

	domacct "github.com/kailas-cloud/smartdesk/internal/domain/account"
)

// AccountService reads and writes per-user account settings.
type AccountService struct {
	svc accountUseCase
	obs *observer
}

// Get returns the settings for userID. Missing users yield ErrAccountNotFound.
func (s *AccountService) Get(ctx context.Context, userID string) (_ Settings, err error) {
	defer s.obs.track("account_get")(&err)

	settings, err := s.svc.Get(ctx, userID)
	if err != nil {
		return Settings{}, fmt.Errorf("get account: %w", err)
	}
	return Settings{Plan: settings.Plan, Email: settings.Email}, nil
}

// Put overwrites every field of userID's settings.
func (s *AccountService) Put(ctx context.Context, userID string, settings Settings) (err error) {
	defer s.obs.track("account_put")(&err)

	if err = s.svc.Put(ctx, userID, domacct.Settings{Plan: settings.Plan, Email: settings.Email}); err != nil {
		return fmt.Errorf("put account: %w", err)
	}
	return nil
}

// SetPlan changes only the plan of an existing account; the email is kept.
// Unknown users yield ErrAccountNotFound and no record is created.
func (s *AccountService) SetPlan(ctx context.Context, userID, plan string) (err error) {
	defer s.obs.track("account_set_plan")(&err)

	if err = s.svc.SetPlan(ctx, userID, plan); err != nil {
		return fmt.Errorf("set plan: %w", err)
	}
	return nil
}
