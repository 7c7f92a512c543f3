package account

import (
	"context"

	domacct "github.com/kailas-cloud/smartdesk/internal/domain/account"
)

// Repository defines the storage contract for account settings.
type Repository interface {
	Get(ctx context.Context, userID string) (domacct.Settings, error)
	Put(ctx context.Context, userID string, s domacct.Settings) error
	SetPlan(ctx context.Context, userID, plan string) error
	Create(ctx context.Context, userID string, s domacct.Settings) (bool, error)
}
