package triage

import (
	"context"

	domacct "github.com/kailas-cloud/smartdesk/internal/domain/account"
	ucknowledge "github.com/kailas-cloud/smartdesk/internal/usecase/knowledge"
)

// Retriever finds the knowledge entry nearest to a ticket's text.
type Retriever interface {
	Nearest(ctx context.Context, text string) (ucknowledge.Match, bool, error)
}

// Accounts reads and updates the account store.
type Accounts interface {
	Get(ctx context.Context, userID string) (domacct.Settings, error)
	SetPlan(ctx context.Context, userID, plan string) error
}
