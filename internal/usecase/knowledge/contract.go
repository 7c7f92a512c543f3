package knowledge

import (
	"context"

	domkb "github.com/kailas-cloud/smartdesk/internal/domain/knowledge"
	repokb "github.com/kailas-cloud/smartdesk/internal/repository/knowledge"
)

// Repository defines the storage contract for the knowledge index.
type Repository interface {
	Replace(ctx context.Context, entries []domkb.Entry, vectors [][]float32) error
	Nearest(ctx context.Context, vector []float32, k int) ([]repokb.Hit, error)
}
