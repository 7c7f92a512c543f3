package usage

import domusage "github.com/kailas-cloud/smartdesk/internal/domain/usage"

// BudgetReader returns point-in-time snapshots of the token budget windows.
// Each snapshot is read atomically, so Used and Remaining always agree.
type BudgetReader interface {
	Daily() domusage.Budget
	Monthly() domusage.Budget
}
