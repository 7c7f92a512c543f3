package smartdesk

import "github.com/kailas-cloud/smartdesk/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrAccountNotFound        = domain.ErrAccountNotFound
	ErrInvalidTicket          = domain.ErrInvalidTicket
	ErrInvalidAccount         = domain.ErrInvalidAccount
	ErrInvalidKnowledge       = domain.ErrInvalidKnowledge
	ErrKnowledgeIndexNotReady = domain.ErrKnowledgeIndexNotReady
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrEmbeddingQuotaExceeded = domain.ErrEmbeddingQuotaExceeded
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)
