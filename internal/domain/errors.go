package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAccountNotFound signals that no settings exist for a user id.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidTicket signals a ticket that failed validation.
	ErrInvalidTicket = errors.New("invalid ticket")
	// ErrInvalidAccount signals account settings that failed validation.
	ErrInvalidAccount = errors.New("invalid account settings")
	// ErrInvalidKnowledge signals a malformed knowledge-base entry.
	ErrInvalidKnowledge = errors.New("invalid knowledge entry")
	// ErrKnowledgeIndexNotReady signals a search before the index was built.
	ErrKnowledgeIndexNotReady = errors.New("knowledge index not ready")
	// ErrVectorDimMismatch signals a query vector of the wrong size.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrInvalidPeriod signals an unknown usage reporting window.
	ErrInvalidPeriod = errors.New("invalid usage period")
)
