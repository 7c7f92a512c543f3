package chi

import (
	"time"

	domacct "github.com/kailas-cloud/smartdesk/internal/domain/account"
	domkb "github.com/kailas-cloud/smartdesk/internal/domain/knowledge"
	domtriage "github.com/kailas-cloud/smartdesk/internal/domain/triage"
)

// ErrorCode is a machine-readable error code in ErrorResponse.
type ErrorCode string

// Error codes returned by the API.
const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeUnauthorized           ErrorCode = "unauthorized"
	ErrorCodeValidationFailed       ErrorCode = "validation_failed"
	ErrorCodeAccountNotFound        ErrorCode = "account_not_found"
	ErrorCodeNotFound               ErrorCode = "not_found"
	ErrorCodeEmbeddingQuotaExceeded ErrorCode = "embedding_quota_exceeded"
	ErrorCodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	ErrorCodeKnowledgeIndexNotReady ErrorCode = "knowledge_index_not_ready"
	ErrorCodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// TicketRequest is the body of POST /tickets.
type TicketRequest struct {
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// MatchResponse describes the knowledge entry that resolved a ticket.
type MatchResponse struct {
	EntryID  string  `json:"entry_id"`
	Title    string  `json:"title"`
	Distance float64 `json:"distance"`
}

// TicketResponse is the triage outcome.
type TicketResponse struct {
	TicketID       string         `json:"ticket_id"`
	UserID         string         `json:"user_id"`
	Status         string         `json:"status"`
	Rule           string         `json:"rule"`
	Reply          string         `json:"reply,omitempty"`
	Draft          string         `json:"draft,omitempty"`
	Reason         string         `json:"reason,omitempty"`
	EscalationNote string         `json:"escalation_note,omitempty"`
	Logs           []string       `json:"logs"`
	Match          *MatchResponse `json:"match,omitempty"`
}

// AccountRequest is the body of PUT /accounts/{user_id}.
type AccountRequest struct {
	Plan  string `json:"plan"`
	Email string `json:"email"`
}

// AccountResponse is a user's account settings.
type AccountResponse struct {
	UserID string `json:"user_id"`
	Plan   string `json:"plan"`
	Email  string `json:"email"`
}

// KnowledgeEntryResponse is one knowledge-base entry.
type KnowledgeEntryResponse struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// KnowledgeListResponse is the body of GET /knowledge.
type KnowledgeListResponse struct {
	Items []KnowledgeEntryResponse `json:"items"`
	Total int                      `json:"total"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

// BudgetStatus is the embedding token budget for the reported window.
// Limit and remaining are omitted when no cap is configured.
type BudgetStatus struct {
	TokensUsed      int64      `json:"tokens_used"`
	TokensLimit     *int64     `json:"tokens_limit,omitempty"`
	TokensRemaining *int64     `json:"tokens_remaining,omitempty"`
	Unlimited       bool       `json:"unlimited"`
	IsExhausted     bool       `json:"is_exhausted"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
}

// UsageResponse is the body of GET /usage.
type UsageResponse struct {
	Period        string       `json:"period"`
	Provider      string       `json:"provider"`
	PeriodStartAt *time.Time   `json:"period_start_at,omitempty"`
	PeriodEndAt   *time.Time   `json:"period_end_at,omitempty"`
	Budget        BudgetStatus `json:"budget"`
}

func resultToResponse(r domtriage.Result) TicketResponse {
	logs := r.Logs()
	if logs == nil {
		logs = []string{}
	}
	resp := TicketResponse{
		TicketID:       r.Ticket().ID(),
		UserID:         r.Ticket().UserID(),
		Status:         string(r.Status()),
		Rule:           string(r.Rule()),
		Reply:          r.Reply(),
		Draft:          r.Draft(),
		Reason:         r.Reason(),
		EscalationNote: r.EscalationNote(),
		Logs:           logs,
	}
	if m, ok := r.Match(); ok {
		resp.Match = &MatchResponse{EntryID: m.EntryID, Title: m.Title, Distance: m.Distance}
	}
	return resp
}

func accountToResponse(userID string, s domacct.Settings) AccountResponse {
	return AccountResponse{UserID: userID, Plan: s.Plan, Email: s.Email}
}

func knowledgeToResponse(entries []domkb.Entry) KnowledgeListResponse {
	items := make([]KnowledgeEntryResponse, len(entries))
	for i, e := range entries {
		items[i] = KnowledgeEntryResponse{ID: e.ID(), Title: e.Title(), Content: e.Content()}
	}
	return KnowledgeListResponse{Items: items, Total: len(items)}
}
