package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/smartdesk/internal/domain"
	domacct "github.com/kailas-cloud/smartdesk/internal/domain/account"
	"github.com/kailas-cloud/smartdesk/internal/domain/ticket"
	domusage "github.com/kailas-cloud/smartdesk/internal/domain/usage"
	"github.com/kailas-cloud/smartdesk/internal/logger"
	accountuc "github.com/kailas-cloud/smartdesk/internal/usecase/account"
	healthuc "github.com/kailas-cloud/smartdesk/internal/usecase/health"
	knowledgeuc "github.com/kailas-cloud/smartdesk/internal/usecase/knowledge"
	triageuc "github.com/kailas-cloud/smartdesk/internal/usecase/triage"
	usageuc "github.com/kailas-cloud/smartdesk/internal/usecase/usage"
	"github.com/kailas-cloud/smartdesk/internal/version"
)

const maxBodyBytes = 64 << 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

type errorMapping struct {
	sentinel error
	status   int
	code     ErrorCode
}

// errorMappings is checked in order; the first matching sentinel wins.
var errorMappings = []errorMapping{
	{domain.ErrInvalidTicket, http.StatusBadRequest, ErrorCodeValidationFailed},
	{domain.ErrInvalidAccount, http.StatusBadRequest, ErrorCodeValidationFailed},
	{domain.ErrInvalidPeriod, http.StatusBadRequest, ErrorCodeValidationFailed},
	{domain.ErrAccountNotFound, http.StatusNotFound, ErrorCodeAccountNotFound},
	{domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound},
	{domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, ErrorCodeEmbeddingQuotaExceeded},
	{domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingProviderError},
	{domain.ErrKnowledgeIndexNotReady, http.StatusServiceUnavailable, ErrorCodeKnowledgeIndexNotReady},
}

// Server serves the JSON API and the HTML ticket form.
type Server struct {
	triage        *triageuc.Service
	accounts      *accountuc.Service
	knowledge     *knowledgeuc.Service
	health        *healthuc.Service
	usage         *usageuc.Service
	defaultUserID string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. defaultUserID fills an empty user id on submitted tickets.
func NewServer(
	triage *triageuc.Service,
	accounts *accountuc.Service,
	knowledge *knowledgeuc.Service,
	health *healthuc.Service,
	usage *usageuc.Service,
	defaultUserID string,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		triage:        triage,
		accounts:      accounts,
		knowledge:     knowledge,
		health:        health,
		usage:         usage,
		defaultUserID: defaultUserID,
		logger:        logger,
	}
	for _, m := range errorMappings {
		s.errorHandlers = append(s.errorHandlers, sentinelHandler(m.sentinel, m.status, m.code))
	}
	return s
}

// Routes mounts every endpoint on r.
func (s *Server) Routes(r gochi.Router) {
	r.Get("/", s.Form)
	r.Post("/", s.SubmitForm)
	r.Post("/tickets", s.CreateTicket)
	r.Get("/accounts/{user_id}", s.GetAccount)
	r.Put("/accounts/{user_id}", s.PutAccount)
	r.Get("/knowledge", s.ListKnowledge)
	r.Get("/usage", s.GetUsage)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// CreateTicket handles POST /tickets.
func (s *Server) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req TicketRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	t, err := s.newTicket(req.UserID, req.Title, req.Description)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	res, err := s.triage.Triage(r.Context(), t)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resultToResponse(res))
}

// GetAccount handles GET /accounts/{user_id}.
func (s *Server) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID := gochi.URLParam(r, "user_id")

	settings, err := s.accounts.Get(r.Context(), userID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, accountToResponse(userID, settings))
}

// PutAccount handles PUT /accounts/{user_id}.
func (s *Server) PutAccount(w http.ResponseWriter, r *http.Request) {
	userID := gochi.URLParam(r, "user_id")

	var req AccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	settings := domacct.Settings{Plan: req.Plan, Email: req.Email}
	if err := s.accounts.Put(r.Context(), userID, settings); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, accountToResponse(userID, settings))
}

// ListKnowledge handles GET /knowledge.
func (s *Server) ListKnowledge(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, knowledgeToResponse(s.knowledge.Entries()))
}

// GetUsage handles GET /usage?period=day|month|total.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period, err := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	report := s.usage.Report(r.Context(), period)
	b := report.Budget()

	resp := UsageResponse{
		Period:   string(report.Period()),
		Provider: report.Provider(),
		Budget: BudgetStatus{
			TokensUsed:  b.Used,
			Unlimited:   b.Unlimited(),
			IsExhausted: b.Exhausted(),
		},
	}
	if !b.Unlimited() {
		limit, remaining := b.Limit, b.Remaining
		resp.Budget.TokensLimit = &limit
		resp.Budget.TokensRemaining = &remaining
	}
	if report.PeriodStart() > 0 {
		start := time.UnixMilli(report.PeriodStart()).UTC()
		end := time.UnixMilli(report.PeriodEnd()).UTC()
		resp.PeriodStartAt = &start
		resp.PeriodEndAt = &end
	}
	if b.ResetsAt > 0 && !b.Unlimited() {
		resetsAt := time.UnixMilli(b.ResetsAt).UTC()
		resp.Budget.ResetsAt = &resetsAt
	}

	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.Version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// newTicket applies the default user and validates the ticket.
func (s *Server) newTicket(userID, title, description string) (ticket.Ticket, error) {
	if strings.TrimSpace(userID) == "" {
		userID = s.defaultUserID
	}
	t, err := ticket.New(userID, title, description)
	if err != nil {
		return ticket.Ticket{}, fmt.Errorf("%w: %v", domain.ErrInvalidTicket, err)
	}
	return t, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			return m.sentinel.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

// statusFor maps an error to the status code handleDomainError would write.
func statusFor(err error) int {
	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}
