package triage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/smartdesk/internal/domain"
	"github.com/kailas-cloud/smartdesk/internal/domain/ticket"
	domtriage "github.com/kailas-cloud/smartdesk/internal/domain/triage"
	"github.com/kailas-cloud/smartdesk/internal/logger"
	"github.com/kailas-cloud/smartdesk/internal/metrics"
)

// Defaults for Config zero values.
const (
	DefaultMaxDistance = 1.0
	DefaultUpgradePlan = "Pro Monthly"
)

var (
	upgradePhrases = []string{"upgrade", "change plan"}
	billingPhrases = []string{"invoice", "billing"}
)

// Config tunes the decision rules.
type Config struct {
	// MaxDistance is the exclusive upper bound on squared L2 distance for a KB match.
	MaxDistance float64
	// UpgradePlan is the plan written by the upgrade rule.
	UpgradePlan string
}

// Service runs the fixed-priority decision tree over one ticket.
type Service struct {
	retriever Retriever
	accounts  Accounts
	cfg       Config
	logger    *zap.Logger
}

// New creates a triage service.
func New(retriever Retriever, accounts Accounts, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxDistance <= 0 {
		cfg.MaxDistance = DefaultMaxDistance
	}
	if cfg.UpgradePlan == "" {
		cfg.UpgradePlan = DefaultUpgradePlan
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{retriever: retriever, accounts: accounts, cfg: cfg, logger: logger}
}

// Triage produces exactly one result for t. Rules run in order and never backtrack:
// knowledge match, plan upgrade, billing escalation, default escalation.
// Embedding, index and store failures are returned as errors, not escalations.
func (s *Service) Triage(ctx context.Context, t ticket.Ticket) (domtriage.Result, error) {
	start := time.Now()
	res, err := s.decide(ctx, t)
	metrics.TriageDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return domtriage.Result{}, err
	}

	metrics.TicketsTotal.WithLabelValues(string(res.Status()), string(res.Rule())).Inc()
	logger.FromContext(ctx, s.logger).Info("Ticket triaged",
		zap.String("ticket_id", t.ID()),
		zap.String("user_id", t.UserID()),
		zap.String("status", string(res.Status())),
		zap.String("rule", string(res.Rule())),
	)
	return res, nil
}

func (s *Service) decide(ctx context.Context, t ticket.Ticket) (domtriage.Result, error) {
	var logs []string

	match, ok, err := s.retriever.Nearest(ctx, t.Text())
	if err != nil {
		return domtriage.Result{}, fmt.Errorf("retrieve knowledge: %w", err)
	}
	if ok {
		metrics.KnowledgeDistance.Observe(match.Distance)
		if match.Distance < s.cfg.MaxDistance {
			content := match.Entry.Content()
			logs = append(logs, "KB Retrieved: "+content)
			return domtriage.NewSolved(t, domtriage.RuleKnowledge, content, logs).
				WithMatch(domtriage.Match{
					EntryID:  match.Entry.ID(),
					Title:    match.Entry.Title(),
					Distance: match.Distance,
				}), nil
		}
	}

	if t.Mentions(upgradePhrases...) {
		return s.upgrade(ctx, t, logs)
	}

	if t.Mentions(billingPhrases...) {
		return escalate(t, domtriage.RuleBilling, domtriage.ReasonBilling, logs), nil
	}

	return escalate(t, domtriage.RuleDefault, domtriage.ReasonUnknown, logs), nil
}

func (s *Service) upgrade(ctx context.Context, t ticket.Ticket, logs []string) (domtriage.Result, error) {
	current, err := s.accounts.Get(ctx, t.UserID())
	if errors.Is(err, domain.ErrAccountNotFound) {
		logs = append(logs, "Current Settings: none")
		return escalate(t, domtriage.RuleUpgrade, domtriage.ReasonAccountNotFound, logs), nil
	}
	if err != nil {
		return domtriage.Result{}, fmt.Errorf("read account: %w", err)
	}
	logs = append(logs, "Current Settings: "+current.String())

	plan := s.cfg.UpgradePlan
	err = s.accounts.SetPlan(ctx, t.UserID(), plan)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return escalate(t, domtriage.RuleUpgrade, domtriage.ReasonAccountNotFound, logs), nil
	}
	if err != nil {
		return domtriage.Result{}, fmt.Errorf("update plan: %w", err)
	}
	logs = append(logs, "Plan upgraded to "+plan)
	metrics.PlanUpgradesTotal.WithLabelValues(plan).Inc()

	reply := fmt.Sprintf("Your plan has been upgraded to %s.", plan)
	return domtriage.NewSolved(t, domtriage.RuleUpgrade, reply, logs), nil
}

func escalate(t ticket.Ticket, rule domtriage.Rule, reason string, logs []string) domtriage.Result {
	logs = append(logs, "Escalation reason: "+reason)
	return domtriage.NewEscalated(t, rule, reason, logs)
}
