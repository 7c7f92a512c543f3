package triage

import (
	"fmt"

	"github.com/kailas-cloud/smartdesk/internal/domain/ticket"
)

// Status is the outcome of triaging one ticket.
type Status string

const (
	// Solved means a reply can go to the customer.
	Solved Status = "solved"
	// Escalated means a human has to look at the ticket.
	Escalated Status = "escalated"
)

// Rule names the decision step that produced a result.
type Rule string

const (
	// RuleKnowledge is a semantic knowledge-base match.
	RuleKnowledge Rule = "knowledge"
	// RuleUpgrade is the plan upgrade keyword rule.
	RuleUpgrade Rule = "upgrade"
	// RuleBilling is the billing escalation keyword rule.
	RuleBilling Rule = "billing"
	// RuleDefault is the catch-all escalation.
	RuleDefault Rule = "default"
)

// Escalation reasons.
const (
	ReasonBilling         = "Billing query not found in KB"
	ReasonUnknown         = "Unknown ticket type"
	ReasonAccountNotFound = "Account not found for plan change"
)

// Match describes the knowledge-base entry that resolved a ticket.
type Match struct {
	EntryID  string
	Title    string
	Distance float64
}

// Result is the outcome of one triage run.
type Result struct {
	ticket ticket.Ticket
	status Status
	rule   Rule
	reply  string
	reason string
	logs   []string
	match  *Match
}

// NewSolved builds a solved result carrying the raw reply.
func NewSolved(t ticket.Ticket, rule Rule, reply string, logs []string) Result {
	return Result{ticket: t, status: Solved, rule: rule, reply: reply, logs: logs}
}

// NewEscalated builds an escalated result carrying the reason.
func NewEscalated(t ticket.Ticket, rule Rule, reason string, logs []string) Result {
	return Result{ticket: t, status: Escalated, rule: rule, reason: reason, logs: logs}
}

// WithMatch attaches the knowledge-base match.
func (r Result) WithMatch(m Match) Result {
	r.match = &m
	return r
}

// Ticket returns the triaged ticket.
func (r Result) Ticket() ticket.Ticket { return r.ticket }

// Status returns solved or escalated.
func (r Result) Status() Status { return r.status }

// Rule returns the decision step that fired.
func (r Result) Rule() Rule { return r.rule }

// Reply returns the raw answer (empty for escalations).
func (r Result) Reply() string { return r.reply }

// Reason returns the escalation reason (empty when solved).
func (r Result) Reason() string { return r.reason }

// Logs returns the ordered log trail.
func (r Result) Logs() []string { return r.logs }

// Match returns the knowledge-base match, if any.
func (r Result) Match() (Match, bool) {
	if r.match == nil {
		return Match{}, false
	}
	return *r.match, true
}

// Draft renders the customer email draft for a solved ticket.
func (r Result) Draft() string {
	if r.status != Solved {
		return ""
	}
	return fmt.Sprintf("Draft Reply:\nTo: %s\nSubject: %s\n\n%s",
		r.ticket.UserID(), r.ticket.Title(), r.reply)
}

// EscalationNote renders the record handed to a human agent.
func (r Result) EscalationNote() string {
	if r.status != Escalated {
		return ""
	}
	return fmt.Sprintf("Escalated Ticket: %s\nUser: %s\nReason: %s",
		r.ticket.Title(), r.ticket.UserID(), r.reason)
}
