package triage

import (
	"testing"

	"github.com/kailas-cloud/smartdesk/internal/domain/ticket"
)

func mustTicket(t *testing.T, title string) ticket.Ticket {
	t.Helper()
	tk, err := ticket.NewWithID("T-1", "user123", title, "")
	if err != nil {
		t.Fatalf("ticket: %v", err)
	}
	return tk
}

func TestSolved_Draft(t *testing.T) {
	r := NewSolved(mustTicket(t, "Forgot my password"), RuleKnowledge, "Click reset.", []string{"KB Retrieved: Click reset."})

	want := "Draft Reply:\nTo: user123\nSubject: Forgot my password\n\nClick reset."
	if r.Draft() != want {
		t.Errorf("Draft =\n%q\nwant\n%q", r.Draft(), want)
	}
	if r.EscalationNote() != "" {
		t.Error("solved result must not render an escalation note")
	}
	if r.Status() != Solved || r.Reply() != "Click reset." || r.Reason() != "" {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestEscalated_Note(t *testing.T) {
	r := NewEscalated(mustTicket(t, "random issue"), RuleDefault, ReasonUnknown, nil)

	want := "Escalated Ticket: random issue\nUser: user123\nReason: Unknown ticket type"
	if r.EscalationNote() != want {
		t.Errorf("EscalationNote =\n%q\nwant\n%q", r.EscalationNote(), want)
	}
	if r.Draft() != "" {
		t.Error("escalated result must not render a draft")
	}
}

func TestWithMatch(t *testing.T) {
	r := NewSolved(mustTicket(t, "x"), RuleKnowledge, "y", nil)
	if _, ok := r.Match(); ok {
		t.Fatal("expected no match")
	}

	r = r.WithMatch(Match{EntryID: "password-reset", Distance: 0.4})
	m, ok := r.Match()
	if !ok || m.EntryID != "password-reset" || m.Distance != 0.4 {
		t.Errorf("Match = %+v, %v", m, ok)
	}
}
