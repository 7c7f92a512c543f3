package smartdesk

// Status is the outcome of triaging a ticket.
type Status string

// Status constants.
const (
	StatusSolved    Status = "solved"
	StatusEscalated Status = "escalated"
)

// Ticket is a support request. An empty UserID falls back to the default user.
type Ticket struct {
	UserID      string
	Title       string
	Description string
}

// Match is the knowledge entry that resolved a ticket.
type Match struct {
	EntryID  string
	Title    string
	Distance float64 // squared L2
}

// Result is the outcome of one triage run.
type Result struct {
	TicketID       string
	UserID         string
	Status         Status
	Rule           string // knowledge, upgrade, billing, default
	Reply          string // solved only
	Draft          string // solved only
	Reason         string // escalated only
	EscalationNote string // escalated only
	Logs           []string
	Match          *Match
}

// Settings are a user's account fields.
type Settings struct {
	Plan  string
	Email string
}

// KnowledgeEntry is one canned answer. An empty ID is derived from the title.
type KnowledgeEntry struct {
	ID      string
	Title   string
	Content string
}
