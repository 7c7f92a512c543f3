package knowledge

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	idRegex   = regexp.MustCompile(`^[a-z0-9_-]+$`)
	slugStrip = regexp.MustCompile(`[^a-z0-9]+`)
)

// Entry is one canned answer of the knowledge base (immutable value object).
type Entry struct {
	id      string
	title   string
	content string
}

// New validates and creates an Entry. An empty id is derived from the title.
func New(id, title, content string) (Entry, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" {
		return Entry{}, fmt.Errorf("entry title is required")
	}
	if content == "" {
		return Entry{}, fmt.Errorf("entry %q: content is required", title)
	}
	if id == "" {
		id = Slug(title)
	}
	if len(id) > 64 || !idRegex.MatchString(id) {
		return Entry{}, fmt.Errorf("entry id %q must match [a-z0-9_-]{1,64}", id)
	}
	return Entry{id: id, title: title, content: content}, nil
}

// Reconstruct restores an Entry from storage without validation.
func Reconstruct(id, title, content string) Entry {
	return Entry{id: id, title: title, content: content}
}

// ID returns the entry identifier.
func (e Entry) ID() string { return e.id }

// Title returns the entry title.
func (e Entry) Title() string { return e.title }

// Content returns the answer text. This is what gets embedded and returned as a reply.
func (e Entry) Content() string { return e.content }

// Slug lowercases s and collapses non-alphanumeric runs into "-".
func Slug(s string) string {
	return strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// Validate checks that ids are unique across entries.
func Validate(entries []Entry) error {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.id] {
			return fmt.Errorf("duplicate knowledge entry id: %s", e.id)
		}
		seen[e.id] = true
	}
	return nil
}

// Contents returns entry contents in order.
func Contents(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.content
	}
	return out
}

// Defaults is the built-in knowledge base used when no file is configured.
func Defaults() []Entry {
	return []Entry{
		{id: "password-reset", title: "Password Reset",
			content: "To reset your password, click 'Forgot Password' on login page."},
		{id: "billing-queries", title: "Billing Queries",
			content: "For billing issues, check Account -> Billing for invoices."},
		{id: "upgrade-plan", title: "Upgrade Plan",
			content: "To upgrade, go to Account -> Plans and select the desired plan."},
		{id: "invoice-missing", title: "Invoice Missing",
			content: "If an invoice is missing, contact support with invoice number and date."},
	}
}
