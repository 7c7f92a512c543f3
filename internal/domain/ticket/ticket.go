package ticket

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	maxUserIDLen      = 128
	maxTitleLen       = 512
	maxDescriptionLen = 16 * 1024
)

// Ticket is a single support request (immutable value object).
type Ticket struct {
	id          string
	userID      string
	title       string
	description string
}

// New validates input and creates a Ticket with a fresh id.
// title and description may be empty, user id may not.
func New(userID, title, description string) (Ticket, error) {
	return NewWithID(uuid.NewString(), userID, title, description)
}

// NewWithID is New with a caller-supplied id.
func NewWithID(id, userID, title, description string) (Ticket, error) {
	userID = strings.TrimSpace(userID)
	if id == "" {
		return Ticket{}, fmt.Errorf("ticket id is required")
	}
	if userID == "" {
		return Ticket{}, fmt.Errorf("user id is required")
	}
	if utf8.RuneCountInString(userID) > maxUserIDLen {
		return Ticket{}, fmt.Errorf("user id too long (max %d)", maxUserIDLen)
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return Ticket{}, fmt.Errorf("title too long (max %d)", maxTitleLen)
	}
	if len(description) > maxDescriptionLen {
		return Ticket{}, fmt.Errorf("description too long (max %d bytes)", maxDescriptionLen)
	}
	return Ticket{id: id, userID: userID, title: title, description: description}, nil
}

// ID returns the ticket identifier.
func (t Ticket) ID() string { return t.id }

// UserID returns the submitting user's id.
func (t Ticket) UserID() string { return t.userID }

// Title returns the ticket title.
func (t Ticket) Title() string { return t.title }

// Description returns the ticket body.
func (t Ticket) Description() string { return t.description }

// Text joins title and description with a single space. This is the text that
// gets embedded and scanned by keyword rules.
func (t Ticket) Text() string {
	return t.title + " " + t.description
}

// Mentions reports whether the lowercased ticket text contains any of the phrases.
func (t Ticket) Mentions(phrases ...string) bool {
	text := strings.ToLower(t.Text())
	for _, p := range phrases {
		if strings.Contains(text, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
