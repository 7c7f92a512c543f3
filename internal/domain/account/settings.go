package account

import (
	"fmt"
	"net/mail"
	"strings"
)

// Settings are the mutable per-user account fields.
type Settings struct {
	Plan  string
	Email string
}

// Validate checks that a plan is set and the email, when present, parses.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Plan) == "" {
		return fmt.Errorf("plan is required")
	}
	if s.Email != "" {
		if _, err := mail.ParseAddress(s.Email); err != nil {
			return fmt.Errorf("invalid email %q", s.Email)
		}
	}
	return nil
}

// String renders settings for triage log lines.
func (s Settings) String() string {
	return fmt.Sprintf("plan=%s email=%s", s.Plan, s.Email)
}
