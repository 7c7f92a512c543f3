package knowledge

import "testing"

func TestNew_DerivesID(t *testing.T) {
	e, err := New("", "  Password Reset ", "Click the link.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID() != "password-reset" {
		t.Errorf("ID = %q, want password-reset", e.ID())
	}
	if e.Title() != "Password Reset" {
		t.Errorf("Title = %q", e.Title())
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name, id, title, content string
	}{
		{"no title", "", "", "c"},
		{"no content", "", "t", "  "},
		{"bad id", "Bad ID!", "t", "c"},
		{"title slugs to nothing", "", "!!!", "c"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.id, tc.title, tc.content); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Invoice Missing":        "invoice-missing",
		"Account -> Billing":     "account-billing",
		"  leading & trailing  ": "leading-trailing",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidate_Duplicates(t *testing.T) {
	a, _ := New("", "Same", "one")
	b, _ := New("", "same", "two")
	if err := Validate([]Entry{a, b}); err == nil {
		t.Fatal("expected duplicate id error")
	}
	if err := Validate(Defaults()); err != nil {
		t.Fatalf("defaults should be valid: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	if len(d) != 4 {
		t.Fatalf("expected 4 default entries, got %d", len(d))
	}
	if d[0].Content() != "To reset your password, click 'Forgot Password' on login page." {
		t.Errorf("unexpected first entry: %q", d[0].Content())
	}
	contents := Contents(d)
	if contents[3] != d[3].Content() {
		t.Error("Contents order mismatch")
	}
}
