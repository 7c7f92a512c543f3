package account

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       Settings
		wantErr bool
	}{
		{"ok", Settings{Plan: "Free", Email: "user123@example.com"}, false},
		{"no email", Settings{Plan: "Free"}, false},
		{"no plan", Settings{Email: "a@b.c"}, true},
		{"bad email", Settings{Plan: "Free", Email: "not-an-email"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.s.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestString(t *testing.T) {
	s := Settings{Plan: "Free", Email: "user123@example.com"}
	if s.String() != "plan=Free email=user123@example.com" {
		t.Errorf("String = %q", s.String())
	}
}
