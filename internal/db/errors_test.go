package db

import (
	"errors"
	"fmt"
	"testing"
)

func TestError(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Op: OpGet, Key: "smartdesk:account:u1", Err: ErrKeyNotFound}, "db GET smartdesk:account:u1: db: key not found"},
		{&Error{Op: OpSearch, Err: errors.New("timeout")}, "db FT.SEARCH: timeout"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestOp(t *testing.T) {
	wrapped := fmt.Errorf("load account: %w", &Error{Op: OpHGetAll, Err: ErrKeyNotFound})

	if Op(wrapped) != OpHGetAll {
		t.Errorf("Op() = %q", Op(wrapped))
	}
	if !errors.Is(wrapped, ErrKeyNotFound) {
		t.Error("sentinel lost through Error")
	}
	if Op(ErrKeyNotFound) != "" || Op(nil) != "" {
		t.Error("expected empty op without *Error")
	}
}
