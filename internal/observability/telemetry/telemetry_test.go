package telemetry

import (
	"errors"
	"fmt"
	"testing"

	"github.com/seu-repo/autospace/internal/domain"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("%w: vehicle", domain.ErrNotFound), "not_found"},
		{domain.ErrConflict, "conflict"},
		{domain.ErrInvalidArgument, "invalid_argument"},
		{domain.ErrInvalidState, "invalid_state"},
		{domain.Unavailable("find", errors.New("boom")), "unavailable"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		if got := Outcome(tt.err); got != tt.want {
			t.Errorf("Outcome(%v): expected %s, got %s", tt.err, tt.want, got)
		}
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := NewLogger("debug", "console"); err != nil {
		t.Errorf("expected console logger, got %v", err)
	}
	if _, err := NewLogger("info", ""); err != nil {
		t.Errorf("expected default json logger, got %v", err)
	}
	if _, err := NewLogger("loud", "json"); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := NewLogger("info", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
