package apperr

import (
	"errors"
	"testing"
)

func TestNew_FormatsWithoutCause(t *testing.T) {
	err := New("schema", "read_table", "table not found")
	want := "[schema:read_table] table not found"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if err.Unwrap() != nil {
		t.Errorf("Unwrap() = %v, want nil", err.Unwrap())
	}
}

func TestWrap_FormatsWithCauseAndUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap("queryexec", "execute", "query failed", cause)

	want := "[queryexec:execute] query failed: disk full"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}
