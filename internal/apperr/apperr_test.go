package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{NotFound("task %s not found", "x"), KindNotFound},
		{Conflict("duplicate edge"), KindConflict},
		{Validation("position cannot be negative"), KindValidation},
		{AccessDenied("WRITE permission required"), KindAccessDenied},
		{Precondition("list still contains tasks"), KindPrecondition},
		{errors.New("driver exploded"), KindUnknown},
		{nil, KindUnknown},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	inner := NotFound("workspace not found")
	wrapped := fmt.Errorf("loading member: %w", inner)

	if got := KindOf(wrapped); got != KindNotFound {
		t.Errorf("Expected kind to survive wrapping, got %v", got)
	}
	if !IsKind(wrapped, KindNotFound) {
		t.Error("IsKind should see through fmt.Errorf wrapping")
	}
}

func TestErrorMessageFormatting(t *testing.T) {
	err := Validation("reorder must include all %d items, got %d", 5, 3)
	if err.Error() != "reorder must include all 5 items, got 3" {
		t.Errorf("Unexpected message: %q", err.Error())
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindNotFound, "not_found"},
		{KindConflict, "conflict"},
		{KindValidation, "validation_failed"},
		{KindAccessDenied, "access_denied"},
		{KindPrecondition, "precondition_failed"},
		{KindUnknown, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
