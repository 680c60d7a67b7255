package services

import (
	"testing"

	"planboard/internal/apperr"
)

func TestValidateReorder_Valid(t *testing.T) {
	current := []string{"a", "b", "c"}

	if err := ValidateReorder(current, []string{"c", "a", "b"}); err != nil {
		t.Errorf("Valid permutation rejected: %v", err)
	}
	if err := ValidateReorder(current, []string{"a", "b", "c"}); err != nil {
		t.Errorf("Identity permutation rejected: %v", err)
	}
	if err := ValidateReorder(nil, nil); err != nil {
		t.Errorf("Empty reorder of empty scope rejected: %v", err)
	}
}

func TestValidateReorder_SizeMismatch(t *testing.T) {
	current := []string{"a", "b", "c"}

	err := ValidateReorder(current, []string{"a", "b"})
	if err == nil {
		t.Fatal("Expected error for short proposal")
	}
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("Expected validation error, got %v", apperr.KindOf(err))
	}

	if err := ValidateReorder(current, []string{"a", "b", "c", "d"}); err == nil {
		t.Error("Expected error for oversized proposal")
	}
}

func TestValidateReorder_UnknownID(t *testing.T) {
	err := ValidateReorder([]string{"a", "b"}, []string{"a", "x"})
	if err == nil {
		t.Fatal("Expected error for unknown ID")
	}
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("Expected validation error, got %v", apperr.KindOf(err))
	}
}

func TestValidateReorder_Duplicate(t *testing.T) {
	// Same length, all IDs known, but "a" twice and "b" missing
	err := ValidateReorder([]string{"a", "b"}, []string{"a", "a"})
	if err == nil {
		t.Fatal("Expected error for duplicated ID")
	}
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("Expected validation error, got %v", apperr.KindOf(err))
	}
}

func TestInsertPosition(t *testing.T) {
	tests := []struct {
		requested int
		count     int
		want      int
	}{
		{0, 5, 0},
		{3, 5, 3},
		{5, 5, 5},  // append at end
		{6, 5, 5},  // past end clamps to append
		{-1, 5, 5}, // negative means append
		{0, 0, 0},
		{-1, 0, 0},
	}

	for _, tt := range tests {
		if got := InsertPosition(tt.requested, tt.count); got != tt.want {
			t.Errorf("InsertPosition(%d, %d) = %d, want %d", tt.requested, tt.count, got, tt.want)
		}
	}
}
