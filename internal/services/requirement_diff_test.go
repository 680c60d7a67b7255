package services

import (
	"testing"

	"planboard/internal/models"
)

func strPtr(s string) *string { return &s }

func baseRequirement() *models.Requirement {
	return &models.Requirement{
		Title:              "Export reports",
		Description:        "Users should be able to export any report to CSV.",
		Type:               models.RequirementFunctional,
		Status:             models.RequirementDraft,
		Priority:           models.PriorityShouldHave,
		AcceptanceCriteria: []string{"CSV contains all rows"},
		Tags:               []string{"reporting"},
	}
}

func TestComputeRequirementChanges_NoOp(t *testing.T) {
	current := baseRequirement()

	// Patch that restates current values produces no changes
	patch := &models.UpdateRequirementRequest{
		Title:              strPtr(current.Title),
		AcceptanceCriteria: &[]string{"CSV contains all rows"},
		Tags:               &[]string{"reporting"},
	}

	changes := ComputeRequirementChanges(current, patch)
	if len(changes) != 0 {
		t.Errorf("Expected no changes, got %v", changes)
	}
}

func TestComputeRequirementChanges_NilFieldsIgnored(t *testing.T) {
	changes := ComputeRequirementChanges(baseRequirement(), &models.UpdateRequirementRequest{})
	if len(changes) != 0 {
		t.Errorf("Empty patch must produce no changes, got %v", changes)
	}
}

func TestComputeRequirementChanges_FieldDiffs(t *testing.T) {
	current := baseRequirement()
	newStatus := models.RequirementApproved
	patch := &models.UpdateRequirementRequest{
		Title:              strPtr("Export reports v2"),
		Status:             &newStatus,
		AcceptanceCriteria: &[]string{"CSV contains all rows", "Export completes within 5s"},
	}

	changes := ComputeRequirementChanges(current, patch)
	if len(changes) != 3 {
		t.Fatalf("Expected 3 changed fields, got %d: %v", len(changes), changes)
	}

	title, ok := changes["title"]
	if !ok {
		t.Fatal("Expected title change recorded")
	}
	if title.From != "Export reports" || title.To != "Export reports v2" {
		t.Errorf("Wrong title diff: %+v", title)
	}

	if _, ok := changes["status"]; !ok {
		t.Error("Expected status change recorded")
	}
	if _, ok := changes["acceptanceCriteria"]; !ok {
		t.Error("Expected acceptanceCriteria change recorded")
	}
}

func TestSignificantChange(t *testing.T) {
	significant := []string{"title", "description", "type", "acceptanceCriteria", "dependencies"}
	for _, field := range significant {
		changes := map[string]models.FieldChange{field: {From: "a", To: "b"}}
		if !significantChange(changes) {
			t.Errorf("Field %q should be significant", field)
		}
	}

	insignificant := map[string]models.FieldChange{
		"status":   {From: "DRAFT", To: "APPROVED"},
		"priority": {From: "SHOULD_HAVE", To: "MUST_HAVE"},
		"tags":     {From: []string{}, To: []string{"x"}},
	}
	if significantChange(insignificant) {
		t.Error("Status, priority and tags changes must not bump the version")
	}

	if significantChange(map[string]models.FieldChange{}) {
		t.Error("Empty change set is never significant")
	}
}
