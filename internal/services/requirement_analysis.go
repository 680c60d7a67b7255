package services

import (
	"fmt"
	"strings"

	"planboard/internal/models"

	"github.com/google/uuid"
)

// hedgeWords weaken a requirement's description; each occurrence class
// costs quality points.
var hedgeWords = []string{"maybe", "probably", "some", "several", "many"}

const (
	analysisBaseScore       = 70
	penaltyShortTitle       = 10
	penaltyShortDescription = 15
	penaltyNoCriteria       = 20
	penaltyHedgeWords       = 10
	penaltyNotPrescriptive  = 5
	minTitleLength          = 10
	minDescriptionLength    = 50
	titleDuplicateThreshold = 0.8
	descDuplicateThreshold  = 0.7
)

// AnalyzeRequirement scores a requirement's text quality. The score starts
// at 70 and loses points for each weakness found; the result is clamped to
// [0, 100]. Pure and deterministic: the same fields always produce the
// same score and suggestions.
func AnalyzeRequirement(title, description string, requirementType models.RequirementType, acceptanceCriteria []string) models.RequirementAnalysis {
	score := analysisBaseScore
	suggestions := []string{}

	if len(title) < minTitleLength {
		score -= penaltyShortTitle
		suggestions = append(suggestions, "Title is too short; describe the requirement in at least 10 characters")
	}
	if len(description) < minDescriptionLength {
		score -= penaltyShortDescription
		suggestions = append(suggestions, "Description is too brief; explain the expected behavior in at least 50 characters")
	}
	if len(acceptanceCriteria) == 0 {
		score -= penaltyNoCriteria
		suggestions = append(suggestions, "Add acceptance criteria so the requirement can be verified")
	}

	descLower := strings.ToLower(description)
	for _, hedge := range hedgeWords {
		if containsWord(descLower, hedge) {
			score -= penaltyHedgeWords
			suggestions = append(suggestions, "Replace vague language (maybe, probably, some, several, many) with precise quantities")
			break
		}
	}

	if requirementType == models.RequirementFunctional && !strings.Contains(descLower, "should") {
		score -= penaltyNotPrescriptive
		suggestions = append(suggestions, "Functional requirements should state what the system should do")
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return models.RequirementAnalysis{
		QualityScore: score,
		Suggestions:  suggestions,
		Completeness: models.Completeness{
			HasTitle:              len(title) >= minTitleLength,
			HasDescription:        len(description) >= minDescriptionLength,
			HasAcceptanceCriteria: len(acceptanceCriteria) > 0,
			IsTestable:            len(acceptanceCriteria) > 0 && len(description) >= minDescriptionLength,
		},
	}
}

// containsWord reports whether text contains word as a whole
// whitespace-delimited token, ignoring surrounding punctuation.
func containsWord(text, word string) bool {
	for _, token := range strings.Fields(text) {
		if strings.Trim(token, ".,;:!?()\"'") == word {
			return true
		}
	}
	return false
}

// GenerateTestCases synthesizes one test case per acceptance criterion,
// plus one boundary case for functional requirements. IDs are unique per
// call.
func GenerateTestCases(req *models.Requirement) []models.TestCase {
	cases := make([]models.TestCase, 0, len(req.AcceptanceCriteria)+1)

	for i, criterion := range req.AcceptanceCriteria {
		cases = append(cases, models.TestCase{
			ID:          uuid.NewString(),
			Title:       fmt.Sprintf("Verify criterion %d of %s", i+1, req.Code),
			Description: fmt.Sprintf("Validates acceptance criterion %d of requirement %s", i+1, req.Code),
			Steps: []string{
				"Set up the preconditions described by the requirement",
				"Exercise the behavior under test",
				"Compare the observed outcome against the criterion",
			},
			ExpectedResult: criterion,
			Priority:       "MEDIUM",
			Type:           "FUNCTIONAL",
		})
	}

	if req.Type == models.RequirementFunctional {
		cases = append(cases, models.TestCase{
			ID:          uuid.NewString(),
			Title:       fmt.Sprintf("Boundary conditions for %s", req.Code),
			Description: "Exercises the requirement at the edges of its input domain",
			Steps: []string{
				"Identify minimum, maximum and empty inputs for the behavior",
				"Exercise the behavior with each boundary input",
				"Verify the system neither crashes nor accepts invalid input",
			},
			ExpectedResult: "The system handles boundary inputs gracefully",
			Priority:       "MEDIUM",
			Type:           "FUNCTIONAL",
		})
	}
	return cases
}

// JaccardSimilarity computes word-set similarity between two strings:
// |intersection| / |union| over case-insensitive whitespace tokens.
// Two empty strings are identical (1.0).
func JaccardSimilarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = true
	}
	return set
}

// IsLikelyDuplicate applies the duplicate-detection thresholds: flagged
// when title similarity exceeds 0.8 or description similarity exceeds 0.7.
func IsLikelyDuplicate(titleSim, descSim float64) bool {
	return titleSim > titleDuplicateThreshold || descSim > descDuplicateThreshold
}

// FormatRequirementCode renders "{projectKey}-{typePrefix}-{seq}" with the
// sequence zero-padded to three digits.
func FormatRequirementCode(projectKey string, requirementType models.RequirementType, seq int) string {
	return fmt.Sprintf("%s-%s-%03d", projectKey, requirementType.CodePrefix(), seq)
}
