package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequirementType categorizes a requirement and selects its code prefix
type RequirementType string

const (
	RequirementFunctional    RequirementType = "FUNCTIONAL"
	RequirementNonFunctional RequirementType = "NON_FUNCTIONAL"
	RequirementTechnical     RequirementType = "TECHNICAL"
	RequirementBusinessRule  RequirementType = "BUSINESS_RULE"
	RequirementConstraint    RequirementType = "CONSTRAINT"
)

// CodePrefix returns the short prefix used inside requirement codes
// ("PROJ-FR-001")
func (t RequirementType) CodePrefix() string {
	switch t {
	case RequirementFunctional:
		return "FR"
	case RequirementNonFunctional:
		return "NFR"
	case RequirementTechnical:
		return "TR"
	case RequirementBusinessRule:
		return "BR"
	case RequirementConstraint:
		return "CR"
	}
	return "REQ"
}

// RequirementStatus tracks a requirement through review.
// Transition legality is not enforced server-side; any authorized actor may
// set any status.
type RequirementStatus string

const (
	RequirementDraft       RequirementStatus = "DRAFT"
	RequirementUnderReview RequirementStatus = "UNDER_REVIEW"
	RequirementApproved    RequirementStatus = "APPROVED"
	RequirementImplemented RequirementStatus = "IMPLEMENTED"
	RequirementRejected    RequirementStatus = "REJECTED"
	RequirementDeprecated  RequirementStatus = "DEPRECATED"
)

// RequirementPriority follows MoSCoW
type RequirementPriority string

const (
	PriorityMustHave   RequirementPriority = "MUST_HAVE"
	PriorityShouldHave RequirementPriority = "SHOULD_HAVE"
	PriorityCouldHave  RequirementPriority = "COULD_HAVE"
	PriorityWontHave   RequirementPriority = "WONT_HAVE"
)

// Requirement is a versioned specification artifact. Version starts at 1 and
// is bumped only by significant changes (title, description, type,
// acceptance criteria, dependencies).
type Requirement struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ProjectID          string              `bson:"projectId" json:"project_id"`
	Code               string              `bson:"code" json:"code"` // immutable once assigned
	Title              string              `bson:"title" json:"title"`
	Description        string              `bson:"description" json:"description"`
	Type               RequirementType     `bson:"type" json:"type"`
	Status             RequirementStatus   `bson:"status" json:"status"`
	Priority           RequirementPriority `bson:"priority" json:"priority"`
	Version            int                 `bson:"version" json:"version"`
	QualityScore       *int                `bson:"qualityScore,omitempty" json:"quality_score,omitempty"` // nil until first analysis
	AcceptanceCriteria []string            `bson:"acceptanceCriteria" json:"acceptance_criteria"`
	Dependencies       []string            `bson:"dependencies,omitempty" json:"dependencies,omitempty"` // informational, not cycle-checked
	Tags               []string            `bson:"tags,omitempty" json:"tags,omitempty"`
	TestCases          []string            `bson:"testCases,omitempty" json:"test_cases,omitempty"`
	AuthorID           string              `bson:"authorId" json:"author_id"`
	CreatedAt          time.Time           `bson:"createdAt" json:"created_at"`
	UpdatedAt          time.Time           `bson:"updatedAt" json:"updated_at"`
}

// FieldChange is one before/after pair inside a history entry
type FieldChange struct {
	From interface{} `bson:"from" json:"from"`
	To   interface{} `bson:"to" json:"to"`
}

// RequirementHistory is an append-only audit entry. Entries are never
// updated or deleted on their own; they go away only with the parent
// requirement.
type RequirementHistory struct {
	ID            primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	RequirementID string                 `bson:"requirementId" json:"requirement_id"`
	Version       int                    `bson:"version" json:"version"`
	Action        string                 `bson:"action" json:"action"` // "created" or "updated"
	Changes       map[string]FieldChange `bson:"changes,omitempty" json:"changes,omitempty"`
	ChangedBy     string                 `bson:"changedBy" json:"changed_by"`
	CreatedAt     time.Time              `bson:"createdAt" json:"created_at"`
}

// TaskLink associates a requirement with a task. The (requirement, task)
// pair is unique.
type TaskLink struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequirementID string             `bson:"requirementId" json:"requirement_id"`
	TaskID        string             `bson:"taskId" json:"task_id"`
	LinkType      string             `bson:"linkType" json:"link_type"` // e.g. "implements"
	CreatedAt     time.Time          `bson:"createdAt" json:"created_at"`
}

// CreateRequirementRequest is the payload for creating a requirement
type CreateRequirementRequest struct {
	ProjectID          string              `json:"project_id"`
	Title              string              `json:"title"`
	Description        string              `json:"description"`
	Type               RequirementType     `json:"type"`
	Priority           RequirementPriority `json:"priority,omitempty"`
	AcceptanceCriteria []string            `json:"acceptance_criteria,omitempty"`
	Dependencies       []string            `json:"dependencies,omitempty"`
	Tags               []string            `json:"tags,omitempty"`
}

// UpdateRequirementRequest is a partial requirement update. When
// ExpectedVersion is set the update is rejected with a conflict if the
// stored version differs (optimistic lock).
type UpdateRequirementRequest struct {
	Title              *string              `json:"title,omitempty"`
	Description        *string              `json:"description,omitempty"`
	Type               *RequirementType     `json:"type,omitempty"`
	Status             *RequirementStatus   `json:"status,omitempty"`
	Priority           *RequirementPriority `json:"priority,omitempty"`
	AcceptanceCriteria *[]string            `json:"acceptance_criteria,omitempty"`
	Dependencies       *[]string            `json:"dependencies,omitempty"`
	Tags               *[]string            `json:"tags,omitempty"`
	ExpectedVersion    *int                 `json:"expected_version,omitempty"`
}

// RequirementAnalysis is the deterministic quality assessment of a
// requirement's current text
type RequirementAnalysis struct {
	QualityScore int          `json:"quality_score"`
	Suggestions  []string     `json:"suggestions"`
	Completeness Completeness `json:"completeness"`
}

// Completeness flags which requirement facets are filled in
type Completeness struct {
	HasTitle              bool `json:"has_title"`
	HasDescription        bool `json:"has_description"`
	HasAcceptanceCriteria bool `json:"has_acceptance_criteria"`
	IsTestable            bool `json:"is_testable"`
}

// TestCase is one generated test record
type TestCase struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Steps          []string `json:"steps"`
	ExpectedResult string   `json:"expected_result"`
	Priority       string   `json:"priority"`
	Type           string   `json:"type"`
}

// DuplicateCandidate is a requirement flagged as a potential duplicate
type DuplicateCandidate struct {
	ID              string  `json:"id"`
	Code            string  `json:"code"`
	Title           string  `json:"title"`
	TitleSimilarity float64 `json:"title_similarity"`
	DescSimilarity  float64 `json:"description_similarity"`
}

// CoverageReport gives implementation/test ratios for a project's
// requirements. Empty projects report 0%, not an error.
type CoverageReport struct {
	Total                  int     `json:"total"`
	Implemented            int     `json:"implemented"`
	Tested                 int     `json:"tested"`
	ImplementationCoverage float64 `json:"implementation_coverage"`
	TestCoverage           float64 `json:"test_coverage"`
}
