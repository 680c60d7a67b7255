package services

import (
	"context"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"planboard/internal/apperr"
	"planboard/internal/database"
	"planboard/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RequirementService manages versioned requirements, their append-only
// history and their quality analysis. Version bumps happen only on
// significant fields: title, description, type, acceptance criteria and
// dependencies.
type RequirementService struct {
	mongoDB  *database.MongoDB
	projects *ProjectService
	analyzer *AnalysisWorker
	metrics  *Metrics
}

// NewRequirementService creates a new requirement service
func NewRequirementService(mongoDB *database.MongoDB, projects *ProjectService, analyzer *AnalysisWorker, metrics *Metrics) *RequirementService {
	return &RequirementService{
		mongoDB:  mongoDB,
		projects: projects,
		analyzer: analyzer,
		metrics:  metrics,
	}
}

// collection returns the requirements collection
func (s *RequirementService) collection() *mongo.Collection {
	return s.mongoDB.Collection(database.CollectionRequirements)
}

// historyCollection returns the requirement history collection
func (s *RequirementService) historyCollection() *mongo.Collection {
	return s.mongoDB.Collection(database.CollectionRequirementHistory)
}

// linksCollection returns the task links collection
func (s *RequirementService) linksCollection() *mongo.Collection {
	return s.mongoDB.Collection(database.CollectionTaskLinks)
}

func validRequirementType(t models.RequirementType) bool {
	switch t {
	case models.RequirementFunctional, models.RequirementNonFunctional,
		models.RequirementTechnical, models.RequirementBusinessRule,
		models.RequirementConstraint:
		return true
	}
	return false
}

func validRequirementStatus(st models.RequirementStatus) bool {
	switch st {
	case models.RequirementDraft, models.RequirementUnderReview,
		models.RequirementApproved, models.RequirementImplemented,
		models.RequirementRejected, models.RequirementDeprecated:
		return true
	}
	return false
}

// Create creates a requirement at version 1 with a freshly allocated code
// and an initial history entry, then queues quality analysis. Analysis
// failures never affect the creation.
func (s *RequirementService) Create(ctx context.Context, userID string, req *models.CreateRequirementRequest) (*models.Requirement, error) {
	project, err := s.projects.RequireProjectWrite(ctx, req.ProjectID, userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperr.Validation("requirement title is required")
	}
	if !validRequirementType(req.Type) {
		return nil, apperr.Validation("invalid requirement type: %s", req.Type)
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityShouldHave
	}

	// Atomic counter per (project, type) so concurrent creates can never
	// allocate the same code.
	seq, err := s.mongoDB.NextSequence(ctx, fmt.Sprintf("requirement:%s:%s", req.ProjectID, req.Type))
	if err != nil {
		return nil, fmt.Errorf("failed to allocate requirement sequence: %w", err)
	}
	code := FormatRequirementCode(project.Key, req.Type, seq)

	criteria := req.AcceptanceCriteria
	if criteria == nil {
		criteria = []string{}
	}

	now := time.Now()
	requirement := &models.Requirement{
		ProjectID:          req.ProjectID,
		Code:               code,
		Title:              strings.TrimSpace(req.Title),
		Description:        req.Description,
		Type:               req.Type,
		Status:             models.RequirementDraft,
		Priority:           priority,
		Version:            1,
		AcceptanceCriteria: criteria,
		Dependencies:       req.Dependencies,
		Tags:               req.Tags,
		AuthorID:           userID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	result, err := s.collection().InsertOne(ctx, requirement)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("requirement code %s already exists", code)
		}
		return nil, fmt.Errorf("failed to create requirement: %w", err)
	}
	requirement.ID = result.InsertedID.(primitive.ObjectID)

	s.appendHistory(ctx, requirement.ID.Hex(), 1, "created", nil, userID)
	s.analyzer.Enqueue(requirement.ID.Hex())

	log.Printf("✅ Requirement created: %s (%s)", code, requirement.ID.Hex())
	return requirement, nil
}

// Get returns a requirement after verifying project access
func (s *RequirementService) Get(ctx context.Context, requirementID, userID string) (*models.Requirement, error) {
	requirement, err := s.getByID(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.RequireProjectAccess(ctx, requirement.ProjectID, userID); err != nil {
		return nil, err
	}
	return requirement, nil
}

func (s *RequirementService) getByID(ctx context.Context, requirementID string) (*models.Requirement, error) {
	objID, err := primitive.ObjectIDFromHex(requirementID)
	if err != nil {
		return nil, apperr.Validation("invalid requirement ID")
	}

	var requirement models.Requirement
	err = s.collection().FindOne(ctx, bson.M{"_id": objID}).Decode(&requirement)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("requirement not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get requirement: %w", err)
	}
	return &requirement, nil
}

// List returns a project's requirements in code order
func (s *RequirementService) List(ctx context.Context, projectID, userID string) ([]models.Requirement, error) {
	if _, err := s.projects.RequireProjectAccess(ctx, projectID, userID); err != nil {
		return nil, err
	}

	cursor, err := s.collection().Find(ctx, bson.M{"projectId": projectID},
		options.Find().SetSort(bson.M{"code": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list requirements: %w", err)
	}
	var requirements []models.Requirement
	if err := cursor.All(ctx, &requirements); err != nil {
		return nil, fmt.Errorf("failed to decode requirements: %w", err)
	}
	return requirements, nil
}

// significantChange reports whether the patch touches a field that bumps
// the version.
func significantChange(changes map[string]models.FieldChange) bool {
	for _, field := range []string{"title", "description", "type", "acceptanceCriteria", "dependencies"} {
		if _, ok := changes[field]; ok {
			return true
		}
	}
	return false
}

// ComputeRequirementChanges diffs a patch against the current requirement
// using deep equality. Only genuinely changed fields appear in the result.
func ComputeRequirementChanges(current *models.Requirement, patch *models.UpdateRequirementRequest) map[string]models.FieldChange {
	changes := map[string]models.FieldChange{}

	if patch.Title != nil && *patch.Title != current.Title {
		changes["title"] = models.FieldChange{From: current.Title, To: *patch.Title}
	}
	if patch.Description != nil && *patch.Description != current.Description {
		changes["description"] = models.FieldChange{From: current.Description, To: *patch.Description}
	}
	if patch.Type != nil && *patch.Type != current.Type {
		changes["type"] = models.FieldChange{From: string(current.Type), To: string(*patch.Type)}
	}
	if patch.Status != nil && *patch.Status != current.Status {
		changes["status"] = models.FieldChange{From: string(current.Status), To: string(*patch.Status)}
	}
	if patch.Priority != nil && *patch.Priority != current.Priority {
		changes["priority"] = models.FieldChange{From: string(current.Priority), To: string(*patch.Priority)}
	}
	if patch.AcceptanceCriteria != nil && !reflect.DeepEqual(*patch.AcceptanceCriteria, current.AcceptanceCriteria) {
		changes["acceptanceCriteria"] = models.FieldChange{From: current.AcceptanceCriteria, To: *patch.AcceptanceCriteria}
	}
	if patch.Dependencies != nil && !reflect.DeepEqual(*patch.Dependencies, current.Dependencies) {
		changes["dependencies"] = models.FieldChange{From: current.Dependencies, To: *patch.Dependencies}
	}
	if patch.Tags != nil && !reflect.DeepEqual(*patch.Tags, current.Tags) {
		changes["tags"] = models.FieldChange{From: current.Tags, To: *patch.Tags}
	}
	return changes
}

// Update applies a partial update. Significant changes bump the version;
// any change at all appends one history entry. When ExpectedVersion is set
// the update is an optimistic-lock write and conflicts if stale.
func (s *RequirementService) Update(ctx context.Context, requirementID, userID string, patch *models.UpdateRequirementRequest) (*models.Requirement, error) {
	current, err := s.getByID(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.RequireProjectWrite(ctx, current.ProjectID, userID); err != nil {
		return nil, err
	}

	if patch.ExpectedVersion != nil && *patch.ExpectedVersion != current.Version {
		return nil, apperr.Conflict("requirement was modified concurrently: expected version %d, found %d",
			*patch.ExpectedVersion, current.Version)
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, apperr.Validation("requirement title cannot be empty")
	}
	if patch.Type != nil && !validRequirementType(*patch.Type) {
		return nil, apperr.Validation("invalid requirement type: %s", *patch.Type)
	}
	if patch.Status != nil && !validRequirementStatus(*patch.Status) {
		return nil, apperr.Validation("invalid requirement status: %s", *patch.Status)
	}

	changes := ComputeRequirementChanges(current, patch)
	if len(changes) == 0 {
		return current, nil
	}

	newVersion := current.Version
	if significantChange(changes) {
		newVersion++
	}

	update := bson.M{"version": newVersion, "updatedAt": time.Now()}
	for field, change := range changes {
		update[field] = change.To
	}

	// The version field in the filter makes the write a compare-and-swap:
	// a concurrent bump between our read and this write matches nothing.
	result := s.collection().FindOneAndUpdate(ctx,
		bson.M{"_id": current.ID, "version": current.Version},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var updated models.Requirement
	if err := result.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.Conflict("requirement was modified concurrently")
		}
		return nil, fmt.Errorf("failed to update requirement: %w", err)
	}

	s.appendHistory(ctx, requirementID, newVersion, "updated", changes, userID)
	if newVersion > current.Version {
		s.metrics.RecordRequirementVersion()
	}

	// Text changes invalidate the quality score
	_, titleChanged := changes["title"]
	_, descChanged := changes["description"]
	_, criteriaChanged := changes["acceptanceCriteria"]
	if titleChanged || descChanged || criteriaChanged {
		s.analyzer.Enqueue(requirementID)
	}
	return &updated, nil
}

// Delete removes a requirement and its history. Requirements with linked
// tasks are rejected.
func (s *RequirementService) Delete(ctx context.Context, requirementID, userID string) error {
	requirement, err := s.getByID(ctx, requirementID)
	if err != nil {
		return err
	}
	if _, err := s.projects.RequireProjectWrite(ctx, requirement.ProjectID, userID); err != nil {
		return err
	}

	linked, err := s.linksCollection().CountDocuments(ctx, bson.M{"requirementId": requirementID})
	if err != nil {
		return fmt.Errorf("failed to count task links: %w", err)
	}
	if linked > 0 {
		return apperr.Precondition("requirement has %d linked tasks; unlink them first", linked)
	}

	if _, err := s.collection().DeleteOne(ctx, bson.M{"_id": requirement.ID}); err != nil {
		return fmt.Errorf("failed to delete requirement: %w", err)
	}
	if _, err := s.historyCollection().DeleteMany(ctx, bson.M{"requirementId": requirementID}); err != nil {
		log.Printf("⚠️  Failed to clean up history for requirement %s: %v", requirementID, err)
	}
	return nil
}

// History returns a requirement's audit log, newest first
func (s *RequirementService) History(ctx context.Context, requirementID, userID string) ([]models.RequirementHistory, error) {
	if _, err := s.Get(ctx, requirementID, userID); err != nil {
		return nil, err
	}

	cursor, err := s.historyCollection().Find(ctx, bson.M{"requirementId": requirementID},
		options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	var history []models.RequirementHistory
	if err := cursor.All(ctx, &history); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return history, nil
}

// LinkTask associates a requirement with a task
func (s *RequirementService) LinkTask(ctx context.Context, requirementID, taskID, userID, linkType string) (*models.TaskLink, error) {
	requirement, err := s.getByID(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.RequireProjectWrite(ctx, requirement.ProjectID, userID); err != nil {
		return nil, err
	}

	taskObjID, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, apperr.Validation("invalid task ID")
	}
	count, err := s.mongoDB.Collection(database.CollectionTasks).
		CountDocuments(ctx, bson.M{"_id": taskObjID})
	if err != nil {
		return nil, fmt.Errorf("failed to look up task: %w", err)
	}
	if count == 0 {
		return nil, apperr.NotFound("task not found")
	}

	if linkType == "" {
		linkType = "implements"
	}

	link := &models.TaskLink{
		RequirementID: requirementID,
		TaskID:        taskID,
		LinkType:      linkType,
		CreatedAt:     time.Now(),
	}
	result, err := s.linksCollection().InsertOne(ctx, link)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("requirement is already linked to this task")
		}
		return nil, fmt.Errorf("failed to link task: %w", err)
	}
	link.ID = result.InsertedID.(primitive.ObjectID)
	return link, nil
}

// UnlinkTask removes a requirement-task association
func (s *RequirementService) UnlinkTask(ctx context.Context, requirementID, taskID, userID string) error {
	requirement, err := s.getByID(ctx, requirementID)
	if err != nil {
		return err
	}
	if _, err := s.projects.RequireProjectWrite(ctx, requirement.ProjectID, userID); err != nil {
		return err
	}

	result, err := s.linksCollection().DeleteOne(ctx, bson.M{
		"requirementId": requirementID,
		"taskId":        taskID,
	})
	if err != nil {
		return fmt.Errorf("failed to unlink task: %w", err)
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound("task link not found")
	}
	return nil
}

// Analyze runs quality analysis synchronously and persists the score
func (s *RequirementService) Analyze(ctx context.Context, requirementID, userID string) (*models.RequirementAnalysis, error) {
	requirement, err := s.Get(ctx, requirementID, userID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	analysis := AnalyzeRequirement(requirement.Title, requirement.Description,
		requirement.Type, requirement.AcceptanceCriteria)
	s.metrics.RecordAnalysis(time.Since(started).Seconds())

	_, err = s.collection().UpdateOne(ctx,
		bson.M{"_id": requirement.ID},
		bson.M{"$set": bson.M{"qualityScore": analysis.QualityScore}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to store quality score: %w", err)
	}
	return &analysis, nil
}

// GenerateTests synthesizes test cases from the requirement's acceptance
// criteria and records their titles on the requirement.
func (s *RequirementService) GenerateTests(ctx context.Context, requirementID, userID string) ([]models.TestCase, error) {
	requirement, err := s.getByID(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.RequireProjectWrite(ctx, requirement.ProjectID, userID); err != nil {
		return nil, err
	}

	cases := GenerateTestCases(requirement)
	titles := make([]string, len(cases))
	for i, c := range cases {
		titles[i] = c.Title
	}

	_, err = s.collection().UpdateOne(ctx,
		bson.M{"_id": requirement.ID},
		bson.M{"$set": bson.M{"testCases": titles, "updatedAt": time.Now()}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to store test cases: %w", err)
	}
	return cases, nil
}

// DetectDuplicates flags existing requirements whose title or description
// is close to the candidate text (Jaccard word-set similarity).
func (s *RequirementService) DetectDuplicates(ctx context.Context, projectID, userID, title, description string) ([]models.DuplicateCandidate, error) {
	requirements, err := s.List(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	candidates := []models.DuplicateCandidate{}
	for _, r := range requirements {
		titleSim := JaccardSimilarity(title, r.Title)
		descSim := JaccardSimilarity(description, r.Description)
		if IsLikelyDuplicate(titleSim, descSim) {
			candidates = append(candidates, models.DuplicateCandidate{
				ID:              r.ID.Hex(),
				Code:            r.Code,
				Title:           r.Title,
				TitleSimilarity: titleSim,
				DescSimilarity:  descSim,
			})
		}
	}
	return candidates, nil
}

// Coverage reports implementation and test ratios for a project. An empty
// project reports zeros, not an error.
func (s *RequirementService) Coverage(ctx context.Context, projectID, userID string) (*models.CoverageReport, error) {
	requirements, err := s.List(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	report := &models.CoverageReport{Total: len(requirements)}
	for _, r := range requirements {
		if r.Status == models.RequirementImplemented {
			report.Implemented++
		}
		if len(r.TestCases) > 0 {
			report.Tested++
		}
	}
	if report.Total > 0 {
		report.ImplementationCoverage = float64(report.Implemented) / float64(report.Total) * 100
		report.TestCoverage = float64(report.Tested) / float64(report.Total) * 100
	}
	return report, nil
}

// appendHistory writes one audit entry. History failures are logged, never
// propagated: the mutation that triggered them already committed.
func (s *RequirementService) appendHistory(ctx context.Context, requirementID string, version int, action string, changes map[string]models.FieldChange, userID string) {
	entry := &models.RequirementHistory{
		RequirementID: requirementID,
		Version:       version,
		Action:        action,
		Changes:       changes,
		ChangedBy:     userID,
		CreatedAt:     time.Now(),
	}
	if _, err := s.historyCollection().InsertOne(ctx, entry); err != nil {
		log.Printf("⚠️  Failed to append history for requirement %s: %v", requirementID, err)
	}
}
