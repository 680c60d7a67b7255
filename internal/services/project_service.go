package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
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

var projectKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,9}$`)

// ProjectService manages projects inside workspaces
type ProjectService struct {
	mongoDB    *database.MongoDB
	workspaces *WorkspaceService
}

// NewProjectService creates a new project service
func NewProjectService(mongoDB *database.MongoDB, workspaces *WorkspaceService) *ProjectService {
	return &ProjectService{
		mongoDB:    mongoDB,
		workspaces: workspaces,
	}
}

// collection returns the projects collection
func (s *ProjectService) collection() *mongo.Collection {
	return s.mongoDB.Collection(database.CollectionProjects)
}

// tasksCollection returns the tasks collection
func (s *ProjectService) tasksCollection() *mongo.Collection {
	return s.mongoDB.Collection(database.CollectionTasks)
}

// Create creates a project; the key is uppercased and must be unique in
// the workspace. Requires OWNER, ADMIN or WRITE.
func (s *ProjectService) Create(ctx context.Context, userID string, req *models.CreateProjectRequest) (*models.Project, error) {
	if err := s.workspaces.RequirePermission(ctx, req.WorkspaceID, userID,
		models.PermissionOwner, models.PermissionAdmin, models.PermissionWrite); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("project name is required")
	}

	key := strings.ToUpper(strings.TrimSpace(req.Key))
	if !projectKeyPattern.MatchString(key) {
		return nil, apperr.Validation("project key must be 2-10 uppercase alphanumeric characters starting with a letter")
	}

	count, err := s.collection().CountDocuments(ctx, bson.M{
		"workspaceId": req.WorkspaceID,
		"key":         key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check project key uniqueness: %w", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("project key %q already exists in this workspace", key)
	}

	now := time.Now()
	project := &models.Project{
		WorkspaceID: req.WorkspaceID,
		Name:        strings.TrimSpace(req.Name),
		Key:         key,
		Description: req.Description,
		Status:      models.ProjectPlanning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result, err := s.collection().InsertOne(ctx, project)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("project key %q already exists in this workspace", key)
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	project.ID = result.InsertedID.(primitive.ObjectID)

	log.Printf("✅ Project created: %s [%s]", project.Name, project.Key)
	return project, nil
}

// Get returns a project after verifying workspace membership
func (s *ProjectService) Get(ctx context.Context, projectID, userID string) (*models.Project, error) {
	project, err := s.getByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.workspaces.RequireAccess(ctx, project.WorkspaceID, userID); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) getByID(ctx context.Context, projectID string) (*models.Project, error) {
	objID, err := primitive.ObjectIDFromHex(projectID)
	if err != nil {
		return nil, apperr.Validation("invalid project ID")
	}

	var project models.Project
	err = s.collection().FindOne(ctx, bson.M{"_id": objID}).Decode(&project)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("project not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

// RequireProjectAccess resolves a project and verifies the user is a member
// of its workspace. Returns the project so callers avoid a second lookup.
func (s *ProjectService) RequireProjectAccess(ctx context.Context, projectID, userID string) (*models.Project, error) {
	return s.Get(ctx, projectID, userID)
}

// RequireProjectWrite is RequireProjectAccess restricted to members who can
// modify content (OWNER, ADMIN, WRITE).
func (s *ProjectService) RequireProjectWrite(ctx context.Context, projectID, userID string) (*models.Project, error) {
	project, err := s.getByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.workspaces.RequirePermission(ctx, project.WorkspaceID, userID,
		models.PermissionOwner, models.PermissionAdmin, models.PermissionWrite); err != nil {
		return nil, err
	}
	return project, nil
}

// List returns all projects in a workspace
func (s *ProjectService) List(ctx context.Context, workspaceID, userID string) ([]models.Project, error) {
	if err := s.workspaces.RequireAccess(ctx, workspaceID, userID); err != nil {
		return nil, err
	}

	cursor, err := s.collection().Find(ctx, bson.M{"workspaceId": workspaceID},
		options.Find().SetSort(bson.M{"createdAt": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	var projects []models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	return projects, nil
}

// Update applies a partial update. The key is immutable.
func (s *ProjectService) Update(ctx context.Context, projectID, userID string, req *models.UpdateProjectRequest) (*models.Project, error) {
	project, err := s.RequireProjectWrite(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	update := bson.M{"updatedAt": time.Now()}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, apperr.Validation("project name cannot be empty")
		}
		update["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		update["description"] = *req.Description
	}
	if req.Status != nil {
		switch *req.Status {
		case models.ProjectPlanning, models.ProjectActive, models.ProjectOnHold,
			models.ProjectCompleted, models.ProjectArchived:
		default:
			return nil, apperr.Validation("invalid project status: %s", *req.Status)
		}
		update["status"] = *req.Status
	}

	result := s.collection().FindOneAndUpdate(ctx,
		bson.M{"_id": project.ID},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var updated models.Project
	if err := result.Decode(&updated); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return &updated, nil
}

// Delete removes a project and its contents. Requires OWNER or ADMIN.
func (s *ProjectService) Delete(ctx context.Context, projectID, userID string) error {
	project, err := s.getByID(ctx, projectID)
	if err != nil {
		return err
	}
	if err := s.workspaces.RequirePermission(ctx, project.WorkspaceID, userID,
		models.PermissionOwner, models.PermissionAdmin); err != nil {
		return err
	}

	if _, err := s.collection().DeleteOne(ctx, bson.M{"_id": project.ID}); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	// Best-effort cleanup of project contents
	for _, name := range []string{
		database.CollectionLists,
		database.CollectionTasks,
		database.CollectionRequirements,
	} {
		if _, err := s.mongoDB.Collection(name).DeleteMany(ctx, bson.M{"projectId": projectID}); err != nil {
			log.Printf("⚠️  Failed to clean up %s for project %s: %v", name, projectID, err)
		}
	}
	return nil
}

// Stats returns grouped task counts and a completion rate for a project
func (s *ProjectService) Stats(ctx context.Context, projectID, userID string) (*models.ProjectStats, error) {
	if _, err := s.Get(ctx, projectID, userID); err != nil {
		return nil, err
	}

	byStatus, err := s.groupTasks(ctx, projectID, "$status")
	if err != nil {
		return nil, err
	}
	byPriority, err := s.groupTasks(ctx, projectID, "$priority")
	if err != nil {
		return nil, err
	}
	byAssignee, err := s.groupTasks(ctx, projectID, "$assigneeId")
	if err != nil {
		return nil, err
	}

	stats := &models.ProjectStats{
		ByStatus:   byStatus,
		ByPriority: byPriority,
		ByAssignee: byAssignee,
	}
	for _, bucket := range byStatus {
		stats.TotalTasks += bucket.Count
		if bucket.Key == string(models.TaskStatusDone) {
			stats.CompletedTasks += bucket.Count
		}
	}
	if stats.TotalTasks > 0 {
		stats.CompletionRate = float64(stats.CompletedTasks) / float64(stats.TotalTasks)
	}
	return stats, nil
}

func (s *ProjectService) groupTasks(ctx context.Context, projectID, field string) ([]models.StatusCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"projectId": projectID}}},
		{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	}

	cursor, err := s.tasksCollection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tasks by %s: %w", field, err)
	}
	var counts []models.StatusCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode task aggregation: %w", err)
	}
	return counts, nil
}
