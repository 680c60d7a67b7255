package services

import (
	"context"
	"fmt"
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

// ListService manages the ordered lists (columns) of a project.
// Positions are dense: 0..N-1 with no gaps or duplicates.
type ListService struct {
	mongoDB  *database.MongoDB
	projects *ProjectService
}

// NewListService creates a new list service
func NewListService(mongoDB *database.MongoDB, projects *ProjectService) *ListService {
	return &ListService{
		mongoDB:  mongoDB,
		projects: projects,
	}
}

// collection returns the lists collection
func (s *ListService) collection() *mongo.Collection {
	return s.mongoDB.Collection(database.CollectionLists)
}

// Create appends a list at the end of the project's ordering
func (s *ListService) Create(ctx context.Context, userID string, req *models.CreateListRequest) (*models.List, error) {
	if _, err := s.projects.RequireProjectWrite(ctx, req.ProjectID, userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("list name is required")
	}

	count, err := s.collection().CountDocuments(ctx, bson.M{"projectId": req.ProjectID})
	if err != nil {
		return nil, fmt.Errorf("failed to count lists: %w", err)
	}

	now := time.Now()
	list := &models.List{
		ProjectID: req.ProjectID,
		Name:      strings.TrimSpace(req.Name),
		Color:     req.Color,
		Position:  int(count),
		CreatedAt: now,
		UpdatedAt: now,
	}

	result, err := s.collection().InsertOne(ctx, list)
	if err != nil {
		return nil, fmt.Errorf("failed to create list: %w", err)
	}
	list.ID = result.InsertedID.(primitive.ObjectID)
	return list, nil
}

// List returns a project's lists in position order
func (s *ListService) List(ctx context.Context, projectID, userID string) ([]models.List, error) {
	if _, err := s.projects.RequireProjectAccess(ctx, projectID, userID); err != nil {
		return nil, err
	}

	cursor, err := s.collection().Find(ctx, bson.M{"projectId": projectID},
		options.Find().SetSort(bson.M{"position": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	var lists []models.List
	if err := cursor.All(ctx, &lists); err != nil {
		return nil, fmt.Errorf("failed to decode lists: %w", err)
	}
	return lists, nil
}

// Get returns a single list
func (s *ListService) Get(ctx context.Context, listID, userID string) (*models.List, error) {
	list, err := s.getByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.RequireProjectAccess(ctx, list.ProjectID, userID); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *ListService) getByID(ctx context.Context, listID string) (*models.List, error) {
	objID, err := primitive.ObjectIDFromHex(listID)
	if err != nil {
		return nil, apperr.Validation("invalid list ID")
	}

	var list models.List
	err = s.collection().FindOne(ctx, bson.M{"_id": objID}).Decode(&list)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("list not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}
	return &list, nil
}

// Update applies a partial update to name and color. Position changes go
// through Reorder, never through here.
func (s *ListService) Update(ctx context.Context, listID, userID string, req *models.UpdateListRequest) (*models.List, error) {
	list, err := s.getByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.RequireProjectWrite(ctx, list.ProjectID, userID); err != nil {
		return nil, err
	}

	update := bson.M{"updatedAt": time.Now()}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, apperr.Validation("list name cannot be empty")
		}
		update["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Color != nil {
		update["color"] = *req.Color
	}

	result := s.collection().FindOneAndUpdate(ctx,
		bson.M{"_id": list.ID},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var updated models.List
	if err := result.Decode(&updated); err != nil {
		return nil, fmt.Errorf("failed to update list: %w", err)
	}
	return &updated, nil
}

// Delete removes an empty list. Lists still holding tasks are rejected.
func (s *ListService) Delete(ctx context.Context, listID, userID string) error {
	list, err := s.getByID(ctx, listID)
	if err != nil {
		return err
	}
	if _, err := s.projects.RequireProjectWrite(ctx, list.ProjectID, userID); err != nil {
		return err
	}

	taskCount, err := s.mongoDB.Collection(database.CollectionTasks).
		CountDocuments(ctx, bson.M{"listId": listID})
	if err != nil {
		return fmt.Errorf("failed to count tasks in list: %w", err)
	}
	if taskCount > 0 {
		return apperr.Precondition("list still contains %d tasks; move or delete them first", taskCount)
	}

	if _, err := s.collection().DeleteOne(ctx, bson.M{"_id": list.ID}); err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}

	// Close the position gap left by the removed list
	_, err = s.collection().UpdateMany(ctx,
		bson.M{"projectId": list.ProjectID, "position": bson.M{"$gt": list.Position}},
		bson.M{"$inc": bson.M{"position": -1}},
	)
	if err != nil {
		return fmt.Errorf("failed to compact list positions: %w", err)
	}
	return nil
}

// Reorder rewrites list positions from the given ordering. The ordering
// must be a permutation of every list in the project; all position writes
// happen in one transaction so a failure leaves the old order intact.
func (s *ListService) Reorder(ctx context.Context, projectID, userID string, orderedIDs []string) ([]models.List, error) {
	if _, err := s.projects.RequireProjectWrite(ctx, projectID, userID); err != nil {
		return nil, err
	}

	cursor, err := s.collection().Find(ctx, bson.M{"projectId": projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to load lists: %w", err)
	}
	var existing []models.List
	if err := cursor.All(ctx, &existing); err != nil {
		return nil, fmt.Errorf("failed to decode lists: %w", err)
	}

	current := make([]string, len(existing))
	for i, l := range existing {
		current[i] = l.ID.Hex()
	}
	if err := ValidateReorder(current, orderedIDs); err != nil {
		return nil, err
	}

	objIDs := make([]primitive.ObjectID, len(orderedIDs))
	for i, id := range orderedIDs {
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, apperr.Validation("invalid list ID: %s", id)
		}
		objIDs[i] = objID
	}

	now := time.Now()
	err = s.mongoDB.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		for i, objID := range objIDs {
			_, err := s.collection().UpdateOne(sessCtx,
				bson.M{"_id": objID},
				bson.M{"$set": bson.M{"position": i, "updatedAt": now}},
			)
			if err != nil {
				return fmt.Errorf("failed to set position %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.List(ctx, projectID, userID)
}
