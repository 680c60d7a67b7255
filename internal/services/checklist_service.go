package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"planboard/internal/apperr"
	"planboard/internal/database"
	"planboard/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChecklistService manages per-task checklists. Item positions follow the
// same dense 0..N-1 rule as task positions, scoped to their checklist.
type ChecklistService struct {
	mongoDB *database.MongoDB
	tasks   *TaskService
}

// NewChecklistService creates a new checklist service
func NewChecklistService(mongoDB *database.MongoDB, tasks *TaskService) *ChecklistService {
	return &ChecklistService{
		mongoDB: mongoDB,
		tasks:   tasks,
	}
}

// collection returns the checklists collection
func (s *ChecklistService) collection() *mongo.Collection {
	return s.mongoDB.Collection(database.CollectionChecklists)
}

// Create creates an empty checklist on a task
func (s *ChecklistService) Create(ctx context.Context, taskID, userID, title string) (*models.Checklist, error) {
	if _, err := s.tasks.Get(ctx, taskID, userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		return nil, apperr.Validation("checklist title is required")
	}

	checklist := &models.Checklist{
		TaskID:    taskID,
		Title:     strings.TrimSpace(title),
		Items:     []models.ChecklistItem{},
		CreatedAt: time.Now(),
	}
	result, err := s.collection().InsertOne(ctx, checklist)
	if err != nil {
		return nil, fmt.Errorf("failed to create checklist: %w", err)
	}
	checklist.ID = result.InsertedID.(primitive.ObjectID)
	return checklist, nil
}

// List returns a task's checklists
func (s *ChecklistService) List(ctx context.Context, taskID, userID string) ([]models.Checklist, error) {
	if _, err := s.tasks.Get(ctx, taskID, userID); err != nil {
		return nil, err
	}

	cursor, err := s.collection().Find(ctx, bson.M{"taskId": taskID},
		options.Find().SetSort(bson.M{"createdAt": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list checklists: %w", err)
	}
	var checklists []models.Checklist
	if err := cursor.All(ctx, &checklists); err != nil {
		return nil, fmt.Errorf("failed to decode checklists: %w", err)
	}
	return checklists, nil
}

func (s *ChecklistService) getByID(ctx context.Context, checklistID string) (*models.Checklist, error) {
	objID, err := primitive.ObjectIDFromHex(checklistID)
	if err != nil {
		return nil, apperr.Validation("invalid checklist ID")
	}

	var checklist models.Checklist
	err = s.collection().FindOne(ctx, bson.M{"_id": objID}).Decode(&checklist)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("checklist not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checklist: %w", err)
	}
	return &checklist, nil
}

// AddItem appends an item at the end of the checklist
func (s *ChecklistService) AddItem(ctx context.Context, checklistID, userID, content string) (*models.Checklist, error) {
	checklist, err := s.getByID(ctx, checklistID)
	if err != nil {
		return nil, err
	}
	if _, err := s.tasks.Get(ctx, checklist.TaskID, userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("item content is required")
	}

	item := models.ChecklistItem{
		ID:       uuid.NewString(),
		Content:  strings.TrimSpace(content),
		Position: len(checklist.Items),
	}

	result := s.collection().FindOneAndUpdate(ctx,
		bson.M{"_id": checklist.ID},
		bson.M{"$push": bson.M{"items": item}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var updated models.Checklist
	if err := result.Decode(&updated); err != nil {
		return nil, fmt.Errorf("failed to add checklist item: %w", err)
	}
	return &updated, nil
}

// ToggleItem flips an item's completion state
func (s *ChecklistService) ToggleItem(ctx context.Context, checklistID, itemID, userID string) (*models.Checklist, error) {
	checklist, err := s.getByID(ctx, checklistID)
	if err != nil {
		return nil, err
	}
	if _, err := s.tasks.Get(ctx, checklist.TaskID, userID); err != nil {
		return nil, err
	}

	found := false
	for i := range checklist.Items {
		if checklist.Items[i].ID == itemID {
			checklist.Items[i].IsCompleted = !checklist.Items[i].IsCompleted
			found = true
			break
		}
	}
	if !found {
		return nil, apperr.NotFound("checklist item not found")
	}

	return s.writeItems(ctx, checklist.ID, checklist.Items)
}

// RemoveItem deletes an item and compacts the remaining positions
func (s *ChecklistService) RemoveItem(ctx context.Context, checklistID, itemID, userID string) (*models.Checklist, error) {
	checklist, err := s.getByID(ctx, checklistID)
	if err != nil {
		return nil, err
	}
	if _, err := s.tasks.Get(ctx, checklist.TaskID, userID); err != nil {
		return nil, err
	}

	items := make([]models.ChecklistItem, 0, len(checklist.Items))
	found := false
	for _, item := range checklist.Items {
		if item.ID == itemID {
			found = true
			continue
		}
		item.Position = len(items)
		items = append(items, item)
	}
	if !found {
		return nil, apperr.NotFound("checklist item not found")
	}

	return s.writeItems(ctx, checklist.ID, items)
}

// Delete removes a checklist and all its items
func (s *ChecklistService) Delete(ctx context.Context, checklistID, userID string) error {
	checklist, err := s.getByID(ctx, checklistID)
	if err != nil {
		return err
	}
	if _, err := s.tasks.Get(ctx, checklist.TaskID, userID); err != nil {
		return err
	}

	if _, err := s.collection().DeleteOne(ctx, bson.M{"_id": checklist.ID}); err != nil {
		return fmt.Errorf("failed to delete checklist: %w", err)
	}
	return nil
}

func (s *ChecklistService) writeItems(ctx context.Context, id primitive.ObjectID, items []models.ChecklistItem) (*models.Checklist, error) {
	result := s.collection().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"items": items}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var updated models.Checklist
	if err := result.Decode(&updated); err != nil {
		return nil, fmt.Errorf("failed to update checklist items: %w", err)
	}
	return &updated, nil
}
