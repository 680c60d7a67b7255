package services

import (
	"context"
	"fmt"
	"time"

	"planboard/internal/apperr"
	"planboard/internal/database"
	"planboard/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TimeTrackingService records time spent on tasks. A user has at most one
// running entry per task.
type TimeTrackingService struct {
	mongoDB *database.MongoDB
	tasks   *TaskService
}

// NewTimeTrackingService creates a new time tracking service
func NewTimeTrackingService(mongoDB *database.MongoDB, tasks *TaskService) *TimeTrackingService {
	return &TimeTrackingService{
		mongoDB: mongoDB,
		tasks:   tasks,
	}
}

// collection returns the time entries collection
func (s *TimeTrackingService) collection() *mongo.Collection {
	return s.mongoDB.Collection(database.CollectionTimeEntries)
}

// Start opens a running entry for the user on a task
func (s *TimeTrackingService) Start(ctx context.Context, taskID, userID, description string) (*models.TimeEntry, error) {
	if _, err := s.tasks.Get(ctx, taskID, userID); err != nil {
		return nil, err
	}

	running, err := s.collection().CountDocuments(ctx, bson.M{
		"taskId":  taskID,
		"userId":  userID,
		"endTime": nil,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check running entries: %w", err)
	}
	if running > 0 {
		return nil, apperr.Conflict("a timer is already running on this task")
	}

	now := time.Now()
	entry := &models.TimeEntry{
		TaskID:      taskID,
		UserID:      userID,
		StartTime:   now,
		Description: description,
		CreatedAt:   now,
	}
	result, err := s.collection().InsertOne(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to start time entry: %w", err)
	}
	entry.ID = result.InsertedID.(primitive.ObjectID)
	return entry, nil
}

// Stop closes the user's running entry on a task and computes its
// duration in minutes.
func (s *TimeTrackingService) Stop(ctx context.Context, taskID, userID string) (*models.TimeEntry, error) {
	if _, err := s.tasks.Get(ctx, taskID, userID); err != nil {
		return nil, err
	}

	var entry models.TimeEntry
	err := s.collection().FindOne(ctx, bson.M{
		"taskId":  taskID,
		"userId":  userID,
		"endTime": nil,
	}).Decode(&entry)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("no running timer on this task")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find running entry: %w", err)
	}

	now := time.Now()
	duration := int(now.Sub(entry.StartTime).Minutes())

	result := s.collection().FindOneAndUpdate(ctx,
		bson.M{"_id": entry.ID},
		bson.M{"$set": bson.M{"endTime": now, "duration": duration}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var updated models.TimeEntry
	if err := result.Decode(&updated); err != nil {
		return nil, fmt.Errorf("failed to stop time entry: %w", err)
	}
	return &updated, nil
}

// List returns a task's time entries, newest first
func (s *TimeTrackingService) List(ctx context.Context, taskID, userID string) ([]models.TimeEntry, error) {
	if _, err := s.tasks.Get(ctx, taskID, userID); err != nil {
		return nil, err
	}

	cursor, err := s.collection().Find(ctx, bson.M{"taskId": taskID},
		options.Find().SetSort(bson.M{"startTime": -1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list time entries: %w", err)
	}
	var entries []models.TimeEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode time entries: %w", err)
	}
	return entries, nil
}

// TotalMinutes sums completed entry durations for a task
func (s *TimeTrackingService) TotalMinutes(ctx context.Context, taskID, userID string) (int, error) {
	entries, err := s.List(ctx, taskID, userID)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, e := range entries {
		total += e.Duration
	}
	return total, nil
}
