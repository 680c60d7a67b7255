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

// CommentService manages task discussion threads
type CommentService struct {
	mongoDB *database.MongoDB
	tasks   *TaskService
}

// NewCommentService creates a new comment service
func NewCommentService(mongoDB *database.MongoDB, tasks *TaskService) *CommentService {
	return &CommentService{
		mongoDB: mongoDB,
		tasks:   tasks,
	}
}

// collection returns the comments collection
func (s *CommentService) collection() *mongo.Collection {
	return s.mongoDB.Collection(database.CollectionComments)
}

// Add creates a comment on a task and records an activity entry
func (s *CommentService) Add(ctx context.Context, taskID, userID, content, parentID string, mentions []string) (*models.Comment, error) {
	task, err := s.tasks.Get(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("comment content is required")
	}

	if parentID != "" {
		parent, err := s.getByID(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent.TaskID != taskID {
			return nil, apperr.Validation("parent comment belongs to a different task")
		}
	}

	now := time.Now()
	comment := &models.Comment{
		TaskID:    taskID,
		AuthorID:  userID,
		ParentID:  parentID,
		Content:   content,
		Mentions:  mentions,
		CreatedAt: now,
		UpdatedAt: now,
	}

	result, err := s.collection().InsertOne(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	comment.ID = result.InsertedID.(primitive.ObjectID)

	s.tasks.recordActivity(ctx, taskID, userID, models.ActivityCommentAdded, nil)
	s.tasks.events.Publish(ctx, Event{
		Type:      models.ActivityCommentAdded,
		ProjectID: task.ProjectID,
		TaskID:    taskID,
		UserID:    userID,
	})
	return comment, nil
}

// List returns a task's comments oldest first
func (s *CommentService) List(ctx context.Context, taskID, userID string) ([]models.Comment, error) {
	if _, err := s.tasks.Get(ctx, taskID, userID); err != nil {
		return nil, err
	}

	cursor, err := s.collection().Find(ctx, bson.M{"taskId": taskID},
		options.Find().SetSort(bson.M{"createdAt": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	var comments []models.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}
	return comments, nil
}

func (s *CommentService) getByID(ctx context.Context, commentID string) (*models.Comment, error) {
	objID, err := primitive.ObjectIDFromHex(commentID)
	if err != nil {
		return nil, apperr.Validation("invalid comment ID")
	}

	var comment models.Comment
	err = s.collection().FindOne(ctx, bson.M{"_id": objID}).Decode(&comment)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("comment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &comment, nil
}

// Update edits a comment; only the author may edit
func (s *CommentService) Update(ctx context.Context, commentID, userID, content string) (*models.Comment, error) {
	comment, err := s.getByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != userID {
		return nil, apperr.AccessDenied("only the author can edit a comment")
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("comment content is required")
	}

	result := s.collection().FindOneAndUpdate(ctx,
		bson.M{"_id": comment.ID},
		bson.M{"$set": bson.M{"content": content, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var updated models.Comment
	if err := result.Decode(&updated); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	return &updated, nil
}

// Delete removes a comment; only the author may delete
func (s *CommentService) Delete(ctx context.Context, commentID, userID string) error {
	comment, err := s.getByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != userID {
		return apperr.AccessDenied("only the author can delete a comment")
	}

	if _, err := s.collection().DeleteOne(ctx, bson.M{"_id": comment.ID}); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}
