package services

import (
	"context"
	"fmt"
	"log"
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

const (
	defaultTaskPageSize = 50
	maxTaskPageSize     = 100
)

// TaskService manages tasks, their ordering inside lists and their
// activity log. Task numbers are project-scoped and immutable.
type TaskService struct {
	mongoDB  *database.MongoDB
	projects *ProjectService
	events   *EventPublisher
	metrics  *Metrics
}

// NewTaskService creates a new task service
func NewTaskService(mongoDB *database.MongoDB, projects *ProjectService, events *EventPublisher, metrics *Metrics) *TaskService {
	return &TaskService{
		mongoDB:  mongoDB,
		projects: projects,
		events:   events,
		metrics:  metrics,
	}
}

// collection returns the tasks collection
func (s *TaskService) collection() *mongo.Collection {
	return s.mongoDB.Collection(database.CollectionTasks)
}

// activitiesCollection returns the activities collection
func (s *TaskService) activitiesCollection() *mongo.Collection {
	return s.mongoDB.Collection(database.CollectionActivities)
}

func validTaskStatus(status models.TaskStatus) bool {
	switch status {
	case models.TaskStatusBacklog, models.TaskStatusTodo, models.TaskStatusInProgress,
		models.TaskStatusInReview, models.TaskStatusTesting, models.TaskStatusDone,
		models.TaskStatusCancelled:
		return true
	}
	return false
}

func validTaskPriority(priority models.TaskPriority) bool {
	return priority.Rank() > 0
}

// Create creates a task at the end of its list with the next
// project-scoped number.
func (s *TaskService) Create(ctx context.Context, userID string, req *models.CreateTaskRequest) (*models.Task, error) {
	if _, err := s.projects.RequireProjectWrite(ctx, req.ProjectID, userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperr.Validation("task title is required")
	}

	status := req.Status
	if status == "" {
		status = models.TaskStatusTodo
	}
	if !validTaskStatus(status) {
		return nil, apperr.Validation("invalid task status: %s", status)
	}

	priority := req.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}
	if !validTaskPriority(priority) {
		return nil, apperr.Validation("invalid task priority: %s", priority)
	}

	taskType := req.Type
	if taskType == "" {
		taskType = models.TaskTypeTask
	}

	if req.ListID != "" {
		list, err := s.lookupList(ctx, req.ListID)
		if err != nil {
			return nil, err
		}
		if list.ProjectID != req.ProjectID {
			return nil, apperr.Validation("list does not belong to this project")
		}
	}

	if req.ParentID != "" {
		parent, err := s.getByID(ctx, req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.ProjectID != req.ProjectID {
			return nil, apperr.Validation("parent task does not belong to this project")
		}
	}

	number, err := s.mongoDB.NextSequence(ctx, "task:"+req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate task number: %w", err)
	}

	position, err := s.activeTaskCount(ctx, req.ProjectID, req.ListID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	task := &models.Task{
		ProjectID:      req.ProjectID,
		ListID:         req.ListID,
		ParentID:       req.ParentID,
		Number:         number,
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		Status:         status,
		Priority:       priority,
		Type:           taskType,
		AssigneeID:     req.AssigneeID,
		ReporterID:     userID,
		Position:       position,
		EstimatedHours: req.EstimatedHours,
		StoryPoints:    req.StoryPoints,
		DueDate:        req.DueDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	result, err := s.collection().InsertOne(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	task.ID = result.InsertedID.(primitive.ObjectID)

	s.recordActivity(ctx, task.ID.Hex(), userID, models.ActivityTaskCreated, nil)
	s.metrics.RecordTaskCreated()
	s.events.Publish(ctx, Event{
		Type:      models.ActivityTaskCreated,
		ProjectID: task.ProjectID,
		TaskID:    task.ID.Hex(),
		UserID:    userID,
	})
	return task, nil
}

// Get returns a task after verifying project access
func (s *TaskService) Get(ctx context.Context, taskID, userID string) (*models.Task, error) {
	task, err := s.getByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.RequireProjectAccess(ctx, task.ProjectID, userID); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) getByID(ctx context.Context, taskID string) (*models.Task, error) {
	objID, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, apperr.Validation("invalid task ID")
	}

	var task models.Task
	err = s.collection().FindOne(ctx, bson.M{"_id": objID}).Decode(&task)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("task not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

func (s *TaskService) lookupList(ctx context.Context, listID string) (*models.List, error) {
	objID, err := primitive.ObjectIDFromHex(listID)
	if err != nil {
		return nil, apperr.Validation("invalid list ID")
	}

	var list models.List
	err = s.mongoDB.Collection(database.CollectionLists).
		FindOne(ctx, bson.M{"_id": objID}).Decode(&list)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("list not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}
	return &list, nil
}

// activeTaskCount counts non-archived tasks in one list of a project
func (s *TaskService) activeTaskCount(ctx context.Context, projectID, listID string) (int, error) {
	filter := bson.M{"projectId": projectID, "archived": false}
	if listID == "" {
		filter["listId"] = bson.M{"$in": bson.A{"", nil}}
	} else {
		filter["listId"] = listID
	}
	count, err := s.collection().CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return int(count), nil
}

// List returns tasks matching the filter, sorted by list and position.
// Archived tasks are excluded unless the filter asks for them.
func (s *TaskService) List(ctx context.Context, userID string, filter *models.TaskFilter) ([]models.Task, error) {
	if filter.ProjectID == "" {
		return nil, apperr.Validation("project ID is required")
	}
	if _, err := s.projects.RequireProjectAccess(ctx, filter.ProjectID, userID); err != nil {
		return nil, err
	}

	query := bson.M{"projectId": filter.ProjectID}
	if !filter.IncludeArchived {
		query["archived"] = false
	}
	if filter.ListID != "" {
		query["listId"] = filter.ListID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.AssigneeID != "" {
		query["assigneeId"] = filter.AssigneeID
	}
	if filter.ParentID != "" {
		query["parentId"] = filter.ParentID
	}
	if filter.Search != "" {
		query["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": filter.Search, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": filter.Search, "$options": "i"}},
		}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultTaskPageSize
	}
	if limit > maxTaskPageSize {
		limit = maxTaskPageSize
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "listId", Value: 1}, {Key: "position", Value: 1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := s.collection().Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}

// Update applies a partial update and records the field-level changes in
// the activity log. Position changes are rejected here; ordering is
// changed only through Reorder and MoveToList.
func (s *TaskService) Update(ctx context.Context, taskID, userID string, req *models.UpdateTaskRequest) (*models.Task, error) {
	task, err := s.getByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.RequireProjectWrite(ctx, task.ProjectID, userID); err != nil {
		return nil, err
	}

	if req.Position != nil {
		return nil, apperr.Validation("task position cannot be set directly; use reorder or move")
	}

	// A list change is a move to the end of the target list
	if req.ListID != nil && *req.ListID != task.ListID {
		moved, err := s.MoveToList(ctx, taskID, userID, *req.ListID, -1)
		if err != nil {
			return nil, err
		}
		task = moved
	}

	update := bson.M{"updatedAt": time.Now()}
	changes := map[string]interface{}{}

	setField := func(name string, from, to interface{}) {
		update[name] = to
		changes[name] = map[string]interface{}{"from": from, "to": to}
	}

	if req.Title != nil && *req.Title != task.Title {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, apperr.Validation("task title cannot be empty")
		}
		setField("title", task.Title, strings.TrimSpace(*req.Title))
	}
	if req.Description != nil && *req.Description != task.Description {
		setField("description", task.Description, *req.Description)
	}
	if req.Status != nil && *req.Status != task.Status {
		if !validTaskStatus(*req.Status) {
			return nil, apperr.Validation("invalid task status: %s", *req.Status)
		}
		setField("status", string(task.Status), string(*req.Status))
	}
	if req.Priority != nil && *req.Priority != task.Priority {
		if !validTaskPriority(*req.Priority) {
			return nil, apperr.Validation("invalid task priority: %s", *req.Priority)
		}
		setField("priority", string(task.Priority), string(*req.Priority))
	}
	if req.Type != nil && *req.Type != task.Type {
		setField("type", string(task.Type), string(*req.Type))
	}
	if req.AssigneeID != nil && *req.AssigneeID != task.AssigneeID {
		setField("assigneeId", task.AssigneeID, *req.AssigneeID)
	}
	if req.EstimatedHours != nil && *req.EstimatedHours != task.EstimatedHours {
		setField("estimatedHours", task.EstimatedHours, *req.EstimatedHours)
	}
	if req.StoryPoints != nil && *req.StoryPoints != task.StoryPoints {
		setField("storyPoints", task.StoryPoints, *req.StoryPoints)
	}
	if req.DueDate != nil {
		setField("dueDate", task.DueDate, *req.DueDate)
	}

	if len(changes) == 0 {
		return task, nil
	}

	result := s.collection().FindOneAndUpdate(ctx,
		bson.M{"_id": task.ID},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var updated models.Task
	if err := result.Decode(&updated); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.recordActivity(ctx, task.ID.Hex(), userID, models.ActivityTaskUpdated, changes)
	s.events.Publish(ctx, Event{
		Type:      models.ActivityTaskUpdated,
		ProjectID: updated.ProjectID,
		TaskID:    updated.ID.Hex(),
		UserID:    userID,
	})
	return &updated, nil
}

// Delete removes a task. Tasks with subtasks are rejected; dependency
// edges touching the task are removed with it.
func (s *TaskService) Delete(ctx context.Context, taskID, userID string) error {
	task, err := s.getByID(ctx, taskID)
	if err != nil {
		return err
	}
	if _, err := s.projects.RequireProjectWrite(ctx, task.ProjectID, userID); err != nil {
		return err
	}

	subtasks, err := s.collection().CountDocuments(ctx, bson.M{"parentId": taskID})
	if err != nil {
		return fmt.Errorf("failed to count subtasks: %w", err)
	}
	if subtasks > 0 {
		return apperr.Precondition("task has %d subtasks; delete or reparent them first", subtasks)
	}

	if _, err := s.collection().DeleteOne(ctx, bson.M{"_id": task.ID}); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	// Edges in either direction die with the task
	_, err = s.mongoDB.Collection(database.CollectionTaskDependencies).DeleteMany(ctx, bson.M{
		"$or": bson.A{
			bson.M{"dependentId": taskID},
			bson.M{"dependsOnId": taskID},
		},
	})
	if err != nil {
		log.Printf("⚠️  Failed to clean up dependencies for task %s: %v", taskID, err)
	}

	// Close the position gap in the source list
	if !task.Archived {
		_, err = s.collection().UpdateMany(ctx,
			bson.M{"projectId": task.ProjectID, "listId": task.ListID, "archived": false,
				"position": bson.M{"$gt": task.Position}},
			bson.M{"$inc": bson.M{"position": -1}},
		)
		if err != nil {
			return fmt.Errorf("failed to compact task positions: %w", err)
		}
	}

	for _, name := range []string{
		database.CollectionComments,
		database.CollectionChecklists,
		database.CollectionTimeEntries,
		database.CollectionActivities,
	} {
		if _, err := s.mongoDB.Collection(name).DeleteMany(ctx, bson.M{"taskId": taskID}); err != nil {
			log.Printf("⚠️  Failed to clean up %s for task %s: %v", name, taskID, err)
		}
	}
	return nil
}

// BulkUpdate applies partial updates to several tasks. Each task succeeds
// or fails on its own; one bad update does not roll back the others.
func (s *TaskService) BulkUpdate(ctx context.Context, userID string, updates []models.BulkTaskUpdate) (*models.BulkTaskUpdateResult, error) {
	if len(updates) == 0 {
		return nil, apperr.Validation("no updates provided")
	}

	result := &models.BulkTaskUpdateResult{
		Successful: []models.Task{},
		Failed:     []models.FailedTaskOp{},
	}
	for _, u := range updates {
		updated, err := s.Update(ctx, u.TaskID, userID, &u.Update)
		if err != nil {
			result.Failed = append(result.Failed, models.FailedTaskOp{
				TaskID: u.TaskID,
				Error:  err.Error(),
			})
			s.metrics.RecordBulkUpdate("failure")
			continue
		}
		result.Successful = append(result.Successful, *updated)
		s.metrics.RecordBulkUpdate("success")
	}
	return result, nil
}

// Reorder rewrites the positions of all active tasks in one list from the
// given ordering. The ordering must be a permutation of the list's tasks
// and is applied in a single transaction.
func (s *TaskService) Reorder(ctx context.Context, projectID, listID, userID string, orderedIDs []string) ([]models.Task, error) {
	if _, err := s.projects.RequireProjectWrite(ctx, projectID, userID); err != nil {
		return nil, err
	}

	filter := bson.M{"projectId": projectID, "archived": false}
	if listID == "" {
		filter["listId"] = bson.M{"$in": bson.A{"", nil}}
	} else {
		filter["listId"] = listID
	}
	cursor, err := s.collection().Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	var existing []models.Task
	if err := cursor.All(ctx, &existing); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}

	current := make([]string, len(existing))
	for i, t := range existing {
		current[i] = t.ID.Hex()
	}
	if err := ValidateReorder(current, orderedIDs); err != nil {
		return nil, err
	}

	objIDs := make([]primitive.ObjectID, len(orderedIDs))
	for i, id := range orderedIDs {
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, apperr.Validation("invalid task ID: %s", id)
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
	s.metrics.RecordTaskReorder()

	return s.List(ctx, userID, &models.TaskFilter{ProjectID: projectID, ListID: listID})
}

// MoveToList moves a task into another list at the given position, shifting
// neighbors in both lists inside one transaction. A negative position
// appends at the end of the target list.
func (s *TaskService) MoveToList(ctx context.Context, taskID, userID, targetListID string, position int) (*models.Task, error) {
	task, err := s.getByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.RequireProjectWrite(ctx, task.ProjectID, userID); err != nil {
		return nil, err
	}
	if task.Archived {
		return nil, apperr.Precondition("archived tasks cannot be moved")
	}

	if targetListID != "" {
		list, err := s.lookupList(ctx, targetListID)
		if err != nil {
			return nil, err
		}
		if list.ProjectID != task.ProjectID {
			return nil, apperr.Validation("target list does not belong to this project")
		}
	}

	targetCount, err := s.activeTaskCount(ctx, task.ProjectID, targetListID)
	if err != nil {
		return nil, err
	}
	if targetListID == task.ListID {
		// The task itself is not a neighbor in its own list
		targetCount--
	}
	newPos := InsertPosition(position, targetCount)

	sourceFilter := bson.M{"projectId": task.ProjectID, "archived": false,
		"position": bson.M{"$gt": task.Position}, "_id": bson.M{"$ne": task.ID}}
	targetFilter := bson.M{"projectId": task.ProjectID, "archived": false,
		"position": bson.M{"$gte": newPos}, "_id": bson.M{"$ne": task.ID}}
	if task.ListID == "" {
		sourceFilter["listId"] = bson.M{"$in": bson.A{"", nil}}
	} else {
		sourceFilter["listId"] = task.ListID
	}
	if targetListID == "" {
		targetFilter["listId"] = bson.M{"$in": bson.A{"", nil}}
	} else {
		targetFilter["listId"] = targetListID
	}

	now := time.Now()
	err = s.mongoDB.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.collection().UpdateMany(sessCtx, sourceFilter,
			bson.M{"$inc": bson.M{"position": -1}}); err != nil {
			return fmt.Errorf("failed to compact source list: %w", err)
		}
		if _, err := s.collection().UpdateMany(sessCtx, targetFilter,
			bson.M{"$inc": bson.M{"position": 1}}); err != nil {
			return fmt.Errorf("failed to shift target list: %w", err)
		}
		if _, err := s.collection().UpdateOne(sessCtx,
			bson.M{"_id": task.ID},
			bson.M{"$set": bson.M{"listId": targetListID, "position": newPos, "updatedAt": now}},
		); err != nil {
			return fmt.Errorf("failed to move task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTaskMove()

	s.recordActivity(ctx, taskID, userID, models.ActivityTaskUpdated, map[string]interface{}{
		"listId": map[string]interface{}{"from": task.ListID, "to": targetListID},
	})
	return s.getByID(ctx, taskID)
}

// Archive removes a task from its list's ordering without deleting it
func (s *TaskService) Archive(ctx context.Context, taskID, userID string) (*models.Task, error) {
	task, err := s.getByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.RequireProjectWrite(ctx, task.ProjectID, userID); err != nil {
		return nil, err
	}
	if task.Archived {
		return nil, apperr.Conflict("task is already archived")
	}

	now := time.Now()
	_, err = s.collection().UpdateOne(ctx,
		bson.M{"_id": task.ID},
		bson.M{"$set": bson.M{"archived": true, "archivedAt": now, "updatedAt": now}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to archive task: %w", err)
	}

	// Close the gap among active tasks
	compact := bson.M{"projectId": task.ProjectID, "archived": false,
		"position": bson.M{"$gt": task.Position}}
	if task.ListID == "" {
		compact["listId"] = bson.M{"$in": bson.A{"", nil}}
	} else {
		compact["listId"] = task.ListID
	}
	if _, err := s.collection().UpdateMany(ctx, compact,
		bson.M{"$inc": bson.M{"position": -1}}); err != nil {
		return nil, fmt.Errorf("failed to compact task positions: %w", err)
	}

	s.recordActivity(ctx, taskID, userID, models.ActivityTaskArchived, nil)
	s.events.Publish(ctx, Event{
		Type:      models.ActivityTaskArchived,
		ProjectID: task.ProjectID,
		TaskID:    taskID,
		UserID:    userID,
	})
	return s.getByID(ctx, taskID)
}

// Unarchive restores a task at the end of its list
func (s *TaskService) Unarchive(ctx context.Context, taskID, userID string) (*models.Task, error) {
	task, err := s.getByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.RequireProjectWrite(ctx, task.ProjectID, userID); err != nil {
		return nil, err
	}
	if !task.Archived {
		return nil, apperr.Conflict("task is not archived")
	}

	position, err := s.activeTaskCount(ctx, task.ProjectID, task.ListID)
	if err != nil {
		return nil, err
	}

	_, err = s.collection().UpdateOne(ctx,
		bson.M{"_id": task.ID},
		bson.M{
			"$set":   bson.M{"archived": false, "position": position, "updatedAt": time.Now()},
			"$unset": bson.M{"archivedAt": ""},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to unarchive task: %w", err)
	}

	s.recordActivity(ctx, taskID, userID, models.ActivityTaskUnarchived, nil)
	return s.getByID(ctx, taskID)
}

// ByAssignee returns a user's active tasks across a project
func (s *TaskService) ByAssignee(ctx context.Context, projectID, assigneeID, userID string) ([]models.Task, error) {
	return s.List(ctx, userID, &models.TaskFilter{
		ProjectID:  projectID,
		AssigneeID: assigneeID,
	})
}

// Overdue returns active tasks past their due date that are not yet done
func (s *TaskService) Overdue(ctx context.Context, projectID, userID string) ([]models.Task, error) {
	if _, err := s.projects.RequireProjectAccess(ctx, projectID, userID); err != nil {
		return nil, err
	}

	query := bson.M{
		"projectId": projectID,
		"archived":  false,
		"dueDate":   bson.M{"$lt": time.Now()},
		"status":    bson.M{"$nin": bson.A{models.TaskStatusDone, models.TaskStatusCancelled}},
	}
	cursor, err := s.collection().Find(ctx, query,
		options.Find().SetSort(bson.M{"dueDate": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue tasks: %w", err)
	}
	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}

// Activities returns a task's activity log, newest first
func (s *TaskService) Activities(ctx context.Context, taskID, userID string) ([]models.Activity, error) {
	if _, err := s.Get(ctx, taskID, userID); err != nil {
		return nil, err
	}

	cursor, err := s.activitiesCollection().Find(ctx, bson.M{"taskId": taskID},
		options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	var activities []models.Activity
	if err := cursor.All(ctx, &activities); err != nil {
		return nil, fmt.Errorf("failed to decode activities: %w", err)
	}
	return activities, nil
}

// recordActivity appends an audit entry. Activity writes never fail the
// operation that triggered them.
func (s *TaskService) recordActivity(ctx context.Context, taskID, userID, activityType string, changes map[string]interface{}) {
	activity := &models.Activity{
		TaskID:    taskID,
		UserID:    userID,
		Type:      activityType,
		Changes:   changes,
		CreatedAt: time.Now(),
	}
	if _, err := s.activitiesCollection().InsertOne(ctx, activity); err != nil {
		log.Printf("⚠️  Failed to record %s activity for task %s: %v", activityType, taskID, err)
	}
}
