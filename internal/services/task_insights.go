package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"planboard/internal/apperr"
	"planboard/internal/database"
	"planboard/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Duplicate copies a task into the same project under a fresh number.
// The copy always starts as TODO at the end of its list; checklists and
// comments come along only when asked for, with checklist items reset to
// unchecked.
func (s *TaskService) Duplicate(ctx context.Context, taskID, userID string, req *models.DuplicateTaskRequest) (*models.Task, error) {
	original, err := s.getByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.RequireProjectWrite(ctx, original.ProjectID, userID); err != nil {
		return nil, err
	}

	listID := original.ListID
	if req.NewListID != "" {
		list, err := s.lookupList(ctx, req.NewListID)
		if err != nil {
			return nil, err
		}
		if list.ProjectID != original.ProjectID {
			return nil, apperr.Validation("target list does not belong to this project")
		}
		listID = req.NewListID
	}

	title := strings.TrimSpace(req.NewTitle)
	if title == "" {
		title = CopyTitle(original.Title)
	}
	assigneeID := original.AssigneeID
	if req.NewAssigneeID != "" {
		assigneeID = req.NewAssigneeID
	}

	number, err := s.mongoDB.NextSequence(ctx, "task:"+original.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate task number: %w", err)
	}
	position, err := s.activeTaskCount(ctx, original.ProjectID, listID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	dup := &models.Task{
		ProjectID:      original.ProjectID,
		ListID:         listID,
		ParentID:       original.ParentID,
		Number:         number,
		Title:          title,
		Description:    original.Description,
		Status:         models.TaskStatusTodo,
		Priority:       original.Priority,
		Type:           original.Type,
		AssigneeID:     assigneeID,
		ReporterID:     original.ReporterID,
		Position:       position,
		EstimatedHours: original.EstimatedHours,
		StoryPoints:    original.StoryPoints,
		DueDate:        original.DueDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	result, err := s.collection().InsertOne(ctx, dup)
	if err != nil {
		return nil, fmt.Errorf("failed to duplicate task: %w", err)
	}
	dup.ID = result.InsertedID.(primitive.ObjectID)

	if req.IncludeChecklists {
		if err := s.copyChecklists(ctx, taskID, dup.ID.Hex()); err != nil {
			log.Printf("⚠️  Failed to copy checklists from task %s: %v", taskID, err)
		}
	}
	if req.IncludeComments {
		if err := s.copyComments(ctx, taskID, dup.ID.Hex()); err != nil {
			log.Printf("⚠️  Failed to copy comments from task %s: %v", taskID, err)
		}
	}

	s.recordActivity(ctx, dup.ID.Hex(), userID, models.ActivityTaskCreated, map[string]interface{}{
		"duplicatedFrom": taskID,
	})
	s.metrics.RecordTaskCreated()
	s.events.Publish(ctx, Event{
		Type:      models.ActivityTaskCreated,
		ProjectID: dup.ProjectID,
		TaskID:    dup.ID.Hex(),
		UserID:    userID,
	})
	return dup, nil
}

func (s *TaskService) copyChecklists(ctx context.Context, fromTaskID, toTaskID string) error {
	cursor, err := s.mongoDB.Collection(database.CollectionChecklists).
		Find(ctx, bson.M{"taskId": fromTaskID})
	if err != nil {
		return err
	}
	var checklists []models.Checklist
	if err := cursor.All(ctx, &checklists); err != nil {
		return err
	}

	now := time.Now()
	for _, checklist := range checklists {
		items := make([]models.ChecklistItem, len(checklist.Items))
		for i, item := range checklist.Items {
			items[i] = models.ChecklistItem{
				ID:          uuid.NewString(),
				Content:     item.Content,
				IsCompleted: false,
				Position:    i,
			}
		}
		_, err := s.mongoDB.Collection(database.CollectionChecklists).InsertOne(ctx, &models.Checklist{
			TaskID:    toTaskID,
			Title:     checklist.Title,
			Items:     items,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *TaskService) copyComments(ctx context.Context, fromTaskID, toTaskID string) error {
	cursor, err := s.mongoDB.Collection(database.CollectionComments).
		Find(ctx, bson.M{"taskId": fromTaskID})
	if err != nil {
		return err
	}
	var comments []models.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		return err
	}

	now := time.Now()
	for _, comment := range comments {
		// Reply threading is not carried over; copies are flat
		_, err := s.mongoDB.Collection(database.CollectionComments).InsertOne(ctx, &models.Comment{
			TaskID:    toTaskID,
			AuthorID:  comment.AuthorID,
			Content:   "[Copied from original task] " + comment.Content,
			Mentions:  comment.Mentions,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Metrics rolls up a task's related records into counts, completion rates
// and total tracked time.
func (s *TaskService) Metrics(ctx context.Context, taskID, userID string) (*models.TaskMetrics, error) {
	task, err := s.Get(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	metrics := &models.TaskMetrics{
		TaskID:    taskID,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}

	counts := []struct {
		collection string
		filter     bson.M
		dest       *int
	}{
		{database.CollectionComments, bson.M{"taskId": taskID}, &metrics.Counts.Comments},
		{database.CollectionChecklists, bson.M{"taskId": taskID}, &metrics.Counts.Checklists},
		{database.CollectionTimeEntries, bson.M{"taskId": taskID}, &metrics.Counts.TimeEntries},
		{database.CollectionTaskDependencies, bson.M{"dependentId": taskID}, &metrics.Counts.Dependencies},
		{database.CollectionTaskDependencies, bson.M{"dependsOnId": taskID}, &metrics.Counts.Dependents},
		{database.CollectionTasks, bson.M{"parentId": taskID}, &metrics.Counts.Subtasks},
	}
	for _, c := range counts {
		n, err := s.mongoDB.Collection(c.collection).CountDocuments(ctx, c.filter)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.collection, err)
		}
		*c.dest = int(n)
	}

	cursor, err := s.mongoDB.Collection(database.CollectionChecklists).
		Find(ctx, bson.M{"taskId": taskID})
	if err != nil {
		return nil, fmt.Errorf("failed to load checklists: %w", err)
	}
	var checklists []models.Checklist
	if err := cursor.All(ctx, &checklists); err != nil {
		return nil, fmt.Errorf("failed to decode checklists: %w", err)
	}
	totalItems, completedItems := 0, 0
	for _, checklist := range checklists {
		for _, item := range checklist.Items {
			totalItems++
			if item.IsCompleted {
				completedItems++
			}
		}
	}
	metrics.CompletionRates.Checklists = RoundedRate(completedItems, totalItems)

	cursor, err = s.collection().Find(ctx, bson.M{"parentId": taskID})
	if err != nil {
		return nil, fmt.Errorf("failed to load subtasks: %w", err)
	}
	var subtasks []models.Task
	if err := cursor.All(ctx, &subtasks); err != nil {
		return nil, fmt.Errorf("failed to decode subtasks: %w", err)
	}
	doneSubtasks := 0
	for _, sub := range subtasks {
		if sub.Status == models.TaskStatusDone {
			doneSubtasks++
		}
	}
	metrics.CompletionRates.Subtasks = RoundedRate(doneSubtasks, len(subtasks))

	cursor, err = s.mongoDB.Collection(database.CollectionTimeEntries).
		Find(ctx, bson.M{"taskId": taskID, "endTime": bson.M{"$ne": nil}})
	if err != nil {
		return nil, fmt.Errorf("failed to load time entries: %w", err)
	}
	var entries []models.TimeEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode time entries: %w", err)
	}
	totalMinutes := 0
	for _, entry := range entries {
		totalMinutes += entry.Duration
	}
	metrics.TimeSpent = models.TaskTimeSpent{
		TotalMinutes: totalMinutes,
		Formatted:    FormatMinutes(totalMinutes),
	}
	return metrics, nil
}

// Report aggregates a project's tasks into a filtered summary with grouped
// breakdowns. Average completion time is measured from creation to the
// last update of DONE tasks.
func (s *TaskService) Report(ctx context.Context, projectID, userID string, filter *models.TaskReportFilter) (*models.TaskReport, error) {
	if _, err := s.projects.RequireProjectAccess(ctx, projectID, userID); err != nil {
		return nil, err
	}

	match := bson.M{"projectId": projectID}
	if filter.StartDate != nil || filter.EndDate != nil {
		created := bson.M{}
		if filter.StartDate != nil {
			created["$gte"] = *filter.StartDate
		}
		if filter.EndDate != nil {
			created["$lte"] = *filter.EndDate
		}
		match["createdAt"] = created
	}
	if filter.AssigneeID != "" {
		match["assigneeId"] = filter.AssigneeID
	}
	if filter.Status != "" {
		match["status"] = filter.Status
	}

	report := &models.TaskReport{}
	groups := []struct {
		field string
		dest  *[]models.StatusCount
	}{
		{"$status", &report.ByStatus},
		{"$priority", &report.ByPriority},
		{"$assigneeId", &report.ByAssignee},
	}
	for _, g := range groups {
		counts, err := s.groupReport(ctx, match, g.field)
		if err != nil {
			return nil, err
		}
		*g.dest = counts
	}

	total, err := s.collection().CountDocuments(ctx, match)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	report.Summary.TotalTasks = int(total)

	doneMatch := bson.M{}
	for k, v := range match {
		doneMatch[k] = v
	}
	doneMatch["status"] = models.TaskStatusDone
	cursor, err := s.collection().Find(ctx, doneMatch)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed tasks: %w", err)
	}
	var done []models.Task
	if err := cursor.All(ctx, &done); err != nil {
		return nil, fmt.Errorf("failed to decode completed tasks: %w", err)
	}
	report.Summary.CompletedTasks = len(done)
	if report.Summary.TotalTasks > 0 {
		report.Summary.CompletionRate =
			float64(report.Summary.CompletedTasks) / float64(report.Summary.TotalTasks)
	}

	var totalCompletion time.Duration
	for _, t := range done {
		totalCompletion += t.UpdatedAt.Sub(t.CreatedAt)
	}
	if len(done) > 0 {
		avg := totalCompletion / time.Duration(len(done))
		report.Summary.AvgCompletionHours = avg.Hours()
	}
	return report, nil
}

func (s *TaskService) groupReport(ctx context.Context, match bson.M, field string) ([]models.StatusCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	}

	cursor, err := s.collection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tasks by %s: %w", field, err)
	}
	var counts []models.StatusCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode task aggregation: %w", err)
	}
	return counts, nil
}

// CopyTitle names a duplicated task after its source
func CopyTitle(title string) string {
	return title + " (Copy)"
}

// FormatMinutes renders a minute total as "3h 25m", or "45m" under an hour
func FormatMinutes(minutes int) string {
	if minutes >= 60 {
		return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}

// RoundedRate returns done out of total as a whole percentage, 0 when
// there is nothing to measure
func RoundedRate(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}
