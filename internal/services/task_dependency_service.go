package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"planboard/internal/apperr"
	"planboard/internal/database"
	"planboard/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TaskDependencyService manages the directed dependency edges between
// tasks. The edge set stays acyclic: every addition is checked against an
// in-memory snapshot of the project's graph before it is written.
type TaskDependencyService struct {
	mongoDB  *database.MongoDB
	tasks    *TaskService
	projects *ProjectService
	events   *EventPublisher
	metrics  *Metrics
}

// NewTaskDependencyService creates a new dependency service
func NewTaskDependencyService(mongoDB *database.MongoDB, tasks *TaskService, projects *ProjectService, events *EventPublisher, metrics *Metrics) *TaskDependencyService {
	return &TaskDependencyService{
		mongoDB:  mongoDB,
		tasks:    tasks,
		projects: projects,
		events:   events,
		metrics:  metrics,
	}
}

// collection returns the task dependencies collection
func (s *TaskDependencyService) collection() *mongo.Collection {
	return s.mongoDB.Collection(database.CollectionTaskDependencies)
}

// buildGraph loads every edge between the project's tasks into an
// adjacency snapshot. One bulk read, so cycle checks cannot interleave
// with concurrent edge writes in a torn state.
func (s *TaskDependencyService) buildGraph(ctx context.Context, projectID string) (DependencyGraph, []models.Task, error) {
	cursor, err := s.mongoDB.Collection(database.CollectionTasks).
		Find(ctx, bson.M{"projectId": projectID})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load project tasks: %w", err)
	}
	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, nil, fmt.Errorf("failed to decode project tasks: %w", err)
	}

	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID.Hex()
	}

	cursor, err = s.collection().Find(ctx, bson.M{"dependentId": bson.M{"$in": ids}})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load dependency edges: %w", err)
	}
	var edges []models.TaskDependency
	if err := cursor.All(ctx, &edges); err != nil {
		return nil, nil, fmt.Errorf("failed to decode dependency edges: %w", err)
	}

	graph := make(DependencyGraph, len(tasks))
	for _, e := range edges {
		graph[e.DependentID] = append(graph[e.DependentID], e.DependsOnID)
	}
	return graph, tasks, nil
}

// Add creates the edge dependent -> dependsOn after checking that both
// tasks exist in the same project, the edge is not a duplicate and it
// would not close a cycle. Both endpoints get an activity entry.
func (s *TaskDependencyService) Add(ctx context.Context, userID, dependentID, dependsOnID string, depType models.DependencyType) (*models.TaskDependency, error) {
	dependent, err := s.tasks.getByID(ctx, dependentID)
	if err != nil {
		return nil, err
	}
	dependsOn, err := s.tasks.getByID(ctx, dependsOnID)
	if err != nil {
		return nil, err
	}
	if dependent.ProjectID != dependsOn.ProjectID {
		return nil, apperr.Validation("tasks belong to different projects")
	}
	if _, err := s.projects.RequireProjectWrite(ctx, dependent.ProjectID, userID); err != nil {
		return nil, err
	}

	if depType == "" {
		depType = models.DependencyFinishToStart
	}
	switch depType {
	case models.DependencyFinishToStart, models.DependencyStartToStart,
		models.DependencyFinishToFinish, models.DependencyStartToFinish:
	default:
		return nil, apperr.Validation("invalid dependency type: %s", depType)
	}

	count, err := s.collection().CountDocuments(ctx, bson.M{
		"dependentId": dependentID,
		"dependsOnId": dependsOnID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate edge: %w", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("dependency already exists")
	}

	graph, _, err := s.buildGraph(ctx, dependent.ProjectID)
	if err != nil {
		return nil, err
	}
	if graph.WouldCreateCycle(dependentID, dependsOnID) {
		s.metrics.RecordCycleRejection()
		return nil, apperr.Validation("dependency would create a circular reference")
	}

	edge := &models.TaskDependency{
		DependentID: dependentID,
		DependsOnID: dependsOnID,
		Type:        depType,
		CreatedAt:   time.Now(),
	}
	result, err := s.collection().InsertOne(ctx, edge)
	if err != nil {
		// The unique index is the backstop for concurrent duplicate inserts
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("dependency already exists")
		}
		return nil, fmt.Errorf("failed to create dependency: %w", err)
	}
	edge.ID = result.InsertedID.(primitive.ObjectID)

	s.tasks.recordActivity(ctx, dependentID, userID, models.ActivityDependencyAdded, map[string]interface{}{
		"dependsOnId": dependsOnID,
	})
	s.tasks.recordActivity(ctx, dependsOnID, userID, models.ActivityDependencyAdded, map[string]interface{}{
		"dependentId": dependentID,
	})
	s.metrics.RecordDependencyAdded()
	s.events.Publish(ctx, Event{
		Type:      models.ActivityDependencyAdded,
		ProjectID: dependent.ProjectID,
		TaskID:    dependentID,
		UserID:    userID,
		Payload:   map[string]interface{}{"dependsOnId": dependsOnID},
	})
	return edge, nil
}

// Remove deletes the edge dependent -> dependsOn. Removing an edge that
// does not exist is a not-found error, not a no-op.
func (s *TaskDependencyService) Remove(ctx context.Context, userID, dependentID, dependsOnID string) error {
	dependent, err := s.tasks.getByID(ctx, dependentID)
	if err != nil {
		return err
	}
	if _, err := s.projects.RequireProjectWrite(ctx, dependent.ProjectID, userID); err != nil {
		return err
	}

	result, err := s.collection().DeleteOne(ctx, bson.M{
		"dependentId": dependentID,
		"dependsOnId": dependsOnID,
	})
	if err != nil {
		return fmt.Errorf("failed to remove dependency: %w", err)
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound("dependency not found")
	}

	s.tasks.recordActivity(ctx, dependentID, userID, models.ActivityDependencyRemoved, map[string]interface{}{
		"dependsOnId": dependsOnID,
	})
	s.tasks.recordActivity(ctx, dependsOnID, userID, models.ActivityDependencyRemoved, map[string]interface{}{
		"dependentId": dependentID,
	})
	s.metrics.RecordDependencyRemoved()
	return nil
}

// Get returns the depth-1 dependency view of a task in both directions,
// with assignee summaries resolved.
func (s *TaskDependencyService) Get(ctx context.Context, taskID, userID string) (*models.TaskDependencies, error) {
	if _, err := s.tasks.Get(ctx, taskID, userID); err != nil {
		return nil, err
	}

	cursor, err := s.collection().Find(ctx, bson.M{
		"$or": bson.A{
			bson.M{"dependentId": taskID},
			bson.M{"dependsOnId": taskID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load dependencies: %w", err)
	}
	var edges []models.TaskDependency
	if err := cursor.All(ctx, &edges); err != nil {
		return nil, fmt.Errorf("failed to decode dependencies: %w", err)
	}

	var dependsOnIDs, dependentIDs []string
	for _, e := range edges {
		if e.DependentID == taskID {
			dependsOnIDs = append(dependsOnIDs, e.DependsOnID)
		} else {
			dependentIDs = append(dependentIDs, e.DependentID)
		}
	}

	dependsOn, err := s.summarize(ctx, dependsOnIDs)
	if err != nil {
		return nil, err
	}
	dependents, err := s.summarize(ctx, dependentIDs)
	if err != nil {
		return nil, err
	}

	return &models.TaskDependencies{
		DependsOn:  dependsOn,
		Dependents: dependents,
	}, nil
}

// summarize loads tasks by hex ID and converts them to summaries with
// assignees resolved in one users query.
func (s *TaskDependencyService) summarize(ctx context.Context, ids []string) ([]models.TaskSummary, error) {
	if len(ids) == 0 {
		return []models.TaskSummary{}, nil
	}

	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		objIDs = append(objIDs, objID)
	}

	cursor, err := s.mongoDB.Collection(database.CollectionTasks).
		Find(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}

	assignees, err := s.loadAssignees(ctx, tasks)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.TaskSummary, len(tasks))
	for i, t := range tasks {
		summary := t.Summary()
		if u, ok := assignees[t.AssigneeID]; ok {
			summary.Assignee = &u
		}
		summaries[i] = summary
	}
	return summaries, nil
}

func (s *TaskDependencyService) loadAssignees(ctx context.Context, tasks []models.Task) (map[string]models.UserSummary, error) {
	var objIDs []primitive.ObjectID
	for _, t := range tasks {
		if t.AssigneeID == "" {
			continue
		}
		if objID, err := primitive.ObjectIDFromHex(t.AssigneeID); err == nil {
			objIDs = append(objIDs, objID)
		}
	}
	if len(objIDs) == 0 {
		return map[string]models.UserSummary{}, nil
	}

	cursor, err := s.mongoDB.Collection(database.CollectionUsers).
		Find(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to load assignees: %w", err)
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode assignees: %w", err)
	}

	byID := make(map[string]models.UserSummary, len(users))
	for i := range users {
		byID[users[i].ID.Hex()] = users[i].Summary()
	}
	return byID, nil
}

// WouldCreateCycle reports whether adding dependent -> dependsOn would
// close a cycle, without writing anything.
func (s *TaskDependencyService) WouldCreateCycle(ctx context.Context, userID, dependentID, dependsOnID string) (bool, error) {
	dependent, err := s.tasks.Get(ctx, dependentID, userID)
	if err != nil {
		return false, err
	}

	graph, _, err := s.buildGraph(ctx, dependent.ProjectID)
	if err != nil {
		return false, err
	}
	return graph.WouldCreateCycle(dependentID, dependsOnID), nil
}

// Chain expands a task's transitive dependencies breadth-first, capped at
// MaxChainDepth levels. Each task appears once at its shallowest depth.
func (s *TaskDependencyService) Chain(ctx context.Context, taskID, userID string, maxDepth int) ([]models.ChainEntry, error) {
	task, err := s.tasks.Get(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	graph, _, err := s.buildGraph(ctx, task.ProjectID)
	if err != nil {
		return nil, err
	}
	nodes := graph.Chain(taskID, maxDepth)

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.TaskID
	}
	summaries, err := s.summarize(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.TaskSummary, len(summaries))
	for _, sum := range summaries {
		byID[sum.ID] = sum
	}

	entries := make([]models.ChainEntry, 0, len(nodes))
	for _, n := range nodes {
		if sum, ok := byID[n.TaskID]; ok {
			entries = append(entries, models.ChainEntry{Task: sum, Depth: n.Depth})
		}
	}
	return entries, nil
}

// Ready returns the project's active tasks whose every dependency is in a
// terminal state, sorted by priority then age.
func (s *TaskDependencyService) Ready(ctx context.Context, projectID, userID string) ([]models.Task, error) {
	if _, err := s.projects.RequireProjectAccess(ctx, projectID, userID); err != nil {
		return nil, err
	}

	graph, tasks, err := s.buildGraph(ctx, projectID)
	if err != nil {
		return nil, err
	}

	done := terminalIndex(tasks)
	var ready []models.Task
	for _, t := range tasks {
		if t.Archived || t.Status.IsTerminal() {
			continue
		}
		if len(graph.Blockers(t.ID.Hex(), done)) == 0 {
			ready = append(ready, t)
		}
	}

	sort.SliceStable(ready, func(i, j int) bool {
		ri, rj := ready[i].Priority.Rank(), ready[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return ready[i].CreatedAt.Before(ready[j].CreatedAt)
	})
	return ready, nil
}

// Blocked returns the project's active tasks that have at least one open
// dependency, each paired with the tasks blocking it.
func (s *TaskDependencyService) Blocked(ctx context.Context, projectID, userID string) ([]models.BlockedTask, error) {
	if _, err := s.projects.RequireProjectAccess(ctx, projectID, userID); err != nil {
		return nil, err
	}

	graph, tasks, err := s.buildGraph(ctx, projectID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID.Hex()] = t
	}

	done := terminalIndex(tasks)
	var blocked []models.BlockedTask
	for _, t := range tasks {
		if t.Archived || t.Status.IsTerminal() {
			continue
		}
		blockers := graph.Blockers(t.ID.Hex(), done)
		if len(blockers) == 0 {
			continue
		}

		summaries := make([]models.TaskSummary, 0, len(blockers))
		for _, id := range blockers {
			if b, ok := byID[id]; ok {
				summaries = append(summaries, b.Summary())
			}
		}
		blocked = append(blocked, models.BlockedTask{Task: t, BlockedBy: summaries})
	}
	return blocked, nil
}

// BulkAdd adds several edges; each pair succeeds or fails on its own.
// This is deliberately not a transaction, so partial progress survives.
func (s *TaskDependencyService) BulkAdd(ctx context.Context, userID string, pairs []models.DependencyPair, depType models.DependencyType) (*models.BulkDependencyResult, error) {
	if len(pairs) == 0 {
		return nil, apperr.Validation("no dependency pairs provided")
	}

	result := &models.BulkDependencyResult{
		Successful: []models.TaskDependency{},
		Failed:     []models.FailedDependencyOp{},
	}
	for _, pair := range pairs {
		edge, err := s.Add(ctx, userID, pair.DependentID, pair.DependsOnID, depType)
		if err != nil {
			result.Failed = append(result.Failed, models.FailedDependencyOp{
				Pair:  pair,
				Error: err.Error(),
			})
			continue
		}
		result.Successful = append(result.Successful, *edge)
	}
	return result, nil
}

// BulkRemove removes several edges with per-pair outcomes
func (s *TaskDependencyService) BulkRemove(ctx context.Context, userID string, pairs []models.DependencyPair) (*models.BulkDependencyResult, error) {
	if len(pairs) == 0 {
		return nil, apperr.Validation("no dependency pairs provided")
	}

	result := &models.BulkDependencyResult{
		Successful: []models.TaskDependency{},
		Failed:     []models.FailedDependencyOp{},
	}
	for _, pair := range pairs {
		if err := s.Remove(ctx, userID, pair.DependentID, pair.DependsOnID); err != nil {
			result.Failed = append(result.Failed, models.FailedDependencyOp{
				Pair:  pair,
				Error: err.Error(),
			})
			continue
		}
		result.Successful = append(result.Successful, models.TaskDependency{
			DependentID: pair.DependentID,
			DependsOnID: pair.DependsOnID,
		})
	}
	return result, nil
}

// terminalIndex builds a done-predicate over a task snapshot. Unknown IDs
// count as open so a dangling edge keeps its dependent blocked.
func terminalIndex(tasks []models.Task) func(string) bool {
	terminal := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		terminal[t.ID.Hex()] = t.Status.IsTerminal()
	}
	return func(id string) bool {
		return terminal[id]
	}
}
