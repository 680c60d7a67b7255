package services

import (
	"context"
	"os"
	"testing"
	"time"

	"planboard/internal/apperr"
	"planboard/internal/database"
	"planboard/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// End-to-end ordering tests against a real MongoDB replica set. Set
// PLANBOARD_TEST_MONGODB_URI to run them; they are skipped otherwise.

func newIntegrationTaskService(t *testing.T) (*TaskService, *database.MongoDB) {
	t.Helper()
	uri := os.Getenv("PLANBOARD_TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("PLANBOARD_TEST_MONGODB_URI not set")
	}

	mongoDB, err := database.NewMongoDB(uri)
	if err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mongoDB.Close(ctx)
	})

	workspaces := NewWorkspaceService(mongoDB)
	projects := NewProjectService(mongoDB, workspaces)
	return NewTaskService(mongoDB, projects, nil, nil), mongoDB
}

// seedProject inserts a workspace, an owner membership, a project and one
// list directly, returning the project and list IDs. Everything seeded is
// removed again when the test finishes.
func seedProject(t *testing.T, mongoDB *database.MongoDB, userID string) (string, string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	wsResult, err := mongoDB.Collection(database.CollectionWorkspaces).InsertOne(ctx, &models.Workspace{
		Name:      "Ordering Workspace",
		Slug:      "ordering-workspace-" + now.Format("20060102150405.000000000"),
		OwnerID:   userID,
		Plan:      models.PlanFree,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Failed to seed workspace: %v", err)
	}
	workspaceID := wsResult.InsertedID.(primitive.ObjectID).Hex()

	if _, err := mongoDB.Collection(database.CollectionWorkspaceMembers).InsertOne(ctx, &models.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Permission:  models.PermissionOwner,
		JoinedAt:    now,
	}); err != nil {
		t.Fatalf("Failed to seed membership: %v", err)
	}

	projResult, err := mongoDB.Collection(database.CollectionProjects).InsertOne(ctx, &models.Project{
		WorkspaceID: workspaceID,
		Name:        "Ordering Project",
		Key:         "ORD",
		Status:      models.ProjectActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}
	projectID := projResult.InsertedID.(primitive.ObjectID).Hex()

	listResult, err := mongoDB.Collection(database.CollectionLists).InsertOne(ctx, &models.List{
		ProjectID: projectID,
		Name:      "Backlog",
		Position:  0,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Failed to seed list: %v", err)
	}
	listID := listResult.InsertedID.(primitive.ObjectID).Hex()

	t.Cleanup(func() {
		ctx := context.Background()
		cursor, err := mongoDB.Collection(database.CollectionTasks).Find(ctx, bson.M{"projectId": projectID})
		if err == nil {
			var seeded []models.Task
			if cursor.All(ctx, &seeded) == nil {
				taskIDs := make([]string, len(seeded))
				for i, task := range seeded {
					taskIDs[i] = task.ID.Hex()
				}
				mongoDB.Collection(database.CollectionActivities).
					DeleteMany(ctx, bson.M{"taskId": bson.M{"$in": taskIDs}})
			}
		}
		mongoDB.Collection(database.CollectionTasks).DeleteMany(ctx, bson.M{"projectId": projectID})
		mongoDB.Collection(database.CollectionLists).DeleteMany(ctx, bson.M{"projectId": projectID})
		mongoDB.Collection(database.CollectionProjects).DeleteMany(ctx, bson.M{"workspaceId": workspaceID})
		mongoDB.Collection(database.CollectionWorkspaceMembers).DeleteMany(ctx, bson.M{"workspaceId": workspaceID})
		mongoDB.Collection(database.CollectionWorkspaces).DeleteMany(ctx, bson.M{"_id": wsResult.InsertedID})
		mongoDB.Collection(database.CollectionCounters).DeleteMany(ctx, bson.M{"scope": "task:" + projectID})
	})
	return projectID, listID
}

func TestIntegration_ReorderKeepsPositionsDense(t *testing.T) {
	tasks, mongoDB := newIntegrationTaskService(t)
	userID := "user-ordering"
	projectID, listID := seedProject(t, mongoDB, userID)
	ctx := context.Background()

	// Three tasks created into one list take positions 0, 1, 2
	var ids []string
	for _, title := range []string{"First", "Second", "Third"} {
		task, err := tasks.Create(ctx, userID, &models.CreateTaskRequest{
			ProjectID: projectID,
			ListID:    listID,
			Title:     title,
		})
		if err != nil {
			t.Fatalf("Failed to create task %q: %v", title, err)
		}
		ids = append(ids, task.ID.Hex())
	}
	assertPositions(t, tasks, ctx, userID, projectID, listID, ids)

	// A full permutation is applied transactionally and stays dense
	reversed := []string{ids[2], ids[0], ids[1]}
	reordered, err := tasks.Reorder(ctx, projectID, listID, userID, reversed)
	if err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}
	if len(reordered) != 3 {
		t.Fatalf("Expected 3 tasks after reorder, got %d", len(reordered))
	}
	assertPositions(t, tasks, ctx, userID, projectID, listID, reversed)
}

func TestIntegration_InvalidReorderLeavesPositionsUntouched(t *testing.T) {
	tasks, mongoDB := newIntegrationTaskService(t)
	userID := "user-ordering-invalid"
	projectID, listID := seedProject(t, mongoDB, userID)
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"One", "Two"} {
		task, err := tasks.Create(ctx, userID, &models.CreateTaskRequest{
			ProjectID: projectID,
			ListID:    listID,
			Title:     title,
		})
		if err != nil {
			t.Fatalf("Failed to create task %q: %v", title, err)
		}
		ids = append(ids, task.ID.Hex())
	}

	// Too short, unknown ID, duplicate ID: all rejected before any write
	badOrders := [][]string{
		{ids[0]},
		{ids[0], "000000000000000000000000"},
		{ids[0], ids[0]},
	}
	for _, order := range badOrders {
		if _, err := tasks.Reorder(ctx, projectID, listID, userID, order); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("Expected validation error for ordering %v, got %v", order, err)
		}
	}
	assertPositions(t, tasks, ctx, userID, projectID, listID, ids)
}

// assertPositions checks that the list holds exactly wantOrder, each task
// at position equal to its index.
func assertPositions(t *testing.T, tasks *TaskService, ctx context.Context, userID, projectID, listID string, wantOrder []string) {
	t.Helper()
	listed, err := tasks.List(ctx, userID, &models.TaskFilter{ProjectID: projectID, ListID: listID})
	if err != nil {
		t.Fatalf("Failed to list tasks: %v", err)
	}
	if len(listed) != len(wantOrder) {
		t.Fatalf("Expected %d tasks, got %d", len(wantOrder), len(listed))
	}
	for i, task := range listed {
		if task.ID.Hex() != wantOrder[i] {
			t.Errorf("Expected task %s at index %d, got %s", wantOrder[i], i, task.ID.Hex())
		}
		if task.Position != i {
			t.Errorf("Expected position %d for task %s, got %d", i, task.ID.Hex(), task.Position)
		}
	}
}
