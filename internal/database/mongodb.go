package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDB wraps the MongoDB client and database
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	dbName   string
}

// Collection names
const (
	CollectionUsers              = "users"
	CollectionWorkspaces         = "workspaces"
	CollectionWorkspaceMembers   = "workspace_members"
	CollectionWorkspaceInvites   = "workspace_invites"
	CollectionProjects           = "projects"
	CollectionLists              = "lists"
	CollectionTasks              = "tasks"
	CollectionTaskDependencies   = "task_dependencies"
	CollectionActivities         = "activities"
	CollectionComments           = "comments"
	CollectionChecklists         = "checklists"
	CollectionTimeEntries        = "time_entries"
	CollectionRequirements       = "requirements"
	CollectionRequirementHistory = "requirement_history"
	CollectionTaskLinks          = "task_links"
	CollectionCounters           = "counters"
)

// NewMongoDB creates a new MongoDB connection with connection pooling
func NewMongoDB(uri string) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dbName := extractDBName(uri)
	if dbName == "" {
		dbName = "planboard"
	}

	db := &MongoDB{
		client:   client,
		database: client.Database(dbName),
		dbName:   dbName,
	}

	log.Printf("✅ Connected to MongoDB database: %s", dbName)

	return db, nil
}

// extractDBName extracts the database name from a MongoDB URI path component
// (mongodb://localhost:27017/planboard?authSource=admin -> planboard)
func extractDBName(uri string) string {
	rest := uri
	if idx := strings.Index(rest, "?"); idx != -1 {
		rest = rest[:idx]
	}
	if idx := strings.LastIndex(rest, "/"); idx != -1 {
		name := rest[idx+1:]
		if !strings.Contains(name, "@") && !strings.Contains(name, ":") {
			return name
		}
	}
	return ""
}

// EnsureIndexes creates the indexes the service layer relies on. The unique
// indexes double as invariant backstops: one edge per ordered task pair, one
// number per (project, number), one code per requirement, one membership per
// (workspace, user).
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	if err := m.createIndexes(ctx, CollectionUsers, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}); err != nil {
		return fmt.Errorf("failed to create users indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionWorkspaces, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "ownerId", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create workspaces indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionWorkspaceMembers, []mongo.IndexModel{
		{Keys: bson.D{{Key: "workspaceId", Value: 1}, {Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "userId", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create workspace_members indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionWorkspaceInvites, []mongo.IndexModel{
		{Keys: bson.D{{Key: "workspaceId", Value: 1}, {Key: "email", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
	}); err != nil {
		return fmt.Errorf("failed to create workspace_invites indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionProjects, []mongo.IndexModel{
		{Keys: bson.D{{Key: "workspaceId", Value: 1}, {Key: "key", Value: 1}}, Options: options.Index().SetUnique(true)},
	}); err != nil {
		return fmt.Errorf("failed to create projects indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionLists, []mongo.IndexModel{
		{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "position", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create lists indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionTasks, []mongo.IndexModel{
		{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "listId", Value: 1}, {Key: "position", Value: 1}}},
		{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "assigneeId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "parentId", Value: 1}}},
		{Keys: bson.D{{Key: "dueDate", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create tasks indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionTaskDependencies, []mongo.IndexModel{
		{Keys: bson.D{{Key: "dependentId", Value: 1}, {Key: "dependsOnId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "dependsOnId", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create task_dependencies indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionActivities, []mongo.IndexModel{
		{Keys: bson.D{{Key: "taskId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("failed to create activities indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionComments, []mongo.IndexModel{
		{Keys: bson.D{{Key: "taskId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "parentId", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create comments indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionChecklists, []mongo.IndexModel{
		{Keys: bson.D{{Key: "taskId", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create checklists indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionTimeEntries, []mongo.IndexModel{
		{Keys: bson.D{{Key: "taskId", Value: 1}, {Key: "startTime", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("failed to create time_entries indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionRequirements, []mongo.IndexModel{
		{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "type", Value: 1}}},
		{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "status", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create requirements indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionRequirementHistory, []mongo.IndexModel{
		{Keys: bson.D{{Key: "requirementId", Value: 1}, {Key: "createdAt", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("failed to create requirement_history indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionTaskLinks, []mongo.IndexModel{
		{Keys: bson.D{{Key: "requirementId", Value: 1}, {Key: "taskId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "taskId", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create task_links indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionCounters, []mongo.IndexModel{
		{Keys: bson.D{{Key: "scope", Value: 1}}, Options: options.Index().SetUnique(true)},
	}); err != nil {
		return fmt.Errorf("failed to create counters indexes: %w", err)
	}

	log.Println("✅ MongoDB indexes initialized successfully")
	return nil
}

// createIndexes creates indexes for a collection
func (m *MongoDB) createIndexes(ctx context.Context, collectionName string, indexes []mongo.IndexModel) error {
	collection := m.database.Collection(collectionName)
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// Collection returns a collection handle
func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// Client returns the underlying MongoDB client
func (m *MongoDB) Client() *mongo.Client {
	return m.client
}

// Database returns the underlying MongoDB database
func (m *MongoDB) Database() *mongo.Database {
	return m.database
}

// Close closes the MongoDB connection
func (m *MongoDB) Close(ctx context.Context) error {
	log.Println("🔌 Closing MongoDB connection...")
	return m.client.Disconnect(ctx)
}

// Ping checks if the database connection is alive
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// NextSequence atomically increments and returns the named counter.
// Used for project-scoped task numbers and requirement code sequences so
// concurrent creates never observe the same value.
func (m *MongoDB) NextSequence(ctx context.Context, scope string) (int, error) {
	var doc struct {
		Value int `bson:"value"`
	}
	err := m.Collection(CollectionCounters).FindOneAndUpdate(ctx,
		bson.M{"scope": scope},
		bson.M{"$inc": bson.M{"value": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("failed to advance counter %s: %w", scope, err)
	}
	return doc.Value, nil
}

// WithTransaction executes a function within a transaction. Either every
// write inside fn commits or none do.
func (m *MongoDB) WithTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) error) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
