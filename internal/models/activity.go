package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity types written by task mutations
const (
	ActivityTaskCreated       = "task_created"
	ActivityTaskUpdated       = "task_updated"
	ActivityTaskArchived      = "task_archived"
	ActivityTaskUnarchived    = "task_unarchived"
	ActivityCommentAdded      = "comment_added"
	ActivityDependencyAdded   = "dependency_added"
	ActivityDependencyRemoved = "dependency_removed"
)

// Activity is an append-only per-task audit entry
type Activity struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	TaskID    string                 `bson:"taskId" json:"task_id"`
	UserID    string                 `bson:"userId" json:"user_id"`
	Type      string                 `bson:"type" json:"type"`
	Changes   map[string]interface{} `bson:"changes,omitempty" json:"changes,omitempty"`
	CreatedAt time.Time              `bson:"createdAt" json:"created_at"`
}

// Comment is a task discussion entry; ParentID makes it a reply
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TaskID    string             `bson:"taskId" json:"task_id"`
	AuthorID  string             `bson:"authorId" json:"author_id"`
	ParentID  string             `bson:"parentId,omitempty" json:"parent_id,omitempty"`
	Content   string             `bson:"content" json:"content"`
	Mentions  []string           `bson:"mentions,omitempty" json:"mentions,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updated_at"`
}

// Checklist is a titled list of checkable items attached to a task
type Checklist struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TaskID    string             `bson:"taskId" json:"task_id"`
	Title     string             `bson:"title" json:"title"`
	Items     []ChecklistItem    `bson:"items" json:"items"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
}

// ChecklistItem positions are dense within their checklist
type ChecklistItem struct {
	ID          string `bson:"id" json:"id"`
	Content     string `bson:"content" json:"content"`
	IsCompleted bool   `bson:"isCompleted" json:"is_completed"`
	Position    int    `bson:"position" json:"position"`
}

// TimeEntry records time spent on a task. Duration is minutes, filled in
// once EndTime is set.
type TimeEntry struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TaskID      string             `bson:"taskId" json:"task_id"`
	UserID      string             `bson:"userId" json:"user_id"`
	StartTime   time.Time          `bson:"startTime" json:"start_time"`
	EndTime     *time.Time         `bson:"endTime,omitempty" json:"end_time,omitempty"`
	Duration    int                `bson:"duration,omitempty" json:"duration,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
}
