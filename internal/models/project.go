package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectStatus tracks the lifecycle of a project
type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "PLANNING"
	ProjectActive    ProjectStatus = "ACTIVE"
	ProjectOnHold    ProjectStatus = "ON_HOLD"
	ProjectCompleted ProjectStatus = "COMPLETED"
	ProjectArchived  ProjectStatus = "ARCHIVED"
)

// Project groups lists, tasks and requirements inside a workspace.
// Key is a short uppercase code ("PROJ"), unique per workspace, used as the
// prefix of task numbers and requirement codes.
type Project struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID string             `bson:"workspaceId" json:"workspace_id"`
	Name        string             `bson:"name" json:"name"`
	Key         string             `bson:"key" json:"key"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Status      ProjectStatus      `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updated_at"`
}

// List is an ordered column of tasks. Position is dense and unique within
// the project.
type List struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProjectID string             `bson:"projectId" json:"project_id"`
	Name      string             `bson:"name" json:"name"`
	Color     string             `bson:"color,omitempty" json:"color,omitempty"`
	Position  int                `bson:"position" json:"position"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updated_at"`
}

// CreateProjectRequest is the payload for creating a project
type CreateProjectRequest struct {
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
	Key         string `json:"key"`
	Description string `json:"description,omitempty"`
}

// UpdateProjectRequest is a partial project update
type UpdateProjectRequest struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty"`
}

// CreateListRequest is the payload for creating a list
type CreateListRequest struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
}

// UpdateListRequest is a partial list update
type UpdateListRequest struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// StatusCount is one bucket of a grouped task count
type StatusCount struct {
	Key   string `bson:"_id" json:"key"`
	Count int    `bson:"count" json:"count"`
}

// ProjectStats summarizes task distribution inside a project
type ProjectStats struct {
	TotalTasks     int           `json:"total_tasks"`
	CompletedTasks int           `json:"completed_tasks"`
	CompletionRate float64       `json:"completion_rate"`
	ByStatus       []StatusCount `json:"by_status"`
	ByPriority     []StatusCount `json:"by_priority"`
	ByAssignee     []StatusCount `json:"by_assignee"`
}
