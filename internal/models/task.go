package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskStatus is the workflow state of a task
type TaskStatus string

const (
	TaskStatusBacklog    TaskStatus = "BACKLOG"
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusInReview   TaskStatus = "IN_REVIEW"
	TaskStatusTesting    TaskStatus = "TESTING"
	TaskStatusDone       TaskStatus = "DONE"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// IsTerminal reports whether the status no longer blocks dependents
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusDone || s == TaskStatusCancelled
}

// TaskPriority values, ordered URGENT > HIGH > MEDIUM > LOW
type TaskPriority string

const (
	TaskPriorityUrgent TaskPriority = "URGENT"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityLow    TaskPriority = "LOW"
)

// Rank returns a sortable weight for the priority (higher is more urgent)
func (p TaskPriority) Rank() int {
	switch p {
	case TaskPriorityUrgent:
		return 4
	case TaskPriorityHigh:
		return 3
	case TaskPriorityMedium:
		return 2
	case TaskPriorityLow:
		return 1
	}
	return 0
}

// TaskType categorizes a task
type TaskType string

const (
	TaskTypeFeature       TaskType = "FEATURE"
	TaskTypeBug           TaskType = "BUG"
	TaskTypeTask          TaskType = "TASK"
	TaskTypeStory         TaskType = "STORY"
	TaskTypeEpic          TaskType = "EPIC"
	TaskTypeSubtask       TaskType = "SUBTASK"
	TaskTypeDocumentation TaskType = "DOCUMENTATION"
	TaskTypeResearch      TaskType = "RESEARCH"
)

// DependencyType describes how two tasks are sequenced
type DependencyType string

const (
	DependencyFinishToStart  DependencyType = "FINISH_TO_START"
	DependencyStartToStart   DependencyType = "START_TO_START"
	DependencyFinishToFinish DependencyType = "FINISH_TO_FINISH"
	DependencyStartToFinish  DependencyType = "START_TO_FINISH"
)

// Task is a unit of work inside a project.
// Number is project-scoped and immutable once assigned; Position is dense
// (0..N-1) within the task's list.
type Task struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProjectID      string             `bson:"projectId" json:"project_id"`
	ListID         string             `bson:"listId,omitempty" json:"list_id,omitempty"`
	ParentID       string             `bson:"parentId,omitempty" json:"parent_id,omitempty"`
	Number         int                `bson:"number" json:"number"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Status         TaskStatus         `bson:"status" json:"status"`
	Priority       TaskPriority       `bson:"priority" json:"priority"`
	Type           TaskType           `bson:"type" json:"type"`
	AssigneeID     string             `bson:"assigneeId,omitempty" json:"assignee_id,omitempty"`
	ReporterID     string             `bson:"reporterId" json:"reporter_id"` // set at creation, never changed
	Position       int                `bson:"position" json:"position"`
	EstimatedHours float64            `bson:"estimatedHours,omitempty" json:"estimated_hours,omitempty"`
	StoryPoints    int                `bson:"storyPoints,omitempty" json:"story_points,omitempty"`
	DueDate        *time.Time         `bson:"dueDate,omitempty" json:"due_date,omitempty"`
	Archived       bool               `bson:"archived" json:"archived"`
	ArchivedAt     *time.Time         `bson:"archivedAt,omitempty" json:"archived_at,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updated_at"`
}

// TaskDependency is a directed edge: Dependent depends on DependsOn.
// The edge set over task ids must stay acyclic; uniqueness of the ordered
// pair is enforced by a unique index.
type TaskDependency struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DependentID string             `bson:"dependentId" json:"dependent_id"`
	DependsOnID string             `bson:"dependsOnId" json:"depends_on_id"`
	Type        DependencyType     `bson:"type" json:"type"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
}

// TaskSummary is the compact task shape embedded in dependency responses
type TaskSummary struct {
	ID       string       `json:"id"`
	Number   int          `json:"number"`
	Title    string       `json:"title"`
	Status   TaskStatus   `json:"status"`
	Priority TaskPriority `json:"priority,omitempty"`
	Assignee *UserSummary `json:"assignee,omitempty"`
}

// Summary converts a task to its compact form
func (t *Task) Summary() TaskSummary {
	return TaskSummary{
		ID:       t.ID.Hex(),
		Number:   t.Number,
		Title:    t.Title,
		Status:   t.Status,
		Priority: t.Priority,
	}
}

// CreateTaskRequest is the payload for creating a task
type CreateTaskRequest struct {
	ProjectID      string       `json:"project_id"`
	ListID         string       `json:"list_id,omitempty"`
	ParentID       string       `json:"parent_id,omitempty"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	Status         TaskStatus   `json:"status,omitempty"`
	Priority       TaskPriority `json:"priority,omitempty"`
	Type           TaskType     `json:"type,omitempty"`
	AssigneeID     string       `json:"assignee_id,omitempty"`
	EstimatedHours float64      `json:"estimated_hours,omitempty"`
	StoryPoints    int          `json:"story_points,omitempty"`
	DueDate        *time.Time   `json:"due_date,omitempty"`
}

// UpdateTaskRequest is a partial task update. Nil fields are left untouched.
type UpdateTaskRequest struct {
	Title          *string       `json:"title,omitempty"`
	Description    *string       `json:"description,omitempty"`
	Status         *TaskStatus   `json:"status,omitempty"`
	Priority       *TaskPriority `json:"priority,omitempty"`
	Type           *TaskType     `json:"type,omitempty"`
	ListID         *string       `json:"list_id,omitempty"`
	AssigneeID     *string       `json:"assignee_id,omitempty"`
	Position       *int          `json:"position,omitempty"`
	EstimatedHours *float64      `json:"estimated_hours,omitempty"`
	StoryPoints    *int          `json:"story_points,omitempty"`
	DueDate        *time.Time    `json:"due_date,omitempty"`
}

// TaskFilter narrows task listings. Archived tasks are excluded unless
// IncludeArchived is set.
type TaskFilter struct {
	ProjectID       string
	ListID          string
	Status          TaskStatus
	Priority        TaskPriority
	Type            TaskType
	AssigneeID      string
	ParentID        string
	Search          string
	IncludeArchived bool
	Page            int
	Limit           int
}

// DuplicateTaskRequest controls what a task copy carries over. The copy
// always starts as TODO at the end of its list with a fresh number.
type DuplicateTaskRequest struct {
	NewTitle          string `json:"new_title,omitempty"`
	NewListID         string `json:"new_list_id,omitempty"`
	NewAssigneeID     string `json:"new_assignee_id,omitempty"`
	IncludeChecklists bool   `json:"include_checklists,omitempty"`
	IncludeComments   bool   `json:"include_comments,omitempty"`
}

// TaskMetricsCounts holds per-collection record counts for one task
type TaskMetricsCounts struct {
	Comments     int `json:"comments"`
	Checklists   int `json:"checklists"`
	TimeEntries  int `json:"time_entries"`
	Dependencies int `json:"dependencies"`
	Dependents   int `json:"dependents"`
	Subtasks     int `json:"subtasks"`
}

// TaskCompletionRates are whole percentages, 0 when nothing to measure
type TaskCompletionRates struct {
	Checklists int `json:"checklists"`
	Subtasks   int `json:"subtasks"`
}

// TaskTimeSpent sums completed time entries for a task
type TaskTimeSpent struct {
	TotalMinutes int    `json:"total_minutes"`
	Formatted    string `json:"formatted"`
}

// TaskMetrics is the per-task progress rollup
type TaskMetrics struct {
	TaskID          string              `json:"task_id"`
	Counts          TaskMetricsCounts   `json:"counts"`
	CompletionRates TaskCompletionRates `json:"completion_rates"`
	TimeSpent       TaskTimeSpent       `json:"time_spent"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// TaskReportFilter narrows a project report. Date bounds apply to task
// creation time.
type TaskReportFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	AssigneeID string
	Status     TaskStatus
}

// TaskReportSummary is the headline numbers of a project report
type TaskReportSummary struct {
	TotalTasks         int     `json:"total_tasks"`
	CompletedTasks     int     `json:"completed_tasks"`
	CompletionRate     float64 `json:"completion_rate"`
	AvgCompletionHours float64 `json:"avg_completion_hours"`
}

// TaskReport is a filtered project rollup with grouped breakdowns
type TaskReport struct {
	Summary    TaskReportSummary `json:"summary"`
	ByStatus   []StatusCount     `json:"by_status"`
	ByPriority []StatusCount     `json:"by_priority"`
	ByAssignee []StatusCount     `json:"by_assignee"`
}

// BulkTaskUpdate pairs one task with its partial update in bulk operations
type BulkTaskUpdate struct {
	TaskID string            `json:"task_id"`
	Update UpdateTaskRequest `json:"update"`
}

// DependencyPair identifies one directed edge in bulk operations
type DependencyPair struct {
	DependentID string `json:"dependent_id"`
	DependsOnID string `json:"depends_on_id"`
}

// TaskDependencies is the depth-1 view in both directions
type TaskDependencies struct {
	DependsOn  []TaskSummary `json:"depends_on"`
	Dependents []TaskSummary `json:"dependents"`
}

// ChainEntry is one node of a transitive dependency expansion
type ChainEntry struct {
	Task  TaskSummary `json:"task"`
	Depth int         `json:"depth"`
}

// BlockedTask pairs a task with the edges that currently block it
type BlockedTask struct {
	Task       Task          `json:"task"`
	BlockedBy  []TaskSummary `json:"blocked_by"`
}

// BulkDependencyResult reports per-pair outcomes of a bulk edge operation.
// Pairs fail or succeed independently; this is not a transaction.
type BulkDependencyResult struct {
	Successful []TaskDependency      `json:"successful"`
	Failed     []FailedDependencyOp  `json:"failed"`
}

// FailedDependencyOp records why one pair was rejected
type FailedDependencyOp struct {
	Pair  DependencyPair `json:"pair"`
	Error string         `json:"error"`
}

// BulkTaskUpdateResult reports per-task outcomes of a bulk update
type BulkTaskUpdateResult struct {
	Successful []Task           `json:"successful"`
	Failed     []FailedTaskOp   `json:"failed"`
}

// FailedTaskOp records why one task update was rejected
type FailedTaskOp struct {
	TaskID string `json:"task_id"`
	Error  string `json:"error"`
}
