package handlers

import (
	"time"

	"planboard/internal/models"
	"planboard/internal/services"

	"github.com/gofiber/fiber/v2"
)

// TaskHandler handles task, ordering and dependency endpoints
type TaskHandler struct {
	tasks        *services.TaskService
	dependencies *services.TaskDependencyService
	comments     *services.CommentService
	checklists   *services.ChecklistService
	timeTracking *services.TimeTrackingService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tasks *services.TaskService, dependencies *services.TaskDependencyService,
	comments *services.CommentService, checklists *services.ChecklistService,
	timeTracking *services.TimeTrackingService) *TaskHandler {
	return &TaskHandler{
		tasks:        tasks,
		dependencies: dependencies,
		comments:     comments,
		checklists:   checklists,
		timeTracking: timeTracking,
	}
}

// Create creates a task
// POST /api/tasks
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var req models.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	task, err := h.tasks.Create(c.Context(), userID(c), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// List lists a project's tasks with filters and pagination
// GET /api/projects/:id/tasks
func (h *TaskHandler) List(c *fiber.Ctx) error {
	filter := &models.TaskFilter{
		ProjectID:       c.Params("id"),
		ListID:          c.Query("list_id"),
		Status:          models.TaskStatus(c.Query("status")),
		Priority:        models.TaskPriority(c.Query("priority")),
		Type:            models.TaskType(c.Query("type")),
		AssigneeID:      c.Query("assignee_id"),
		ParentID:        c.Query("parent_id"),
		Search:          c.Query("search"),
		IncludeArchived: c.QueryBool("include_archived"),
		Page:            c.QueryInt("page", 1),
		Limit:           c.QueryInt("limit", 0),
	}

	tasks, err := h.tasks.List(c.Context(), userID(c), filter)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"tasks": tasks, "total": len(tasks)})
}

// Get returns one task
// GET /api/tasks/:id
func (h *TaskHandler) Get(c *fiber.Ctx) error {
	task, err := h.tasks.Get(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(task)
}

// Update applies a partial update
// PATCH /api/tasks/:id
func (h *TaskHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	task, err := h.tasks.Update(c.Context(), c.Params("id"), userID(c), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(task)
}

// Delete removes a task
// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	if err := h.tasks.Delete(c.Context(), c.Params("id"), userID(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Task deleted"})
}

// BulkUpdate applies partial updates to several tasks with per-task results
// POST /api/tasks/bulk-update
func (h *TaskHandler) BulkUpdate(c *fiber.Ctx) error {
	var req struct {
		Updates []models.BulkTaskUpdate `json:"updates"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.tasks.BulkUpdate(c.Context(), userID(c), req.Updates)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}

// Reorder rewrites task positions in one list from a full ordering
// PUT /api/projects/:id/tasks/reorder
func (h *TaskHandler) Reorder(c *fiber.Ctx) error {
	var req struct {
		ListID  string   `json:"list_id"`
		TaskIDs []string `json:"task_ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	tasks, err := h.tasks.Reorder(c.Context(), c.Params("id"), req.ListID, userID(c), req.TaskIDs)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"tasks": tasks})
}

// Move moves a task into another list at a given position
// POST /api/tasks/:id/move
func (h *TaskHandler) Move(c *fiber.Ctx) error {
	var req struct {
		ListID   string `json:"list_id"`
		Position *int   `json:"position,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	position := -1
	if req.Position != nil {
		position = *req.Position
	}

	task, err := h.tasks.MoveToList(c.Context(), c.Params("id"), userID(c), req.ListID, position)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(task)
}

// Archive archives a task
// POST /api/tasks/:id/archive
func (h *TaskHandler) Archive(c *fiber.Ctx) error {
	task, err := h.tasks.Archive(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(task)
}

// Unarchive restores an archived task
// POST /api/tasks/:id/unarchive
func (h *TaskHandler) Unarchive(c *fiber.Ctx) error {
	task, err := h.tasks.Unarchive(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(task)
}

// ByAssignee lists a project's tasks for one assignee
// GET /api/projects/:id/tasks/by-assignee/:assigneeId
func (h *TaskHandler) ByAssignee(c *fiber.Ctx) error {
	tasks, err := h.tasks.ByAssignee(c.Context(), c.Params("id"), c.Params("assigneeId"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"tasks": tasks, "total": len(tasks)})
}

// Overdue lists a project's overdue tasks
// GET /api/projects/:id/tasks/overdue
func (h *TaskHandler) Overdue(c *fiber.Ctx) error {
	tasks, err := h.tasks.Overdue(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"tasks": tasks, "total": len(tasks)})
}

// Activities returns a task's activity log
// GET /api/tasks/:id/activities
func (h *TaskHandler) Activities(c *fiber.Ctx) error {
	activities, err := h.tasks.Activities(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"activities": activities, "total": len(activities)})
}

// Duplicate copies a task under a fresh number. The body is optional.
// POST /api/tasks/:id/duplicate
func (h *TaskHandler) Duplicate(c *fiber.Ctx) error {
	var req models.DuplicateTaskRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return badRequest(c, "Invalid request body")
	}

	task, err := h.tasks.Duplicate(c.Context(), c.Params("id"), userID(c), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// Metrics returns a task's progress rollup
// GET /api/tasks/:id/metrics
func (h *TaskHandler) Metrics(c *fiber.Ctx) error {
	metrics, err := h.tasks.Metrics(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(metrics)
}

// Report aggregates a project's tasks into a filtered summary
// GET /api/projects/:id/tasks/report
func (h *TaskHandler) Report(c *fiber.Ctx) error {
	filter := &models.TaskReportFilter{
		AssigneeID: c.Query("assignee_id"),
		Status:     models.TaskStatus(c.Query("status")),
	}
	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return badRequest(c, "start_date must be RFC 3339")
		}
		filter.StartDate = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return badRequest(c, "end_date must be RFC 3339")
		}
		filter.EndDate = &t
	}

	report, err := h.tasks.Report(c.Context(), c.Params("id"), userID(c), filter)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(report)
}

// AddDependency creates a dependency edge
// POST /api/tasks/:id/dependencies
func (h *TaskHandler) AddDependency(c *fiber.Ctx) error {
	var req struct {
		DependsOnID string                `json:"depends_on_id"`
		Type        models.DependencyType `json:"type,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.DependsOnID == "" {
		return badRequest(c, "depends_on_id is required")
	}

	edge, err := h.dependencies.Add(c.Context(), userID(c), c.Params("id"), req.DependsOnID, req.Type)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(edge)
}

// RemoveDependency deletes a dependency edge
// DELETE /api/tasks/:id/dependencies/:dependsOnId
func (h *TaskHandler) RemoveDependency(c *fiber.Ctx) error {
	err := h.dependencies.Remove(c.Context(), userID(c), c.Params("id"), c.Params("dependsOnId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Dependency removed"})
}

// Dependencies returns the depth-1 dependency view of a task
// GET /api/tasks/:id/dependencies
func (h *TaskHandler) Dependencies(c *fiber.Ctx) error {
	deps, err := h.dependencies.Get(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(deps)
}

// CheckCycle reports whether an edge would create a cycle, without writing
// GET /api/tasks/:id/dependencies/check?depends_on_id=...
func (h *TaskHandler) CheckCycle(c *fiber.Ctx) error {
	dependsOnID := c.Query("depends_on_id")
	if dependsOnID == "" {
		return badRequest(c, "depends_on_id is required")
	}

	wouldCycle, err := h.dependencies.WouldCreateCycle(c.Context(), userID(c), c.Params("id"), dependsOnID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"would_create_cycle": wouldCycle})
}

// Chain expands a task's transitive dependencies
// GET /api/tasks/:id/dependencies/chain
func (h *TaskHandler) Chain(c *fiber.Ctx) error {
	chain, err := h.dependencies.Chain(c.Context(), c.Params("id"), userID(c), c.QueryInt("depth", 0))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"chain": chain})
}

// Ready lists a project's unblocked tasks
// GET /api/projects/:id/tasks/ready
func (h *TaskHandler) Ready(c *fiber.Ctx) error {
	tasks, err := h.dependencies.Ready(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"tasks": tasks, "total": len(tasks)})
}

// Blocked lists a project's blocked tasks with their blockers
// GET /api/projects/:id/tasks/blocked
func (h *TaskHandler) Blocked(c *fiber.Ctx) error {
	blocked, err := h.dependencies.Blocked(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"tasks": blocked, "total": len(blocked)})
}

// BulkAddDependencies adds several edges with per-pair outcomes
// POST /api/dependencies/bulk-add
func (h *TaskHandler) BulkAddDependencies(c *fiber.Ctx) error {
	var req struct {
		Pairs []models.DependencyPair `json:"pairs"`
		Type  models.DependencyType   `json:"type,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.dependencies.BulkAdd(c.Context(), userID(c), req.Pairs, req.Type)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}

// BulkRemoveDependencies removes several edges with per-pair outcomes
// POST /api/dependencies/bulk-remove
func (h *TaskHandler) BulkRemoveDependencies(c *fiber.Ctx) error {
	var req struct {
		Pairs []models.DependencyPair `json:"pairs"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.dependencies.BulkRemove(c.Context(), userID(c), req.Pairs)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}

// AddComment creates a comment on a task
// POST /api/tasks/:id/comments
func (h *TaskHandler) AddComment(c *fiber.Ctx) error {
	var req struct {
		Content  string   `json:"content"`
		ParentID string   `json:"parent_id,omitempty"`
		Mentions []string `json:"mentions,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	comment, err := h.comments.Add(c.Context(), c.Params("id"), userID(c), req.Content, req.ParentID, req.Mentions)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// Comments lists a task's comments
// GET /api/tasks/:id/comments
func (h *TaskHandler) Comments(c *fiber.Ctx) error {
	comments, err := h.comments.List(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"comments": comments, "total": len(comments)})
}

// CreateChecklist creates a checklist on a task
// POST /api/tasks/:id/checklists
func (h *TaskHandler) CreateChecklist(c *fiber.Ctx) error {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	checklist, err := h.checklists.Create(c.Context(), c.Params("id"), userID(c), req.Title)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(checklist)
}

// Checklists lists a task's checklists
// GET /api/tasks/:id/checklists
func (h *TaskHandler) Checklists(c *fiber.Ctx) error {
	checklists, err := h.checklists.List(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"checklists": checklists, "total": len(checklists)})
}

// AddChecklistItem appends an item to a checklist
// POST /api/checklists/:id/items
func (h *TaskHandler) AddChecklistItem(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	checklist, err := h.checklists.AddItem(c.Context(), c.Params("id"), userID(c), req.Content)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(checklist)
}

// ToggleChecklistItem flips an item's completion state
// POST /api/checklists/:id/items/:itemId/toggle
func (h *TaskHandler) ToggleChecklistItem(c *fiber.Ctx) error {
	checklist, err := h.checklists.ToggleItem(c.Context(), c.Params("id"), c.Params("itemId"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(checklist)
}

// UpdateComment edits a comment's content, author only
// PATCH /api/comments/:id
func (h *TaskHandler) UpdateComment(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	comment, err := h.comments.Update(c.Context(), c.Params("id"), userID(c), req.Content)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment removes a comment, author only
// DELETE /api/comments/:id
func (h *TaskHandler) DeleteComment(c *fiber.Ctx) error {
	if err := h.comments.Delete(c.Context(), c.Params("id"), userID(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}

// RemoveChecklistItem deletes an item from a checklist
// DELETE /api/checklists/:id/items/:itemId
func (h *TaskHandler) RemoveChecklistItem(c *fiber.Ctx) error {
	checklist, err := h.checklists.RemoveItem(c.Context(), c.Params("id"), c.Params("itemId"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(checklist)
}

// DeleteChecklist removes a checklist
// DELETE /api/checklists/:id
func (h *TaskHandler) DeleteChecklist(c *fiber.Ctx) error {
	if err := h.checklists.Delete(c.Context(), c.Params("id"), userID(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Checklist deleted"})
}

// StartTimer opens a running time entry on a task
// POST /api/tasks/:id/time/start
func (h *TaskHandler) StartTimer(c *fiber.Ctx) error {
	var req struct {
		Description string `json:"description,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return badRequest(c, "Invalid request body")
	}

	entry, err := h.timeTracking.Start(c.Context(), c.Params("id"), userID(c), req.Description)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// StopTimer closes the running time entry on a task
// POST /api/tasks/:id/time/stop
func (h *TaskHandler) StopTimer(c *fiber.Ctx) error {
	entry, err := h.timeTracking.Stop(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(entry)
}

// TimeEntries lists a task's time entries
// GET /api/tasks/:id/time
func (h *TaskHandler) TimeEntries(c *fiber.Ctx) error {
	entries, err := h.timeTracking.List(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"entries": entries, "total": len(entries)})
}

// TotalTime returns the total tracked minutes on a task
// GET /api/tasks/:id/time/total
func (h *TaskHandler) TotalTime(c *fiber.Ctx) error {
	minutes, err := h.timeTracking.TotalMinutes(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"total_minutes": minutes})
}
