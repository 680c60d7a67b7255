package handlers

import (
	"planboard/internal/models"
	"planboard/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProjectHandler handles project and list endpoints
type ProjectHandler struct {
	projects *services.ProjectService
	lists    *services.ListService
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projects *services.ProjectService, lists *services.ListService) *ProjectHandler {
	return &ProjectHandler{projects: projects, lists: lists}
}

// Create creates a project
// POST /api/projects
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var req models.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	project, err := h.projects.Create(c.Context(), userID(c), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// List lists a workspace's projects
// GET /api/workspaces/:id/projects
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	projects, err := h.projects.List(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"projects": projects, "total": len(projects)})
}

// Get returns one project
// GET /api/projects/:id
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	project, err := h.projects.Get(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(project)
}

// Update applies a partial update
// PATCH /api/projects/:id
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	project, err := h.projects.Update(c.Context(), c.Params("id"), userID(c), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(project)
}

// Delete removes a project and its contents
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	if err := h.projects.Delete(c.Context(), c.Params("id"), userID(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Project deleted"})
}

// Stats returns grouped task counts for a project
// GET /api/projects/:id/stats
func (h *ProjectHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.projects.Stats(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(stats)
}

// CreateList appends a list to a project
// POST /api/lists
func (h *ProjectHandler) CreateList(c *fiber.Ctx) error {
	var req models.CreateListRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	list, err := h.lists.Create(c.Context(), userID(c), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(list)
}

// Lists returns a project's lists in position order
// GET /api/projects/:id/lists
func (h *ProjectHandler) Lists(c *fiber.Ctx) error {
	lists, err := h.lists.List(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"lists": lists, "total": len(lists)})
}

// UpdateList applies a partial list update
// PATCH /api/lists/:id
func (h *ProjectHandler) UpdateList(c *fiber.Ctx) error {
	var req models.UpdateListRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	list, err := h.lists.Update(c.Context(), c.Params("id"), userID(c), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

// DeleteList removes an empty list
// DELETE /api/lists/:id
func (h *ProjectHandler) DeleteList(c *fiber.Ctx) error {
	if err := h.lists.Delete(c.Context(), c.Params("id"), userID(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "List deleted"})
}

// ReorderLists rewrites list positions from a full ordering
// PUT /api/projects/:id/lists/reorder
func (h *ProjectHandler) ReorderLists(c *fiber.Ctx) error {
	var req struct {
		ListIDs []string `json:"list_ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	lists, err := h.lists.Reorder(c.Context(), c.Params("id"), userID(c), req.ListIDs)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"lists": lists})
}
