package handlers

import (
	"planboard/internal/models"
	"planboard/internal/services"

	"github.com/gofiber/fiber/v2"
)

// RequirementHandler handles requirement versioning and quality endpoints
type RequirementHandler struct {
	requirements *services.RequirementService
}

// NewRequirementHandler creates a new requirement handler
func NewRequirementHandler(requirements *services.RequirementService) *RequirementHandler {
	return &RequirementHandler{requirements: requirements}
}

// Create creates a requirement with a generated code and version 1
// POST /api/requirements
func (h *RequirementHandler) Create(c *fiber.Ctx) error {
	var req models.CreateRequirementRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	requirement, err := h.requirements.Create(c.Context(), userID(c), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(requirement)
}

// List lists a project's requirements
// GET /api/projects/:id/requirements
func (h *RequirementHandler) List(c *fiber.Ctx) error {
	requirements, err := h.requirements.List(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"requirements": requirements, "total": len(requirements)})
}

// Get returns one requirement
// GET /api/requirements/:id
func (h *RequirementHandler) Get(c *fiber.Ctx) error {
	requirement, err := h.requirements.Get(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(requirement)
}

// Update applies a partial update, bumping the version on significant changes
// PATCH /api/requirements/:id
func (h *RequirementHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateRequirementRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	requirement, err := h.requirements.Update(c.Context(), c.Params("id"), userID(c), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(requirement)
}

// Delete removes a requirement and its history
// DELETE /api/requirements/:id
func (h *RequirementHandler) Delete(c *fiber.Ctx) error {
	if err := h.requirements.Delete(c.Context(), c.Params("id"), userID(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Requirement deleted"})
}

// History returns a requirement's change history, newest first
// GET /api/requirements/:id/history
func (h *RequirementHandler) History(c *fiber.Ctx) error {
	history, err := h.requirements.History(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"history": history, "total": len(history)})
}

// LinkTask links a task to a requirement
// POST /api/requirements/:id/tasks
func (h *RequirementHandler) LinkTask(c *fiber.Ctx) error {
	var req struct {
		TaskID   string `json:"task_id"`
		LinkType string `json:"link_type,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.TaskID == "" {
		return badRequest(c, "task_id is required")
	}

	link, err := h.requirements.LinkTask(c.Context(), c.Params("id"), req.TaskID, userID(c), req.LinkType)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(link)
}

// UnlinkTask removes a requirement-task link
// DELETE /api/requirements/:id/tasks/:taskId
func (h *RequirementHandler) UnlinkTask(c *fiber.Ctx) error {
	err := h.requirements.UnlinkTask(c.Context(), c.Params("id"), c.Params("taskId"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Task unlinked"})
}

// Analyze runs the quality analysis and persists the score
// POST /api/requirements/:id/analyze
func (h *RequirementHandler) Analyze(c *fiber.Ctx) error {
	analysis, err := h.requirements.Analyze(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(analysis)
}

// GenerateTests derives test cases from acceptance criteria
// POST /api/requirements/:id/generate-tests
func (h *RequirementHandler) GenerateTests(c *fiber.Ctx) error {
	testCases, err := h.requirements.GenerateTests(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"test_cases": testCases, "total": len(testCases)})
}

// DetectDuplicates flags existing requirements similar to the given text
// POST /api/projects/:id/requirements/detect-duplicates
func (h *RequirementHandler) DetectDuplicates(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Title == "" {
		return badRequest(c, "title is required")
	}

	duplicates, err := h.requirements.DetectDuplicates(c.Context(), c.Params("id"), userID(c), req.Title, req.Description)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"duplicates": duplicates, "total": len(duplicates)})
}

// Coverage reports implementation and test coverage over a project's requirements
// GET /api/projects/:id/requirements/coverage
func (h *RequirementHandler) Coverage(c *fiber.Ctx) error {
	report, err := h.requirements.Coverage(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(report)
}
