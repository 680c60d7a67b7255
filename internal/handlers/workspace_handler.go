package handlers

import (
	"planboard/internal/models"
	"planboard/internal/services"

	"github.com/gofiber/fiber/v2"
)

// WorkspaceHandler handles workspace and membership endpoints
type WorkspaceHandler struct {
	workspaces *services.WorkspaceService
}

// NewWorkspaceHandler creates a new workspace handler
func NewWorkspaceHandler(workspaces *services.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaces: workspaces}
}

// Create creates a workspace
// POST /api/workspaces
func (h *WorkspaceHandler) Create(c *fiber.Ctx) error {
	var req models.CreateWorkspaceRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	workspace, err := h.workspaces.Create(c.Context(), userID(c), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(workspace)
}

// List lists the user's workspaces
// GET /api/workspaces
func (h *WorkspaceHandler) List(c *fiber.Ctx) error {
	workspaces, err := h.workspaces.ListForUser(c.Context(), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"workspaces": workspaces, "total": len(workspaces)})
}

// Get returns one workspace
// GET /api/workspaces/:id
func (h *WorkspaceHandler) Get(c *fiber.Ctx) error {
	workspace, err := h.workspaces.Get(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(workspace)
}

// Update applies a partial update
// PATCH /api/workspaces/:id
func (h *WorkspaceHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateWorkspaceRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	workspace, err := h.workspaces.Update(c.Context(), c.Params("id"), userID(c), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(workspace)
}

// Delete removes a workspace
// DELETE /api/workspaces/:id
func (h *WorkspaceHandler) Delete(c *fiber.Ctx) error {
	if err := h.workspaces.Delete(c.Context(), c.Params("id"), userID(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Workspace deleted"})
}

// ListMembers lists workspace members
// GET /api/workspaces/:id/members
func (h *WorkspaceHandler) ListMembers(c *fiber.Ctx) error {
	members, err := h.workspaces.ListMembers(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"members": members, "total": len(members)})
}

// UpdateMember changes a member's permission level
// PATCH /api/workspaces/:id/members/:userId
func (h *WorkspaceHandler) UpdateMember(c *fiber.Ctx) error {
	var req struct {
		Permission models.MemberPermission `json:"permission"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	err := h.workspaces.UpdateMemberPermission(c.Context(),
		c.Params("id"), userID(c), c.Params("userId"), req.Permission)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Member updated"})
}

// RemoveMember removes a member
// DELETE /api/workspaces/:id/members/:userId
func (h *WorkspaceHandler) RemoveMember(c *fiber.Ctx) error {
	err := h.workspaces.RemoveMember(c.Context(), c.Params("id"), userID(c), c.Params("userId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Member removed"})
}

// Invite creates an email invitation
// POST /api/workspaces/:id/invites
func (h *WorkspaceHandler) Invite(c *fiber.Ctx) error {
	var req models.InviteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	invite, err := h.workspaces.Invite(c.Context(), c.Params("id"), userID(c), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invite)
}

// AcceptInvite redeems an invitation token
// POST /api/invites/:token/accept
func (h *WorkspaceHandler) AcceptInvite(c *fiber.Ctx) error {
	member, err := h.workspaces.AcceptInvite(c.Context(), c.Params("token"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(member)
}

// DeclineInvite declines an invitation
// POST /api/invites/:token/decline
func (h *WorkspaceHandler) DeclineInvite(c *fiber.Ctx) error {
	if err := h.workspaces.DeclineInvite(c.Context(), c.Params("token")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Invitation declined"})
}
