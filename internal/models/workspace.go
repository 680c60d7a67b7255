package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemberPermission is a workspace permission level.
// Levels imply privilege but checks are by set membership, never by
// numeric comparison.
type MemberPermission string

const (
	PermissionOwner MemberPermission = "OWNER"
	PermissionAdmin MemberPermission = "ADMIN"
	PermissionWrite MemberPermission = "WRITE"
	PermissionRead  MemberPermission = "READ"
)

// ValidPermission reports whether p is a known permission level
func ValidPermission(p MemberPermission) bool {
	switch p {
	case PermissionOwner, PermissionAdmin, PermissionWrite, PermissionRead:
		return true
	}
	return false
}

// WorkspacePlan is the subscription tier of a workspace
type WorkspacePlan string

const (
	PlanFree         WorkspacePlan = "FREE"
	PlanStarter      WorkspacePlan = "STARTER"
	PlanProfessional WorkspacePlan = "PROFESSIONAL"
	PlanEnterprise   WorkspacePlan = "ENTERPRISE"
)

// InviteStatus tracks the lifecycle of a workspace invitation
type InviteStatus string

const (
	InvitePending  InviteStatus = "PENDING"
	InviteAccepted InviteStatus = "ACCEPTED"
	InviteDeclined InviteStatus = "DECLINED"
	InviteExpired  InviteStatus = "EXPIRED"
)

// Workspace is the top-level tenant; projects live inside a workspace
type Workspace struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Slug        string             `bson:"slug" json:"slug"` // unique
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	OwnerID     string             `bson:"ownerId" json:"owner_id"`
	Plan        WorkspacePlan      `bson:"plan" json:"plan"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updated_at"`
}

// WorkspaceMember links a user to a workspace with one permission level.
// The (workspaceId, userId) pair is unique.
type WorkspaceMember struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID string             `bson:"workspaceId" json:"workspace_id"`
	UserID      string             `bson:"userId" json:"user_id"`
	Permission  MemberPermission   `bson:"permission" json:"permission"`
	JoinedAt    time.Time          `bson:"joinedAt" json:"joined_at"`
}

// WorkspaceInvite is a pending email invitation, valid for seven days
type WorkspaceInvite struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID string             `bson:"workspaceId" json:"workspace_id"`
	Email       string             `bson:"email" json:"email"`
	Permission  MemberPermission   `bson:"permission" json:"permission"`
	Token       string             `bson:"token" json:"-"`
	Status      InviteStatus       `bson:"status" json:"status"`
	InvitedBy   string             `bson:"invitedBy" json:"invited_by"`
	ExpiresAt   time.Time          `bson:"expiresAt" json:"expires_at"`
	CreatedAt   time.Time          `bson:"createdAt" json:"created_at"`
}

// CreateWorkspaceRequest is the payload for creating a workspace
type CreateWorkspaceRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"` // derived from name when empty
	Description string `json:"description,omitempty"`
}

// UpdateWorkspaceRequest is a partial workspace update
type UpdateWorkspaceRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// InviteRequest is the payload for inviting a user by email
type InviteRequest struct {
	Email      string           `json:"email"`
	Permission MemberPermission `json:"permission"`
}
