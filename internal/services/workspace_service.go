package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"planboard/internal/apperr"
	"planboard/internal/database"
	"planboard/internal/models"

	"github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// inviteTTL is how long a pending invitation stays redeemable.
const inviteTTL = 7 * 24 * time.Hour

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

// WorkspaceService manages workspaces, membership and invitations.
// Membership lookups are cached briefly since every request checks them.
type WorkspaceService struct {
	mongoDB     *database.MongoDB
	memberCache *cache.Cache
}

// NewWorkspaceService creates a new workspace service
func NewWorkspaceService(mongoDB *database.MongoDB) *WorkspaceService {
	return &WorkspaceService{
		mongoDB:     mongoDB,
		memberCache: cache.New(30*time.Second, 5*time.Minute),
	}
}

// collection returns the workspaces collection
func (s *WorkspaceService) collection() *mongo.Collection {
	return s.mongoDB.Collection(database.CollectionWorkspaces)
}

// membersCollection returns the workspace members collection
func (s *WorkspaceService) membersCollection() *mongo.Collection {
	return s.mongoDB.Collection(database.CollectionWorkspaceMembers)
}

// invitesCollection returns the workspace invites collection
func (s *WorkspaceService) invitesCollection() *mongo.Collection {
	return s.mongoDB.Collection(database.CollectionWorkspaceInvites)
}

func memberCacheKey(workspaceID, userID string) string {
	return workspaceID + ":" + userID
}

// Slugify converts a workspace name into a URL-safe slug
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugInvalidChars.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// generateInviteToken generates a secure random invitation token
func generateInviteToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Create creates a workspace and enrolls the creator as OWNER
func (s *WorkspaceService) Create(ctx context.Context, userID string, req *models.CreateWorkspaceRequest) (*models.Workspace, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("workspace name is required")
	}

	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name)
	}
	if slug == "" {
		return nil, apperr.Validation("workspace slug cannot be derived from name")
	}

	count, err := s.collection().CountDocuments(ctx, bson.M{"slug": slug})
	if err != nil {
		return nil, fmt.Errorf("failed to check slug uniqueness: %w", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("workspace slug %q is already taken", slug)
	}

	now := time.Now()
	workspace := &models.Workspace{
		Name:        strings.TrimSpace(req.Name),
		Slug:        slug,
		Description: req.Description,
		OwnerID:     userID,
		Plan:        models.PlanFree,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result, err := s.collection().InsertOne(ctx, workspace)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("workspace slug %q is already taken", slug)
		}
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	workspace.ID = result.InsertedID.(primitive.ObjectID)

	member := &models.WorkspaceMember{
		WorkspaceID: workspace.ID.Hex(),
		UserID:      userID,
		Permission:  models.PermissionOwner,
		JoinedAt:    now,
	}
	if _, err := s.membersCollection().InsertOne(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to enroll workspace owner: %w", err)
	}

	log.Printf("✅ Workspace created: %s (%s)", workspace.Name, workspace.ID.Hex())
	return workspace, nil
}

// Get returns a workspace the user is a member of
func (s *WorkspaceService) Get(ctx context.Context, workspaceID, userID string) (*models.Workspace, error) {
	if err := s.RequireAccess(ctx, workspaceID, userID); err != nil {
		return nil, err
	}
	return s.getByID(ctx, workspaceID)
}

func (s *WorkspaceService) getByID(ctx context.Context, workspaceID string) (*models.Workspace, error) {
	objID, err := primitive.ObjectIDFromHex(workspaceID)
	if err != nil {
		return nil, apperr.Validation("invalid workspace ID")
	}

	var workspace models.Workspace
	err = s.collection().FindOne(ctx, bson.M{"_id": objID}).Decode(&workspace)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("workspace not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	return &workspace, nil
}

// ListForUser returns all workspaces the user belongs to
func (s *WorkspaceService) ListForUser(ctx context.Context, userID string) ([]models.Workspace, error) {
	cursor, err := s.membersCollection().Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	var memberships []models.WorkspaceMember
	if err := cursor.All(ctx, &memberships); err != nil {
		return nil, fmt.Errorf("failed to decode memberships: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(memberships))
	for _, m := range memberships {
		objID, err := primitive.ObjectIDFromHex(m.WorkspaceID)
		if err != nil {
			continue
		}
		ids = append(ids, objID)
	}
	if len(ids) == 0 {
		return []models.Workspace{}, nil
	}

	cursor, err = s.collection().Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.M{"createdAt": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	var workspaces []models.Workspace
	if err := cursor.All(ctx, &workspaces); err != nil {
		return nil, fmt.Errorf("failed to decode workspaces: %w", err)
	}
	return workspaces, nil
}

// Update applies a partial update; requires OWNER or ADMIN
func (s *WorkspaceService) Update(ctx context.Context, workspaceID, userID string, req *models.UpdateWorkspaceRequest) (*models.Workspace, error) {
	if err := s.RequirePermission(ctx, workspaceID, userID, models.PermissionOwner, models.PermissionAdmin); err != nil {
		return nil, err
	}

	objID, err := primitive.ObjectIDFromHex(workspaceID)
	if err != nil {
		return nil, apperr.Validation("invalid workspace ID")
	}

	update := bson.M{"updatedAt": time.Now()}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, apperr.Validation("workspace name cannot be empty")
		}
		update["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		update["description"] = *req.Description
	}

	result := s.collection().FindOneAndUpdate(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var workspace models.Workspace
	if err := result.Decode(&workspace); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("workspace not found")
		}
		return nil, fmt.Errorf("failed to update workspace: %w", err)
	}
	return &workspace, nil
}

// Delete removes a workspace; only the OWNER may do this
func (s *WorkspaceService) Delete(ctx context.Context, workspaceID, userID string) error {
	if err := s.RequirePermission(ctx, workspaceID, userID, models.PermissionOwner); err != nil {
		return err
	}

	objID, err := primitive.ObjectIDFromHex(workspaceID)
	if err != nil {
		return apperr.Validation("invalid workspace ID")
	}

	result, err := s.collection().DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound("workspace not found")
	}

	if _, err := s.membersCollection().DeleteMany(ctx, bson.M{"workspaceId": workspaceID}); err != nil {
		log.Printf("⚠️  Failed to clean up members for workspace %s: %v", workspaceID, err)
	}
	if _, err := s.invitesCollection().DeleteMany(ctx, bson.M{"workspaceId": workspaceID}); err != nil {
		log.Printf("⚠️  Failed to clean up invites for workspace %s: %v", workspaceID, err)
	}

	s.memberCache.Flush()
	return nil
}

// GetMember returns the membership record for a user in a workspace,
// or nil if the user is not a member.
func (s *WorkspaceService) GetMember(ctx context.Context, workspaceID, userID string) (*models.WorkspaceMember, error) {
	key := memberCacheKey(workspaceID, userID)
	if cached, found := s.memberCache.Get(key); found {
		if member, ok := cached.(*models.WorkspaceMember); ok {
			return member, nil
		}
	}

	var member models.WorkspaceMember
	err := s.membersCollection().FindOne(ctx, bson.M{
		"workspaceId": workspaceID,
		"userId":      userID,
	}).Decode(&member)
	if err == mongo.ErrNoDocuments {
		s.memberCache.Set(key, (*models.WorkspaceMember)(nil), cache.DefaultExpiration)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up membership: %w", err)
	}

	s.memberCache.Set(key, &member, cache.DefaultExpiration)
	return &member, nil
}

// RequireAccess fails with an access error unless the user is a member
// of the workspace, at any permission level.
func (s *WorkspaceService) RequireAccess(ctx context.Context, workspaceID, userID string) error {
	member, err := s.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return apperr.AccessDenied("you do not have access to this workspace")
	}
	return nil
}

// RequirePermission fails unless the user's permission level is one of
// the allowed set. Checks are set membership, not level comparison.
func (s *WorkspaceService) RequirePermission(ctx context.Context, workspaceID, userID string, allowed ...models.MemberPermission) error {
	member, err := s.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	if member == nil {
		return apperr.AccessDenied("you do not have access to this workspace")
	}
	for _, p := range allowed {
		if member.Permission == p {
			return nil
		}
	}
	return apperr.AccessDenied("insufficient permissions for this operation")
}

// ListMembers returns all members of a workspace
func (s *WorkspaceService) ListMembers(ctx context.Context, workspaceID, userID string) ([]models.WorkspaceMember, error) {
	if err := s.RequireAccess(ctx, workspaceID, userID); err != nil {
		return nil, err
	}

	cursor, err := s.membersCollection().Find(ctx, bson.M{"workspaceId": workspaceID},
		options.Find().SetSort(bson.M{"joinedAt": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	var members []models.WorkspaceMember
	if err := cursor.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("failed to decode members: %w", err)
	}
	return members, nil
}

// UpdateMemberPermission changes a member's permission level.
// Requires OWNER or ADMIN; the OWNER's own level cannot be changed.
func (s *WorkspaceService) UpdateMemberPermission(ctx context.Context, workspaceID, actorID, memberUserID string, permission models.MemberPermission) error {
	if err := s.RequirePermission(ctx, workspaceID, actorID, models.PermissionOwner, models.PermissionAdmin); err != nil {
		return err
	}
	if !models.ValidPermission(permission) {
		return apperr.Validation("invalid permission level: %s", permission)
	}
	if permission == models.PermissionOwner {
		return apperr.Validation("ownership cannot be granted through member updates")
	}

	target, err := s.GetMember(ctx, workspaceID, memberUserID)
	if err != nil {
		return err
	}
	if target == nil {
		return apperr.NotFound("member not found in workspace")
	}
	if target.Permission == models.PermissionOwner {
		return apperr.Validation("the workspace owner's permission cannot be changed")
	}

	_, err = s.membersCollection().UpdateOne(ctx,
		bson.M{"workspaceId": workspaceID, "userId": memberUserID},
		bson.M{"$set": bson.M{"permission": permission}},
	)
	if err != nil {
		return fmt.Errorf("failed to update member permission: %w", err)
	}

	s.memberCache.Delete(memberCacheKey(workspaceID, memberUserID))
	return nil
}

// RemoveMember removes a member from a workspace.
// Requires OWNER or ADMIN; the OWNER cannot be removed.
func (s *WorkspaceService) RemoveMember(ctx context.Context, workspaceID, actorID, memberUserID string) error {
	if err := s.RequirePermission(ctx, workspaceID, actorID, models.PermissionOwner, models.PermissionAdmin); err != nil {
		return err
	}

	target, err := s.GetMember(ctx, workspaceID, memberUserID)
	if err != nil {
		return err
	}
	if target == nil {
		return apperr.NotFound("member not found in workspace")
	}
	if target.Permission == models.PermissionOwner {
		return apperr.Validation("the workspace owner cannot be removed")
	}

	_, err = s.membersCollection().DeleteOne(ctx, bson.M{
		"workspaceId": workspaceID,
		"userId":      memberUserID,
	})
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.memberCache.Delete(memberCacheKey(workspaceID, memberUserID))
	return nil
}

// Invite creates a pending invitation for an email address.
// Requires OWNER or ADMIN.
func (s *WorkspaceService) Invite(ctx context.Context, workspaceID, actorID string, req *models.InviteRequest) (*models.WorkspaceInvite, error) {
	if err := s.RequirePermission(ctx, workspaceID, actorID, models.PermissionOwner, models.PermissionAdmin); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validation("a valid email address is required")
	}
	if !models.ValidPermission(req.Permission) || req.Permission == models.PermissionOwner {
		return nil, apperr.Validation("invalid permission level for invitation")
	}

	count, err := s.invitesCollection().CountDocuments(ctx, bson.M{
		"workspaceId": workspaceID,
		"email":       email,
		"status":      models.InvitePending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check pending invites: %w", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("an invitation for %s is already pending", email)
	}

	token, err := generateInviteToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite token: %w", err)
	}

	now := time.Now()
	invite := &models.WorkspaceInvite{
		WorkspaceID: workspaceID,
		Email:       email,
		Permission:  req.Permission,
		Token:       token,
		Status:      models.InvitePending,
		InvitedBy:   actorID,
		ExpiresAt:   now.Add(inviteTTL),
		CreatedAt:   now,
	}

	result, err := s.invitesCollection().InsertOne(ctx, invite)
	if err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}
	invite.ID = result.InsertedID.(primitive.ObjectID)
	return invite, nil
}

// AcceptInvite redeems an invitation token, adding the user as a member
func (s *WorkspaceService) AcceptInvite(ctx context.Context, token, userID string) (*models.WorkspaceMember, error) {
	var invite models.WorkspaceInvite
	err := s.invitesCollection().FindOne(ctx, bson.M{"token": token}).Decode(&invite)
	if err == mongo.ErrNoDocuments {
		return nil, apperr.NotFound("invitation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up invite: %w", err)
	}

	if invite.Status != models.InvitePending {
		return nil, apperr.Precondition("invitation is no longer pending")
	}
	if time.Now().After(invite.ExpiresAt) {
		_, _ = s.invitesCollection().UpdateOne(ctx,
			bson.M{"_id": invite.ID},
			bson.M{"$set": bson.M{"status": models.InviteExpired}},
		)
		return nil, apperr.Precondition("invitation has expired")
	}

	existing, err := s.GetMember(ctx, invite.WorkspaceID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("you are already a member of this workspace")
	}

	member := &models.WorkspaceMember{
		WorkspaceID: invite.WorkspaceID,
		UserID:      userID,
		Permission:  invite.Permission,
		JoinedAt:    time.Now(),
	}
	result, err := s.membersCollection().InsertOne(ctx, member)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("you are already a member of this workspace")
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	member.ID = result.InsertedID.(primitive.ObjectID)

	_, err = s.invitesCollection().UpdateOne(ctx,
		bson.M{"_id": invite.ID},
		bson.M{"$set": bson.M{"status": models.InviteAccepted}},
	)
	if err != nil {
		log.Printf("⚠️  Failed to mark invite %s accepted: %v", invite.ID.Hex(), err)
	}

	s.memberCache.Delete(memberCacheKey(invite.WorkspaceID, userID))
	return member, nil
}

// DeclineInvite marks an invitation as declined
func (s *WorkspaceService) DeclineInvite(ctx context.Context, token string) error {
	result, err := s.invitesCollection().UpdateOne(ctx,
		bson.M{"token": token, "status": models.InvitePending},
		bson.M{"$set": bson.M{"status": models.InviteDeclined}},
	)
	if err != nil {
		return fmt.Errorf("failed to decline invite: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperr.NotFound("pending invitation not found")
	}
	return nil
}

// ExpireStaleInvites marks pending invites past their expiry as EXPIRED.
// Called by the background scheduler.
func (s *WorkspaceService) ExpireStaleInvites(ctx context.Context) (int64, error) {
	result, err := s.invitesCollection().UpdateMany(ctx,
		bson.M{"status": models.InvitePending, "expiresAt": bson.M{"$lt": time.Now()}},
		bson.M{"$set": bson.M{"status": models.InviteExpired}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire invites: %w", err)
	}
	return result.ModifiedCount, nil
}
