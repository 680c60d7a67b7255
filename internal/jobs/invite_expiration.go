package jobs

import (
	"context"
	"log"
	"time"

	"planboard/internal/services"
)

// InviteExpirationChecker marks workspace invitations past their expiry as
// EXPIRED so they can no longer be redeemed.
type InviteExpirationChecker struct {
	workspaces *services.WorkspaceService
}

// NewInviteExpirationChecker creates a new invite expiration checker
func NewInviteExpirationChecker(workspaces *services.WorkspaceService) *InviteExpirationChecker {
	return &InviteExpirationChecker{workspaces: workspaces}
}

// Run expires stale pending invitations
func (c *InviteExpirationChecker) Run(ctx context.Context) error {
	expired, err := c.workspaces.ExpireStaleInvites(ctx)
	if err != nil {
		return err
	}
	if expired > 0 {
		log.Printf("🧹 [INVITE-EXPIRATION] Expired %d stale invitations", expired)
	}
	return nil
}

// GetNextRunTime returns when the job should run next (hourly)
func (c *InviteExpirationChecker) GetNextRunTime() time.Time {
	return time.Now().UTC().Add(1 * time.Hour)
}
