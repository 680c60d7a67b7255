package jobs

import (
	"context"
	"log"
	"time"

	"planboard/internal/database"

	"go.mongodb.org/mongo-driver/bson"
)

// activityRetention is how long task activity entries are kept. Requirement
// history is exempt: it is an audit log and never trimmed.
const activityRetention = 180 * 24 * time.Hour

// ActivityRetentionJob trims old task activity entries so the audit
// collection does not grow without bound.
type ActivityRetentionJob struct {
	mongoDB *database.MongoDB
}

// NewActivityRetentionJob creates a new retention job
func NewActivityRetentionJob(mongoDB *database.MongoDB) *ActivityRetentionJob {
	return &ActivityRetentionJob{mongoDB: mongoDB}
}

// Run deletes activity entries older than the retention window
func (j *ActivityRetentionJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-activityRetention)

	result, err := j.mongoDB.Collection(database.CollectionActivities).
		DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return err
	}
	if result.DeletedCount > 0 {
		log.Printf("🧹 [RETENTION] Deleted %d activity entries older than %s",
			result.DeletedCount, cutoff.Format(time.RFC3339))
	}
	return nil
}

// GetNextRunTime returns when the job should run next (daily, 03:00 UTC)
func (j *ActivityRetentionJob) GetNextRunTime() time.Time {
	now := time.Now().UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), 3, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
