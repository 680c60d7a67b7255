package services

import (
	"context"
	"log"
	"time"

	"planboard/internal/database"
	"planboard/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AnalysisWorker runs requirement quality analysis off the request path.
// Enqueue never blocks the caller and failures are logged, never surfaced:
// the mutation that queued the analysis has already committed.
type AnalysisWorker struct {
	mongoDB *database.MongoDB
	metrics *Metrics
	queue   chan string
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewAnalysisWorker creates a worker with a bounded queue
func NewAnalysisWorker(mongoDB *database.MongoDB, metrics *Metrics, queueSize int) *AnalysisWorker {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &AnalysisWorker{
		mongoDB: mongoDB,
		metrics: metrics,
		queue:   make(chan string, queueSize),
		done:    make(chan struct{}),
	}
}

// Start launches the background goroutine
func (w *AnalysisWorker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	go w.run(ctx)
	log.Println("✅ Requirement analysis worker started")
}

// Stop drains nothing; it just stops the loop and waits for it to exit
func (w *AnalysisWorker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
}

// Enqueue schedules analysis for a requirement. When the queue is full the
// request is dropped with a log line rather than blocking the caller.
func (w *AnalysisWorker) Enqueue(requirementID string) {
	if w == nil {
		return
	}
	select {
	case w.queue <- requirementID:
	default:
		log.Printf("⚠️  [ANALYSIS] Queue full, dropping analysis for requirement %s", requirementID)
	}
}

func (w *AnalysisWorker) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case requirementID := <-w.queue:
			w.analyze(ctx, requirementID)
		}
	}
}

func (w *AnalysisWorker) analyze(ctx context.Context, requirementID string) {
	objID, err := primitive.ObjectIDFromHex(requirementID)
	if err != nil {
		log.Printf("⚠️  [ANALYSIS] Invalid requirement ID %q: %v", requirementID, err)
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var requirement models.Requirement
	err = w.mongoDB.Collection(database.CollectionRequirements).
		FindOne(opCtx, bson.M{"_id": objID}).Decode(&requirement)
	if err != nil {
		log.Printf("⚠️  [ANALYSIS] Failed to load requirement %s: %v", requirementID, err)
		return
	}

	started := time.Now()
	analysis := AnalyzeRequirement(requirement.Title, requirement.Description,
		requirement.Type, requirement.AcceptanceCriteria)
	w.metrics.RecordAnalysis(time.Since(started).Seconds())

	_, err = w.mongoDB.Collection(database.CollectionRequirements).UpdateOne(opCtx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{"qualityScore": analysis.QualityScore}},
	)
	if err != nil {
		log.Printf("⚠️  [ANALYSIS] Failed to store score for requirement %s: %v", requirementID, err)
	}
}
