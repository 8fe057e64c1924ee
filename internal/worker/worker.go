package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mynfini/narrative-engine/internal/services/events"
	"github.com/mynfini/narrative-engine/internal/services/queue"
	queuePkg "github.com/mynfini/narrative-engine/pkg/queue"
)

const (
	workerTimeout = 5 * time.Second
)

// Worker processes narration requests from the queue
type Worker struct {
	id          string
	queue       *queue.NarrationQueue
	processor   *NarrationProcessor
	broadcaster *events.Broadcaster
	redisClient *redis.Client
	log         *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a new worker instance
func New(narrationQueue *queue.NarrationQueue, processor *NarrationProcessor, redisClient *redis.Client, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	broadcaster := events.NewBroadcaster(redisClient, log)

	return &Worker{
		id:          workerID,
		queue:       narrationQueue,
		processor:   processor,
		broadcaster: broadcaster,
		redisClient: redisClient,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start begins processing requests from the queue
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		default:
			if err := w.processNextRequest(); err != nil {
				w.log.Error("Error processing request", "error", err, "worker_id", w.id)
				// Continue processing even on error
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// processNextRequest pulls the next request from the queue and processes it
func (w *Worker) processNextRequest() error {
	// Block waiting for next request (timeout after 5 seconds to check for shutdown)
	ctx, cancel := context.WithTimeout(w.ctx, workerTimeout)
	defer cancel()

	req, err := w.queue.BlockingDequeue(ctx, workerTimeout)
	if err != nil {
		return fmt.Errorf("failed to dequeue request: %w", err)
	}

	if req == nil {
		// Queue is empty or timeout occurred - this is normal
		return nil
	}

	w.log.Info("Received request from queue",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"character_id", req.CharacterID,
	)

	// Serialize narration per character so transcripts stay ordered
	locked, err := w.acquireCharacterLock(req.CharacterID)
	if err != nil {
		return fmt.Errorf("failed to acquire character lock: %w", err)
	}
	if !locked {
		// Another worker is narrating this character
		// Re-queue at the end and try next request
		w.log.Info("Character already locked, re-queueing request",
			"worker_id", w.id,
			"request_id", req.RequestID,
			"character_id", req.CharacterID,
		)
		if err := w.queue.Enqueue(w.ctx, req); err != nil {
			return fmt.Errorf("failed to re-queue request: %w", err)
		}
		return nil
	}

	defer w.releaseCharacterLock(req.CharacterID)
	return w.processRequest(req)
}

// acquireCharacterLock attempts to acquire a lock for a character
// Returns true if lock was acquired, false if already locked
func (w *Worker) acquireCharacterLock(characterID string) (bool, error) {
	lockKey := fmt.Sprintf("narration-lock:%s", characterID)

	result, err := w.redisClient.SetNX(w.ctx, lockKey, w.id, 30*time.Second).Result()
	if err != nil {
		return false, err
	}

	return result, nil
}

// releaseCharacterLock releases the lock for a character
func (w *Worker) releaseCharacterLock(characterID string) {
	lockKey := fmt.Sprintf("narration-lock:%s", characterID)

	// Only delete if we own the lock
	script := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)

	if err := script.Run(w.ctx, w.redisClient, []string{lockKey}, w.id).Err(); err != nil {
		w.log.Error("Failed to release character lock", "error", err, "character_id", characterID)
	}
}

// processRequest processes a single request using the NarrationProcessor
func (w *Worker) processRequest(req *queuePkg.Request) error {
	w.log.Info("Processing request",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"character_id", req.CharacterID,
	)

	start := time.Now()

	if err := w.broadcaster.PublishNarrationProcessing(w.ctx, req.CharacterID, req.RequestID, req.Action); err != nil {
		w.log.Warn("Failed to publish processing event", "error", err, "request_id", req.RequestID)
	}

	narration, err := w.processor.Process(w.ctx, req)
	if err != nil {
		w.log.Error("Request processing failed",
			"worker_id", w.id,
			"request_id", req.RequestID,
			"error", err,
			"duration", time.Since(start),
		)
		if pubErr := w.broadcaster.PublishNarrationFailed(w.ctx, req.CharacterID, req.RequestID, err.Error()); pubErr != nil {
			w.log.Warn("Failed to publish failure event", "error", pubErr, "request_id", req.RequestID)
		}
		return err
	}

	if err := w.broadcaster.PublishNarrationCompleted(w.ctx, req.CharacterID, req.RequestID, narration); err != nil {
		w.log.Warn("Failed to publish completion event", "error", err, "request_id", req.RequestID)
	}

	w.log.Info("Request processed",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"duration", time.Since(start),
	)
	return nil
}
