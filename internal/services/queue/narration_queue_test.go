package queue

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/mynfini/narrative-engine/pkg/queue"
)

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	client, err := NewClient("redis://"+mr.Addr(), logger)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create queue client: %v", err)
	}

	return client, mr
}

func TestNarrationQueue_EnqueueAndDequeue(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	nq := NewNarrationQueue(client)
	ctx := context.Background()

	actions := []string{
		"I draw my blade and step forward",
		"I reach for the rope bridge",
		"I call out to the stranger",
	}

	var ids []string
	for _, action := range actions {
		req := &queue.Request{
			RequestID:   uuid.NewString(),
			Type:        queue.RequestTypeNarrate,
			CharacterID: "alice",
			Action:      action,
			EnqueuedAt:  time.Now().UTC(),
		}
		ids = append(ids, req.RequestID)
		if err := nq.Enqueue(ctx, req); err != nil {
			t.Fatalf("Failed to enqueue request: %v", err)
		}
	}

	depth, err := nq.Depth(ctx)
	if err != nil {
		t.Fatalf("Failed to get depth: %v", err)
	}
	if depth != len(actions) {
		t.Errorf("Depth = %d, want %d", depth, len(actions))
	}

	// FIFO order
	for i, action := range actions {
		req, err := nq.BlockingDequeue(ctx, time.Second)
		if err != nil {
			t.Fatalf("Failed to dequeue: %v", err)
		}
		if req == nil {
			t.Fatal("Expected request, got nil")
		}
		if req.RequestID != ids[i] {
			t.Errorf("Request %d ID = %q, want %q", i, req.RequestID, ids[i])
		}
		if req.Action != action {
			t.Errorf("Request %d action = %q, want %q", i, req.Action, action)
		}
	}

	depth, err = nq.Depth(ctx)
	if err != nil {
		t.Fatalf("Failed to get depth: %v", err)
	}
	if depth != 0 {
		t.Errorf("Depth after drain = %d, want 0", depth)
	}
}

func TestNarrationQueue_DequeueEmptyTimesOut(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	nq := NewNarrationQueue(client)

	req, err := nq.BlockingDequeue(context.Background(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if req != nil {
		t.Errorf("Expected nil for empty queue, got %+v", req)
	}
}

func TestNarrationQueue_RejectsMalformedPayload(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	nq := NewNarrationQueue(client)
	ctx := context.Background()

	if err := client.rdb.RPush(ctx, narrationQueueKey, "not json").Err(); err != nil {
		t.Fatalf("Failed to seed malformed payload: %v", err)
	}

	if _, err := nq.BlockingDequeue(ctx, time.Second); err == nil {
		t.Fatal("Expected error for malformed payload")
	}
}
