package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mynfini/narrative-engine/pkg/queue"
)

// narrationQueueKey is the global list all narration requests flow through.
const narrationQueueKey = "narration-requests"

// NarrationQueue manages the queue of pending narration requests
type NarrationQueue struct {
	client *Client
}

func NewNarrationQueue(client *Client) *NarrationQueue {
	return &NarrationQueue{
		client: client,
	}
}

// Enqueue adds a narration request to the end of the global queue
func (nq *NarrationQueue) Enqueue(ctx context.Context, req *queue.Request) error {
	data, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}

	if err := nq.client.rdb.RPush(ctx, narrationQueueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue narration request: %w", err)
	}
	return nil
}

// BlockingDequeue removes and returns the next request, blocking up to
// timeout. Returns nil when the timeout elapses with an empty queue.
func (nq *NarrationQueue) BlockingDequeue(ctx context.Context, timeout time.Duration) (*queue.Request, error) {
	result, err := nq.client.rdb.BLPop(ctx, timeout, narrationQueueKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Queue is empty
		}
		return nil, fmt.Errorf("failed to dequeue narration request: %w", err)
	}

	// BLPOP returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BLPOP result length %d", len(result))
	}

	req, err := queue.FromJSON([]byte(result[1]))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}

// Depth returns the number of pending narration requests
func (nq *NarrationQueue) Depth(ctx context.Context) (int, error) {
	count, err := nq.client.rdb.LLen(ctx, narrationQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue depth: %w", err)
	}
	return int(count), nil
}
