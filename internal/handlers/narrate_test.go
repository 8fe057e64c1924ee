package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mynfini/narrative-engine/internal/services/events"
	"github.com/mynfini/narrative-engine/internal/services/queue"
	"github.com/mynfini/narrative-engine/pkg/chat"
)

func setupNarrateHandler(t *testing.T) (*NarrateHandler, *queue.NarrationQueue) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := queue.NewClient("redis://"+mr.Addr(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	nq := queue.NewNarrationQueue(client)

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })
	broadcaster := events.NewBroadcaster(redisClient, logger)

	return NewNarrateHandler(nq, broadcaster, logger), nq
}

func TestNarrateHandler_QueuesRequest(t *testing.T) {
	handler, nq := setupNarrateHandler(t)

	body, err := json.Marshal(chat.NarrationRequest{
		CharacterID: "alice",
		Action:      "I cross the bridge",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/narrate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["request_id"])
	assert.Equal(t, "queued", resp["status"])

	queued, err := nq.BlockingDequeue(context.Background(), time.Second)
	require.NoError(t, err)
	require.NotNil(t, queued)
	assert.Equal(t, "alice", queued.CharacterID)
	assert.Equal(t, "I cross the bridge", queued.Action)
	assert.Equal(t, resp["request_id"], queued.RequestID)
}

func TestNarrateHandler_RejectsMissingFields(t *testing.T) {
	handler, _ := setupNarrateHandler(t)

	tests := []struct {
		name string
		body chat.NarrationRequest
	}{
		{"missing character", chat.NarrationRequest{Action: "I wait"}},
		{"missing action", chat.NarrationRequest{CharacterID: "alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(tt.body)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/v1/narrate", bytes.NewReader(body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestNarrateHandler_RejectsGet(t *testing.T) {
	handler, _ := setupNarrateHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/narrate", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
