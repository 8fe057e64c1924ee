package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mynfini/narrative-engine/internal/services"
	"github.com/mynfini/narrative-engine/internal/storage"
	"github.com/mynfini/narrative-engine/pkg/chat"
	"github.com/mynfini/narrative-engine/pkg/ledger"
	queuePkg "github.com/mynfini/narrative-engine/pkg/queue"
)

func narrateRequest(characterID, action string) *queuePkg.Request {
	return &queuePkg.Request{
		RequestID:   uuid.NewString(),
		Type:        queuePkg.RequestTypeNarrate,
		CharacterID: characterID,
		Action:      action,
		EnqueuedAt:  time.Now().UTC(),
	}
}

func TestProcess_GeneratesAndRecordsNarration(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMockStorage()
	mockLLM := services.NewMockLLM()
	mockLLM.GenerateNarrationFunc = func(ctx context.Context, messages []chat.Message) (string, error) {
		return "The bridge sways as you step onto it.", nil
	}

	ctx := context.Background()

	// Seed ledger state the prompt should pick up.
	l := ledger.New()
	if _, err := l.Earn("alice", ledger.TriggerRiskTaking, "leapt the chasm", nil); err != nil {
		t.Fatalf("Earn failed: %v", err)
	}
	if err := store.SaveAccount(ctx, l.Snapshot("alice")); err != nil {
		t.Fatalf("SaveAccount failed: %v", err)
	}
	for _, tx := range l.History("alice", 0) {
		if err := store.AppendTransaction(ctx, tx); err != nil {
			t.Fatalf("AppendTransaction failed: %v", err)
		}
	}

	processor := NewNarrationProcessor(store, mockLLM, logger)

	narration, err := processor.Process(ctx, narrateRequest("alice", "I cross the bridge"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if narration != "The bridge sways as you step onto it." {
		t.Errorf("Narration = %q", narration)
	}

	if mockLLM.CallCount() != 1 {
		t.Fatalf("Expected 1 LLM call, got %d", mockLLM.CallCount())
	}
	messages := mockLLM.GenerateNarrationCalls[0].Messages
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != chat.RoleSystem {
		t.Errorf("First message role = %q", messages[0].Role)
	}
	if !strings.Contains(messages[0].Content, "Risk Taking: leapt the chasm") {
		t.Errorf("System prompt missing ledger digest: %s", messages[0].Content)
	}
	if messages[1].Content != "I cross the bridge" {
		t.Errorf("User message = %q", messages[1].Content)
	}

	transcript, err := store.LoadTranscript(ctx, "alice")
	if err != nil {
		t.Fatalf("LoadTranscript failed: %v", err)
	}
	if len(transcript) != 2 {
		t.Fatalf("Expected 2 transcript entries, got %d", len(transcript))
	}
	if transcript[0].Role != chat.RoleUser || transcript[1].Role != chat.RoleNarrator {
		t.Errorf("Transcript roles wrong: %+v", transcript)
	}
}

func TestProcess_UnknownCharacterStillNarrates(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMockStorage()
	mockLLM := services.NewMockLLM()

	processor := NewNarrationProcessor(store, mockLLM, logger)

	narration, err := processor.Process(context.Background(), narrateRequest("ghost", "I look around"))
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if narration == "" {
		t.Error("Expected narration for unknown character")
	}
}

func TestProcess_LLMFailureLeavesTranscriptUntouched(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewMockStorage()
	mockLLM := services.NewMockLLM()
	mockLLM.SetNarrationError(errors.New("model unavailable"))

	processor := NewNarrationProcessor(store, mockLLM, logger)

	_, err := processor.Process(context.Background(), narrateRequest("alice", "I cross the bridge"))
	if err == nil {
		t.Fatal("Expected error when LLM fails")
	}

	transcript, _ := store.LoadTranscript(context.Background(), "alice")
	if len(transcript) != 0 {
		t.Errorf("Expected empty transcript after failure, got %d entries", len(transcript))
	}
}

func TestProcess_RejectsUnknownRequestType(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	processor := NewNarrationProcessor(storage.NewMockStorage(), services.NewMockLLM(), logger)

	req := narrateRequest("alice", "I wait")
	req.Type = queuePkg.RequestType("summarize")

	if _, err := processor.Process(context.Background(), req); err == nil {
		t.Fatal("Expected error for unknown request type")
	}
}
