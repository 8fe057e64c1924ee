package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mynfini/narrative-engine/internal/services"
	"github.com/mynfini/narrative-engine/internal/storage"
	"github.com/mynfini/narrative-engine/pkg/chat"
	"github.com/mynfini/narrative-engine/pkg/ledger"
	"github.com/mynfini/narrative-engine/pkg/prompts"
	queuePkg "github.com/mynfini/narrative-engine/pkg/queue"
)

// recentTransactionCount bounds how much ledger history flows into the
// narration prompt.
const recentTransactionCount = 5

// NarrationProcessor turns a queued request into narration: it loads the
// character's ledger standing from storage, builds the prompt, calls the
// model, and appends the exchange to the transcript.
type NarrationProcessor struct {
	storage    storage.Storage
	llmService services.LLMService
	logger     *slog.Logger
}

// NewNarrationProcessor creates a new narration processor
func NewNarrationProcessor(s storage.Storage, llm services.LLMService, logger *slog.Logger) *NarrationProcessor {
	return &NarrationProcessor{
		storage:    s,
		llmService: llm,
		logger:     logger,
	}
}

// Process handles one narration request and returns the narration text
func (p *NarrationProcessor) Process(ctx context.Context, req *queuePkg.Request) (string, error) {
	if req.Type != queuePkg.RequestTypeNarrate {
		return "", fmt.Errorf("unsupported request type: %s", req.Type)
	}

	account, err := p.storage.LoadAccount(ctx, req.CharacterID)
	if err != nil {
		return "", fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		// Characters with no ledger history still get narrated
		account = &ledger.Account{CharacterID: req.CharacterID}
	}

	transactions, err := p.storage.LoadTransactions(ctx, req.CharacterID)
	if err != nil {
		return "", fmt.Errorf("failed to load transactions: %w", err)
	}
	if len(transactions) > recentTransactionCount {
		transactions = transactions[len(transactions)-recentTransactionCount:]
	}

	narrationReq := &chat.NarrationRequest{
		CharacterID: req.CharacterID,
		Action:      req.Action,
	}
	messages := prompts.BuildNarration(*account, transactions, narrationReq)

	narration, err := p.llmService.GenerateNarration(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate narration: %w", err)
	}

	now := time.Now().UTC()
	if err := p.storage.AppendNarration(ctx, req.CharacterID, chat.TranscriptEntry{
		Role:      chat.RoleUser,
		Content:   req.Action,
		Timestamp: now,
	}); err != nil {
		return "", fmt.Errorf("failed to append action to transcript: %w", err)
	}
	if err := p.storage.AppendNarration(ctx, req.CharacterID, chat.TranscriptEntry{
		Role:      chat.RoleNarrator,
		Content:   narration,
		Timestamp: now,
	}); err != nil {
		return "", fmt.Errorf("failed to append narration to transcript: %w", err)
	}

	p.logger.Debug("Narration generated",
		"character_id", req.CharacterID,
		"request_id", req.RequestID,
		"narration_length", len(narration),
	)

	return narration, nil
}
