package services

import (
	"context"

	"github.com/mynfini/narrative-engine/pkg/chat"
)

// LLMService defines the interface for interacting with the narration model
type LLMService interface {
	// InitModel prepares the model on startup
	InitModel(ctx context.Context, modelName string) error

	// GenerateNarration produces narration text for the given conversation
	GenerateNarration(ctx context.Context, messages []chat.Message) (string, error)
}
