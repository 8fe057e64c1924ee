package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mynfini/narrative-engine/pkg/chat"
)

func TestNewAnthropicService(t *testing.T) {
	apiKey := "test-api-key"
	modelName := "claude-3-sonnet-20240229"
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := NewAnthropicService(apiKey, modelName, log)

	if service.apiKey != apiKey {
		t.Errorf("Expected API key %s, got %s", apiKey, service.apiKey)
	}

	if service.modelName != modelName {
		t.Errorf("Expected model name %s, got %s", modelName, service.modelName)
	}

	if service.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
}

func TestAnthropicService_InitModel(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewAnthropicService("test-key", "claude-3-sonnet-20240229", log)

	if err := service.InitModel(context.Background(), "other-model"); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if service.modelName != "other-model" {
		t.Errorf("Expected model name to update, got %s", service.modelName)
	}
}

func TestAnthropicService_SplitMessages(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewAnthropicService("test-key", "claude-3-sonnet-20240229", log)

	tests := []struct {
		name                   string
		messages               []chat.Message
		expectedSystem         string
		expectedNonSystemCount int
	}{
		{
			name: "single system message",
			messages: []chat.Message{
				{Role: chat.RoleSystem, Content: "You are the narrator."},
				{Role: chat.RoleUser, Content: "I open the door"},
			},
			expectedSystem:         "You are the narrator.",
			expectedNonSystemCount: 1,
		},
		{
			name: "multiple system messages",
			messages: []chat.Message{
				{Role: chat.RoleSystem, Content: "You are the narrator."},
				{Role: chat.RoleUser, Content: "I open the door"},
				{Role: chat.RoleSystem, Content: "Be vivid."},
			},
			expectedSystem:         "You are the narrator.\n\nBe vivid.",
			expectedNonSystemCount: 1,
		},
		{
			name: "no system messages",
			messages: []chat.Message{
				{Role: chat.RoleUser, Content: "I open the door"},
				{Role: chat.RoleNarrator, Content: "It creaks."},
			},
			expectedSystem:         "",
			expectedNonSystemCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			systemPrompt, conversation := service.splitMessages(tt.messages)

			if systemPrompt != tt.expectedSystem {
				t.Errorf("Expected system %q, got %q", tt.expectedSystem, systemPrompt)
			}
			if len(conversation) != tt.expectedNonSystemCount {
				t.Errorf("Expected %d non-system messages, got %d", tt.expectedNonSystemCount, len(conversation))
			}
		})
	}
}

func TestAnthropicService_GenerateNarration(t *testing.T) {
	var gotReq AnthropicChatRequest
	var gotAPIKey, gotVersion string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")

		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}

		resp := AnthropicChatResponse{
			ID:   "msg_test",
			Type: "message",
			Role: "assistant",
			Content: []AnthropicContentBlock{
				{Type: "text", Text: "The door swings open "},
				{Type: "text", Text: "onto darkness."},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("Failed to encode response: %v", err)
		}
	}))
	defer server.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewAnthropicService("test-key", "claude-3-sonnet-20240229", log)
	service.baseURL = server.URL

	messages := []chat.Message{
		{Role: chat.RoleSystem, Content: "You are the narrator."},
		{Role: chat.RoleUser, Content: "I open the door"},
	}

	narration, err := service.GenerateNarration(context.Background(), messages)
	if err != nil {
		t.Fatalf("GenerateNarration failed: %v", err)
	}

	if narration != "The door swings open onto darkness." {
		t.Errorf("Narration = %q", narration)
	}
	if gotAPIKey != "test-key" {
		t.Errorf("x-api-key = %q", gotAPIKey)
	}
	if gotVersion != anthropicVersion {
		t.Errorf("anthropic-version = %q", gotVersion)
	}
	if gotReq.System != "You are the narrator." {
		t.Errorf("System prompt = %q", gotReq.System)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != chat.RoleUser {
		t.Errorf("Conversation messages = %+v", gotReq.Messages)
	}
}

func TestAnthropicService_GenerateNarrationAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewAnthropicService("test-key", "claude-3-sonnet-20240229", log)
	service.baseURL = server.URL

	_, err := service.GenerateNarration(context.Background(), []chat.Message{
		{Role: chat.RoleUser, Content: "I open the door"},
	})
	if err == nil {
		t.Fatal("Expected error for non-200 response")
	}
}
