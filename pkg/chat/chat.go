// Package chat defines the message types exchanged with narration models
// and the transcript entries persisted per character.
package chat

import (
	"errors"
	"time"
)

const (
	RoleUser     = "user"
	RoleNarrator = "assistant"
	RoleSystem   = "system"
)

// Message is a single turn in a model conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NarrationRequest asks for narration of a character's action, colored by
// the character's point standing.
type NarrationRequest struct {
	CharacterID string `json:"character_id"`
	Action      string `json:"action"`
}

// Validate checks required fields on a narration request.
func (r *NarrationRequest) Validate() error {
	if r.CharacterID == "" {
		return errors.New("character_id is required")
	}
	if r.Action == "" {
		return errors.New("action is required")
	}
	return nil
}

// TranscriptEntry is one persisted line of a character's narration
// transcript.
type TranscriptEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
