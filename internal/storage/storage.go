package storage

import (
	"context"

	"github.com/mynfini/narrative-engine/pkg/chat"
	"github.com/mynfini/narrative-engine/pkg/ledger"
)

// HealthChecker defines basic health check capabilities
type HealthChecker interface {
	// Ping tests the service connection
	Ping(ctx context.Context) error
}

// Closer defines cleanup capabilities
type Closer interface {
	// Close closes the service connection
	Close() error
}

// Storage defines the interface for ledger persistence. The in-memory
// ledger stays authoritative; storage is written through on every mutation
// and read back only at boot.
type Storage interface {
	HealthChecker
	Closer

	// SaveAccount writes the account snapshot for a character
	SaveAccount(ctx context.Context, account ledger.Account) error

	// LoadAccount retrieves an account snapshot by character ID
	// Returns nil if the account doesn't exist
	LoadAccount(ctx context.Context, characterID string) (*ledger.Account, error)

	// AppendTransaction appends one transaction to the character's log
	AppendTransaction(ctx context.Context, tx ledger.Transaction) error

	// LoadTransactions retrieves the full transaction log for a character,
	// oldest first
	LoadTransactions(ctx context.Context, characterID string) ([]ledger.Transaction, error)

	// ListCharacters returns the IDs of all persisted accounts
	ListCharacters(ctx context.Context) ([]string, error)

	// AppendNarration appends one entry to the character's transcript
	AppendNarration(ctx context.Context, characterID string, entry chat.TranscriptEntry) error

	// LoadTranscript retrieves the narration transcript for a character,
	// oldest first
	LoadTranscript(ctx context.Context, characterID string) ([]chat.TranscriptEntry, error)
}
