package storage

import (
	"context"
	"sort"

	"github.com/mynfini/narrative-engine/pkg/chat"
	"github.com/mynfini/narrative-engine/pkg/ledger"
)

// MockStorage is an in-memory Storage implementation for testing
type MockStorage struct {
	accounts    map[string]ledger.Account
	logs        map[string][]ledger.Transaction
	transcripts map[string][]chat.TranscriptEntry
	pingError   error
	saveError   error
	appendError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		accounts:    make(map[string]ledger.Account),
		logs:        make(map[string][]ledger.Transaction),
		transcripts: make(map[string][]chat.TranscriptEntry),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.pingError = err
}

// SetSaveError configures the mock to fail on SaveAccount
func (m *MockStorage) SetSaveError(err error) {
	m.saveError = err
}

// SetAppendError configures the mock to fail on AppendTransaction
func (m *MockStorage) SetAppendError(err error) {
	m.appendError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveAccount(ctx context.Context, account ledger.Account) error {
	if m.saveError != nil {
		return m.saveError
	}
	m.accounts[account.CharacterID] = account
	return nil
}

func (m *MockStorage) LoadAccount(ctx context.Context, characterID string) (*ledger.Account, error) {
	account, ok := m.accounts[characterID]
	if !ok {
		return nil, nil
	}
	return &account, nil
}

func (m *MockStorage) AppendTransaction(ctx context.Context, tx ledger.Transaction) error {
	if m.appendError != nil {
		return m.appendError
	}
	m.logs[tx.CharacterID] = append(m.logs[tx.CharacterID], tx)
	return nil
}

func (m *MockStorage) LoadTransactions(ctx context.Context, characterID string) ([]ledger.Transaction, error) {
	return m.logs[characterID], nil
}

func (m *MockStorage) ListCharacters(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.accounts))
	for id := range m.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MockStorage) AppendNarration(ctx context.Context, characterID string, entry chat.TranscriptEntry) error {
	m.transcripts[characterID] = append(m.transcripts[characterID], entry)
	return nil
}

func (m *MockStorage) LoadTranscript(ctx context.Context, characterID string) ([]chat.TranscriptEntry, error) {
	return m.transcripts[characterID], nil
}
