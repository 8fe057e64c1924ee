// Package ledger tracks narrative points per character: typed earn/spend
// transactions over fixed rate and cost tables, with a derived pressure
// signal that boosts earnings for point-poor characters.
//
// The ledger is in-memory and authoritative. Persistence, HTTP, and the
// narration layer are external collaborators; none of their types appear
// here.
package ledger

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCharacterID is the reserved account for ungrouped, session-wide
// activity.
const DefaultCharacterID = "session_general"

// Ledger owns all accounts and their transaction logs. Accounts are created
// lazily on first reference. All mutations are serialized under one mutex;
// the accounts table is small enough that per-account locking buys nothing.
type Ledger struct {
	mu       sync.Mutex
	accounts map[string]*Account
	log      map[string][]Transaction
	now      func() time.Time
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		accounts: make(map[string]*Account),
		log:      make(map[string][]Transaction),
		now:      time.Now,
	}
}

// Receipt reports what an earn credited and why.
type Receipt struct {
	Transaction Transaction `json:"transaction"`
	Base        int         `json:"base"`
	Bonus       int         `json:"bonus"`
	Credited    int         `json:"credited"`
	Balance     int         `json:"balance"`
}

// SpendResult reports the outcome of a spend attempt. A rejected spend
// carries the shortfall so callers can say "you need N more points".
type SpendResult struct {
	Success     bool         `json:"success"`
	Cost        int          `json:"cost"`
	Shortfall   int          `json:"shortfall,omitempty"`
	Balance     int          `json:"balance"`
	Transaction *Transaction `json:"transaction,omitempty"`
}

// account returns the account for characterID, creating a zero-balance one
// on first reference. Callers must hold l.mu.
func (l *Ledger) account(characterID string) *Account {
	acc, ok := l.accounts[characterID]
	if !ok {
		acc = &Account{CharacterID: characterID}
		l.accounts[characterID] = acc
	}
	return acc
}

// Earn credits points for a trigger. The amount is the trigger's base rate
// plus the pressure bonus for the account's balance before the earn.
// Earning never fails for a valid trigger.
func (l *Ledger) Earn(characterID string, trigger Trigger, description string, sceneContext json.RawMessage) (*Receipt, error) {
	if characterID == "" {
		return nil, ErrEmptyCharacterID
	}
	base, err := trigger.Rate()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.account(characterID)
	bonus := earnBonus(base, acc.Balance)
	credited := base + bonus

	acc.Balance += credited
	acc.LifetimeEarned += credited
	acc.SessionEarned += credited
	if err := acc.checkInvariant(); err != nil {
		return nil, err
	}

	tx := Transaction{
		ID:           uuid.New(),
		CharacterID:  characterID,
		Kind:         KindEarn,
		Trigger:      trigger,
		Amount:       credited,
		BalanceAfter: acc.Balance,
		Description:  description,
		SceneContext: sceneContext,
		Timestamp:    l.now(),
	}
	l.log[characterID] = append(l.log[characterID], tx)

	return &Receipt{
		Transaction: tx,
		Base:        base,
		Bonus:       bonus,
		Credited:    credited,
		Balance:     acc.Balance,
	}, nil
}

// Spend deducts an activity's cost if the balance covers it. An underfunded
// spend changes nothing and appends no transaction; only realized spends are
// logged.
func (l *Ledger) Spend(characterID string, activity Activity, description string, sceneContext json.RawMessage) (*SpendResult, error) {
	if characterID == "" {
		return nil, ErrEmptyCharacterID
	}
	cost, err := activity.Cost()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.account(characterID)
	if acc.Balance < cost {
		return &SpendResult{
			Success:   false,
			Cost:      cost,
			Shortfall: cost - acc.Balance,
			Balance:   acc.Balance,
		}, nil
	}

	acc.Balance -= cost
	acc.LifetimeSpent += cost
	acc.SessionSpent += cost
	if err := acc.checkInvariant(); err != nil {
		return nil, err
	}

	tx := Transaction{
		ID:           uuid.New(),
		CharacterID:  characterID,
		Kind:         KindSpend,
		Activity:     activity,
		Amount:       cost,
		BalanceAfter: acc.Balance,
		Description:  description,
		SceneContext: sceneContext,
		Timestamp:    l.now(),
	}
	l.log[characterID] = append(l.log[characterID], tx)

	return &SpendResult{
		Success:     true,
		Cost:        cost,
		Balance:     acc.Balance,
		Transaction: &tx,
	}, nil
}

// Balance returns the current spendable balance. Unknown characters read as
// zero without creating an account.
func (l *Ledger) Balance(characterID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acc, ok := l.accounts[characterID]; ok {
		return acc.Balance
	}
	return 0
}

// SessionEarned returns the points earned since the last session reset.
func (l *Ledger) SessionEarned(characterID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acc, ok := l.accounts[characterID]; ok {
		return acc.SessionEarned
	}
	return 0
}

// SessionSpent returns the points spent since the last session reset.
func (l *Ledger) SessionSpent(characterID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acc, ok := l.accounts[characterID]; ok {
		return acc.SessionSpent
	}
	return 0
}

// Pressure returns the derived urgency signal in [0,1] for the character's
// current balance.
func (l *Ledger) Pressure(characterID string) float64 {
	return PressureForBalance(l.Balance(characterID))
}

// PressureBand returns the pressure band for the character's current balance.
func (l *Ledger) PressureBand(characterID string) Band {
	return BandForBalance(l.Balance(characterID))
}

// History returns the character's transactions in chronological order,
// most recent last. A limit <= 0 returns the full history. The returned
// slice is a copy; the log itself is never exposed.
func (l *Ledger) History(characterID string, limit int) []Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	full := l.log[characterID]
	if limit > 0 && limit < len(full) {
		full = full[len(full)-limit:]
	}
	out := make([]Transaction, len(full))
	copy(out, full)
	return out
}

// Snapshot returns a copy of the character's account. Unknown characters
// yield a zero-balance snapshot.
func (l *Ledger) Snapshot(characterID string) Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acc, ok := l.accounts[characterID]; ok {
		return *acc
	}
	return Account{CharacterID: characterID}
}

// CharacterIDs returns the ids of all accounts the ledger has seen, sorted.
func (l *Ledger) CharacterIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.accounts))
	for id := range l.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ResetSession zeroes the session counters for a character. Balance,
// lifetime counters, and the transaction history are untouched.
func (l *Ledger) ResetSession(characterID string) error {
	if characterID == "" {
		return ErrEmptyCharacterID
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if acc, ok := l.accounts[characterID]; ok {
		acc.SessionEarned = 0
		acc.SessionSpent = 0
	}
	return nil
}

// RestoreAccount installs a persisted account and its transaction log,
// verifying that the log replays to the snapshot balance and that the
// snapshot's own counters agree. Used when hydrating from storage at boot.
func (l *Ledger) RestoreAccount(acc Account, transactions []Transaction) error {
	if acc.CharacterID == "" {
		return ErrEmptyCharacterID
	}
	if err := acc.checkInvariant(); err != nil {
		return err
	}
	replayed, err := Replay(transactions)
	if err != nil {
		return fmt.Errorf("restore %q: %w", acc.CharacterID, err)
	}
	if replayed != acc.Balance {
		return fmt.Errorf("%w: account %q snapshot balance %d, log replays to %d",
			ErrCorruptLog, acc.CharacterID, acc.Balance, replayed)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	restored := acc
	txs := make([]Transaction, len(transactions))
	copy(txs, transactions)
	l.accounts[acc.CharacterID] = &restored
	l.log[acc.CharacterID] = txs
	return nil
}
