package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes earn transactions from spend transactions.
type Kind string

const (
	KindEarn  Kind = "earn"
	KindSpend Kind = "spend"
)

// Transaction is an immutable, append-only record of one balance change.
// Exactly one of Trigger or Activity is set, matching Kind.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	CharacterID  string          `json:"character_id"`
	Kind         Kind            `json:"kind"`
	Trigger      Trigger         `json:"trigger,omitempty"`
	Activity     Activity        `json:"activity,omitempty"`
	Amount       int             `json:"amount"`
	BalanceAfter int             `json:"balance_after"`
	Description  string          `json:"description,omitempty"`
	SceneContext json.RawMessage `json:"scene_context,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Replay folds a transaction sequence into the balance it produces from
// zero. It fails if the sequence ever dips below zero or carries an
// unknown kind, since either means the log is corrupt.
func Replay(transactions []Transaction) (int, error) {
	balance := 0
	for i, tx := range transactions {
		switch tx.Kind {
		case KindEarn:
			balance += tx.Amount
		case KindSpend:
			balance -= tx.Amount
		default:
			return 0, fmt.Errorf("%w: transaction %d has kind %q", ErrCorruptLog, i, string(tx.Kind))
		}
		if balance < 0 {
			return 0, fmt.Errorf("%w: balance dips to %d at transaction %d", ErrCorruptLog, balance, i)
		}
		if tx.BalanceAfter != balance {
			return 0, fmt.Errorf("%w: transaction %d records balance %d, replay gives %d",
				ErrCorruptLog, i, tx.BalanceAfter, balance)
		}
	}
	return balance, nil
}
