package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mynfini/narrative-engine/pkg/ledger"
)

// Hydrate loads every persisted account and transaction log into the
// ledger. RestoreAccount cross-checks each snapshot against its replayed
// log, so a corrupt store fails the boot rather than serving wrong
// balances.
func Hydrate(ctx context.Context, s Storage, l *ledger.Ledger, logger *slog.Logger) error {
	ids, err := s.ListCharacters(ctx)
	if err != nil {
		return fmt.Errorf("failed to list characters: %w", err)
	}

	for _, id := range ids {
		account, err := s.LoadAccount(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load account %q: %w", id, err)
		}
		if account == nil {
			return fmt.Errorf("character %q is indexed but has no account snapshot", id)
		}

		transactions, err := s.LoadTransactions(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load transactions for %q: %w", id, err)
		}

		if err := l.RestoreAccount(*account, transactions); err != nil {
			return fmt.Errorf("failed to restore %q: %w", id, err)
		}

		logger.Debug("Account hydrated", "character_id", id,
			"balance", account.Balance, "transactions", len(transactions))
	}

	logger.Info("Ledger hydrated from storage", "accounts", len(ids))
	return nil
}
