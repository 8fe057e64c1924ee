package ledger

import "errors"

var (
	// ErrEmptyCharacterID is a caller error: operations require a non-empty id.
	ErrEmptyCharacterID = errors.New("character id cannot be empty")

	// ErrUnknownTrigger is a configuration error: the earning trigger is not
	// part of the closed enumeration.
	ErrUnknownTrigger = errors.New("unknown earning trigger")

	// ErrUnknownActivity is a configuration error: the spend activity is not
	// part of the closed enumeration.
	ErrUnknownActivity = errors.New("unknown spend activity")

	// ErrCorruptLog means a transaction sequence does not replay cleanly.
	ErrCorruptLog = errors.New("corrupt transaction log")

	// ErrInvariantViolation means an account's counters disagree with each
	// other. It indicates a concurrency or logic bug, never a user mistake.
	ErrInvariantViolation = errors.New("ledger invariant violation")
)
