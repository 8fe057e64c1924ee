package ledger

import "fmt"

// Account holds the point balances for one character. Lifetime counters only
// grow; session counters reset on ResetSession without touching the rest.
type Account struct {
	CharacterID    string `json:"character_id"`
	Balance        int    `json:"balance"`
	LifetimeEarned int    `json:"lifetime_earned"`
	LifetimeSpent  int    `json:"lifetime_spent"`
	SessionEarned  int    `json:"session_earned"`
	SessionSpent   int    `json:"session_spent"`
}

// checkInvariant verifies balance == lifetime_earned - lifetime_spent.
// A failure here is a programming bug, not a runtime condition.
func (a *Account) checkInvariant() error {
	if a.Balance < 0 {
		return fmt.Errorf("%w: account %q has negative balance %d",
			ErrInvariantViolation, a.CharacterID, a.Balance)
	}
	if a.Balance != a.LifetimeEarned-a.LifetimeSpent {
		return fmt.Errorf("%w: account %q balance %d != earned %d - spent %d",
			ErrInvariantViolation, a.CharacterID, a.Balance, a.LifetimeEarned, a.LifetimeSpent)
	}
	return nil
}
