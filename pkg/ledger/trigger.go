package ledger

import "fmt"

// Trigger is the closed set of reasons a character can earn narrative points.
type Trigger string

const (
	TriggerRiskTaking              Trigger = "risk_taking"
	TriggerRoleplayingDepth        Trigger = "roleplaying_depth"
	TriggerEmotionalInvestment     Trigger = "emotional_investment"
	TriggerStoryAdvancement        Trigger = "story_advancement"
	TriggerCharacterGrowth         Trigger = "character_growth"
	TriggerSacrificialChoice       Trigger = "sacrificial_choice"
	TriggerCreativeProblemSolving  Trigger = "creative_problem_solving"
	TriggerDramaticTiming          Trigger = "dramatic_timing"
	TriggerRelationshipDevelopment Trigger = "relationship_development"
)

// earningRates maps each trigger to its base reward. Every trigger in the
// enumeration must have an entry; an absent trigger is rejected, never
// defaulted.
var earningRates = map[Trigger]int{
	TriggerRiskTaking:              2,
	TriggerRoleplayingDepth:        3,
	TriggerEmotionalInvestment:     2,
	TriggerStoryAdvancement:        1,
	TriggerCharacterGrowth:         2,
	TriggerSacrificialChoice:       4,
	TriggerCreativeProblemSolving:  2,
	TriggerDramaticTiming:          1,
	TriggerRelationshipDevelopment: 1,
}

// triggerOrder keeps listings deterministic.
var triggerOrder = []Trigger{
	TriggerRiskTaking,
	TriggerRoleplayingDepth,
	TriggerEmotionalInvestment,
	TriggerStoryAdvancement,
	TriggerCharacterGrowth,
	TriggerSacrificialChoice,
	TriggerCreativeProblemSolving,
	TriggerDramaticTiming,
	TriggerRelationshipDevelopment,
}

// Valid reports whether the trigger belongs to the closed enumeration.
func (t Trigger) Valid() bool {
	_, ok := earningRates[t]
	return ok
}

// Rate returns the base reward for the trigger.
func (t Trigger) Rate() (int, error) {
	rate, ok := earningRates[t]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTrigger, string(t))
	}
	return rate, nil
}

// ParseTrigger converts a wire string into a Trigger, rejecting values
// outside the enumeration.
func ParseTrigger(s string) (Trigger, error) {
	t := Trigger(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTrigger, s)
	}
	return t, nil
}

// Triggers returns all earning triggers in a stable order.
func Triggers() []Trigger {
	out := make([]Trigger, len(triggerOrder))
	copy(out, triggerOrder)
	return out
}
