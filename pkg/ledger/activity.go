package ledger

import "fmt"

// Activity is the closed set of narrative actions points can be spent on.
type Activity string

const (
	ActivityRetconScene             Activity = "retcon_scene"
	ActivityIntroduceElement        Activity = "introduce_element"
	ActivityEmpowerCharacter        Activity = "empower_character"
	ActivityNarrativeEscape         Activity = "narrative_escape"
	ActivityDramaticReveal          Activity = "dramatic_reveal"
	ActivityCharacterRetcon         Activity = "character_retcon"
	ActivityEnvironmentManipulation Activity = "environment_manipulation"
	ActivityForeshadowing           Activity = "foreshadowing"
)

// activityCosts maps each spendable activity to its fixed cost. Unknown
// activities are rejected at the boundary rather than falling back to a
// default cost.
var activityCosts = map[Activity]int{
	ActivityRetconScene:             5,
	ActivityIntroduceElement:        3,
	ActivityEmpowerCharacter:        4,
	ActivityNarrativeEscape:         6,
	ActivityDramaticReveal:          2,
	ActivityCharacterRetcon:         8,
	ActivityEnvironmentManipulation: 3,
	ActivityForeshadowing:           2,
}

var activityOrder = []Activity{
	ActivityRetconScene,
	ActivityIntroduceElement,
	ActivityEmpowerCharacter,
	ActivityNarrativeEscape,
	ActivityDramaticReveal,
	ActivityCharacterRetcon,
	ActivityEnvironmentManipulation,
	ActivityForeshadowing,
}

// Valid reports whether the activity belongs to the closed enumeration.
func (a Activity) Valid() bool {
	_, ok := activityCosts[a]
	return ok
}

// Cost returns the fixed point cost for the activity.
func (a Activity) Cost() (int, error) {
	cost, ok := activityCosts[a]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownActivity, string(a))
	}
	return cost, nil
}

// ParseActivity converts a wire string into an Activity, rejecting values
// outside the enumeration.
func ParseActivity(s string) (Activity, error) {
	a := Activity(s)
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownActivity, s)
	}
	return a, nil
}

// Activities returns all spendable activities in a stable order.
func Activities() []Activity {
	out := make([]Activity, len(activityOrder))
	copy(out, activityOrder)
	return out
}
