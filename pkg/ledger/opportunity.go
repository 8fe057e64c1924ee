package ledger

// Opportunity describes a currently-available way to earn points. The list
// is static configuration surfaced to the narration layer and to clients.
type Opportunity struct {
	Trigger     Trigger `json:"trigger"`
	Description string  `json:"description"`
	Reward      int     `json:"potential_reward"`
	Difficulty  string  `json:"difficulty"`
	Rarity      string  `json:"rarity"`
}

// Opportunities returns the standing earn opportunities, common first.
func Opportunities() []Opportunity {
	return []Opportunity{
		{
			Trigger:     TriggerCharacterGrowth,
			Description: "Show character development or emotional depth",
			Reward:      earningRates[TriggerCharacterGrowth],
			Difficulty:  "medium",
			Rarity:      "common",
		},
		{
			Trigger:     TriggerCreativeProblemSolving,
			Description: "Solve problems creatively using environmental elements",
			Reward:      earningRates[TriggerCreativeProblemSolving],
			Difficulty:  "medium",
			Rarity:      "common",
		},
		{
			Trigger:     TriggerRiskTaking,
			Description: "Take meaningful risks for story advancement",
			Reward:      earningRates[TriggerRiskTaking],
			Difficulty:  "high",
			Rarity:      "uncommon",
		},
		{
			Trigger:     TriggerSacrificialChoice,
			Description: "Make significant personal sacrifice for others or the story",
			Reward:      earningRates[TriggerSacrificialChoice],
			Difficulty:  "very_high",
			Rarity:      "rare",
		},
	}
}

const maxSuggestions = 5

// Suggestions returns short prompts nudging the character toward earning
// opportunities. Point-poor characters get urgency-first suggestions.
func (l *Ledger) Suggestions(characterID string) []string {
	suggestions := make([]string, 0, maxSuggestions)

	if l.Balance(characterID) < 3 {
		suggestions = append(suggestions,
			"Consider taking a risk or showing emotional investment",
			"Look for ways to advance the story meaningfully",
		)
	}

	suggestions = append(suggestions,
		"Develop character relationships or show personal growth",
		"Use creative problem-solving with environmental elements",
		"Time high-drama moments for maximum narrative impact",
	)

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}
