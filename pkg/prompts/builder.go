// Package prompts assembles model conversations for narration, weaving the
// character's point standing into the system prompt.
package prompts

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mynfini/narrative-engine/pkg/chat"
	"github.com/mynfini/narrative-engine/pkg/ledger"
)

// BaseNarratorPrompt frames the model as the game's narrator.
const BaseNarratorPrompt = `You are the narrator of a collaborative tabletop story. Narrate the player character's action in vivid second person, two to four sentences, staying consistent with the recent events provided. Never mention points, balances, or game mechanics directly. End on a beat the player can react to.`

// Band-specific guidance appended to the system prompt. The narrator leans
// on these to surface earning opportunities without naming the mechanics.
var bandGuidance = map[ledger.Band]string{
	ledger.BandHigh:   "The character is at a low ebb. Offer clear openings for bold risks, emotional honesty, or meaningful sacrifice within the scene.",
	ledger.BandMedium: "Keep the scene inviting. Leave room for creative problem-solving and character growth without forcing it.",
	ledger.BandLow:    "The character has momentum. Let consequences of earlier choices surface naturally.",
	ledger.BandNone:   "The character is flush with narrative capital. Raise the stakes; make spending feel tempting.",
}

var titleCaser = cases.Title(language.English)

// DisplayName renders a snake_case trigger or activity name for prose.
func DisplayName(name string) string {
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}

// BuildNarration assembles the conversation for narrating an action. The
// system message carries the narrator framing, pressure guidance, and a
// short digest of recent transactions; the user message is the action.
func BuildNarration(account ledger.Account, recent []ledger.Transaction, req *chat.NarrationRequest) []chat.Message {
	var sb strings.Builder
	sb.WriteString(BaseNarratorPrompt)
	sb.WriteString("\n\n")
	sb.WriteString(bandGuidance[ledger.BandForBalance(account.Balance)])

	if len(recent) > 0 {
		sb.WriteString("\n\nRecent events for ")
		sb.WriteString(account.CharacterID)
		sb.WriteString(":\n")
		for _, tx := range recent {
			sb.WriteString(describeTransaction(tx))
			sb.WriteString("\n")
		}
	}

	return []chat.Message{
		{Role: chat.RoleSystem, Content: sb.String()},
		{Role: chat.RoleUser, Content: req.Action},
	}
}

func describeTransaction(tx ledger.Transaction) string {
	var label string
	switch tx.Kind {
	case ledger.KindEarn:
		label = DisplayName(string(tx.Trigger))
	case ledger.KindSpend:
		label = DisplayName(string(tx.Activity))
	default:
		label = "Unknown"
	}
	if tx.Description != "" {
		return fmt.Sprintf("- %s: %s", label, tx.Description)
	}
	return fmt.Sprintf("- %s", label)
}
