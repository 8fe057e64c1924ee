package prompts

import (
	"strings"
	"testing"

	"github.com/mynfini/narrative-engine/pkg/chat"
	"github.com/mynfini/narrative-engine/pkg/ledger"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"risk_taking", "Risk Taking"},
		{"creative_problem_solving", "Creative Problem Solving"},
		{"retcon_scene", "Retcon Scene"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.in); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildNarration(t *testing.T) {
	account := ledger.Account{CharacterID: "alice", Balance: 1, LifetimeEarned: 1}
	recent := []ledger.Transaction{
		{Kind: ledger.KindEarn, Trigger: ledger.TriggerRiskTaking, Description: "leapt the chasm", Amount: 3, BalanceAfter: 3},
		{Kind: ledger.KindSpend, Activity: ledger.ActivityForeshadowing, Amount: 2, BalanceAfter: 1},
	}
	req := &chat.NarrationRequest{CharacterID: "alice", Action: "I draw my blade and step forward"}

	messages := BuildNarration(account, recent, req)

	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != chat.RoleSystem {
		t.Errorf("first message role = %q, want system", messages[0].Role)
	}
	if messages[1].Role != chat.RoleUser || messages[1].Content != req.Action {
		t.Errorf("user message = %+v", messages[1])
	}

	system := messages[0].Content
	if !strings.Contains(system, BaseNarratorPrompt) {
		t.Error("system prompt missing narrator framing")
	}
	if !strings.Contains(system, "low ebb") {
		t.Errorf("balance 1 should use high-pressure guidance, got: %s", system)
	}
	if !strings.Contains(system, "Risk Taking: leapt the chasm") {
		t.Errorf("system prompt missing transaction digest, got: %s", system)
	}
	if !strings.Contains(system, "Foreshadowing") {
		t.Error("system prompt missing spend digest")
	}
}

func TestBuildNarration_BandGuidanceVaries(t *testing.T) {
	req := &chat.NarrationRequest{CharacterID: "alice", Action: "I wait"}

	poor := BuildNarration(ledger.Account{CharacterID: "alice"}, nil, req)
	flush := BuildNarration(ledger.Account{CharacterID: "alice", Balance: 20, LifetimeEarned: 20}, nil, req)

	if poor[0].Content == flush[0].Content {
		t.Error("expected different guidance for point-poor and flush characters")
	}
}
