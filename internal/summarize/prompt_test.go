package summarize

import (
	"strings"
	"testing"

	"github.com/fieldbrief/fieldbrief/internal/mission"
)

func testGroup() *mission.Group {
	return &mission.Group{
		FieldID: "1274316",
		Rows: []mission.Row{
			{
				Index: 0, FieldID: "1274316", FieldName: "North 80",
				ClientName: "Acme Farms", FarmName: "Home Farm", CropName: "Corn",
				Area: "80", PassNumber: "1", OrderDate: "2025-06-01",
				MissionRec: "weed pressure",
			},
			{
				Index: 1, FieldID: "1274316", FieldName: "North 80",
				ClientName: "Acme Farms", FarmName: "Home Farm", CropName: "Corn",
				Area: "80", PassNumber: "2", OrderDate: "2025-07-15",
				MissionRec: "weed pressure improving",
			},
		},
	}
}

func TestBuildUserPrompt(t *testing.T) {
	prompt := BuildUserPrompt(testGroup())

	for _, want := range []string{
		"North 80", "1274316", "Acme Farms", "Home Farm", "Corn",
		"Pass 1 (2025-06-01): weed pressure",
		"Pass 2 (2025-07-15): weed pressure improving",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	// Metadata appears once, before the notes.
	if strings.Count(prompt, "Acme Farms") != 1 {
		t.Errorf("client name should appear once:\n%s", prompt)
	}

	// Pass order follows file order.
	if strings.Index(prompt, "Pass 1") > strings.Index(prompt, "Pass 2") {
		t.Errorf("passes out of order:\n%s", prompt)
	}
}

func TestBuildUserPromptNoNarratives(t *testing.T) {
	g := &mission.Group{
		FieldID: "5",
		Rows: []mission.Row{
			{FieldID: "5", FieldName: "Empty", PassNumber: "1"},
		},
	}

	prompt := BuildUserPrompt(g)
	if !strings.Contains(prompt, noNarratives) {
		t.Errorf("expected placeholder for missing narratives:\n%s", prompt)
	}
}

func TestBuildUserPromptAgAssistantFallback(t *testing.T) {
	g := &mission.Group{
		FieldID: "7",
		Rows: []mission.Row{
			{FieldID: "7", PassNumber: "1", AgAssistant: "assistant narrative"},
		},
	}

	prompt := BuildUserPrompt(g)
	if !strings.Contains(prompt, "assistant narrative") {
		t.Errorf("expected ag_assistant fallback text:\n%s", prompt)
	}
}

func TestSystemPromptStable(t *testing.T) {
	if !strings.Contains(SystemPrompt(), "agronomist") {
		t.Error("system prompt lost its register")
	}
}
