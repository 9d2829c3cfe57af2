package conversation

import (
	"testing"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

func TestKeywordParser(t *testing.T) {
	parser := NewKeywordParser(logger.New(logger.LevelOff, nil))

	tests := []struct {
		input       string
		wantType    domain.IntentType
		wantPayload string
	}{
		// Navigation
		{"next", domain.IntentAdvance, ""},
		{"continue", domain.IntentAdvance, ""},
		{"back", domain.IntentBack, ""},
		{"start", domain.IntentStart, ""},
		{"Let's go", domain.IntentStart, ""},

		// Pause/Resume
		{"pause", domain.IntentPause, ""},
		{"brb", domain.IntentPause, ""},
		{"resume", domain.IntentResume, ""},

		// Context flags
		{"stuck", domain.IntentStruggling, ""},
		{"struggling", domain.IntentStruggling, ""},
		{"got it", domain.IntentFine, ""},

		// Voice control
		{"hello", domain.IntentGreeting, ""},
		{"stop", domain.IntentStop, ""},
		{"clear", domain.IntentClear, ""},
		{"repeat", domain.IntentRepeat, ""},
		{"what?", domain.IntentRepeat, ""},

		// Recipe selection
		{"list", domain.IntentListRecipes, ""},
		{"1", domain.IntentSelectRecipe, "1"},
		{"recipe chicken-alfredo", domain.IntentSelectRecipe, "chicken-alfredo"},
		{"pick  2", domain.IntentSelectRecipe, "2"},

		// Persona
		{"persona", domain.IntentPersona, ""},
		{"voice nonna", domain.IntentPersona, "nonna"},

		// Misc
		{"help", domain.IntentHelp, ""},
		{"?", domain.IntentHelp, ""},
		{"q", domain.IntentQuit, ""},
		{"  status  ", domain.IntentStatus, ""},

		// Free text
		{"say next", domain.IntentSay, "next"},
		{"the sauce looks great", domain.IntentSay, "the sauce looks great"},

		// Blank
		{"", domain.IntentUnknown, ""},
		{"   ", domain.IntentUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			intent := parser.Parse(tt.input)
			if intent.Type != tt.wantType {
				t.Fatalf("Parse(%q) type = %s, want %s", tt.input, intent.Type, tt.wantType)
			}
			if intent.Payload != tt.wantPayload {
				t.Fatalf("Parse(%q) payload = %q, want %q", tt.input, intent.Payload, tt.wantPayload)
			}
		})
	}
}
