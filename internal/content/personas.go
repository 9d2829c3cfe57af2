package content

import "github.com/hammamikhairi/ottovoice/internal/domain"

// Persona IDs shipped with the binary.
const (
	PersonaOtto  = "otto"
	PersonaNonna = "nonna"
)

// Edit these to change how each voice sounds. Keep lines short and
// direct; the TTS engine handles inflection.
func builtinPersonas() []domain.Persona {
	return []domain.Persona{
		{
			ID:           PersonaOtto,
			Name:         "Otto",
			Locale:       "en-US",
			Voice:        "en-US-AvaNeural",
			StepTemplate: "Step %d:",
			TipTemplate:  "Here's a tip: %s",
			Encouragements: []string{
				"No worries, we'll get there.",
				"You're doing fine.",
				"Take your time.",
			},
			Flavors: []string{
				"Alright.",
				"Okay, chef.",
				"Nice and easy.",
			},
			Instant: map[domain.InstantKind]string{
				domain.InstantGreeting:      "Hello. What are we cooking today?",
				domain.InstantNextStep:      "Moving on.",
				domain.InstantHelp:          "I'm here. Tell me what's wrong.",
				domain.InstantEncouragement: "You've got this.",
			},
			AttentionPrompt: "Still there? Say my name when you need me.",
		},
		{
			ID:           PersonaNonna,
			Name:         "Nonna",
			Locale:       "it-IT",
			Voice:        "it-IT-ElsaNeural",
			StepTemplate: "Passo %d:",
			TipTemplate:  "Un consiglio: %s",
			Encouragements: []string{
				"Tranquillo, piano piano.",
				"Brava, continua così.",
				"Non ti preoccupare.",
			},
			Flavors: []string{
				"Allora.",
				"Ecco.",
				"Dai.",
			},
			Instant: map[domain.InstantKind]string{
				domain.InstantGreeting:      "Ciao! Cosa cuciniamo oggi?",
				domain.InstantNextStep:      "Andiamo avanti.",
				domain.InstantHelp:          "Sono qui. Dimmi tutto.",
				domain.InstantEncouragement: "Ce la fai.",
			},
			AttentionPrompt: "Ci sei ancora? Chiamami quando vuoi.",
		},
	}
}
