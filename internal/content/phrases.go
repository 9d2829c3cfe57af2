package content

import "github.com/hammamikhairi/ottovoice/internal/domain"

// builtinPhrases is the startup phrase table. Priority 7 and above is
// pinned in the cache and pre-synthesized during warm-up.
func builtinPhrases() []domain.CachedPhrase {
	return []domain.CachedPhrase{
		// otto
		{ID: "otto_welcome", PersonaID: PersonaOtto, Text: "Hello. What are we cooking today?", Category: domain.CategoryGreeting, Tags: []string{"greeting"}, Priority: 9, PreGenerated: true},
		{ID: "otto_next", PersonaID: PersonaOtto, Text: "Next step coming up.", Category: domain.CategoryInstruction, Tags: []string{"next-step"}, Priority: 8, PreGenerated: true},
		{ID: "otto_done", PersonaID: PersonaOtto, Text: "That was the last step. You're done.", Category: domain.CategoryInstruction, Priority: 7, PreGenerated: true},
		{ID: "otto_help", PersonaID: PersonaOtto, Text: "No problem, let's slow down.", Category: domain.CategoryEncouragement, Tags: []string{"help"}, Priority: 7, PreGenerated: true},
		{ID: "otto_timer", PersonaID: PersonaOtto, Text: "Timer's up. Check the pan.", Category: domain.CategoryTimer, Tags: []string{"timer"}, Priority: 8, PreGenerated: true},
		{ID: "otto_paused", PersonaID: PersonaOtto, Text: "Paused. Say resume when ready.", Category: domain.CategoryGeneral, Priority: 5},
		{ID: "otto_resumed", PersonaID: PersonaOtto, Text: "Resumed.", Category: domain.CategoryGeneral, Priority: 5},
		{ID: "otto_bye", PersonaID: PersonaOtto, Text: "Bye.", Category: domain.CategoryGreeting, Priority: 4},

		// nonna
		{ID: "nonna_welcome", PersonaID: PersonaNonna, Text: "Ciao! Cosa cuciniamo oggi?", Category: domain.CategoryGreeting, Tags: []string{"greeting"}, Priority: 9, PreGenerated: true},
		{ID: "nonna_next", PersonaID: PersonaNonna, Text: "Adesso il prossimo passo.", Category: domain.CategoryInstruction, Tags: []string{"next-step"}, Priority: 8, PreGenerated: true},
		{ID: "nonna_done", PersonaID: PersonaNonna, Text: "Finito! Buon appetito.", Category: domain.CategoryInstruction, Priority: 7, PreGenerated: true},
		{ID: "nonna_help", PersonaID: PersonaNonna, Text: "Calma, facciamo con calma.", Category: domain.CategoryEncouragement, Tags: []string{"help"}, Priority: 7, PreGenerated: true},
		{ID: "nonna_timer", PersonaID: PersonaNonna, Text: "Il tempo è scaduto. Controlla la pentola.", Category: domain.CategoryTimer, Tags: []string{"timer"}, Priority: 8, PreGenerated: true},
		{ID: "nonna_bye", PersonaID: PersonaNonna, Text: "Ciao ciao.", Category: domain.CategoryGreeting, Priority: 4},
	}
}
