package domain

// IntentType classifies what the user typed.
type IntentType int

const (
	IntentUnknown IntentType = iota
	IntentListRecipes
	IntentSelectRecipe
	IntentStart
	IntentAdvance
	IntentBack
	IntentTip
	IntentPause
	IntentResume
	IntentStruggling
	IntentFine
	IntentGreeting
	IntentPersona
	IntentStop
	IntentClear
	IntentRepeat
	IntentStatus
	IntentHelp
	IntentQuit
	IntentSay // free text, spoken as-is
)

// String returns a human-readable name for the intent type.
func (i IntentType) String() string {
	switch i {
	case IntentListRecipes:
		return "list_recipes"
	case IntentSelectRecipe:
		return "select_recipe"
	case IntentStart:
		return "start"
	case IntentAdvance:
		return "advance"
	case IntentBack:
		return "back"
	case IntentTip:
		return "tip"
	case IntentPause:
		return "pause"
	case IntentResume:
		return "resume"
	case IntentStruggling:
		return "struggling"
	case IntentFine:
		return "fine"
	case IntentGreeting:
		return "greeting"
	case IntentPersona:
		return "persona"
	case IntentStop:
		return "stop"
	case IntentClear:
		return "clear"
	case IntentRepeat:
		return "repeat"
	case IntentStatus:
		return "status"
	case IntentHelp:
		return "help"
	case IntentQuit:
		return "quit"
	case IntentSay:
		return "say"
	default:
		return "unknown"
	}
}

// Intent is a parsed user command. Payload carries the argument, or the
// whole input for IntentSay.
type Intent struct {
	Type    IntentType
	Payload string
}
