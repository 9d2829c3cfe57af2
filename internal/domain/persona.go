// Package domain defines the core types and interfaces for the voice core.
// All other packages depend on domain; domain depends on nothing.
package domain

// InstantKind names one of the ultra-common interactions that have a
// verbatim line per persona.
type InstantKind string

const (
	InstantGreeting      InstantKind = "greeting"
	InstantNextStep      InstantKind = "next-step"
	InstantHelp          InstantKind = "help"
	InstantEncouragement InstantKind = "encouragement"
)

// Persona is the identity of a voice. Immutable once loaded.
type Persona struct {
	ID     string
	Name   string
	Locale string // e.g. "en-US", "it-IT"
	Voice  string // provider voice identity; empty forces the fallback tier

	// StepTemplate is a fmt template taking the step number, e.g. "Step %d:".
	StepTemplate string
	// TipTemplate is a fmt template taking the tip text, e.g. "Here's a tip: %s".
	TipTemplate string

	Encouragements  []string // prepended while the user is struggling
	Flavors         []string // occasional idioms
	Instant         map[InstantKind]string
	AttentionPrompt string // spoken when the user has gone quiet
}

// Category groups cached phrases by purpose.
type Category string

const (
	CategoryGreeting      Category = "greeting"
	CategoryInstruction   Category = "instruction"
	CategoryEncouragement Category = "encouragement"
	CategoryTimer         Category = "timer"
	CategoryGeneral       Category = "general"
)

// CachedPhrase is a canned, persona-specific line. AudioRef is an opaque
// handle to synthesized audio; it is only ever replaced wholesale.
type CachedPhrase struct {
	ID           string
	PersonaID    string
	Text         string
	Category     Category
	Tags         []string
	Priority     int // 0-10
	PreGenerated bool
	AudioRef     string
}

// HasTag reports whether the phrase carries the given tag.
func (p CachedPhrase) HasTag(tag string) bool {
	if tag == "" {
		return false
	}
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
