package domain

import "context"

// Synthesizer converts text into playable audio using a voice identity.
// Implementations can be cloud providers or local engines.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// FallbackParams are the coarse controls of a device-native synthesizer.
// 1.0 is the platform default for both.
type FallbackParams struct {
	Rate   float64
	Volume float64
}

// FallbackSynthesizer speaks plain text with the device's own voice. It
// blocks until speech ends or ctx is cancelled, and may be a silent no-op.
type FallbackSynthesizer interface {
	Speak(ctx context.Context, text string, params FallbackParams) error
}

// AudioDevice plays one WAV clip, blocking until it finishes or ctx is
// cancelled. Cancellation is not an error.
type AudioDevice interface {
	Play(ctx context.Context, wav []byte) error
}

// ContentSource supplies personas, canned phrases and guided recipes.
// Consumed read-only.
type ContentSource interface {
	Persona(ctx context.Context, id string) (*Persona, error)
	Personas(ctx context.Context) ([]Persona, error)
	Phrases(ctx context.Context, personaID string) ([]CachedPhrase, error)
	Recipes(ctx context.Context) ([]RecipeSummary, error)
	Recipe(ctx context.Context, id string) (*Recipe, error)
}
