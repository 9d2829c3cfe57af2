package domain

import "time"

// Priority levels for utterances. Higher value = speaks first.
type Priority int

const (
	PriorityLow    Priority = iota // attention prompts, idle chatter
	PriorityNormal                 // replies, info
	PriorityHigh                   // step instructions, instant lines
)

// String returns a human-readable priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Source is the resolution tier that produced an utterance.
type Source string

const (
	SourceInstant     Source = "instant"
	SourceCached      Source = "cached"
	SourceSynthesized Source = "synthesized"
	SourceFallback    Source = "fallback"
)

// Utterance is one resolved unit of speech waiting for the audio output.
// Clips holds synthesized WAV audio in playback order; an utterance with
// no clips is spoken by the local fallback synthesizer.
type Utterance struct {
	ID         string
	Text       string
	PersonaID  string
	Priority   Priority
	Source     Source
	Clips      [][]byte
	EnqueuedAt time.Time
}

// Outcome is how an utterance left the playback queue.
type Outcome string

const (
	OutcomePlayed      Outcome = "played"
	OutcomeInterrupted Outcome = "interrupted"
	OutcomeStopped     Outcome = "stopped"
	OutcomeCleared     Outcome = "cleared"
	OutcomeFailed      Outcome = "failed"
	OutcomeSkipped     Outcome = "skipped"
)
