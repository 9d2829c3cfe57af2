package domain

import "time"

// Phase is where the user is in the guided activity.
type Phase string

const (
	PhaseBrowsing   Phase = "browsing"
	PhasePreTask    Phase = "pre-task"
	PhaseActiveTask Phase = "active-task"
	PhasePaused     Phase = "paused"
	PhaseCompleted  Phase = "completed"
)

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseBrowsing, PhasePreTask, PhaseActiveTask, PhasePaused, PhaseCompleted:
		return true
	}
	return false
}

// ListeningPolicy says how the consumer layer should listen for input.
type ListeningPolicy string

const (
	ListeningIdle            ListeningPolicy = "idle"
	ListeningWakeWord        ListeningPolicy = "wake-word-required"
	ListeningAlwaysListening ListeningPolicy = "always-listening"
)

// ConversationContext is the single, process-wide "where is the user now".
type ConversationContext struct {
	Phase             Phase
	PersonaID         string
	CurrentStep       int
	TotalSteps        int
	UserStruggling    bool
	LastInteractionAt time.Time
	ListeningPolicy   ListeningPolicy
}
