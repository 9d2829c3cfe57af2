// Package conversation tracks where the user is in the guided activity
// and derives listening policy from it.
package conversation

import (
	"sync"
	"time"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// DefaultIdleThreshold is how long the user may stay quiet in a
// wake-word phase before an attention prompt is due.
const DefaultIdleThreshold = 10 * time.Second

// Option configures the Tracker.
type Option func(*Tracker)

// WithClock sets the time source. Tests pass a fake clock.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithIdleThreshold sets the attention idle threshold.
func WithIdleThreshold(d time.Duration) Option {
	return func(t *Tracker) {
		t.idleThreshold = d
	}
}

// WithInitialPersona sets the persona of the starting context.
func WithInitialPersona(id string) Option {
	return func(t *Tracker) {
		t.ctx.PersonaID = id
	}
}

// Change is one field update applied by Update.
type Change func(*domain.ConversationContext)

// Phase sets the phase. Unknown phases are ignored.
func Phase(p domain.Phase) Change {
	return func(c *domain.ConversationContext) {
		if p.Valid() {
			c.Phase = p
		}
	}
}

// Persona sets the active persona.
func Persona(id string) Change {
	return func(c *domain.ConversationContext) {
		c.PersonaID = id
	}
}

// Step sets the current step and the total step count.
func Step(current, total int) Change {
	return func(c *domain.ConversationContext) {
		c.CurrentStep = current
		c.TotalSteps = total
	}
}

// CurrentStep sets only the current step, keeping the total.
func CurrentStep(n int) Change {
	return func(c *domain.ConversationContext) {
		c.CurrentStep = n
	}
}

// Struggling sets the struggling flag.
func Struggling(v bool) Change {
	return func(c *domain.ConversationContext) {
		c.UserStruggling = v
	}
}

// Tracker holds the single conversation context. Last write wins; no
// history is kept.
type Tracker struct {
	log           *logger.Logger
	now           func() time.Time
	idleThreshold time.Duration

	mu  sync.Mutex
	ctx domain.ConversationContext
}

// New creates a tracker in the browsing phase.
func New(log *logger.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		log:           log,
		now:           time.Now,
		idleThreshold: DefaultIdleThreshold,
		ctx:           domain.ConversationContext{Phase: domain.PhaseBrowsing},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.ctx.LastInteractionAt = t.now()
	t.ctx.ListeningPolicy = DerivePolicy(t.ctx.Phase)
	return t
}

// DerivePolicy maps a phase to its listening policy. Pure.
func DerivePolicy(p domain.Phase) domain.ListeningPolicy {
	switch p {
	case domain.PhaseActiveTask:
		return domain.ListeningAlwaysListening
	case domain.PhaseBrowsing, domain.PhasePreTask, domain.PhasePaused:
		return domain.ListeningWakeWord
	default:
		return domain.ListeningIdle
	}
}

// Update applies changes, stamps the interaction time and recomputes the
// listening policy. It returns the resulting context.
func (t *Tracker) Update(changes ...Change) domain.ConversationContext {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.ctx.Phase
	for _, ch := range changes {
		ch(&t.ctx)
	}
	if t.ctx.Phase == domain.PhaseActiveTask {
		clampStep(&t.ctx)
	}
	t.ctx.LastInteractionAt = t.now()
	t.ctx.ListeningPolicy = DerivePolicy(t.ctx.Phase)

	if prev != t.ctx.Phase {
		t.log.Debug("phase %s -> %s (policy=%s)", prev, t.ctx.Phase, t.ctx.ListeningPolicy)
	}
	return t.ctx
}

// clampStep keeps CurrentStep within [1, TotalSteps].
func clampStep(c *domain.ConversationContext) {
	if c.TotalSteps < 1 {
		c.TotalSteps = 1
	}
	if c.CurrentStep < 1 {
		c.CurrentStep = 1
	}
	if c.CurrentStep > c.TotalSteps {
		c.CurrentStep = c.TotalSteps
	}
}

// Touch stamps the interaction time without changing anything else.
func (t *Tracker) Touch() {
	t.mu.Lock()
	t.ctx.LastInteractionAt = t.now()
	t.mu.Unlock()
}

// Snapshot returns a copy of the current context.
func (t *Tracker) Snapshot() domain.ConversationContext {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ctx
}

// ShouldPromptForAttention reports whether the user has been quiet for
// longer than the idle threshold while a wake word is required.
func (t *Tracker) ShouldPromptForAttention() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ctx.ListeningPolicy != domain.ListeningWakeWord {
		return false
	}
	return t.now().Sub(t.ctx.LastInteractionAt) > t.idleThreshold
}
