package voice

import (
	"context"
	"sync"
	"time"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// AttentionOption configures the Attention supervisor.
type AttentionOption func(*Attention)

// WithTickInterval sets how often the supervisor checks for silence.
func WithTickInterval(d time.Duration) AttentionOption {
	return func(a *Attention) {
		a.tickInterval = d
	}
}

// WithPromptCooldown sets the minimum time between two prompts.
func WithPromptCooldown(d time.Duration) AttentionOption {
	return func(a *Attention) {
		a.cooldown = d
	}
}

// WithAttentionClock overrides the clock used for the cooldown.
func WithAttentionClock(now func() time.Time) AttentionOption {
	return func(a *Attention) {
		a.now = now
	}
}

// Attention runs in the background and speaks the persona's attention
// prompt when the user has gone quiet while a wake word is required.
type Attention struct {
	orch         *Orchestrator
	log          *logger.Logger
	tickInterval time.Duration
	cooldown     time.Duration
	now          func() time.Time

	mu         sync.Mutex
	running    bool
	cancel     context.CancelFunc
	done       chan struct{}
	lastPrompt time.Time
}

// NewAttention creates a supervisor for o.
func NewAttention(o *Orchestrator, log *logger.Logger, opts ...AttentionOption) *Attention {
	a := &Attention{
		orch:         o,
		log:          log,
		tickInterval: 1 * time.Second,
		cooldown:     30 * time.Second,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start begins the background loop. Non-blocking.
func (a *Attention) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		a.log.Warn("attention supervisor already running")
		return
	}

	childCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	a.running = true

	go a.loop(childCtx, a.done)

	a.log.Info("attention supervisor started (tick=%s, cooldown=%s)", a.tickInterval, a.cooldown)
}

// Stop shuts the loop down and waits for an in-flight prompt to end.
func (a *Attention) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.cancel()
	a.running = false
	done := a.done
	a.mu.Unlock()

	<-done
	a.log.Info("attention supervisor stopped")
}

func (a *Attention) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(a.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

// tick speaks one prompt when it is due. The call blocks until the prompt
// has played, so prompts never pile up in the queue.
func (a *Attention) tick(ctx context.Context) {
	text, persona, ok := a.due(ctx)
	if !ok {
		return
	}

	a.mu.Lock()
	a.lastPrompt = a.now()
	a.mu.Unlock()

	a.log.Debug("user idle, prompting (persona=%s)", persona)
	if _, err := a.orch.Speak(ctx, text, persona,
		WithPriority(domain.PriorityLow),
		DirectMessage(),
		NoStepFraming(),
	); err != nil && ctx.Err() == nil {
		a.log.Error("attention prompt: %v", err)
	}
}

func (a *Attention) due(ctx context.Context) (text, persona string, ok bool) {
	if !a.orch.tracker.ShouldPromptForAttention() {
		return "", "", false
	}
	st := a.orch.Status()
	if st.IsPlaying || st.QueueLength > 0 {
		return "", "", false
	}

	a.mu.Lock()
	last := a.lastPrompt
	a.mu.Unlock()
	if !last.IsZero() && a.now().Sub(last) < a.cooldown {
		return "", "", false
	}

	p, err := a.orch.content.Persona(ctx, st.PersonaID)
	if err != nil {
		p, err = a.orch.content.Persona(ctx, a.orch.defaultPersona)
	}
	if err != nil || p.AttentionPrompt == "" {
		return "", "", false
	}
	return p.AttentionPrompt, p.ID, true
}
