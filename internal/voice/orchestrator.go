// Package voice is the consumer-facing façade of the voice core. It owns
// the phrase cache, conversation tracker, resolver and playback queue and
// exposes speak, stop, clear and status operations on top of them.
package voice

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hammamikhairi/ottovoice/internal/conversation"
	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
	"github.com/hammamikhairi/ottovoice/internal/metrics"
	"github.com/hammamikhairi/ottovoice/internal/phrase"
	"github.com/hammamikhairi/ottovoice/internal/playback"
	"github.com/hammamikhairi/ottovoice/internal/resolve"
)

// Deps are the external collaborators of the orchestrator. Synthesizer,
// Fallback and Audio may each be nil.
type Deps struct {
	Content     domain.ContentSource
	Synthesizer domain.Synthesizer
	Fallback    domain.FallbackSynthesizer
	Audio       domain.AudioDevice
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithCacheOptions passes options to the phrase cache.
func WithCacheOptions(opts ...phrase.Option) Option {
	return func(o *Orchestrator) {
		o.cacheOpts = append(o.cacheOpts, opts...)
	}
}

// WithTrackerOptions passes options to the conversation tracker.
func WithTrackerOptions(opts ...conversation.Option) Option {
	return func(o *Orchestrator) {
		o.trackerOpts = append(o.trackerOpts, opts...)
	}
}

// WithResolverOptions passes options to the resolver.
func WithResolverOptions(opts ...resolve.Option) Option {
	return func(o *Orchestrator) {
		o.resolveOpts = append(o.resolveOpts, opts...)
	}
}

// WithDefaultPersona sets the persona used when none or an unknown one is
// given.
func WithDefaultPersona(id string) Option {
	return func(o *Orchestrator) {
		if id != "" {
			o.defaultPersona = id
		}
	}
}

// WithFallbackParams sets rate and volume for the fallback voice.
func WithFallbackParams(p domain.FallbackParams) Option {
	return func(o *Orchestrator) {
		o.fallbackParams = p
	}
}

// WithMetrics records resolver and queue metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithStatusListener registers fn to run whenever playback starts or
// stops being active. fn runs on the playback goroutine and must not
// block or call back into Speak.
func WithStatusListener(fn func(Status)) Option {
	return func(o *Orchestrator) {
		o.listeners = append(o.listeners, fn)
	}
}

// WithWarmup toggles pre-synthesis of pinned phrases on Start.
func WithWarmup(enabled bool) Option {
	return func(o *Orchestrator) {
		o.warmup = enabled
	}
}

// SpeakOption shapes a single Speak call.
type SpeakOption func(*resolve.Options)

// WithPriority sets the queue priority. The default is normal.
func WithPriority(p domain.Priority) SpeakOption {
	return func(opts *resolve.Options) { opts.Priority = p }
}

// Interrupt stops whatever is playing and speaks next.
func Interrupt() SpeakOption {
	return func(opts *resolve.Options) { opts.Interrupt = true }
}

// DirectMessage marks the text as final: no matching, no flavor.
func DirectMessage() SpeakOption {
	return func(opts *resolve.Options) { opts.IsDirectMessage = true }
}

// AtStep frames the text with the step announcement during a task.
func AtStep(n int) SpeakOption {
	return func(opts *resolve.Options) { opts.Step = n }
}

// WithTip appends the persona's tip framing.
func WithTip(tip string) SpeakOption {
	return func(opts *resolve.Options) { opts.Tip = tip }
}

// NoStepFraming suppresses the step announcement.
func NoStepFraming() SpeakOption {
	return func(opts *resolve.Options) { opts.SkipStepFraming = true }
}

// Result describes how a Speak call ended.
type Result struct {
	ID       string
	Text     string
	Source   domain.Source
	PhraseID string
	Outcome  domain.Outcome
}

// Status is a read-only snapshot for UI indicators.
type Status struct {
	IsPlaying         bool
	QueueLength       int
	ProviderHealthy   bool
	Degraded          bool // the utterance playing or last played used the fallback voice
	LastPlaybackError error

	Phase           domain.Phase
	PersonaID       string
	CurrentStep     int
	TotalSteps      int
	ListeningPolicy domain.ListeningPolicy
}

type lifecycle int

const (
	stateNew lifecycle = iota
	stateStarted
	stateClosed
)

// Orchestrator is safe for concurrent use. Speak may be called from many
// goroutines; playback is strictly serialized.
type Orchestrator struct {
	log     *logger.Logger
	content domain.ContentSource
	hasTTS  bool

	cache    *phrase.Cache
	tracker  *conversation.Tracker
	resolver *resolve.Resolver
	queue    *playback.Queue

	cacheOpts      []phrase.Option
	trackerOpts    []conversation.Option
	resolveOpts    []resolve.Option
	defaultPersona string
	fallbackParams domain.FallbackParams
	metrics        *metrics.Metrics
	listeners      []func(Status)
	warmup         bool

	mu          sync.Mutex
	state       lifecycle
	degraded    bool
	lastPlayed  *domain.Utterance
	wasPlaying  bool
	ready       chan struct{}
	stopWarming context.CancelFunc
}

// New wires the voice core. Call Start before speaking.
func New(deps Deps, log *logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		log:            log,
		content:        deps.Content,
		hasTTS:         deps.Synthesizer != nil,
		defaultPersona: resolve.DefaultPersona,
		fallbackParams: domain.FallbackParams{Rate: 1, Volume: 1},
		warmup:         true,
		ready:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}

	o.cache = phrase.New(log.Named("cache"), o.cacheOpts...)
	o.tracker = conversation.New(log.Named("context"),
		append([]conversation.Option{conversation.WithInitialPersona(o.defaultPersona)}, o.trackerOpts...)...)
	o.resolver = resolve.New(o.cache, o.tracker, deps.Content, deps.Synthesizer, log.Named("resolve"),
		append([]resolve.Option{
			resolve.WithDefaultPersona(o.defaultPersona),
			resolve.WithMetrics(o.metrics),
		}, o.resolveOpts...)...)

	out := NewOutput(deps.Audio, deps.Fallback, o.fallbackParams, log.Named("output"))
	o.queue = playback.New(out, log.Named("queue"),
		playback.WithObserver(o.onPlayback),
		playback.WithMetrics(o.metrics),
	)
	return o
}

// Start loads the phrase table for every persona and begins warm-up in
// the background. Ready is closed when warm-up ends.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case stateClosed:
		return domain.ErrClosed
	case stateStarted:
		return nil
	}

	personas, err := o.content.Personas(ctx)
	if err != nil {
		return fmt.Errorf("loading personas: %w", err)
	}
	total := 0
	for _, p := range personas {
		phrases, err := o.content.Phrases(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("loading phrases for %s: %w", p.ID, err)
		}
		o.cache.Preload(phrases...)
		total += len(phrases)
	}
	o.state = stateStarted

	if !o.warmup || !o.hasTTS {
		close(o.ready)
		o.log.Info("voice started: %d personas, %d phrases, warm-up off", len(personas), total)
		return nil
	}

	wctx, cancel := context.WithCancel(context.Background())
	o.stopWarming = cancel
	go func() {
		defer close(o.ready)
		if _, err := o.resolver.Warm(wctx); err != nil && wctx.Err() == nil {
			o.log.Warn("warm-up: %v", err)
		}
	}()
	o.log.Info("voice started: %d personas, %d phrases", len(personas), total)
	return nil
}

// Ready is closed once warm-up has finished or was skipped.
func (o *Orchestrator) Ready() <-chan struct{} { return o.ready }

// Speak resolves text and waits until it has played, been interrupted or
// been cleared. Interruption is not an error; the outcome is in Result.
// If ctx ends first Speak returns ctx.Err() and the utterance stays
// queued.
func (o *Orchestrator) Speak(ctx context.Context, text, personaID string, opts ...SpeakOption) (Result, error) {
	if err := o.checkStarted(); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Result{Outcome: domain.OutcomeSkipped}, nil
	}

	ro := resolve.Options{Priority: domain.PriorityNormal}
	for _, opt := range opts {
		opt(&ro)
	}
	res := o.resolver.Resolve(ctx, text, o.personaOrCurrent(personaID), ro)
	return o.play(ctx, res, ro.Interrupt)
}

// SpeakInstruction speaks exact instruction text at high priority,
// framed with the step number and tip when given.
func (o *Orchestrator) SpeakInstruction(ctx context.Context, text, personaID string, step int, tip string) (Result, error) {
	return o.Speak(ctx, text, personaID,
		WithPriority(domain.PriorityHigh),
		DirectMessage(),
		AtStep(step),
		WithTip(tip),
	)
}

// SpeakGreeting speaks the persona's greeting line.
func (o *Orchestrator) SpeakGreeting(ctx context.Context, personaID string) (Result, error) {
	if err := o.checkStarted(); err != nil {
		return Result{}, err
	}
	res := o.resolver.ResolveKind(ctx, o.personaOrCurrent(personaID), domain.InstantGreeting,
		resolve.Options{Priority: domain.PriorityHigh})
	return o.play(ctx, res, false)
}

// Repeat replays the last utterance that played to completion. It
// reports OutcomeSkipped when nothing has played yet.
func (o *Orchestrator) Repeat(ctx context.Context) (Result, error) {
	if err := o.checkStarted(); err != nil {
		return Result{}, err
	}
	o.mu.Lock()
	last := o.lastPlayed
	o.mu.Unlock()
	if last == nil {
		return Result{Outcome: domain.OutcomeSkipped}, nil
	}

	u := *last
	u.ID = uuid.NewString()
	u.Priority = domain.PriorityHigh
	u.EnqueuedAt = time.Time{}
	return o.play(ctx, resolve.Resolution{Utterance: &u}, false)
}

func (o *Orchestrator) play(ctx context.Context, res resolve.Resolution, interrupt bool) (Result, error) {
	u := res.Utterance
	result := Result{ID: u.ID, Text: u.Text, Source: u.Source, PhraseID: res.PhraseID}
	t := o.queue.Enqueue(u, interrupt)
	select {
	case <-t.Done():
		result.Outcome = t.Outcome()
		return result, nil
	case <-ctx.Done():
		return result, ctx.Err()
	}
}

func (o *Orchestrator) checkStarted() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.state {
	case stateNew:
		return domain.ErrNotStarted
	case stateClosed:
		return domain.ErrClosed
	}
	return nil
}

func (o *Orchestrator) personaOrCurrent(id string) string {
	if id != "" {
		return id
	}
	return o.tracker.Snapshot().PersonaID
}

// onPlayback runs on the queue's drain goroutine.
func (o *Orchestrator) onPlayback(ev playback.Event) {
	o.mu.Lock()
	switch {
	case ev.Kind == playback.EventStarted:
		o.degraded = ev.Utterance.Source == domain.SourceFallback
	case ev.Outcome == domain.OutcomePlayed:
		o.lastPlayed = ev.Utterance
	}
	o.mu.Unlock()
	if len(o.listeners) == 0 {
		return
	}

	st := o.Status()
	o.mu.Lock()
	changed := st.IsPlaying != o.wasPlaying
	o.wasPlaying = st.IsPlaying
	o.mu.Unlock()
	if !changed {
		return
	}
	for _, fn := range o.listeners {
		fn(st)
	}
}

// Stop halts the current utterance. Queued ones keep playing.
func (o *Orchestrator) Stop() { o.queue.Stop() }

// ClearQueue halts the current utterance and drops everything queued.
func (o *Orchestrator) ClearQueue() { o.queue.Clear() }

// Status returns a snapshot of playback, provider and context state.
func (o *Orchestrator) Status() Status {
	qs := o.queue.Snapshot()
	c := o.tracker.Snapshot()

	o.mu.Lock()
	degraded := o.degraded
	o.mu.Unlock()

	return Status{
		IsPlaying:         qs.Playing,
		QueueLength:       qs.Pending,
		ProviderHealthy:   o.resolver.Healthy(),
		Degraded:          degraded,
		LastPlaybackError: qs.LastError,
		Phase:             c.Phase,
		PersonaID:         c.PersonaID,
		CurrentStep:       c.CurrentStep,
		TotalSteps:        c.TotalSteps,
		ListeningPolicy:   c.ListeningPolicy,
	}
}

// UpdateContext applies changes to the conversation context.
func (o *Orchestrator) UpdateContext(changes ...conversation.Change) domain.ConversationContext {
	return o.tracker.Update(changes...)
}

// Tracker exposes the conversation tracker.
func (o *Orchestrator) Tracker() *conversation.Tracker { return o.tracker }

// Cache exposes the phrase cache.
func (o *Orchestrator) Cache() *phrase.Cache { return o.cache }

// Close stops warm-up and playback. Further calls return ErrClosed.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.state == stateClosed {
		o.mu.Unlock()
		return
	}
	wasStarted := o.state == stateStarted
	o.state = stateClosed
	cancel := o.stopWarming
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if !wasStarted {
		close(o.ready)
	}
	o.queue.Close()
	o.log.Info("voice closed")
}
