// Package resolve turns a request to say something into a playable
// utterance. Tiers are tried in order: instant line, cached phrase,
// provider synthesis, and finally the local fallback voice.
package resolve

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hammamikhairi/ottovoice/internal/conversation"
	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
	"github.com/hammamikhairi/ottovoice/internal/metrics"
	"github.com/hammamikhairi/ottovoice/internal/phrase"
	"github.com/hammamikhairi/ottovoice/internal/speech"
)

// Defaults.
const (
	DefaultTimeout      = 6 * time.Second
	DefaultFlavorChance = 0.3
	DefaultPersona      = "otto"
)

// Options shape a single resolution.
type Options struct {
	Priority  domain.Priority
	Interrupt bool

	// IsDirectMessage marks text the caller composed exactly. Matching and
	// flavor are skipped; step, tip and encouragement shaping still apply.
	IsDirectMessage bool
	// SkipStepFraming suppresses the step prefix.
	SkipStepFraming bool

	Step int    // 1-based step number; 0 means none
	Tip  string // appended with the persona's tip template
}

// Resolution is the outcome of Resolve. Utterance is never nil.
type Resolution struct {
	Utterance *domain.Utterance
	// PhraseID is the cache entry that produced the text, if any.
	PhraseID string
	// ProviderErr is why synthesis fell back, if it did.
	ProviderErr error
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithAudioStore sets the store used to reuse synthesized clips.
func WithAudioStore(s *speech.AudioStore) Option {
	return func(r *Resolver) {
		if s != nil {
			r.store = s
		}
	}
}

// WithMetrics records tier and provider counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithRand fixes the random source used for encouragement and flavor.
func WithRand(rng *rand.Rand) Option {
	return func(r *Resolver) {
		if rng != nil {
			r.rng = rng
		}
	}
}

// WithFlavorChance sets the probability of a persona idiom. 0 turns it off.
func WithFlavorChance(p float64) Option {
	return func(r *Resolver) {
		r.flavorChance = p
	}
}

// WithTimeout bounds each provider synthesis.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithDefaultPersona sets the persona used for unknown persona ids.
func WithDefaultPersona(id string) Option {
	return func(r *Resolver) {
		if id != "" {
			r.defaultPersona = id
		}
	}
}

// WithCaching toggles the instant and cache tiers.
func WithCaching(enabled bool) Option {
	return func(r *Resolver) {
		r.caching = enabled
	}
}

// WithChunkSize sets the synthesis chunk length in characters. 0 sends
// the whole text in one request.
func WithChunkSize(n int) Option {
	return func(r *Resolver) {
		if n >= 0 {
			r.chunkSize = n
		}
	}
}

// Resolver is safe for concurrent use. Resolutions for different calls
// may run in parallel; only playback is serialized.
type Resolver struct {
	cache   *phrase.Cache
	tracker *conversation.Tracker
	content domain.ContentSource
	tts     domain.Synthesizer // nil disables the provider
	store   *speech.AudioStore
	log     *logger.Logger
	metrics *metrics.Metrics

	rngMu sync.Mutex
	rng   *rand.Rand

	flavorChance   float64
	timeout        time.Duration
	defaultPersona string
	caching        bool
	chunkSize      int

	healthy atomic.Bool
}

// New creates a resolver. tts may be nil, in which case every utterance
// that needs synthesis goes to the fallback voice.
func New(cache *phrase.Cache, tracker *conversation.Tracker, content domain.ContentSource, tts domain.Synthesizer, log *logger.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		cache:          cache,
		tracker:        tracker,
		content:        content,
		tts:            tts,
		log:            log,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		flavorChance:   DefaultFlavorChance,
		timeout:        DefaultTimeout,
		defaultPersona: DefaultPersona,
		caching:        true,
		chunkSize:      speech.DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.store = speech.NewAudioStore(0, log)
	}
	r.healthy.Store(tts != nil)
	return r
}

// Healthy reports whether the provider is configured and its last call
// succeeded.
func (r *Resolver) Healthy() bool {
	return r.healthy.Load()
}

// Resolve picks the tier for rawText and returns the utterance to play.
// It never fails; provider problems produce a fallback utterance.
func (r *Resolver) Resolve(ctx context.Context, rawText, personaID string, opts Options) Resolution {
	persona := r.persona(ctx, personaID)
	snap := r.tracker.Snapshot()

	u := &domain.Utterance{
		ID:        uuid.NewString(),
		PersonaID: persona.ID,
		Priority:  opts.Priority,
	}
	res := Resolution{Utterance: u}

	if opts.IsDirectMessage {
		u.Text = r.adapt(persona, snap, rawText, opts, false)
		r.synthesizeInto(ctx, persona, &res, domain.SourceSynthesized, nil)
		return r.finish(res)
	}

	if r.caching && opts.Priority == domain.PriorityHigh {
		if line, kind, ok := instantLine(persona, rawText); ok {
			r.log.Debug("instant %s for %q", kind, rawText)
			u.Text = line
			r.synthesizeInto(ctx, persona, &res, domain.SourceInstant, nil)
			return r.finish(res)
		}
	}

	if r.caching {
		if p := r.cache.FindMatch(rawText, persona.ID); p != nil {
			res.PhraseID = p.ID
			u.Text = r.adapt(persona, snap, p.Text, opts, false)
			if u.Text == p.Text {
				if clip, ok := r.store.Get(p.AudioRef); ok {
					u.Source = domain.SourceCached
					u.Clips = [][]byte{clip}
					return r.finish(res)
				}
			}
			r.synthesizeInto(ctx, persona, &res, domain.SourceCached, p)
			return r.finish(res)
		}
	}

	u.Text = r.adapt(persona, snap, rawText, opts, true)
	r.synthesizeInto(ctx, persona, &res, domain.SourceSynthesized, nil)
	return r.finish(res)
}

// ResolveKind resolves one of the persona's instant interactions, going
// through the regular tiers when the persona has no line for it.
func (r *Resolver) ResolveKind(ctx context.Context, personaID string, kind domain.InstantKind, opts Options) Resolution {
	persona := r.persona(ctx, personaID)
	line := persona.Instant[kind]
	if line == "" || !r.caching {
		return r.Resolve(ctx, kindHint(kind), persona.ID, opts)
	}

	res := Resolution{Utterance: &domain.Utterance{
		ID:        uuid.NewString(),
		Text:      line,
		PersonaID: persona.ID,
		Priority:  opts.Priority,
	}}
	r.synthesizeInto(ctx, persona, &res, domain.SourceInstant, nil)
	return r.finish(res)
}

func (r *Resolver) finish(res Resolution) Resolution {
	r.metrics.Resolved(string(res.Utterance.Source))
	r.log.Debug("resolved %s via %s: %q", res.Utterance.ID[:8], res.Utterance.Source, truncate(res.Utterance.Text, 60))
	return res
}

// persona returns the requested persona, the default one when it is
// unknown, or a voiceless stand-in when neither can be loaded.
func (r *Resolver) persona(ctx context.Context, id string) domain.Persona {
	if id != "" {
		if p, err := r.content.Persona(ctx, id); err == nil {
			return *p
		}
		r.log.Warn("unknown persona %q, using %q", id, r.defaultPersona)
	}
	if p, err := r.content.Persona(ctx, r.defaultPersona); err == nil {
		return *p
	}
	r.log.Error("default persona %q missing from content", r.defaultPersona)
	return domain.Persona{ID: r.defaultPersona, StepTemplate: "Step %d:", TipTemplate: "Here's a tip: %s"}
}

// synthesizeInto fills res.Utterance with audio for its text, or marks it
// for the fallback voice. When candidate is set and the text is its
// canonical text, the new audio ref is written back to the cache.
func (r *Resolver) synthesizeInto(ctx context.Context, p domain.Persona, res *Resolution, source domain.Source, candidate *domain.CachedPhrase) {
	u := res.Utterance
	clips, refs, err := r.synthesize(ctx, p, u.Text)
	if err != nil {
		res.ProviderErr = err
		u.Source = domain.SourceFallback
		u.Clips = nil
		r.metrics.ProviderError(failureReason(err))
		r.log.Warn("synthesis failed, using fallback voice: %v", err)
		return
	}
	u.Source = source
	u.Clips = clips

	if candidate != nil && u.Text == candidate.Text && len(refs) == 1 && refs[0] != candidate.AudioRef {
		r.cache.MarkSynthesized(candidate.ID, refs[0])
		r.log.Debug("phrase %s synthesized", candidate.ID)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, domain.ErrProviderDisabled):
		return "disabled"
	case errors.Is(err, domain.ErrNoVoice):
		return "no_voice"
	default:
		return "error"
	}
}

func truncate(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
