package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/ottovoice/internal/conversation"
	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
	"github.com/hammamikhairi/ottovoice/internal/resolve"
)

// --- fakes ---

type fakeContent struct {
	personas map[string]domain.Persona
	phrases  []domain.CachedPhrase
}

func newFakeContent() *fakeContent {
	return &fakeContent{
		personas: map[string]domain.Persona{
			"p1": {
				ID:              "p1",
				Voice:           "en-US-TestNeural",
				StepTemplate:    "Step %d:",
				TipTemplate:     "Here's a tip: %s",
				Encouragements:  []string{"Hang in there."},
				AttentionPrompt: "Still there?",
			},
		},
		phrases: []domain.CachedPhrase{
			{ID: "p1_next", PersonaID: "p1", Text: "Onward!", Category: domain.CategoryInstruction, Priority: 8, PreGenerated: true},
		},
	}
}

func (f *fakeContent) Persona(_ context.Context, id string) (*domain.Persona, error) {
	p, ok := f.personas[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (f *fakeContent) Personas(context.Context) ([]domain.Persona, error) {
	var out []domain.Persona
	for _, p := range f.personas {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeContent) Phrases(_ context.Context, personaID string) ([]domain.CachedPhrase, error) {
	var out []domain.CachedPhrase
	for _, p := range f.phrases {
		if p.PersonaID == personaID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeContent) Recipes(context.Context) ([]domain.RecipeSummary, error) { return nil, nil }

func (f *fakeContent) Recipe(context.Context, string) (*domain.Recipe, error) {
	return nil, domain.ErrNotFound
}

// fakeSynth returns the text itself as audio, so the device sees text.
type fakeSynth struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeSynth) Synthesize(_ context.Context, text, _ string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(text), nil
}

func (f *fakeSynth) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeDevice blocks on clips starting with "block" until cancelled and
// fails those starting with "fail".
type fakeDevice struct {
	mu      sync.Mutex
	played  []string
	started chan string
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{started: make(chan string, 64)}
}

func (d *fakeDevice) Play(ctx context.Context, wav []byte) error {
	clip := string(wav)
	d.mu.Lock()
	d.played = append(d.played, clip)
	d.mu.Unlock()
	d.started <- clip

	switch {
	case strings.HasPrefix(clip, "block"):
		<-ctx.Done()
	case strings.HasPrefix(clip, "fail"):
		return errors.New("device unplugged")
	}
	return nil
}

func (d *fakeDevice) Played() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.played...)
}

func (d *fakeDevice) count(clip string) int {
	n := 0
	for _, p := range d.Played() {
		if p == clip {
			n++
		}
	}
	return n
}

type fakeFallback struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeFallback) Speak(_ context.Context, text string, _ domain.FallbackParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeFallback) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.texts)
}

// --- helpers ---

type rig struct {
	orch     *Orchestrator
	synth    *fakeSynth
	device   *fakeDevice
	fallback *fakeFallback
}

func newRig(t *testing.T, synth *fakeSynth, opts ...Option) *rig {
	t.Helper()
	r := &rig{synth: synth, device: newFakeDevice(), fallback: &fakeFallback{}}
	deps := Deps{Content: newFakeContent(), Fallback: r.fallback, Audio: r.device}
	if synth != nil {
		deps.Synthesizer = synth
	}
	base := []Option{
		WithDefaultPersona("p1"),
		WithResolverOptions(resolve.WithFlavorChance(0)),
	}
	r.orch = New(deps, logger.New(logger.LevelOff, nil), append(base, opts...)...)
	if err := r.orch.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(r.orch.Close)

	select {
	case <-r.orch.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("warm-up never finished")
	}
	return r
}

func (r *rig) waitStarted(t *testing.T, want string) {
	t.Helper()
	for {
		select {
		case got := <-r.device.started:
			if got == want {
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func (r *rig) waitQueued(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for r.orch.Status().QueueLength != n {
		if time.Now().After(deadline) {
			t.Fatalf("queue length = %d, want %d", r.orch.Status().QueueLength, n)
		}
		time.Sleep(time.Millisecond)
	}
}

// speakAsync speaks in the background and delivers the result.
func (r *rig) speakAsync(text string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		res, _ := r.orch.Speak(context.Background(), text, "p1")
		out <- res
	}()
	return out
}

func await(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("speak never returned")
		return Result{}
	}
}

// --- tests ---

func TestSpeakNextStepFromCache(t *testing.T) {
	var (
		mu          sync.Mutex
		transitions []bool
	)
	r := newRig(t, &fakeSynth{}, WithStatusListener(func(s Status) {
		mu.Lock()
		transitions = append(transitions, s.IsPlaying)
		mu.Unlock()
	}))

	// Warm-up synthesized the pinned phrase once.
	if n := r.synth.count(); n != 1 {
		t.Fatalf("warm-up provider calls = %d, want 1", n)
	}
	if r.orch.Status().IsPlaying {
		t.Fatal("expected idle before speaking")
	}

	res, err := r.orch.Speak(context.Background(), "what's next step", "p1", WithPriority(domain.PriorityHigh))
	if err != nil {
		t.Fatalf("speak: %v", err)
	}
	if res.Source != domain.SourceCached || res.PhraseID != "p1_next" || res.Outcome != domain.OutcomePlayed {
		t.Fatalf("result = %+v, want cached p1_next played", res)
	}
	if n := r.synth.count(); n != 1 {
		t.Fatalf("speak called the provider: %d calls", n)
	}
	if got := r.device.Played(); len(got) != 1 || got[0] != "Onward!" {
		t.Fatalf("device played %q", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 2 || !transitions[0] || transitions[1] {
		t.Fatalf("isPlaying transitions = %v, want [true false]", transitions)
	}
	if r.orch.Status().IsPlaying {
		t.Fatal("expected idle after speaking")
	}
}

func TestSpeakInterruptDropsCurrent(t *testing.T) {
	r := newRig(t, &fakeSynth{})
	ctx := context.Background()

	first := make(chan Result, 1)
	go func() {
		res, _ := r.orch.Speak(ctx, "block A", "p1")
		first <- res
	}()
	r.waitStarted(t, "block A")

	b, err := r.orch.Speak(ctx, "B", "p1", Interrupt())
	if err != nil {
		t.Fatalf("speak B: %v", err)
	}
	a := <-first

	if a.Outcome != domain.OutcomeInterrupted || b.Outcome != domain.OutcomePlayed {
		t.Fatalf("outcomes = %s, %s", a.Outcome, b.Outcome)
	}
	want := []string{"block A", "B"}
	if got := r.device.Played(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("played %v, want %v", got, want)
	}
}

func TestSpeakAlwaysFallsBack(t *testing.T) {
	r := newRig(t, &fakeSynth{err: errors.New("provider down")})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.orch.Speak(ctx, fmt.Sprintf("line %d", i), "p1")
			if err == nil && res.Source != domain.SourceFallback {
				err = fmt.Errorf("source = %s", res.Source)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}

	if n := r.fallback.count(); n != 5 {
		t.Fatalf("fallback spoke %d lines, want 5", n)
	}
	st := r.orch.Status()
	if !st.Degraded || st.ProviderHealthy {
		t.Fatalf("status = %+v, want degraded and unhealthy", st)
	}
}

func TestSpeakInstruction(t *testing.T) {
	r := newRig(t, &fakeSynth{})
	r.orch.UpdateContext(conversation.Phase(domain.PhaseActiveTask), conversation.Step(1, 5))

	res, err := r.orch.SpeakInstruction(context.Background(), "Dice the carrots.", "p1", 2, "Keep them small.")
	if err != nil {
		t.Fatalf("speak instruction: %v", err)
	}
	want := "Step 2: Dice the carrots. Here's a tip: Keep them small."
	if res.Text != want {
		t.Fatalf("text = %q, want %q", res.Text, want)
	}
	if res.Source != domain.SourceSynthesized {
		t.Fatalf("source = %s", res.Source)
	}

	st := r.orch.Status()
	if st.Phase != domain.PhaseActiveTask || st.ListeningPolicy != domain.ListeningAlwaysListening {
		t.Fatalf("status = %+v", st)
	}
}

func TestLifecycleErrors(t *testing.T) {
	o := New(Deps{Content: newFakeContent()}, logger.New(logger.LevelOff, nil))
	ctx := context.Background()

	if _, err := o.Speak(ctx, "hi", "p1"); !errors.Is(err, domain.ErrNotStarted) {
		t.Fatalf("speak before start = %v", err)
	}
	if err := o.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if res, err := o.Speak(ctx, "   ", "p1"); err != nil || res.Outcome != domain.OutcomeSkipped {
		t.Fatalf("blank speak = %+v, %v", res, err)
	}

	o.Close()
	o.Close()
	if _, err := o.Speak(ctx, "hi", "p1"); !errors.Is(err, domain.ErrClosed) {
		t.Fatalf("speak after close = %v", err)
	}
	if err := o.Start(ctx); !errors.Is(err, domain.ErrClosed) {
		t.Fatalf("start after close = %v", err)
	}
	o.Stop()
	o.ClearQueue()
}

func TestRepeat(t *testing.T) {
	r := newRig(t, &fakeSynth{})
	ctx := context.Background()

	if res, err := r.orch.Repeat(ctx); err != nil || res.Outcome != domain.OutcomeSkipped {
		t.Fatalf("repeat with nothing played = %+v, %v", res, err)
	}

	before := r.synth.count()
	if _, err := r.orch.Speak(ctx, "hello there", "p1"); err != nil {
		t.Fatalf("speak: %v", err)
	}
	res, err := r.orch.Repeat(ctx)
	if err != nil || res.Outcome != domain.OutcomePlayed || res.Text != "hello there" {
		t.Fatalf("repeat = %+v, %v", res, err)
	}
	if n := r.device.count("hello there"); n != 2 {
		t.Fatalf("device played the line %d times, want 2", n)
	}
	if n := r.synth.count() - before; n != 1 {
		t.Fatalf("provider calls = %d, want 1", n)
	}
}

func TestStopEndsCurrentUtterance(t *testing.T) {
	r := newRig(t, &fakeSynth{})

	done := make(chan Result, 1)
	go func() {
		res, _ := r.orch.Speak(context.Background(), "block long", "p1")
		done <- res
	}()
	r.waitStarted(t, "block long")
	r.orch.Stop()

	select {
	case res := <-done:
		if res.Outcome != domain.OutcomeStopped {
			t.Fatalf("outcome = %s", res.Outcome)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not end playback")
	}
}

func TestDeviceFailureIsReportedAndQueueContinues(t *testing.T) {
	r := newRig(t, &fakeSynth{})

	gate := r.speakAsync("block gate")
	r.waitStarted(t, "block gate")
	failed := r.speakAsync("fail here")
	r.waitQueued(t, 1)
	after := r.speakAsync("after")
	r.waitQueued(t, 2)
	r.orch.Stop()

	await(t, gate)
	if res := await(t, failed); res.Outcome != domain.OutcomeFailed {
		t.Fatalf("failed outcome = %s", res.Outcome)
	}
	if res := await(t, after); res.Outcome != domain.OutcomePlayed {
		t.Fatalf("next outcome = %s, want played", res.Outcome)
	}

	st := r.orch.Status()
	if st.LastPlaybackError == nil || !strings.Contains(st.LastPlaybackError.Error(), "device unplugged") {
		t.Fatalf("last playback error = %v", st.LastPlaybackError)
	}
	if st.IsPlaying || st.QueueLength != 0 {
		t.Fatalf("status = %+v, want idle", st)
	}
}

func TestDegradedFollowsPlayback(t *testing.T) {
	synth := &fakeSynth{}
	r := newRig(t, synth)

	gate := r.speakAsync("block gate")
	r.waitStarted(t, "block gate")

	synth.mu.Lock()
	synth.err = errors.New("provider down")
	synth.mu.Unlock()
	local := r.speakAsync("said locally")
	r.waitQueued(t, 1)
	if r.orch.Status().Degraded {
		t.Fatal("degraded before the fallback line played")
	}

	r.orch.Stop()
	await(t, gate)
	if res := await(t, local); res.Source != domain.SourceFallback {
		t.Fatalf("source = %s", res.Source)
	}
	if !r.orch.Status().Degraded {
		t.Fatal("expected degraded after the fallback line played")
	}

	synth.mu.Lock()
	synth.err = nil
	synth.mu.Unlock()
	await(t, r.speakAsync("back online"))
	if r.orch.Status().Degraded {
		t.Fatal("still degraded after a synthesized line played")
	}
}
