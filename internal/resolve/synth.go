package resolve

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/speech"
)

// warmParallelism bounds concurrent provider calls during warm-up.
const warmParallelism = 4

var errEmptyText = errors.New("nothing to synthesize")

// synthesize returns one clip per sentence chunk of text, in order, along
// with their audio refs. Clips already in the store are reused; the rest
// are synthesized in parallel under a single timeout.
func (r *Resolver) synthesize(ctx context.Context, p domain.Persona, text string) ([][]byte, []string, error) {
	if r.tts == nil {
		return nil, nil, domain.ErrProviderDisabled
	}
	if p.Voice == "" {
		return nil, nil, fmt.Errorf("persona %s: %w", p.ID, domain.ErrNoVoice)
	}
	chunks := speech.SplitChunks(text, r.chunkSize)
	if len(chunks) == 0 {
		return nil, nil, errEmptyText
	}

	clips := make([][]byte, len(chunks))
	refs := make([]string, len(chunks))

	sctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	called := false
	g, gctx := errgroup.WithContext(sctx)
	for i, chunk := range chunks {
		if clip, ok := r.store.Lookup(p.Voice, chunk); ok {
			clips[i] = clip
			refs[i] = speech.Ref(p.Voice, chunk)
			continue
		}
		called = true
		g.Go(func() error {
			audio, err := r.tts.Synthesize(gctx, chunk, p.Voice)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i+1, err)
			}
			clips[i] = audio
			refs[i] = r.store.Put(p.Voice, chunk, audio)
			return nil
		})
	}

	if err := wait(sctx, g); err != nil {
		r.healthy.Store(false)
		// A provider that returned early because the deadline passed
		// reports its own error; surface the deadline instead.
		if errors.Is(sctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, nil, fmt.Errorf("synthesis timed out after %s: %w", r.timeout, context.DeadlineExceeded)
		}
		return nil, nil, err
	}
	if called {
		r.healthy.Store(true)
		r.metrics.ObserveSynthesis(time.Since(start))
		if len(chunks) > 1 {
			r.log.Debug("synthesized %d chunks in %s", len(chunks), time.Since(start).Round(time.Millisecond))
		}
	}
	return clips, refs, nil
}

// wait returns once every provider call has finished or ctx is done,
// whichever comes first. Calls still running after ctx is done are
// abandoned; their clips are never read.
func wait(ctx context.Context, g *errgroup.Group) error {
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		select {
		case err := <-done:
			return err
		default:
			return ctx.Err()
		}
	}
}

// Warm pre-synthesizes pregenerated phrases that have no audio yet and
// every persona's instant lines. Individual failures are logged and
// skipped. It returns how many lines now have audio.
func (r *Resolver) Warm(ctx context.Context) (int, error) {
	if r.tts == nil {
		return 0, domain.ErrProviderDisabled
	}

	personas, err := r.content.Personas(ctx)
	if err != nil {
		return 0, fmt.Errorf("warm: list personas: %w", err)
	}
	byID := make(map[string]domain.Persona, len(personas))
	for _, p := range personas {
		byID[p.ID] = p
	}

	var warmed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmParallelism)

	for _, ph := range r.cache.Pending() {
		p, ok := byID[ph.PersonaID]
		if !ok || p.Voice == "" {
			continue
		}
		g.Go(func() error {
			_, refs, err := r.synthesize(gctx, p, ph.Text)
			if err != nil {
				r.log.Warn("warm: phrase %s: %v", ph.ID, err)
				return nil
			}
			if len(refs) == 1 {
				r.cache.MarkSynthesized(ph.ID, refs[0])
			}
			warmed.Add(1)
			return nil
		})
	}

	for _, p := range personas {
		if p.Voice == "" {
			continue
		}
		for kind, line := range p.Instant {
			g.Go(func() error {
				if _, _, err := r.synthesize(gctx, p, line); err != nil {
					r.log.Warn("warm: %s %s: %v", p.ID, kind, err)
					return nil
				}
				warmed.Add(1)
				return nil
			})
		}
	}

	err = g.Wait()
	n := int(warmed.Load())
	r.log.Info("warm-up done: %d lines ready", n)
	if err == nil {
		err = ctx.Err()
	}
	return n, err
}
