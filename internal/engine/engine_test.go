package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/hammamikhairi/ottovoice/internal/content"
	"github.com/hammamikhairi/ottovoice/internal/conversation"
	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

func setupEngine(t *testing.T) (*Engine, *conversation.Tracker, context.Context) {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	tracker := conversation.New(log)
	eng := New(content.NewMemorySource(log), tracker, log)
	return eng, tracker, context.Background()
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		wantID  string
		wantErr bool
	}{
		{"by id", "chicken-alfredo", "chicken-alfredo", false},
		{"by position", "2", "vegetable-stir-fry", false},
		{"position out of range", "9", "", true},
		{"unknown recipe", "nonexistent", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, tracker, ctx := setupEngine(t)

			r, err := eng.Select(ctx, tt.ref)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrNotFound) {
					t.Fatalf("expected ErrNotFound, got %v", err)
				}
				if tracker.Snapshot().Phase != domain.PhaseBrowsing {
					t.Fatal("failed select must not change the phase")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.ID != tt.wantID {
				t.Fatalf("selected %q, want %q", r.ID, tt.wantID)
			}

			c := tracker.Snapshot()
			if c.Phase != domain.PhasePreTask || c.TotalSteps != len(r.Steps) {
				t.Fatalf("unexpected context after select: %+v", c)
			}
			if p := eng.Progress(); p.State != StateSelected || p.Step != 0 {
				t.Fatalf("unexpected progress: %+v", p)
			}
		})
	}
}

func TestStartRequiresRecipe(t *testing.T) {
	eng, _, _ := setupEngine(t)

	if _, err := eng.Start(); !errors.Is(err, domain.ErrNoRecipe) {
		t.Fatalf("expected ErrNoRecipe, got %v", err)
	}
	if _, err := eng.Advance(); !errors.Is(err, domain.ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
}

func TestAdvanceSteps(t *testing.T) {
	eng, tracker, ctx := setupEngine(t)

	if _, err := eng.Select(ctx, "vegetable-stir-fry"); err != nil {
		t.Fatalf("select: %v", err)
	}
	first, err := eng.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if first.Order != 1 {
		t.Fatalf("expected step 1, got %d", first.Order)
	}
	if c := tracker.Snapshot(); c.Phase != domain.PhaseActiveTask || c.CurrentStep != 1 {
		t.Fatalf("unexpected context after start: %+v", c)
	}

	// Vegetable stir fry has 5 steps. Advance through the rest.
	for i := 0; i < 4; i++ {
		step, err := eng.Advance()
		if err != nil {
			t.Fatalf("advance step %d: %v", i+2, err)
		}
		if step.Order != i+2 {
			t.Fatalf("expected step order %d, got %d", i+2, step.Order)
		}
		if got := tracker.Snapshot().CurrentStep; got != i+2 {
			t.Fatalf("tracker step = %d, want %d", got, i+2)
		}
	}

	// One more advance completes the walkthrough.
	if _, err := eng.Advance(); !errors.Is(err, domain.ErrNoMoreSteps) {
		t.Fatalf("expected ErrNoMoreSteps, got %v", err)
	}
	if eng.Progress().State != StateDone {
		t.Fatalf("expected done, got %s", eng.Progress().State)
	}
	c := tracker.Snapshot()
	if c.Phase != domain.PhaseCompleted || c.ListeningPolicy != domain.ListeningIdle {
		t.Fatalf("unexpected context after completion: %+v", c)
	}
}

func TestBack(t *testing.T) {
	eng, tracker, ctx := setupEngine(t)

	eng.Select(ctx, "chicken-alfredo")
	eng.Start()

	if _, err := eng.Back(); !errors.Is(err, domain.ErrNoPreviousStep) {
		t.Fatalf("expected ErrNoPreviousStep, got %v", err)
	}

	eng.Advance()
	eng.Advance()
	step, err := eng.Back()
	if err != nil {
		t.Fatalf("back: %v", err)
	}
	if step.Order != 2 || tracker.Snapshot().CurrentStep != 2 {
		t.Fatalf("expected step 2, got %d (tracker %d)", step.Order, tracker.Snapshot().CurrentStep)
	}
}

func TestPauseResume(t *testing.T) {
	eng, tracker, ctx := setupEngine(t)

	eng.Select(ctx, "chicken-alfredo")
	eng.Start()
	eng.Advance()

	if err := eng.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if c := tracker.Snapshot(); c.Phase != domain.PhasePaused || c.ListeningPolicy != domain.ListeningWakeWord {
		t.Fatalf("unexpected context while paused: %+v", c)
	}

	// Can't advance while paused, but the current step is still known.
	if _, err := eng.Advance(); !errors.Is(err, domain.ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
	if cur, err := eng.Current(); err != nil || cur.Order != 2 {
		t.Fatalf("current = %d, %v", cur.Order, err)
	}

	step, err := eng.Resume()
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if step.Order != 2 {
		t.Fatalf("expected to resume at step 2, got %d", step.Order)
	}
	if c := tracker.Snapshot(); c.Phase != domain.PhaseActiveTask || c.CurrentStep != 2 {
		t.Fatalf("unexpected context after resume: %+v", c)
	}
	if _, err := eng.Resume(); !errors.Is(err, domain.ErrNotActive) {
		t.Fatalf("expected ErrNotActive on double resume, got %v", err)
	}
}

func TestTipCycles(t *testing.T) {
	eng, _, ctx := setupEngine(t)

	eng.Select(ctx, "vegetable-stir-fry")
	eng.Start()

	tip, err := eng.Tip()
	if err != nil || tip == "" {
		t.Fatalf("tip = %q, %v", tip, err)
	}
	again, _ := eng.Tip()
	if again != tip {
		t.Fatalf("single tip should repeat, got %q then %q", tip, again)
	}

	// Step 2 has no tips.
	eng.Advance()
	if _, err := eng.Tip(); !errors.Is(err, domain.ErrNoTips) {
		t.Fatalf("expected ErrNoTips, got %v", err)
	}
}

func TestAbandon(t *testing.T) {
	eng, tracker, ctx := setupEngine(t)

	eng.Select(ctx, "vegetable-stir-fry")
	eng.Start()
	tracker.Update(conversation.Struggling(true))

	eng.Abandon()

	if p := eng.Progress(); p.State != StateIdle || p.RecipeID != "" {
		t.Fatalf("unexpected progress after abandon: %+v", p)
	}
	c := tracker.Snapshot()
	if c.Phase != domain.PhaseBrowsing || c.UserStruggling || c.TotalSteps != 0 {
		t.Fatalf("unexpected context after abandon: %+v", c)
	}
}
