// Package engine walks the user through a recipe one step at a time and
// keeps the conversation context in step with where they are.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/hammamikhairi/ottovoice/internal/conversation"
	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// ContextUpdater receives phase and step changes. *conversation.Tracker
// satisfies it.
type ContextUpdater interface {
	Update(changes ...conversation.Change) domain.ConversationContext
}

// State is where the walkthrough stands.
type State string

const (
	StateIdle     State = "idle"
	StateSelected State = "selected"
	StateActive   State = "active"
	StatePaused   State = "paused"
	StateDone     State = "done"
)

// Progress is a snapshot of the walkthrough.
type Progress struct {
	State      State
	RecipeID   string
	RecipeName string
	Step       int // 1-based, 0 before the walkthrough starts
	TotalSteps int
}

// Engine drives a single recipe walkthrough. It depends only on
// interfaces and is fully testable with fakes.
type Engine struct {
	recipes domain.ContentSource
	updater ContextUpdater
	log     *logger.Logger

	mu     sync.Mutex
	recipe *domain.Recipe
	state  State
	idx    int         // 0-based current step
	tips   map[int]int // next tip index per step
}

// New creates a walkthrough engine.
func New(recipes domain.ContentSource, updater ContextUpdater, log *logger.Logger) *Engine {
	return &Engine{
		recipes: recipes,
		updater: updater,
		log:     log,
		state:   StateIdle,
		tips:    make(map[int]int),
	}
}

// ListRecipes returns all available recipes.
func (e *Engine) ListRecipes(ctx context.Context) ([]domain.RecipeSummary, error) {
	return e.recipes.Recipes(ctx)
}

// Select loads a recipe and moves the conversation to pre-task. ref is a
// recipe ID or a 1-based position in ListRecipes.
func (e *Engine) Select(ctx context.Context, ref string) (*domain.Recipe, error) {
	r, err := e.recipes.Recipe(ctx, ref)
	if errors.Is(err, domain.ErrNotFound) {
		if n, convErr := strconv.Atoi(ref); convErr == nil {
			r, err = e.byPosition(ctx, n)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("getting recipe %q: %w", ref, err)
	}
	if len(r.Steps) == 0 {
		return nil, fmt.Errorf("recipe %q has no steps", r.ID)
	}

	e.mu.Lock()
	e.recipe = r
	e.state = StateSelected
	e.idx = 0
	e.tips = make(map[int]int)
	e.mu.Unlock()

	e.updater.Update(
		conversation.Phase(domain.PhasePreTask),
		conversation.Step(0, len(r.Steps)),
		conversation.Struggling(false),
	)
	e.log.Info("selected recipe %q (%d steps)", r.Name, len(r.Steps))
	return r, nil
}

func (e *Engine) byPosition(ctx context.Context, n int) (*domain.Recipe, error) {
	list, err := e.recipes.Recipes(ctx)
	if err != nil {
		return nil, err
	}
	if n < 1 || n > len(list) {
		return nil, domain.ErrNotFound
	}
	return e.recipes.Recipe(ctx, list[n-1].ID)
}

// Start begins the walkthrough at step one. Starting an active
// walkthrough returns the current step.
func (e *Engine) Start() (domain.Step, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateIdle:
		return domain.Step{}, domain.ErrNoRecipe
	case StateActive, StatePaused:
		return e.recipe.Steps[e.idx], nil
	}

	e.state = StateActive
	e.idx = 0
	e.updater.Update(
		conversation.Phase(domain.PhaseActiveTask),
		conversation.Step(1, len(e.recipe.Steps)),
	)
	e.log.Info("started %q", e.recipe.Name)
	return e.recipe.Steps[0], nil
}

// Advance moves to the next step. Advancing past the last step completes
// the walkthrough and returns ErrNoMoreSteps.
func (e *Engine) Advance() (domain.Step, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateActive {
		return domain.Step{}, domain.ErrNotActive
	}
	if e.idx+1 >= len(e.recipe.Steps) {
		e.state = StateDone
		e.updater.Update(conversation.Phase(domain.PhaseCompleted), conversation.Struggling(false))
		e.log.Info("completed %q", e.recipe.Name)
		return domain.Step{}, domain.ErrNoMoreSteps
	}

	e.idx++
	e.updater.Update(conversation.CurrentStep(e.idx + 1))
	e.log.Debug("advanced to step %d/%d", e.idx+1, len(e.recipe.Steps))
	return e.recipe.Steps[e.idx], nil
}

// Back returns to the previous step.
func (e *Engine) Back() (domain.Step, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateActive {
		return domain.Step{}, domain.ErrNotActive
	}
	if e.idx == 0 {
		return e.recipe.Steps[0], domain.ErrNoPreviousStep
	}

	e.idx--
	e.updater.Update(conversation.CurrentStep(e.idx + 1))
	e.log.Debug("back to step %d/%d", e.idx+1, len(e.recipe.Steps))
	return e.recipe.Steps[e.idx], nil
}

// Current returns the step the user is on.
func (e *Engine) Current() (domain.Step, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateActive && e.state != StatePaused {
		return domain.Step{}, domain.ErrNotActive
	}
	return e.recipe.Steps[e.idx], nil
}

// Tip returns the next tip for the current step, cycling through them.
func (e *Engine) Tip() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateActive && e.state != StatePaused {
		return "", domain.ErrNotActive
	}
	tips := e.recipe.Steps[e.idx].Tips
	if len(tips) == 0 {
		return "", domain.ErrNoTips
	}
	i := e.tips[e.idx]
	e.tips[e.idx] = (i + 1) % len(tips)
	return tips[i], nil
}

// Pause suspends an active walkthrough.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateActive {
		return domain.ErrNotActive
	}
	e.state = StatePaused
	e.updater.Update(conversation.Phase(domain.PhasePaused))
	e.log.Info("paused at step %d", e.idx+1)
	return nil
}

// Resume continues a paused walkthrough and returns the current step.
func (e *Engine) Resume() (domain.Step, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StatePaused {
		return domain.Step{}, domain.ErrNotActive
	}
	e.state = StateActive
	e.updater.Update(
		conversation.Phase(domain.PhaseActiveTask),
		conversation.Step(e.idx+1, len(e.recipe.Steps)),
	)
	e.log.Info("resumed at step %d", e.idx+1)
	return e.recipe.Steps[e.idx], nil
}

// Abandon drops the recipe and returns to browsing.
func (e *Engine) Abandon() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.recipe != nil {
		e.log.Info("abandoned %q", e.recipe.Name)
	}
	e.recipe = nil
	e.state = StateIdle
	e.idx = 0
	e.updater.Update(
		conversation.Phase(domain.PhaseBrowsing),
		conversation.Step(0, 0),
		conversation.Struggling(false),
	)
}

// Progress returns a snapshot of the walkthrough.
func (e *Engine) Progress() Progress {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := Progress{State: e.state}
	if e.recipe == nil {
		return p
	}
	p.RecipeID = e.recipe.ID
	p.RecipeName = e.recipe.Name
	p.TotalSteps = len(e.recipe.Steps)
	if e.state != StateSelected {
		p.Step = e.idx + 1
	}
	return p
}
