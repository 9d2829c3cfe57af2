// Package content provides the built-in persona, phrase and recipe source.
package content

import (
	"context"
	"sort"
	"sync"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// Compile-time interface check.
var _ domain.ContentSource = (*MemorySource)(nil)

// MemorySource holds personas, phrases and recipes in memory. Safe for
// concurrent reads. Callers receive copies and may not mutate the source.
type MemorySource struct {
	mu       sync.RWMutex
	personas map[string]domain.Persona
	phrases  []domain.CachedPhrase // table order is preserved
	recipes  map[string]*domain.Recipe
	log      *logger.Logger
}

// NewMemorySource creates a source preloaded with the built-in content.
func NewMemorySource(log *logger.Logger) *MemorySource {
	src := &MemorySource{
		personas: make(map[string]domain.Persona),
		recipes:  make(map[string]*domain.Recipe),
		log:      log,
	}
	src.seed()
	return src
}

// Persona returns a persona by ID.
func (s *MemorySource) Persona(ctx context.Context, id string) (*domain.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.personas[id]
	if !ok {
		s.log.Debug("persona not found: %s", id)
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

// Personas returns every persona sorted by ID.
func (s *MemorySource) Personas(ctx context.Context) ([]domain.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Persona, 0, len(s.personas))
	for _, p := range s.personas {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Phrases returns the phrase table for a persona. An empty personaID
// returns the whole table.
func (s *MemorySource) Phrases(ctx context.Context, personaID string) ([]domain.CachedPhrase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.CachedPhrase
	for _, p := range s.phrases {
		if personaID == "" || p.PersonaID == personaID {
			p.Tags = append([]string(nil), p.Tags...)
			out = append(out, p)
		}
	}
	return out, nil
}

// Recipes returns summaries of all recipes sorted by name.
func (s *MemorySource) Recipes(ctx context.Context) ([]domain.RecipeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.log.Debug("listing all recipes, count=%d", len(s.recipes))

	out := make([]domain.RecipeSummary, 0, len(s.recipes))
	for _, r := range s.recipes {
		out = append(out, domain.RecipeSummary{ID: r.ID, Name: r.Name, Steps: len(r.Steps)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Recipe returns a recipe by ID.
func (s *MemorySource) Recipe(ctx context.Context, id string) (*domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[id]
	if !ok {
		s.log.Debug("recipe not found: %s", id)
		return nil, domain.ErrNotFound
	}
	cp := *r
	cp.Steps = make([]domain.Step, len(r.Steps))
	for i, st := range r.Steps {
		st.Tips = append([]string(nil), st.Tips...)
		cp.Steps[i] = st
	}
	return &cp, nil
}

func (s *MemorySource) seed() {
	for _, p := range builtinPersonas() {
		s.personas[p.ID] = p
	}
	s.phrases = builtinPhrases()
	for _, r := range builtinRecipes() {
		s.recipes[r.ID] = r
	}
	s.log.Debug("seeded %d personas, %d phrases, %d recipes",
		len(s.personas), len(s.phrases), len(s.recipes))
}
