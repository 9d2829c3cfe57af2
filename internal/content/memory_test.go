package content

import (
	"context"
	"errors"
	"testing"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

func TestMemorySourcePersonas(t *testing.T) {
	src := NewMemorySource(logger.New(logger.LevelOff, nil))
	ctx := context.Background()

	all, err := src.Personas(ctx)
	if err != nil {
		t.Fatalf("personas: %v", err)
	}
	if len(all) != 2 || all[0].ID != PersonaNonna || all[1].ID != PersonaOtto {
		t.Fatalf("unexpected personas: %+v", all)
	}

	for _, p := range all {
		if p.Voice == "" || p.StepTemplate == "" || p.TipTemplate == "" {
			t.Fatalf("persona %s is missing voice or templates", p.ID)
		}
		if len(p.Encouragements) == 0 || p.AttentionPrompt == "" {
			t.Fatalf("persona %s is missing encouragement or attention prompt", p.ID)
		}
		for _, kind := range []domain.InstantKind{
			domain.InstantGreeting, domain.InstantNextStep, domain.InstantHelp, domain.InstantEncouragement,
		} {
			if p.Instant[kind] == "" {
				t.Fatalf("persona %s has no %s instant line", p.ID, kind)
			}
		}
	}

	if _, err := src.Persona(ctx, "nobody"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemorySourcePhrases(t *testing.T) {
	src := NewMemorySource(logger.New(logger.LevelOff, nil))
	ctx := context.Background()

	otto, _ := src.Phrases(ctx, PersonaOtto)
	all, _ := src.Phrases(ctx, "")
	if len(otto) == 0 || len(all) <= len(otto) {
		t.Fatalf("otto=%d all=%d", len(otto), len(all))
	}

	seen := make(map[string]bool)
	for _, p := range all {
		if seen[p.ID] {
			t.Fatalf("duplicate phrase id %s", p.ID)
		}
		seen[p.ID] = true
		if _, err := src.Persona(ctx, p.PersonaID); err != nil {
			t.Fatalf("phrase %s has unknown persona %s", p.ID, p.PersonaID)
		}
		if p.Priority < 0 || p.Priority > 10 {
			t.Fatalf("phrase %s priority %d out of range", p.ID, p.Priority)
		}
	}

	// Returned tags are copies.
	otto[1].Tags[0] = "mutated"
	again, _ := src.Phrases(ctx, PersonaOtto)
	if again[1].Tags[0] == "mutated" {
		t.Fatal("phrase tags leaked to the caller")
	}
}

func TestMemorySourceRecipes(t *testing.T) {
	src := NewMemorySource(logger.New(logger.LevelOff, nil))
	ctx := context.Background()

	list, err := src.Recipes(ctx)
	if err != nil {
		t.Fatalf("recipes: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Chicken Alfredo" {
		t.Fatalf("unexpected recipes: %+v", list)
	}

	tests := []struct {
		id      string
		wantErr error
	}{
		{"chicken-alfredo", nil},
		{"vegetable-stir-fry", nil},
		{"nonexistent", domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			r, err := src.Recipe(ctx, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i, s := range r.Steps {
				if s.Order != i+1 {
					t.Fatalf("step %d has order %d", i, s.Order)
				}
			}
		})
	}
}
