package phrase

import (
	"fmt"
	"testing"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

func newTestCache(t *testing.T, opts ...Option) *Cache {
	t.Helper()
	return New(logger.New(logger.LevelOff, nil), opts...)
}

func TestFindMatch(t *testing.T) {
	c := newTestCache(t)
	c.Preload(
		domain.CachedPhrase{ID: "p1_next", PersonaID: "p1", Text: "Onward!", Category: domain.CategoryInstruction, Priority: 8},
		domain.CachedPhrase{ID: "p1_timer", PersonaID: "p1", Text: "Your timer is done.", Category: domain.CategoryTimer, Priority: 6},
		domain.CachedPhrase{ID: "p1_hello", PersonaID: "p1", Text: "Hello there", Category: domain.CategoryGreeting, Priority: 5},
		domain.CachedPhrase{ID: "p2_next", PersonaID: "p2", Text: "Avanti!", Category: domain.CategoryInstruction, Priority: 9},
	)

	tests := []struct {
		name    string
		text    string
		persona string
		wantID  string // empty means no match
	}{
		{"keyword next", "what's next step", "p1", "p1_next"},
		{"keyword timer", "is the timer finished", "p1", "p1_timer"},
		{"full text case-insensitive", "well HELLO THERE friend", "p1", "p1_hello"},
		{"other persona", "what's next", "p2", "p2_next"},
		{"below threshold", "tell me about tomatoes", "p1", ""},
		{"unknown persona", "what's next", "nobody", ""},
		{"empty input", "", "p1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.FindMatch(tt.text, tt.persona)
			if tt.wantID == "" {
				if got != nil {
					t.Fatalf("expected no match, got %s", got.ID)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected %s, got nil", tt.wantID)
			}
			if got.ID != tt.wantID {
				t.Fatalf("expected %s, got %s", tt.wantID, got.ID)
			}
		})
	}
}

func TestFindMatchDeterministic(t *testing.T) {
	c := newTestCache(t)
	c.Preload(
		domain.CachedPhrase{ID: "a", PersonaID: "persona-A", Text: "Next up.", Category: domain.CategoryInstruction, Priority: 8},
		domain.CachedPhrase{ID: "b", PersonaID: "persona-A", Text: "Moving on.", Tags: []string{"next-step"}, Priority: 8},
		domain.CachedPhrase{ID: "c", PersonaID: "persona-A", Text: "Keep going.", Category: domain.CategoryEncouragement, Priority: 9},
	)

	first := c.FindMatch("what's next", "persona-A")
	if first == nil {
		t.Fatal("expected a match")
	}
	for i := 0; i < 50; i++ {
		got := c.FindMatch("what's next", "persona-A")
		if got == nil || got.ID != first.ID {
			t.Fatalf("call %d returned %v, want %s", i, got, first.ID)
		}
	}
	// a and b tie at 38; a was inserted first.
	if first.ID != "a" {
		t.Fatalf("expected tie to go to first inserted phrase, got %s", first.ID)
	}
}

func TestScoreComponents(t *testing.T) {
	m := DefaultMatchConfig()
	p := domain.CachedPhrase{ID: "x", Text: "Onward!", Category: domain.CategoryInstruction, Priority: 8}

	tests := []struct {
		text string
		want int
	}{
		{"nothing relevant", 8},
		{"what's next", 38},
		{"onward", 108},
		{"onward, what's next", 138},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := m.Score(tt.text, p); got != tt.want {
				t.Fatalf("Score(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestAddEvictsLeastRecentlyUsed(t *testing.T) {
	c := newTestCache(t, WithCapacity(2))
	c.Preload(domain.CachedPhrase{ID: "pinned", PersonaID: "p", Text: "Always here", Priority: 9})

	c.Add(domain.CachedPhrase{ID: "d1", PersonaID: "p", Text: "one"})
	c.Add(domain.CachedPhrase{ID: "d2", PersonaID: "p", Text: "two"})

	// Touch d1 so d2 becomes the eviction candidate.
	if got := c.FindMatch("one", "p"); got == nil || got.ID != "d1" {
		t.Fatalf("expected d1 match, got %v", got)
	}

	c.Add(domain.CachedPhrase{ID: "d3", PersonaID: "p", Text: "three"})

	if _, ok := c.Get("d2"); ok {
		t.Fatal("expected d2 to be evicted")
	}
	for _, id := range []string{"pinned", "d1", "d3"} {
		if _, ok := c.Get(id); !ok {
			t.Fatalf("expected %s to survive eviction", id)
		}
	}
	if c.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", c.Len())
	}
}

func TestPreloadedHighPriorityExempt(t *testing.T) {
	c := newTestCache(t, WithCapacity(3), WithPreloadThreshold(7))

	var table []domain.CachedPhrase
	for i := 0; i < 5; i++ {
		table = append(table, domain.CachedPhrase{ID: fmt.Sprintf("hi%d", i), PersonaID: "p", Text: fmt.Sprintf("high %d", i), Priority: 8})
	}
	table = append(table, domain.CachedPhrase{ID: "low", PersonaID: "p", Text: "low one", Priority: 2})
	c.Preload(table...)

	for i := 0; i < 10; i++ {
		c.Add(domain.CachedPhrase{ID: fmt.Sprintf("dyn%d", i), PersonaID: "p", Text: fmt.Sprintf("dynamic %d", i)})
	}

	for i := 0; i < 5; i++ {
		if _, ok := c.Get(fmt.Sprintf("hi%d", i)); !ok {
			t.Fatalf("pinned phrase hi%d was evicted", i)
		}
	}
	if _, ok := c.Get("low"); ok {
		t.Fatal("expected low-priority preloaded phrase to be evictable")
	}
	if c.Len() != 5+3 {
		t.Fatalf("expected 8 entries, got %d", c.Len())
	}
}

func TestMarkSynthesized(t *testing.T) {
	c := newTestCache(t)
	c.Preload(domain.CachedPhrase{ID: "p1_next", PersonaID: "p1", Text: "Onward!", Priority: 8, PreGenerated: true})

	if got := c.Pending(); len(got) != 1 {
		t.Fatalf("expected 1 pending phrase, got %d", len(got))
	}

	c.MarkSynthesized("p1_next", "ref-1")
	c.MarkSynthesized("p1_next", "ref-1")
	c.MarkSynthesized("missing", "ref-2") // no-op

	p, ok := c.Get("p1_next")
	if !ok || p.AudioRef != "ref-1" {
		t.Fatalf("expected ref-1, got %+v", p)
	}
	if got := c.Pending(); len(got) != 0 {
		t.Fatalf("expected no pending phrases, got %d", len(got))
	}

	c.MarkSynthesized("p1_next", "ref-3")
	p, _ = c.Get("p1_next")
	if p.AudioRef != "ref-3" {
		t.Fatalf("expected ref replaced wholesale, got %q", p.AudioRef)
	}
}

func TestAddReplacesInPlace(t *testing.T) {
	c := newTestCache(t)
	c.Add(domain.CachedPhrase{ID: "a", PersonaID: "p", Text: "Carry on", Category: domain.CategoryInstruction, Priority: 5})
	c.Add(domain.CachedPhrase{ID: "b", PersonaID: "p", Text: "Keep on", Category: domain.CategoryInstruction, Priority: 5})
	c.Add(domain.CachedPhrase{ID: "a", PersonaID: "p", Text: "Go on", Category: domain.CategoryInstruction, Priority: 5})

	// a keeps its original insertion slot, so it still wins the tie.
	got := c.FindMatch("next", "p")
	if got == nil || got.ID != "a" || got.Text != "Go on" {
		t.Fatalf("expected replaced a, got %+v", got)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
}

func TestClear(t *testing.T) {
	c := newTestCache(t)
	c.Preload(domain.CachedPhrase{ID: "a", PersonaID: "p", Text: "Hello", Category: domain.CategoryGreeting, Priority: 9})
	c.Add(domain.CachedPhrase{ID: "b", PersonaID: "p", Text: "Hey you", Category: domain.CategoryGreeting})
	c.FindMatch("hello", "p")

	c.Clear()

	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Len())
	}
	if got := c.FindMatch("hello", "p"); got != nil {
		t.Fatalf("expected no match after clear, got %s", got.ID)
	}
	if hits, _ := c.Stats(); hits != 0 {
		t.Fatalf("expected hits reset, got %d", hits)
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"What's NEXT?":      "what's next",
		"  Onward!!  ":      "onward",
		"step-by-step":      "step by step",
		"it’s done":         "it's done",
		"'quoted' text":     "quoted text",
		"":                  "",
		"timer: 5 minutes.": "timer 5 minutes",
	}
	for in, want := range tests {
		if got := normalize(in); got != want {
			t.Errorf("normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
