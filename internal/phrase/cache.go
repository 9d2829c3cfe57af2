// Package phrase implements the persona phrase cache: a small in-memory
// knowledge base of canned lines with a deterministic scored matcher.
package phrase

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// Default bounds.
const (
	DefaultCapacity         = 100
	DefaultPreloadThreshold = 7
)

// Option configures the Cache.
type Option func(*Cache)

// WithCapacity sets how many evictable phrases the cache holds before the
// least recently used one is dropped.
func WithCapacity(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithPreloadThreshold sets the priority at or above which preloaded
// phrases are pinned and never evicted.
func WithPreloadThreshold(p int) Option {
	return func(c *Cache) {
		c.preloadThreshold = p
	}
}

// WithMatchConfig replaces the matcher weights.
func WithMatchConfig(m MatchConfig) Option {
	return func(c *Cache) {
		c.match = m
	}
}

type entry struct {
	phrase domain.CachedPhrase
	seq    uint64 // insertion order, for tie-breaking
	pinned bool
}

// Cache stores canned phrases per persona. Reads take a shared lock;
// writes are serialized. Pinned entries live outside the LRU.
type Cache struct {
	log              *logger.Logger
	capacity         int
	preloadThreshold int
	match            MatchConfig

	mu        sync.RWMutex
	entries   map[string]*entry
	byPersona map[string][]*entry // insertion order
	lru       *simplelru.LRU[string, struct{}]
	seq       uint64

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates an empty phrase cache.
func New(log *logger.Logger, opts ...Option) *Cache {
	c := &Cache{
		log:              log,
		capacity:         DefaultCapacity,
		preloadThreshold: DefaultPreloadThreshold,
		match:            DefaultMatchConfig(),
		entries:          make(map[string]*entry),
		byPersona:        make(map[string][]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	// capacity is always positive here, so NewLRU cannot fail.
	c.lru, _ = simplelru.NewLRU[string, struct{}](c.capacity, c.onEvict)
	return c
}

// Preload inserts the startup phrase table. Phrases at or above the
// preload threshold are pinned; the rest are evictable like Add.
func (c *Cache) Preload(phrases ...domain.CachedPhrase) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pinned := 0
	for _, p := range phrases {
		pin := p.Priority >= c.preloadThreshold
		if pin {
			pinned++
		}
		c.insertLocked(p, pin)
	}
	c.log.Debug("preloaded %d phrases (%d pinned, %d total)", len(phrases), pinned, len(c.entries))
}

// Add inserts or replaces an evictable phrase. Once more than capacity
// evictable phrases are held, the least recently used one is dropped.
func (c *Cache) Add(p domain.CachedPhrase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.insertLocked(p, false)
}

// insertLocked must be called with c.mu held. An existing id keeps its
// insertion order; a pinned entry is never unpinned.
func (c *Cache) insertLocked(p domain.CachedPhrase, pin bool) {
	if e, ok := c.entries[p.ID]; ok && e.phrase.PersonaID == p.PersonaID {
		e.phrase = p
		if e.pinned {
			return
		}
		if pin {
			// Mark first so the eviction callback leaves the entry alone.
			e.pinned = true
			c.lru.Remove(p.ID)
			return
		}
		c.lru.Add(p.ID, struct{}{})
		return
	} else if ok {
		// Same id moved to another persona: drop the old placement.
		e.pinned = false
		c.lru.Remove(p.ID)
		c.removeLocked(p.ID)
	}

	c.seq++
	e := &entry{phrase: p, seq: c.seq, pinned: pin}
	c.entries[p.ID] = e
	c.byPersona[p.PersonaID] = append(c.byPersona[p.PersonaID], e)
	if !pin {
		c.lru.Add(p.ID, struct{}{})
	}
}

// onEvict runs inside LRU mutations, which only happen with c.mu held.
func (c *Cache) onEvict(id string, _ struct{}) {
	if e, ok := c.entries[id]; ok && !e.pinned {
		c.log.Debug("evicted phrase %s", id)
		c.removeLocked(id)
	}
}

// removeLocked must be called with c.mu held.
func (c *Cache) removeLocked(id string) {
	e, ok := c.entries[id]
	if !ok {
		return
	}
	delete(c.entries, id)
	list := c.byPersona[e.phrase.PersonaID]
	for i, x := range list {
		if x == e {
			c.byPersona[e.phrase.PersonaID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(c.byPersona[e.phrase.PersonaID]) == 0 {
		delete(c.byPersona, e.phrase.PersonaID)
	}
}

// FindMatch returns the best phrase of personaID for text, or nil when
// nothing scores at or above the threshold. Ties go to the phrase that was
// inserted first. The returned value is a copy.
func (c *Cache) FindMatch(text, personaID string) *domain.CachedPhrase {
	q := newQuery(text)

	c.mu.RLock()
	var best *entry
	bestScore := 0
	for _, e := range c.byPersona[personaID] {
		s := c.match.score(q, e.phrase)
		if s < c.match.Threshold {
			continue
		}
		if best == nil || s > bestScore {
			best, bestScore = e, s
		}
	}
	var out *domain.CachedPhrase
	var touch bool
	if best != nil {
		p := best.phrase
		out = &p
		touch = !best.pinned
	}
	c.mu.RUnlock()

	if out == nil {
		c.misses.Add(1)
		c.log.Debug("no match for %q (persona=%s)", text, personaID)
		return nil
	}
	c.hits.Add(1)

	if touch {
		c.mu.Lock()
		c.lru.Get(out.ID)
		c.mu.Unlock()
	}
	c.log.Debug("matched %q -> %s (score=%d)", text, out.ID, bestScore)
	return out
}

// MarkSynthesized records synthesized audio for a phrase. The previous
// ref, if any, is replaced wholesale. Unknown ids are ignored.
func (c *Cache) MarkSynthesized(id, audioRef string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return
	}
	e.phrase.AudioRef = audioRef
}

// Get returns a copy of the phrase with the given id.
func (c *Cache) Get(id string) (domain.CachedPhrase, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[id]
	if !ok {
		return domain.CachedPhrase{}, false
	}
	return e.phrase, true
}

// Pending returns pregenerated phrases that have no audio yet, in
// insertion order.
func (c *Cache) Pending() []domain.CachedPhrase {
	type pending struct {
		seq    uint64
		phrase domain.CachedPhrase
	}

	c.mu.RLock()
	var list []pending
	for _, e := range c.entries {
		if e.phrase.PreGenerated && e.phrase.AudioRef == "" {
			list = append(list, pending{seq: e.seq, phrase: e.phrase})
		}
	}
	c.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].seq < list[j].seq })
	out := make([]domain.CachedPhrase, len(list))
	for i, p := range list {
		out[i] = p.phrase
	}
	return out
}

// Len returns the number of phrases held, pinned included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns match hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Clear drops every phrase, pinned ones included.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.byPersona = make(map[string][]*entry)
	c.lru.Purge()
	c.mu.Unlock()
	c.hits.Store(0)
	c.misses.Store(0)
	c.log.Debug("phrase cache cleared")
}
