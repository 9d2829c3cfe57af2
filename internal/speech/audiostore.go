package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// DefaultAudioStoreSize is the number of clips kept in memory.
const DefaultAudioStoreSize = 256

// AudioStore is a thread-safe, bounded in-memory store of synthesized
// audio. The key is sha256(voice + ":" + text), so the same text in a
// different voice is a different clip. Keys double as the opaque audio
// refs handed to the phrase cache; an evicted ref simply misses and the
// clip is synthesized again.
type AudioStore struct {
	clips  *lru.Cache[string, []byte]
	log    *logger.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// NewAudioStore creates a store holding up to size clips. Non-positive
// sizes use DefaultAudioStoreSize.
func NewAudioStore(size int, log *logger.Logger) *AudioStore {
	if size <= 0 {
		size = DefaultAudioStoreSize
	}
	// size is positive, so New cannot fail.
	clips, _ := lru.New[string, []byte](size)
	return &AudioStore{clips: clips, log: log}
}

// Ref returns the audio ref for text spoken in voice.
func Ref(voice, text string) string {
	h := sha256.Sum256([]byte(voice + ":" + text))
	return hex.EncodeToString(h[:])
}

// Get returns the clip stored under ref.
func (s *AudioStore) Get(ref string) ([]byte, bool) {
	if ref == "" {
		return nil, false
	}
	data, ok := s.clips.Get(ref)
	if !ok {
		s.misses.Add(1)
		return nil, false
	}
	s.hits.Add(1)
	s.log.Debug("audio hit: %s (%d bytes)", ref[:12], len(data))
	return data, true
}

// Lookup returns the clip for text in voice.
func (s *AudioStore) Lookup(voice, text string) ([]byte, bool) {
	return s.Get(Ref(voice, text))
}

// Put stores a clip and returns its ref.
func (s *AudioStore) Put(voice, text string, audio []byte) string {
	ref := Ref(voice, text)
	s.clips.Add(ref, audio)
	s.log.Debug("audio store: %s (%d bytes, %d clips)", truncate(text, 40), len(audio), s.clips.Len())
	return ref
}

// Has reports whether ref is stored, without touching recency.
func (s *AudioStore) Has(ref string) bool {
	return s.clips.Contains(ref)
}

// Len returns the number of stored clips.
func (s *AudioStore) Len() int { return s.clips.Len() }

// Stats returns hit and miss counts.
func (s *AudioStore) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// Clear empties the store.
func (s *AudioStore) Clear() {
	s.clips.Purge()
	s.hits.Store(0)
	s.misses.Store(0)
	s.log.Debug("audio store cleared")
}
