package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// Compile-time interface check.
var _ domain.FallbackSynthesizer = (*LocalSynth)(nil)

// Base speaking rates in words per minute used to scale FallbackParams.Rate.
const (
	sayBaseRate    = 175
	espeakBaseRate = 160
)

// LocalOption configures the LocalSynth.
type LocalOption func(*LocalSynth)

// WithCandidates sets the speech binaries probed in order. Defaults to
// say, espeak-ng, espeak.
func WithCandidates(names ...string) LocalOption {
	return func(s *LocalSynth) {
		s.candidates = names
	}
}

// LocalSynth speaks text with the device's own text-to-speech command.
// When no supported command is installed it is a silent no-op.
type LocalSynth struct {
	log        *logger.Logger
	candidates []string

	once sync.Once
	bin  string // resolved binary path, empty when unavailable
	kind string // "say" or "espeak"
}

// NewLocalSynth creates a local fallback synthesizer. The binary is
// resolved lazily on first use.
func NewLocalSynth(log *logger.Logger, opts ...LocalOption) *LocalSynth {
	s := &LocalSynth{
		log:        log,
		candidates: []string{"say", "espeak-ng", "espeak"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Available reports whether a speech command was found.
func (s *LocalSynth) Available() bool {
	s.resolve()
	return s.bin != ""
}

func (s *LocalSynth) resolve() {
	s.once.Do(func() {
		for _, name := range s.candidates {
			path, err := exec.LookPath(name)
			if err != nil || strings.TrimSpace(path) == "" {
				continue
			}
			s.bin = path
			s.kind = "espeak"
			if name == "say" {
				s.kind = "say"
			}
			s.log.Debug("local synth: using %s", path)
			return
		}
		s.log.Info("local synth: no speech command found, fallback voice is silent")
	})
}

// Speak blocks until the text has been spoken or ctx is cancelled.
// Cancellation is not an error.
func (s *LocalSynth) Speak(ctx context.Context, text string, params domain.FallbackParams) error {
	s.resolve()
	if s.bin == "" || strings.TrimSpace(text) == "" {
		s.log.Debug("local synth: would say %q", truncate(text, 60))
		return nil
	}

	cmd := exec.CommandContext(ctx, s.bin, s.args(text, params)...)
	out, err := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("local synth exited %d: %s", exitErr.ExitCode(), strings.TrimSpace(string(out)))
		}
		return fmt.Errorf("local synth: %w", err)
	}
	return nil
}

func (s *LocalSynth) args(text string, p domain.FallbackParams) []string {
	rate := p.Rate
	if rate <= 0 {
		rate = 1
	}
	switch s.kind {
	case "say":
		// say has no volume flag; volume is left to the system mixer.
		return []string{"-r", strconv.Itoa(int(sayBaseRate * rate)), text}
	default:
		vol := p.Volume
		if vol <= 0 {
			vol = 1
		}
		amplitude := int(100 * vol)
		if amplitude > 200 {
			amplitude = 200
		}
		return []string{"-s", strconv.Itoa(int(espeakBaseRate * rate)), "-a", strconv.Itoa(amplitude), text}
	}
}
