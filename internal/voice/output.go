package voice

import (
	"context"
	"fmt"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
	"github.com/hammamikhairi/ottovoice/internal/playback"
)

// Compile-time interface check.
var _ playback.Player = (*Output)(nil)

// Output routes an utterance to the right sink: synthesized clips go to
// the audio device, utterances without clips to the fallback voice.
type Output struct {
	device   domain.AudioDevice
	fallback domain.FallbackSynthesizer
	params   domain.FallbackParams
	log      *logger.Logger
}

// NewOutput creates an output. Either sink may be nil; a nil device sends
// everything to the fallback voice, and a nil fallback is silent.
func NewOutput(device domain.AudioDevice, fallback domain.FallbackSynthesizer, params domain.FallbackParams, log *logger.Logger) *Output {
	if params.Rate <= 0 {
		params.Rate = 1
	}
	if params.Volume <= 0 {
		params.Volume = 1
	}
	return &Output{device: device, fallback: fallback, params: params, log: log}
}

// Play blocks until u has been spoken or ctx is cancelled. Cancellation
// is not an error.
func (o *Output) Play(ctx context.Context, u *domain.Utterance) error {
	if len(u.Clips) == 0 || o.device == nil {
		if o.fallback == nil {
			o.log.Debug("no fallback voice, dropping %q", u.Text)
			return nil
		}
		if err := o.fallback.Speak(ctx, u.Text, o.params); err != nil {
			return fmt.Errorf("fallback voice: %w", err)
		}
		return nil
	}

	for i, clip := range u.Clips {
		if ctx.Err() != nil {
			return nil
		}
		if err := o.device.Play(ctx, clip); err != nil {
			return fmt.Errorf("clip %d/%d: %w", i+1, len(u.Clips), err)
		}
	}
	return nil
}
