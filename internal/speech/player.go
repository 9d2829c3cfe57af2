package speech

import (
	"bytes"
	"context"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/hammamikhairi/ottovoice/internal/domain"
	"github.com/hammamikhairi/ottovoice/internal/logger"
)

// Compile-time interface check.
var _ domain.AudioDevice = (*Player)(nil)

// Player plays WAV/PCM clips through the system audio device via oto.
// It does not arbitrate between callers; the playback queue guarantees a
// single caller at a time.
type Player struct {
	ctx *oto.Context
	log *logger.Logger
}

// NewPlayer initializes the system audio context and waits for it to be
// ready. Returns an error if the audio device is unavailable.
func NewPlayer(log *logger.Logger) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-readyChan

	log.Debug("audio player initialized (rate=%d, channels=%d)", SampleRate, ChannelCount)
	return &Player{ctx: ctx, log: log}, nil
}

// Play plays WAV audio data. Blocks until playback finishes or ctx is
// cancelled; cancellation pauses the clip and returns nil.
func (p *Player) Play(ctx context.Context, wavData []byte) error {
	pcm, err := ExtractPCM(wavData)
	if err != nil {
		return err
	}

	player := p.ctx.NewPlayer(bytes.NewReader(pcm))
	player.Play()
	p.log.Debug("playing %d bytes of PCM", len(pcm))

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			p.log.Debug("playback interrupted")
			return player.Close()
		case <-ticker.C:
		}
	}

	if err := player.Err(); err != nil {
		player.Close()
		return err
	}
	return player.Close()
}
