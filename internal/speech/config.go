// Package speech provides the synthesis and audio-output adapters of the
// voice core: the Azure provider, the device-native fallback synthesizer,
// the oto audio player and the synthesized-audio store.
package speech

// DefaultVoice is used by tooling that needs a voice without a persona.
// Full list: https://learn.microsoft.com/en-us/azure/ai-services/speech-service/language-support
const DefaultVoice = "en-US-AvaNeural"

// Audio format returned by Azure and expected by the player.
const DefaultAudioFormat = "riff-24khz-16bit-mono-pcm"

// Audio parameters matching the default format.
const (
	SampleRate   = 24000
	ChannelCount = 1
	BitDepth     = 16
)

// DefaultChunkSize is the approximate max character count per synthesis
// request, roughly two sentences.
const DefaultChunkSize = 200
