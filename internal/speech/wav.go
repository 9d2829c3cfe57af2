package speech

import (
	"encoding/binary"
	"errors"
)

// ExtractPCM strips the WAV/RIFF header and returns raw PCM data.
func ExtractPCM(wav []byte) ([]byte, error) {
	if len(wav) < 44 {
		return nil, errors.New("wav data too short")
	}

	// Verify RIFF header.
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, errors.New("not a valid WAV file")
	}

	// Walk chunks to find the "data" chunk.
	pos := 12
	for pos < len(wav)-8 {
		chunkID := string(wav[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))

		if chunkID == "data" {
			start := pos + 8
			end := start + chunkSize
			if end > len(wav) {
				end = len(wav)
			}
			return wav[start:end], nil
		}

		pos += 8 + chunkSize
		// Chunks are word-aligned.
		if chunkSize%2 != 0 {
			pos++
		}
	}

	return nil, errors.New("data chunk not found in WAV")
}

// EncodeWAV wraps 16-bit mono PCM at SampleRate in a minimal RIFF header.
func EncodeWAV(pcm []byte) []byte {
	const headerLen = 44
	out := make([]byte, headerLen+len(pcm))
	le := binary.LittleEndian

	copy(out[0:4], "RIFF")
	le.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	le.PutUint32(out[16:20], 16)
	le.PutUint16(out[20:22], 1) // PCM
	le.PutUint16(out[22:24], ChannelCount)
	le.PutUint32(out[24:28], SampleRate)
	le.PutUint32(out[28:32], SampleRate*ChannelCount*BitDepth/8)
	le.PutUint16(out[32:34], ChannelCount*BitDepth/8)
	le.PutUint16(out[34:36], BitDepth)
	copy(out[36:40], "data")
	le.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[headerLen:], pcm)
	return out
}
