// Package audio provides the small set of PCM/WAV helpers shared by the TTS
// providers and the session store.
//
// All PCM in this codebase is little-endian signed 16-bit. Narration clips are
// mono; the helpers accept a channel count anyway so a stereo-emitting backend
// does not need special casing.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// bytesPerSample is the size of one int16 PCM sample.
const bytesPerSample = 2

// WAVInfo describes the format of a parsed WAV file.
type WAVInfo struct {
	// SampleRate is the sample rate in Hz.
	SampleRate int

	// Channels is the channel count (1 = mono, 2 = stereo).
	Channels int

	// DataOffset is the byte offset of the PCM payload within the file.
	DataOffset int

	// DataLen is the byte length of the PCM payload.
	DataLen int
}

// ParseWAV walks the RIFF chunks of a WAV file and returns its format info.
// Only PCM WAV files are supported; compressed formats fail at the consumer
// when sample math produces garbage, not here.
func ParseWAV(wav []byte) (WAVInfo, error) {
	if len(wav) < 12 {
		return WAVInfo{}, errors.New("audio: WAV data too short to be a valid RIFF file")
	}
	if string(wav[0:4]) != "RIFF" {
		return WAVInfo{}, errors.New("audio: WAV data missing RIFF header")
	}
	if string(wav[8:12]) != "WAVE" {
		return WAVInfo{}, errors.New("audio: WAV data missing WAVE identifier")
	}

	var info WAVInfo
	foundFmt := false

	// Walk RIFF chunks starting immediately after the 12-byte RIFF/WAVE header.
	offset := 12
	for offset+8 <= len(wav) {
		chunkID := string(wav[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[offset+4 : offset+8]))

		switch chunkID {
		case "fmt ":
			if chunkSize >= 16 && offset+8+16 <= len(wav) {
				fmtData := wav[offset+8:]
				info.Channels = int(binary.LittleEndian.Uint16(fmtData[2:4]))
				info.SampleRate = int(binary.LittleEndian.Uint32(fmtData[4:8]))
				foundFmt = true
			}
		case "data":
			info.DataOffset = offset + 8
			info.DataLen = min(chunkSize, len(wav)-info.DataOffset)
			if !foundFmt {
				return WAVInfo{}, errors.New("audio: WAV data chunk precedes fmt chunk")
			}
			return info, nil
		}

		// Advance past this chunk (chunks are word-aligned: pad by 1 if odd size).
		offset += 8 + chunkSize
		if chunkSize%2 != 0 {
			offset++
		}
	}

	return WAVInfo{}, errors.New("audio: WAV data chunk not found")
}

// EncodeWAV wraps raw int16 PCM in a minimal RIFF/WAVE container.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	const headerLen = 44
	byteRate := sampleRate * channels * bytesPerSample
	blockAlign := channels * bytesPerSample

	out := make([]byte, headerLen+len(pcm))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(out[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], uint16(bytesPerSample*8))
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[headerLen:], pcm)
	return out
}

// PCMDuration returns the play time of n bytes of int16 PCM at the given
// sample rate and channel count.
func PCMDuration(n, sampleRate, channels int) (time.Duration, error) {
	if sampleRate <= 0 || channels <= 0 {
		return 0, fmt.Errorf("audio: invalid format: rate=%d channels=%d", sampleRate, channels)
	}
	byteRate := sampleRate * channels * bytesPerSample
	return time.Duration(float64(n) / float64(byteRate) * float64(time.Second)), nil
}
