package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

var (
	// ErrUnsupportedFormat means the input could not be decoded as MP3.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrEmptyAudio means the input decoded to zero duration.
	ErrEmptyAudio = errors.New("audio has zero duration")
)

// Clip is decoded mono PCM at a known sample rate.
type Clip struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the clip length in seconds.
func (c Clip) Duration() float64 {
	if c.SampleRate == 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// Head returns the first seconds of the clip. A cut beyond the clip end
// returns the clip unchanged.
func (c Clip) Head(seconds float64) Clip {
	n := int(seconds * float64(c.SampleRate))
	if n >= len(c.Samples) {
		return c
	}
	return Clip{Samples: c.Samples[:n], SampleRate: c.SampleRate}
}

// DecodeMP3 decodes an MP3 stream into a mono clip. go-mp3 always emits
// 16-bit little-endian stereo, so the two channels are averaged.
func DecodeMP3(r io.Reader) (Clip, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return Clip{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return Clip{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	n := len(pcm) / 4 // 2 bytes per sample, 2 channels
	if n == 0 {
		return Clip{}, ErrEmptyAudio
	}

	mono := make([]float32, n)
	for i := 0; i < n; i++ {
		l := int16(binary.LittleEndian.Uint16(pcm[i*4:]))
		r := int16(binary.LittleEndian.Uint16(pcm[i*4+2:]))
		mono[i] = (float32(l) + float32(r)) / 2 / 32768.0
	}

	return Clip{Samples: mono, SampleRate: dec.SampleRate()}, nil
}

// resampleLinear converts samples between rates using linear interpolation.
func resampleLinear(samples []float32, srcRate, dstRate int) []float32 {
	if srcRate == dstRate {
		return samples
	}

	ratio := float64(srcRate) / float64(dstRate)
	newLen := int(float64(len(samples)) / ratio)
	resampled := make([]float32, newLen)

	for i := 0; i < newLen; i++ {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := float32(srcPos - float64(srcIdx))

		if srcIdx+1 < len(samples) {
			resampled[i] = samples[srcIdx]*(1-frac) + samples[srcIdx+1]*frac
		} else if srcIdx < len(samples) {
			resampled[i] = samples[srcIdx]
		}
	}

	return resampled
}
