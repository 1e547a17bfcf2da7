package audio

import (
	"bytes"
	"fmt"

	shine "github.com/braheezy/shine-mp3/pkg/mp3"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// mp3BlockSamples is the MP3 Layer III granule size; shine consumes input in
// whole blocks per channel.
const mp3BlockSamples = 1152

// EncodeMP3 encodes a mono clip as MP3 using shine. The tail is zero-padded
// to a whole encoder block.
func EncodeMP3(clip Clip) ([]byte, error) {
	if len(clip.Samples) == 0 {
		return nil, ErrEmptyAudio
	}

	pcm := make([]int16, len(clip.Samples))
	for i, s := range clip.Samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		pcm[i] = int16(s * 32767)
	}
	for len(pcm)%mp3BlockSamples != 0 {
		pcm = append(pcm, 0)
	}

	var buf bytes.Buffer
	enc := shine.NewEncoder(clip.SampleRate, 1)
	if err := enc.Write(&buf, pcm); err != nil {
		return nil, fmt.Errorf("mp3 encode: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeWAV parses a WAV payload into a mono clip, averaging channels.
func DecodeWAV(data []byte) (Clip, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return Clip{}, fmt.Errorf("%w: not a wav payload", ErrUnsupportedFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("wav decode: %w", err)
	}
	return clipFromBuffer(buf)
}

func clipFromBuffer(buf *goaudio.IntBuffer) (Clip, error) {
	ch := buf.Format.NumChannels
	if ch <= 0 {
		return Clip{}, fmt.Errorf("%w: no channels", ErrUnsupportedFormat)
	}

	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = 16
	}
	scale := float32(int64(1) << (depth - 1))

	n := len(buf.Data) / ch
	if n == 0 {
		return Clip{}, ErrEmptyAudio
	}

	mono := make([]float32, n)
	for i := 0; i < n; i++ {
		var sum float32
		for c := 0; c < ch; c++ {
			sum += float32(buf.Data[i*ch+c]) / scale
		}
		mono[i] = sum / float32(ch)
	}

	return Clip{Samples: mono, SampleRate: buf.Format.SampleRate}, nil
}

// Concat joins clips end to end, resampling to the first clip's rate when
// payloads disagree.
func Concat(clips ...Clip) (Clip, error) {
	if len(clips) == 0 {
		return Clip{}, ErrEmptyAudio
	}

	out := Clip{SampleRate: clips[0].SampleRate}
	for _, c := range clips {
		samples := c.Samples
		if c.SampleRate != out.SampleRate {
			samples = resampleLinear(samples, c.SampleRate, out.SampleRate)
		}
		out.Samples = append(out.Samples, samples...)
	}
	if len(out.Samples) == 0 {
		return Clip{}, ErrEmptyAudio
	}
	return out, nil
}
