package audio

import (
	"fmt"
	"math"
	"os"
)

// Chunk is one bounded slice of the source audio, ready to send as a single
// transcription request. Offsets are seconds within the source clip.
type Chunk struct {
	Index   int
	Start   float64
	End     float64
	Payload []byte // 16 kHz mono MP3
}

// Splitter cuts a clip into chunks no longer than ChunkSeconds, preferring
// cut points at low-energy intervals so words are not severed mid-sample.
type Splitter struct {
	ChunkSeconds    float64 // per-chunk duration ceiling
	SearchFraction  float64 // trailing fraction of the ceiling scanned for a quiet cut
	EnergyThreshold float64 // RMS below which a window counts as silence
	PayloadRate     int     // sample rate of encoded chunk payloads
}

// NewSplitter returns a splitter with the service's defaults: 25 s chunks,
// quiet-cut search over the last 20% of the window, 16 kHz payloads.
func NewSplitter(chunkSeconds float64) *Splitter {
	return &Splitter{
		ChunkSeconds:    chunkSeconds,
		SearchFraction:  0.2,
		EnergyThreshold: 0.01,
		PayloadRate:     16000,
	}
}

// Split decomposes the clip into an ordered, contiguous chunk sequence
// covering the whole clip. A clip shorter than the ceiling produces exactly
// one chunk.
func (s *Splitter) Split(clip Clip) ([]Chunk, error) {
	if len(clip.Samples) == 0 {
		return nil, ErrEmptyAudio
	}

	limit := int(s.ChunkSeconds * float64(clip.SampleRate))
	if limit <= 0 {
		return nil, fmt.Errorf("invalid chunk ceiling %v", s.ChunkSeconds)
	}

	var chunks []Chunk
	for cur := 0; cur < len(clip.Samples); {
		end := cur + limit
		if end >= len(clip.Samples) {
			end = len(clip.Samples)
		} else {
			end = s.quietCut(clip, cur, end)
		}

		payload, err := s.encodePayload(clip, cur, end)
		if err != nil {
			return nil, fmt.Errorf("encode chunk %d: %w", len(chunks), err)
		}

		chunks = append(chunks, Chunk{
			Index:   len(chunks),
			Start:   float64(cur) / float64(clip.SampleRate),
			End:     float64(end) / float64(clip.SampleRate),
			Payload: payload,
		})
		cur = end
	}

	return chunks, nil
}

// SplitFile opens an MP3 file, optionally trims it to maxSeconds, and splits
// it. The boolean result reports whether trimming happened.
func (s *Splitter) SplitFile(path string, maxSeconds float64) ([]Chunk, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	clip, err := DecodeMP3(f)
	if err != nil {
		return nil, false, err
	}

	truncated := false
	if maxSeconds > 0 && clip.Duration() > maxSeconds {
		clip = clip.Head(maxSeconds)
		truncated = true
	}

	chunks, err := s.Split(clip)
	return chunks, truncated, err
}

// quietCut scans 100 ms windows over the trailing search region before
// limitEnd and returns the end of the quietest window whose energy falls
// below the threshold. Falls back to a hard cut at limitEnd.
func (s *Splitter) quietCut(clip Clip, start, limitEnd int) int {
	window := clip.SampleRate / 10
	if window == 0 {
		return limitEnd
	}

	searchStart := limitEnd - int(s.SearchFraction*float64(limitEnd-start))
	if searchStart <= start {
		searchStart = start + window
	}

	best := limitEnd
	bestEnergy := math.Inf(1)
	for pos := searchStart; pos+window <= limitEnd; pos += window {
		e := windowEnergy(clip.Samples[pos : pos+window])
		if e < s.EnergyThreshold && e < bestEnergy {
			best = pos + window
			bestEnergy = e
		}
	}
	return best
}

// windowEnergy computes the RMS energy of a window.
func windowEnergy(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s * s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func (s *Splitter) encodePayload(clip Clip, start, end int) ([]byte, error) {
	slice := clip.Samples[start:end]
	if clip.SampleRate != s.PayloadRate {
		slice = resampleLinear(slice, clip.SampleRate, s.PayloadRate)
	}
	return EncodeMP3(Clip{Samples: slice, SampleRate: s.PayloadRate})
}
