package audio

import (
	"errors"
	"math"
	"testing"
)

// loudClip builds a clip of constant-amplitude noise so no window falls
// below the silence threshold.
func loudClip(seconds float64, rate int) Clip {
	n := int(seconds * float64(rate))
	samples := make([]float32, n)
	for i := range samples {
		// Alternating square wave at half amplitude.
		if i%2 == 0 {
			samples[i] = 0.5
		} else {
			samples[i] = -0.5
		}
	}
	return Clip{Samples: samples, SampleRate: rate}
}

func silenceRange(c Clip, fromSec, toSec float64) {
	from := int(fromSec * float64(c.SampleRate))
	to := int(toSec * float64(c.SampleRate))
	for i := from; i < to && i < len(c.Samples); i++ {
		c.Samples[i] = 0
	}
}

func TestSplit_Degenerate_SingleChunk(t *testing.T) {
	s := NewSplitter(1.0)
	clip := loudClip(0.5, 8000)

	chunks, err := s.Split(clip)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Start != 0 {
		t.Errorf("expected start 0, got %v", chunks[0].Start)
	}
	if math.Abs(chunks[0].End-0.5) > 1e-6 {
		t.Errorf("expected end 0.5, got %v", chunks[0].End)
	}
	if len(chunks[0].Payload) == 0 {
		t.Error("expected non-empty payload")
	}
}

func TestSplit_HardCut_CountAndCoverage(t *testing.T) {
	s := NewSplitter(1.0)
	duration := 2.5
	clip := loudClip(duration, 8000)

	chunks, err := s.Split(clip)
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	// No silence anywhere, so every cut is a hard cut at the ceiling.
	want := int(math.Ceil(duration / 1.0))
	if len(chunks) != want {
		t.Fatalf("expected %d chunks, got %d", want, len(chunks))
	}

	// Contiguous, non-overlapping coverage of [0, D).
	if chunks[0].Start != 0 {
		t.Errorf("expected first chunk to start at 0, got %v", chunks[0].Start)
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if c.End <= c.Start {
			t.Errorf("chunk %d has non-positive span [%v, %v)", i, c.Start, c.End)
		}
		if i > 0 && chunks[i-1].End != c.Start {
			t.Errorf("gap between chunk %d end %v and chunk %d start %v", i-1, chunks[i-1].End, i, c.Start)
		}
	}
	if math.Abs(chunks[len(chunks)-1].End-duration) > 1e-6 {
		t.Errorf("expected last chunk to end at %v, got %v", duration, chunks[len(chunks)-1].End)
	}
}

func TestSplit_PrefersSilenceCut(t *testing.T) {
	s := NewSplitter(1.0)
	clip := loudClip(1.5, 8000)
	// Silence across the whole trailing search region of the first chunk.
	silenceRange(clip, 0.75, 1.0)

	chunks, err := s.Split(clip)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}

	// The first cut should land inside the silent region, before the ceiling.
	end := chunks[0].End
	if end >= 1.0 {
		t.Errorf("expected a silence-aligned cut before the 1.0s ceiling, got %v", end)
	}
	if end < 0.75 {
		t.Errorf("cut at %v landed before the silent region", end)
	}
	if chunks[1].Start != end {
		t.Errorf("chunks not contiguous after silence cut: %v vs %v", end, chunks[1].Start)
	}
}

func TestSplit_EmptyClip(t *testing.T) {
	s := NewSplitter(1.0)
	if _, err := s.Split(Clip{SampleRate: 8000}); !errors.Is(err, ErrEmptyAudio) {
		t.Fatalf("expected ErrEmptyAudio, got %v", err)
	}
}

func TestEncodeMP3_ProducesData(t *testing.T) {
	clip := loudClip(0.2, 16000)
	data, err := EncodeMP3(clip)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty MP3 output")
	}
}

func TestEncodeMP3_Empty(t *testing.T) {
	if _, err := EncodeMP3(Clip{SampleRate: 16000}); !errors.Is(err, ErrEmptyAudio) {
		t.Fatalf("expected ErrEmptyAudio, got %v", err)
	}
}

func TestClipHead(t *testing.T) {
	clip := loudClip(2.0, 8000)

	head := clip.Head(0.5)
	if math.Abs(head.Duration()-0.5) > 1e-6 {
		t.Errorf("expected 0.5s head, got %v", head.Duration())
	}

	// A cut past the end returns the clip unchanged.
	full := clip.Head(5.0)
	if len(full.Samples) != len(clip.Samples) {
		t.Errorf("expected unchanged clip, got %d samples", len(full.Samples))
	}
}

func TestResampleLinear_Length(t *testing.T) {
	in := make([]float32, 8000)
	out := resampleLinear(in, 8000, 16000)
	if len(out) != 16000 {
		t.Errorf("expected 16000 samples, got %d", len(out))
	}
	same := resampleLinear(in, 8000, 8000)
	if len(same) != len(in) {
		t.Errorf("expected passthrough at equal rates, got %d", len(same))
	}
}

func TestConcat(t *testing.T) {
	a := loudClip(0.1, 16000)
	b := loudClip(0.2, 16000)

	out, err := Concat(a, b)
	if err != nil {
		t.Fatalf("concat: %v", err)
	}
	if len(out.Samples) != len(a.Samples)+len(b.Samples) {
		t.Errorf("expected %d samples, got %d", len(a.Samples)+len(b.Samples), len(out.Samples))
	}

	if _, err := Concat(); !errors.Is(err, ErrEmptyAudio) {
		t.Errorf("expected ErrEmptyAudio for no clips, got %v", err)
	}
}
