package audio

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constSegment(t *testing.T, amplitude, samples int) *Segment {
	t.Helper()
	s := NewSegment(SampleRate)
	data := make([]int, samples)
	for i := range data {
		if i%2 == 0 {
			data[i] = amplitude
		} else {
			data[i] = -amplitude
		}
	}
	s.data = data
	return s
}

func silence(samples int) *Segment {
	s := NewSegment(SampleRate)
	s.data = make([]int, samples)
	return s
}

func TestFromPCM16DecodesLittleEndian(t *testing.T) {
	// 0x0100 = 256, 0xFF7F = 32767, 0x0080 = -32768
	s := FromPCM16([]byte{0x00, 0x01, 0xFF, 0x7F, 0x00, 0x80}, SampleRate)
	require.Equal(t, 3, s.NumSamples())
	assert.Equal(t, []int{256, 32767, -32768}, s.data)
}

func TestDBFSHalfScale(t *testing.T) {
	s := constSegment(t, 16384, SampleRate)
	assert.InDelta(t, -6.02, s.DBFS(), 0.01)
}

func TestDBFSSilenceIsNegativeInfinity(t *testing.T) {
	assert.True(t, math.IsInf(silence(SampleRate).DBFS(), -1))
}

func TestNormalizeHitsTarget(t *testing.T) {
	s := constSegment(t, 4000, SampleRate)
	s.Normalize(TargetLoudnessDBFS)
	assert.InDelta(t, TargetLoudnessDBFS, s.DBFS(), 0.1)
}

func TestNormalizeSilenceUnchanged(t *testing.T) {
	s := silence(100)
	s.Normalize(TargetLoudnessDBFS)
	assert.Equal(t, make([]int, 100), s.data)
}

func TestApplyGainClips(t *testing.T) {
	s := constSegment(t, 30000, 10)
	s.ApplyGain(6)
	for _, v := range s.data {
		assert.LessOrEqual(t, v, 32767)
		assert.GreaterOrEqual(t, v, -32768)
	}
}

func TestTrimSilenceRemovesLongEdges(t *testing.T) {
	lead := silence(SampleRate * 6 / 10) // 600ms, above the minimum run
	voice := constSegment(t, 8000, SampleRate)
	tail := silence(SampleRate * 7 / 10)

	s := NewSegment(SampleRate)
	s.Append(lead)
	s.Append(voice)
	s.Append(tail)

	trimmed := s.TrimSilence(SilenceThresholdDBFS, MinSilence)
	assert.Equal(t, SampleRate, trimmed.NumSamples())
}

func TestTrimSilenceKeepsShortEdges(t *testing.T) {
	lead := silence(SampleRate * 3 / 10) // 300ms, under the minimum run
	voice := constSegment(t, 8000, SampleRate)

	s := NewSegment(SampleRate)
	s.Append(lead)
	s.Append(voice)

	trimmed := s.TrimSilence(SilenceThresholdDBFS, MinSilence)
	assert.Equal(t, s.NumSamples(), trimmed.NumSamples())
}

func TestTrimSilenceAllSilentUnchanged(t *testing.T) {
	s := silence(SampleRate * 2)
	trimmed := s.TrimSilence(SilenceThresholdDBFS, MinSilence)
	assert.Equal(t, s.NumSamples(), trimmed.NumSamples())
}

func TestOverlayKeepsBaseLength(t *testing.T) {
	base := silence(SampleRate) // 1s
	other := constSegment(t, 1000, SampleRate)

	base.Overlay(other, 500*time.Millisecond)
	assert.Equal(t, SampleRate, base.NumSamples())
	// First half untouched, second half carries the overlay.
	assert.Equal(t, 0, base.data[0])
	assert.NotEqual(t, 0, base.data[SampleRate/2])
}

func TestLoopToExactLength(t *testing.T) {
	s := constSegment(t, 5000, 1000)

	looped := s.LoopTo(2500)
	require.Equal(t, 2500, looped.NumSamples())
	assert.Equal(t, s.data[0], looped.data[0])
	assert.Equal(t, s.data[0], looped.data[1000])
	assert.Equal(t, s.data[400], looped.data[2400])
}

func TestLoopToTruncates(t *testing.T) {
	s := constSegment(t, 5000, 1000)
	assert.Equal(t, 300, s.LoopTo(300).NumSamples())
}

func TestReadWAVResamplesToPipelineRate(t *testing.T) {
	src := NewSegment(48000)
	src.data = make([]int, 48000)
	for i := range src.data {
		if i%2 == 0 {
			src.data[i] = 8000
		} else {
			src.data[i] = -8000
		}
	}
	path := filepath.Join(t.TempDir(), "48k.wav")
	require.NoError(t, src.WriteWAV(path))

	got, err := ReadWAV(path)
	require.NoError(t, err)
	assert.Equal(t, SampleRate, got.Rate())
	assert.Equal(t, SampleRate, got.NumSamples())
	assert.Equal(t, time.Second, got.Duration())
}

func TestResampleIdentity(t *testing.T) {
	data := []int{1, 2, 3, 4}
	assert.Equal(t, data, resample(data, SampleRate, SampleRate))
}

func TestWAVRoundTrip(t *testing.T) {
	s := constSegment(t, 12000, SampleRate/4)
	path := filepath.Join(t.TempDir(), "roundtrip.wav")
	require.NoError(t, s.WriteWAV(path))

	got, err := ReadWAV(path)
	require.NoError(t, err)
	assert.Equal(t, SampleRate, got.Rate())
	assert.Equal(t, s.data, got.data)
}
