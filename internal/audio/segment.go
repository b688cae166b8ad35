package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"papercast/internal/util"
)

const (
	// SampleRate of synthesized speech chunks.
	SampleRate = 24000

	// TargetLoudnessDBFS is the reference level every layer is normalized to
	// before mixing.
	TargetLoudnessDBFS = -16.0

	// SilenceThresholdDBFS and MinSilence define what counts as trimmable
	// silence at a segment's edges.
	SilenceThresholdDBFS = -40.0
	MinSilence           = 500 * time.Millisecond

	// BGMAttenuationDB keeps background music under the speech.
	BGMAttenuationDB = 13.0

	maxAmplitude = 32768.0
	frameMillis  = 10
)

// Segment is a mono decoded waveform. Each Segment has a single owner; the
// assembler drops its reference after appending to bound peak memory.
type Segment struct {
	data []int
	rate int
}

func NewSegment(rate int) *Segment {
	if rate <= 0 {
		rate = SampleRate
	}
	return &Segment{rate: rate}
}

// FromPCM16 decodes raw little-endian 16-bit mono PCM.
func FromPCM16(pcm []byte, rate int) *Segment {
	s := NewSegment(rate)
	s.data = make([]int, len(pcm)/2)
	for i := range s.data {
		s.data[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	return s
}

func (s *Segment) NumSamples() int { return len(s.data) }

func (s *Segment) Rate() int { return s.rate }

func (s *Segment) Duration() time.Duration {
	return time.Duration(len(s.data)) * time.Second / time.Duration(s.rate)
}

// DBFS is the loudness of the segment: RMS relative to full scale, in dB.
// An empty or all-zero segment measures negative infinity.
func (s *Segment) DBFS() float64 {
	return dbfsOf(s.data)
}

func dbfsOf(data []int) float64 {
	if len(data) == 0 {
		return math.Inf(-1)
	}
	var sum float64
	for _, v := range data {
		f := float64(v)
		sum += f * f
	}
	rms := math.Sqrt(sum / float64(len(data)))
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms/maxAmplitude)
}

// ApplyGain scales the waveform by db decibels, clipping at full scale.
func (s *Segment) ApplyGain(db float64) {
	factor := math.Pow(10, db/20)
	for i, v := range s.data {
		s.data[i] = clip(int(math.Round(float64(v) * factor)))
	}
}

// Normalize applies the uniform gain that brings measured loudness to
// target dBFS. A silent segment has no measurable loudness and is left
// unchanged.
func (s *Segment) Normalize(target float64) {
	current := s.DBFS()
	if math.IsInf(current, -1) {
		return
	}
	s.ApplyGain(target - current)
}

// TrimSilence removes leading and trailing stretches that stay below
// threshold dBFS for at least minLen. A segment with no detectable
// non-silent range is returned unchanged rather than emptied.
func (s *Segment) TrimSilence(threshold float64, minLen time.Duration) *Segment {
	frameLen := s.rate * frameMillis / 1000
	if frameLen == 0 || len(s.data) == 0 {
		return s
	}
	silent := make([]bool, 0, len(s.data)/frameLen+1)
	for i := 0; i < len(s.data); i += frameLen {
		end := i + frameLen
		if end > len(s.data) {
			end = len(s.data)
		}
		silent = append(silent, dbfsOf(s.data[i:end]) < threshold)
	}

	lead := 0
	for lead < len(silent) && silent[lead] {
		lead++
	}
	if lead == len(silent) {
		return s
	}
	trail := len(silent)
	for trail > lead && silent[trail-1] {
		trail--
	}

	minFrames := int(minLen.Milliseconds()) / frameMillis
	start, end := 0, len(s.data)
	if lead >= minFrames {
		start = lead * frameLen
	}
	if len(silent)-trail >= minFrames {
		end = trail * frameLen
	}
	return &Segment{data: s.data[start:end], rate: s.rate}
}

// Append concatenates other onto s.
func (s *Segment) Append(other *Segment) {
	s.data = append(s.data, other.data...)
}

// Overlay mixes other into s starting at offset, keeping s's length;
// overlay samples past the end of s are dropped.
func (s *Segment) Overlay(other *Segment, offset time.Duration) {
	start := int(offset.Milliseconds()) * s.rate / 1000
	for i, v := range other.data {
		j := start + i
		if j >= len(s.data) {
			break
		}
		s.data[j] = clip(s.data[j] + v)
	}
}

// LoopTo repeats the segment whole-copy by whole-copy and truncates so the
// result holds exactly numSamples samples.
func (s *Segment) LoopTo(numSamples int) *Segment {
	if numSamples <= 0 {
		return &Segment{rate: s.rate}
	}
	out := &Segment{rate: s.rate, data: make([]int, 0, numSamples)}
	if len(s.data) == 0 {
		out.data = make([]int, numSamples)
		return out
	}
	for len(out.data) < numSamples {
		out.data = append(out.data, s.data...)
	}
	out.data = out.data[:numSamples]
	return out
}

// ReadWAV decodes a WAV file into a mono segment at the pipeline rate:
// multi-channel sources are downmixed by averaging, and any other sample
// rate is resampled so mixing arithmetic stays in one time base.
func ReadWAV(path string) (*Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav %s: %w", path, err)
	}
	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	s := NewSegment(buf.Format.SampleRate)
	s.data = make([]int, 0, len(buf.Data)/channels)
	for i := 0; i+channels <= len(buf.Data); i += channels {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += buf.Data[i+c]
		}
		s.data = append(s.data, sum/channels)
	}
	if s.rate != SampleRate {
		s.data = resample(s.data, s.rate, SampleRate)
		s.rate = SampleRate
	}
	return s, nil
}

// resample converts data between rates by linear interpolation. Good enough
// for jingles and background beds; speech chunks arrive at the pipeline rate
// and never pass through here.
func resample(data []int, fromRate, toRate int) []int {
	if fromRate == toRate || len(data) == 0 {
		return data
	}
	n := int(int64(len(data)) * int64(toRate) / int64(fromRate))
	if n == 0 {
		n = 1
	}
	out := make([]int, n)
	step := float64(fromRate) / float64(toRate)
	for i := range out {
		pos := float64(i) * step
		j := int(pos)
		if j >= len(data)-1 {
			out[i] = data[len(data)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = clip(int(math.Round(float64(data[j])*(1-frac) + float64(data[j+1])*frac)))
	}
	return out
}

// WriteWAV persists the segment as mono 16-bit PCM.
func (s *Segment) WriteWAV(path string) error {
	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav %s: %w", path, err)
	}
	enc := wav.NewEncoder(f, s.rate, 16, 1, 1)
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: s.rate},
		Data:           s.data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return fmt.Errorf("write wav %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("finalize wav %s: %w", path, err)
	}
	return f.Close()
}

func clip(v int) int {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return v
}
