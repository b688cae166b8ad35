package tts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papercast/internal/models"
	"papercast/internal/providers"
)

// fakeSpeech counts in-flight calls and delegates to fn for each request.
type fakeSpeech struct {
	fn       func(call int, text string) ([]byte, error)
	calls    atomic.Int32
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeSpeech) Synthesize(ctx context.Context, text string) ([]byte, providers.ProviderInfo, error) {
	cur := f.inFlight.Add(1)
	for {
		p := f.peak.Load()
		if cur <= p || f.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	// Hold long enough for the gate to matter.
	time.Sleep(5 * time.Millisecond)
	f.inFlight.Add(-1)
	pcm, err := f.fn(int(f.calls.Add(1)), text)
	return pcm, providers.ProviderInfo{Name: "fake"}, err
}

type memStore struct {
	mu      sync.Mutex
	uploads []string
}

func (m *memStore) Upload(ctx context.Context, localPath, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, key)
	return nil
}

func (m *memStore) Download(ctx context.Context, key, localPath string) error {
	return fmt.Errorf("unexpected download of %s", key)
}

func pcmOK(int, string) ([]byte, error) {
	return []byte{0, 0, 0, 16, 0, 64}, nil
}

func newTestSynthesizer(t *testing.T, speech *fakeSpeech, gate, attempts int) (*Synthesizer, *memStore, string) {
	t.Helper()
	root := t.TempDir()
	store := &memStore{}
	s := NewSynthesizer(speech, store, root, gate, attempts, DefaultTokenBudget, nil)
	s.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return s, store, root
}

func multiChunkPaper(lines int) models.Paper {
	var b strings.Builder
	for i := 0; i < lines; i++ {
		fmt.Fprintf(&b, "Host A: remark number %d about the results\n", i)
	}
	return models.Paper{PaperID: "2501.00001", Script: b.String()}
}

func TestSynthesizePaperWritesChunksByIndex(t *testing.T) {
	speech := &fakeSpeech{fn: pcmOK}
	s, store, root := newTestSynthesizer(t, speech, 3, 5)

	paper := models.Paper{PaperID: "2501.00001", Script: "Host A: short script."}
	count, err := s.SynthesizePaper(context.Background(), paper)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = os.Stat(filepath.Join(root, "tts_audio", paper.PaperID, "0.wav"))
	require.NoError(t, err)
	assert.Equal(t, []string{"tts_audio/2501.00001/0.wav"}, store.uploads)
}

func TestSynthesizePaperHonorsGate(t *testing.T) {
	speech := &fakeSpeech{fn: pcmOK}
	s, _, _ := newTestSynthesizer(t, speech, 3, 5)

	// Force many chunks so more than three would run without the gate.
	paper := multiChunkPaper(200)
	paper.Script = strings.Repeat(paper.Script, 10)

	count, err := s.SynthesizePaper(context.Background(), paper)
	require.NoError(t, err)
	require.Greater(t, count, 3)
	assert.LessOrEqual(t, speech.peak.Load(), int32(3))
}

func TestSynthesizeChunkRetriesTransientThenSucceeds(t *testing.T) {
	speech := &fakeSpeech{fn: func(call int, _ string) ([]byte, error) {
		if call <= 4 {
			return nil, &providers.APIError{Provider: "fake", Status: 503, Body: "overloaded"}
		}
		return pcmOK(call, "")
	}}
	s, store, _ := newTestSynthesizer(t, speech, 1, 5)

	count, err := s.SynthesizePaper(context.Background(), models.Paper{PaperID: "p", Script: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, int32(5), speech.calls.Load())
	assert.Len(t, store.uploads, 1)
}

func TestSynthesizeChunkExhaustsAttempts(t *testing.T) {
	speech := &fakeSpeech{fn: func(int, string) ([]byte, error) {
		return nil, &providers.APIError{Provider: "fake", Status: 429, Body: "rate limited"}
	}}
	s, store, _ := newTestSynthesizer(t, speech, 1, 5)

	_, err := s.SynthesizePaper(context.Background(), models.Paper{PaperID: "p", Script: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attempts exhausted")
	assert.Equal(t, int32(5), speech.calls.Load())
	assert.Empty(t, store.uploads)
}

func TestSynthesizeChunkPermanentErrorNoRetry(t *testing.T) {
	speech := &fakeSpeech{fn: func(int, string) ([]byte, error) {
		return nil, &providers.APIError{Provider: "fake", Status: 400, Body: "bad request"}
	}}
	s, _, _ := newTestSynthesizer(t, speech, 1, 5)

	_, err := s.SynthesizePaper(context.Background(), models.Paper{PaperID: "p", Script: "hi"})
	require.Error(t, err)
	assert.Equal(t, int32(1), speech.calls.Load())
}

func TestSynthesizeChunkMalformedResponseIsTransient(t *testing.T) {
	speech := &fakeSpeech{fn: func(call int, _ string) ([]byte, error) {
		if call == 1 {
			return nil, fmt.Errorf("decode candidate: %w", providers.ErrMalformedResponse)
		}
		return pcmOK(call, "")
	}}
	s, _, _ := newTestSynthesizer(t, speech, 1, 5)

	count, err := s.SynthesizePaper(context.Background(), models.Paper{PaperID: "p", Script: "hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, int32(2), speech.calls.Load())
}

func TestRetryDelaySchedule(t *testing.T) {
	assert.Equal(t, 4*time.Second, retryDelay(1))
	assert.Equal(t, 8*time.Second, retryDelay(2))
	assert.Equal(t, 10*time.Second, retryDelay(3))
	assert.Equal(t, 10*time.Second, retryDelay(4))
}
