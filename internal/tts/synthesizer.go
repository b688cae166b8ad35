package tts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"papercast/internal/audio"
	"papercast/internal/blob"
	"papercast/internal/models"
	"papercast/internal/providers"
)

const (
	DefaultGate        = 3
	DefaultMaxAttempts = 5

	baseRetryDelay = 4 * time.Second
	maxRetryDelay  = 10 * time.Second
)

// Synthesizer turns a paper's script into per-chunk WAV files. Chunks run
// concurrently behind a fixed gate; each chunk retries transient provider
// failures with capped exponential backoff.
type Synthesizer struct {
	speech        providers.SpeechSynthesizer
	store         blob.Store
	downloadsRoot string
	gate          int
	maxAttempts   int
	tokenBudget   int
	sleep         func(ctx context.Context, d time.Duration) error
	log           *slog.Logger
}

func NewSynthesizer(speech providers.SpeechSynthesizer, store blob.Store, downloadsRoot string, gate, maxAttempts, tokenBudget int, log *slog.Logger) *Synthesizer {
	if gate <= 0 {
		gate = DefaultGate
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if tokenBudget <= 0 {
		tokenBudget = DefaultTokenBudget
	}
	if log == nil {
		log = slog.Default()
	}
	return &Synthesizer{
		speech:        speech,
		store:         store,
		downloadsRoot: downloadsRoot,
		gate:          gate,
		maxAttempts:   maxAttempts,
		tokenBudget:   tokenBudget,
		sleep:         sleepCtx,
		log:           log,
	}
}

// SynthesizePaper splits the script, synthesizes every chunk, and uploads the
// resulting WAV files. All chunks are attempted even when some fail; the
// first failure is reported after the whole batch settles.
func (s *Synthesizer) SynthesizePaper(ctx context.Context, paper models.Paper) (int, error) {
	chunks := SplitScript(paper.Script, s.tokenBudget)

	var g errgroup.Group
	g.SetLimit(s.gate)
	for _, chunk := range chunks {
		g.Go(func() error {
			return s.synthesizeChunk(ctx, paper.PaperID, chunk)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func (s *Synthesizer) synthesizeChunk(ctx context.Context, paperID string, chunk Chunk) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		pcm, _, err := s.speech.Synthesize(ctx, chunk.Text)
		if err == nil {
			return s.writeChunk(ctx, paperID, chunk.Index, pcm)
		}
		lastErr = err
		if providers.ClassifyError(err) != providers.ErrorTransient {
			return fmt.Errorf("synthesize chunk %d: %w", chunk.Index, err)
		}
		if attempt == s.maxAttempts {
			break
		}
		delay := retryDelay(attempt)
		s.log.Warn("speech synthesis failed, retrying",
			"paper_id", paperID, "chunk", chunk.Index, "attempt", attempt, "delay", delay, "error", err)
		if err := s.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return fmt.Errorf("synthesize chunk %d: attempts exhausted: %w", chunk.Index, lastErr)
}

func (s *Synthesizer) writeChunk(ctx context.Context, paperID string, index int, pcm []byte) error {
	path := blob.TTSAudioPath(s.downloadsRoot, paperID, index)
	seg := audio.FromPCM16(pcm, audio.SampleRate)
	if err := seg.WriteWAV(path); err != nil {
		return fmt.Errorf("write chunk %d: %w", index, err)
	}
	key, err := blob.KeyFor(s.downloadsRoot, path)
	if err != nil {
		return err
	}
	if err := s.store.Upload(ctx, path, key); err != nil {
		return fmt.Errorf("upload chunk %d: %w", index, err)
	}
	return nil
}

// retryDelay doubles from the base per failed attempt and clamps at the cap:
// 4s, 8s, 10s, 10s, ...
func retryDelay(failures int) time.Duration {
	d := baseRetryDelay << (failures - 1)
	if d > maxRetryDelay || d <= 0 {
		d = maxRetryDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
