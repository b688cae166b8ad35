package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"papercast/internal/blob"
	"papercast/internal/models"
)

const openingCallOffset = 8 * time.Second

// Assembler mixes a paper's synthesized chunks with the show's jingle,
// opening call, and background music into the final track. Assembly is
// single-threaded and deterministic per paper.
type Assembler struct {
	store         blob.Store
	downloadsRoot string
	resourcesRoot string
	log           *slog.Logger
}

func NewAssembler(store blob.Store, downloadsRoot, resourcesRoot string, log *slog.Logger) *Assembler {
	if log == nil {
		log = slog.Default()
	}
	return &Assembler{store: store, downloadsRoot: downloadsRoot, resourcesRoot: resourcesRoot, log: log}
}

// AssemblePaper builds and uploads the final track, returning its local path.
func (a *Assembler) AssemblePaper(ctx context.Context, paper models.Paper) (string, error) {
	intro := a.coordinateIntro()

	speech, err := a.coordinateSpeech(ctx, paper)
	if err != nil {
		return "", err
	}

	if bgm := a.coordinateBGM(speech.NumSamples()); bgm != nil {
		speech.Overlay(bgm, 0)
	}

	output := speech
	if intro != nil {
		intro.Append(speech)
		output = intro
	}

	outPath := blob.CompletedAudioPath(a.downloadsRoot, paper.PaperID)
	if err := output.WriteWAV(outPath); err != nil {
		return "", fmt.Errorf("write final track: %w", err)
	}
	key, err := blob.KeyFor(a.downloadsRoot, outPath)
	if err != nil {
		return "", err
	}
	if err := a.store.Upload(ctx, outPath, key); err != nil {
		return "", fmt.Errorf("upload final track: %w", err)
	}
	return outPath, nil
}

// coordinateIntro overlays the opening call onto the jingle. Either asset
// missing skips the intro layer entirely.
func (a *Assembler) coordinateIntro() *Segment {
	jinglePath := filepath.Join(a.resourcesRoot, "jingle.wav")
	openingPath := filepath.Join(a.resourcesRoot, "opening_call.wav")
	if !fileExists(jinglePath) || !fileExists(openingPath) {
		a.log.Warn("jingle or opening call resource missing, skipping intro")
		return nil
	}

	jingle, err := ReadWAV(jinglePath)
	if err != nil {
		a.log.Warn("jingle unreadable, skipping intro", "error", err)
		return nil
	}
	jingle.Normalize(TargetLoudnessDBFS)
	jingle = jingle.TrimSilence(SilenceThresholdDBFS, MinSilence)

	opening, err := ReadWAV(openingPath)
	if err != nil {
		a.log.Warn("opening call unreadable, skipping intro", "error", err)
		return nil
	}
	opening.Normalize(TargetLoudnessDBFS)
	opening = opening.TrimSilence(SilenceThresholdDBFS, MinSilence)

	jingle.Overlay(opening, openingCallOffset)
	return jingle
}

// coordinateSpeech downloads the paper's chunk files and concatenates them
// in index order, normalizing and trimming each. Only one decoded chunk is
// held alongside the accumulator at a time.
func (a *Assembler) coordinateSpeech(ctx context.Context, paper models.Paper) (*Segment, error) {
	transfers := make([]blob.Transfer, 0, paper.ScriptFileCount)
	for i := 0; i < paper.ScriptFileCount; i++ {
		path := blob.TTSAudioPath(a.downloadsRoot, paper.PaperID, i)
		key, err := blob.KeyFor(a.downloadsRoot, path)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, blob.Transfer{Key: key, LocalPath: path})
	}
	if err := blob.BulkDownload(ctx, a.store, transfers); err != nil {
		return nil, fmt.Errorf("download speech chunks: %w", err)
	}

	acc := NewSegment(SampleRate)
	for i := 0; i < paper.ScriptFileCount; i++ {
		chunk, err := ReadWAV(blob.TTSAudioPath(a.downloadsRoot, paper.PaperID, i))
		if err != nil {
			return nil, fmt.Errorf("read chunk %d: %w", i, err)
		}
		chunk.Normalize(TargetLoudnessDBFS)
		chunk = chunk.TrimSilence(SilenceThresholdDBFS, MinSilence)
		acc.Append(chunk)
	}
	return acc, nil
}

// coordinateBGM loops the background music to exactly the speech length and
// pulls it under the dialogue.
func (a *Assembler) coordinateBGM(speechSamples int) *Segment {
	bgmPath := filepath.Join(a.resourcesRoot, "bgm.wav")
	if !fileExists(bgmPath) {
		a.log.Warn("bgm resource missing, skipping background music")
		return nil
	}
	bgm, err := ReadWAV(bgmPath)
	if err != nil {
		a.log.Warn("bgm unreadable, skipping background music", "error", err)
		return nil
	}
	looped := bgm.LoopTo(speechSamples)
	looped.ApplyGain(-BGMAttenuationDB)
	return looped
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
