package blob

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Store moves files between the local downloads tree and durable blob
// storage. Keys are deterministic paths relative to the downloads root, so
// concurrent uploads for different (paper, index) pairs never collide.
type Store interface {
	Upload(ctx context.Context, localPath, key string) error
	Download(ctx context.Context, key, localPath string) error
}

type Transfer struct {
	Key       string
	LocalPath string
}

// BulkDownload fetches every transfer concurrently and fails on the first
// error after all in-flight downloads settle.
func BulkDownload(ctx context.Context, s Store, transfers []Transfer) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range transfers {
		g.Go(func() error {
			if err := s.Download(ctx, t.Key, t.LocalPath); err != nil {
				return fmt.Errorf("download %s: %w", t.Key, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// KeyFor derives the blob key for a local path under the downloads root.
func KeyFor(downloadsRoot, localPath string) (string, error) {
	rel, err := filepath.Rel(downloadsRoot, localPath)
	if err != nil {
		return "", fmt.Errorf("derive blob key for %s: %w", localPath, err)
	}
	return filepath.ToSlash(rel), nil
}

// TTSAudioPath is the local path of one synthesized chunk file.
func TTSAudioPath(downloadsRoot, paperID string, index int) string {
	return filepath.Join(downloadsRoot, "tts_audio", paperID, fmt.Sprintf("%d.wav", index))
}

// CompletedAudioPath is the local path of the final mixed track.
func CompletedAudioPath(downloadsRoot, paperID string) string {
	return filepath.Join(downloadsRoot, "completed_audio", paperID, "output.wav")
}

// PaperPDFPath is the local path of a downloaded paper.
func PaperPDFPath(downloadsRoot, paperID string) string {
	return filepath.Join(downloadsRoot, "papers", paperID+".pdf")
}
