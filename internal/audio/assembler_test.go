package audio

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"papercast/internal/blob"
	"papercast/internal/models"
)

// stageChunks writes n one-second chunks into the blob store the way the
// synthesis stage would.
func stageChunks(t *testing.T, store blob.Store, stagingRoot, paperID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		seg := constSegment(t, 8000, SampleRate)
		path := blob.TTSAudioPath(stagingRoot, paperID, i)
		require.NoError(t, seg.WriteWAV(path))
		key, err := blob.KeyFor(stagingRoot, path)
		require.NoError(t, err)
		require.NoError(t, store.Upload(context.Background(), path, key))
	}
}

func writeResource(t *testing.T, resourcesRoot, name string, seconds float64) {
	t.Helper()
	writeResourceAt(t, resourcesRoot, name, seconds, SampleRate)
}

func writeResourceAt(t *testing.T, resourcesRoot, name string, seconds float64, rate int) {
	t.Helper()
	seg := NewSegment(rate)
	seg.data = make([]int, int(float64(rate)*seconds))
	for i := range seg.data {
		if i%2 == 0 {
			seg.data[i] = 8000
		} else {
			seg.data[i] = -8000
		}
	}
	require.NoError(t, seg.WriteWAV(filepath.Join(resourcesRoot, name)))
}

func TestAssemblePaperFullMix(t *testing.T) {
	blobRoot := t.TempDir()
	staging := t.TempDir()
	downloads := t.TempDir()
	resources := t.TempDir()
	store := blob.NewLocalStore(blobRoot)

	writeResource(t, resources, "jingle.wav", 2)
	writeResource(t, resources, "opening_call.wav", 1)
	writeResource(t, resources, "bgm.wav", 0.5)

	paper := models.Paper{PaperID: "2501.00001", ScriptFileCount: 2}
	stageChunks(t, store, staging, paper.PaperID, 2)

	a := NewAssembler(store, downloads, resources, nil)
	outPath, err := a.AssemblePaper(context.Background(), paper)
	require.NoError(t, err)
	require.Equal(t, blob.CompletedAudioPath(downloads, paper.PaperID), outPath)

	// Final track = 2s intro + 2x1s speech; BGM overlays without extending.
	out, err := ReadWAV(outPath)
	require.NoError(t, err)
	require.Equal(t, 4*SampleRate, out.NumSamples())

	// The track also lands in the store under its deterministic key.
	fetched := filepath.Join(t.TempDir(), "fetched.wav")
	require.NoError(t, store.Download(context.Background(), "completed_audio/2501.00001/output.wav", fetched))
}

func TestAssemblePaperHighRateResourcesKeepDuration(t *testing.T) {
	blobRoot := t.TempDir()
	staging := t.TempDir()
	downloads := t.TempDir()
	resources := t.TempDir()
	store := blob.NewLocalStore(blobRoot)

	// Assets delivered at 48 kHz must not drag the 24 kHz speech into their
	// time base: intro (1s) + speech (1s) stays 2s.
	writeResourceAt(t, resources, "jingle.wav", 1, 48000)
	writeResourceAt(t, resources, "opening_call.wav", 1, 48000)

	paper := models.Paper{PaperID: "2501.00004", ScriptFileCount: 1}
	stageChunks(t, store, staging, paper.PaperID, 1)

	a := NewAssembler(store, downloads, resources, nil)
	outPath, err := a.AssemblePaper(context.Background(), paper)
	require.NoError(t, err)

	out, err := ReadWAV(outPath)
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, out.Duration())
	require.Equal(t, 2*SampleRate, out.NumSamples())
}

func TestAssemblePaperMissingJingleSkipsIntro(t *testing.T) {
	blobRoot := t.TempDir()
	staging := t.TempDir()
	downloads := t.TempDir()
	resources := t.TempDir()
	store := blob.NewLocalStore(blobRoot)

	// Opening call and BGM alone cannot form an intro; only the BGM layer
	// applies and the track is exactly the speech.
	writeResource(t, resources, "opening_call.wav", 1)
	writeResource(t, resources, "bgm.wav", 0.5)

	paper := models.Paper{PaperID: "2501.00005", ScriptFileCount: 2}
	stageChunks(t, store, staging, paper.PaperID, 2)

	a := NewAssembler(store, downloads, resources, nil)
	outPath, err := a.AssemblePaper(context.Background(), paper)
	require.NoError(t, err)

	out, err := ReadWAV(outPath)
	require.NoError(t, err)
	require.Equal(t, 2*SampleRate, out.NumSamples())
}

func TestAssemblePaperWithoutResources(t *testing.T) {
	blobRoot := t.TempDir()
	staging := t.TempDir()
	downloads := t.TempDir()
	store := blob.NewLocalStore(blobRoot)

	paper := models.Paper{PaperID: "2501.00002", ScriptFileCount: 1}
	stageChunks(t, store, staging, paper.PaperID, 1)

	a := NewAssembler(store, downloads, t.TempDir(), nil)
	outPath, err := a.AssemblePaper(context.Background(), paper)
	require.NoError(t, err)

	// No intro and no BGM: the track is exactly the speech.
	out, err := ReadWAV(outPath)
	require.NoError(t, err)
	require.Equal(t, SampleRate, out.NumSamples())
}

func TestAssemblePaperMissingChunkFails(t *testing.T) {
	store := blob.NewLocalStore(t.TempDir())
	a := NewAssembler(store, t.TempDir(), t.TempDir(), nil)

	_, err := a.AssemblePaper(context.Background(), models.Paper{PaperID: "2501.00003", ScriptFileCount: 1})
	require.Error(t, err)
}
