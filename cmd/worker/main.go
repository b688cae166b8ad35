package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"papercast/internal/activities"
	"papercast/internal/blob"
	"papercast/internal/config"
	"papercast/internal/storage"
	"papercast/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL, cfg.PostgresMaxConns)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	store, err := newBlobStore(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	a, err := activities.New(cfg, db, store, logger)
	if err != nil {
		log.Fatal(err)
	}
	activities.Register(w, a)

	log.Printf("papercast worker listening on %s queue=%s blob_store=%s", cfg.TemporalAddress, cfg.TemporalTaskQueue, cfg.BlobStore)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal(err)
	}
}

func newBlobStore(ctx context.Context, cfg config.Config) (blob.Store, error) {
	if cfg.BlobStore == "gcs" {
		return blob.NewGCSStore(ctx, cfg.GCSProject, cfg.GCSBucket)
	}
	return blob.NewLocalStore(cfg.BlobRoot), nil
}
