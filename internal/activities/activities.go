package activities

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"papercast/internal/audio"
	"papercast/internal/blob"
	"papercast/internal/config"
	"papercast/internal/models"
	"papercast/internal/providers"
	"papercast/internal/script"
	"papercast/internal/source"
	"papercast/internal/storage"
	"papercast/internal/tts"
	"papercast/internal/util"
)

type Activities struct {
	cfg          config.Config
	paperRepo    *storage.PaperRepo
	providers    *providers.Manager
	store        blob.Store
	scraper      *source.Scraper
	orchestrator *script.Orchestrator
	synthesizer  *tts.Synthesizer
	assembler    *audio.Assembler
	log          *slog.Logger
}

func New(cfg config.Config, db *storage.DB, store blob.Store, log *slog.Logger) (*Activities, error) {
	pm, err := providers.NewManager(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Activities{
		cfg:          cfg,
		paperRepo:    storage.NewPaperRepo(db),
		providers:    pm,
		store:        store,
		scraper:      source.NewScraper(),
		orchestrator: script.NewOrchestrator(pm.Text(), cfg.MaxScriptRetries, log),
		synthesizer:  tts.NewSynthesizer(pm.Speech(), store, cfg.DownloadsRoot, cfg.SynthesisGate, cfg.SynthesisAttempts, cfg.ChunkTokenBudget, log),
		assembler:    audio.NewAssembler(store, cfg.DownloadsRoot, cfg.ResourcesRoot, log),
		log:          log,
	}, nil
}

func (a *Activities) ListDailyPapersActivity(ctx context.Context, in ListDailyPapersInput) (ListDailyPapersOutput, error) {
	ids, err := a.scraper.DailyPaperIDs(ctx, in.TargetDate)
	if err != nil {
		return ListDailyPapersOutput{}, fmt.Errorf("list daily papers for %s: %w", in.TargetDate, err)
	}
	return ListDailyPapersOutput{PaperIDs: ids}, nil
}

// CreatePaperActivity scrapes the paper's metadata, downloads its PDF, and
// records it as initialized. A PDF without a usable outline still yields a
// paper; its sections stay empty and the script falls back to the abstract.
func (a *Activities) CreatePaperActivity(ctx context.Context, in CreatePaperInput) (CreatePaperOutput, error) {
	paper, err := a.scraper.ScrapePaper(ctx, "https://arxiv.org/abs/"+in.PaperID)
	if err != nil {
		return CreatePaperOutput{}, fmt.Errorf("scrape paper %s: %w", in.PaperID, err)
	}
	paper.TargetDate = in.TargetDate

	pdfPath := blob.PaperPDFPath(a.cfg.DownloadsRoot, paper.PaperID)
	if err := a.scraper.DownloadPDF(ctx, paper.PaperID, pdfPath); err != nil {
		return CreatePaperOutput{}, err
	}
	key, err := blob.KeyFor(a.cfg.DownloadsRoot, pdfPath)
	if err != nil {
		return CreatePaperOutput{}, err
	}
	if err := a.store.Upload(ctx, pdfPath, key); err != nil {
		return CreatePaperOutput{}, fmt.Errorf("upload pdf %s: %w", paper.PaperID, err)
	}

	doc, err := source.OpenDocument(pdfPath)
	if err != nil {
		return CreatePaperOutput{}, err
	}
	defer doc.Close()
	sections, err := doc.Sections()
	if err != nil {
		if !errors.Is(err, source.ErrNoOutline) {
			return CreatePaperOutput{}, fmt.Errorf("extract sections %s: %w", paper.PaperID, err)
		}
		a.log.Warn("paper has no usable outline", "paper_id", paper.PaperID)
	}
	paper.Sections = sections

	created, err := a.paperRepo.Create(ctx, paper)
	if err != nil {
		return CreatePaperOutput{}, fmt.Errorf("create paper %s: %w", paper.PaperID, err)
	}
	return CreatePaperOutput{Paper: created}, nil
}

func (a *Activities) SelectPapersActivity(ctx context.Context, in SelectPapersInput) (SelectPapersOutput, error) {
	papers, err := a.paperRepo.SelectByDateAndStatus(ctx, in.TargetDate, in.Status)
	if err != nil {
		return SelectPapersOutput{}, fmt.Errorf("select papers for %s/%s: %w", in.TargetDate, in.Status, err)
	}
	return SelectPapersOutput{Papers: papers}, nil
}

// WriteScriptActivity runs the relevance check, section summaries, and the
// compose/evaluate loop. A paper judged not relevant keeps its initialized
// status and is skipped by the later stages. An exhausted evaluation loop
// still persists the last draft.
func (a *Activities) WriteScriptActivity(ctx context.Context, in WriteScriptInput) (WriteScriptOutput, error) {
	paper := in.Paper

	pdfPath := blob.PaperPDFPath(a.cfg.DownloadsRoot, paper.PaperID)
	if err := a.ensureLocal(ctx, pdfPath); err != nil {
		return WriteScriptOutput{}, fmt.Errorf("fetch pdf %s: %w", paper.PaperID, err)
	}
	doc, err := source.OpenDocument(pdfPath)
	if err != nil {
		return WriteScriptOutput{}, err
	}
	defer doc.Close()

	res, err := a.orchestrator.Run(ctx, paper, doc)
	if err != nil {
		return WriteScriptOutput{}, fmt.Errorf("write script %s: %w", paper.PaperID, err)
	}
	if !res.Relevant {
		return WriteScriptOutput{Relevant: false}, nil
	}

	paper.Script = res.Script
	paper.Status = models.StatusScriptCreated
	if _, err := a.paperRepo.Update(ctx, paper); err != nil {
		return WriteScriptOutput{}, fmt.Errorf("persist script %s: %w", paper.PaperID, err)
	}
	// Local copy for inspection; the database row is authoritative.
	scriptPath := filepath.Join(a.cfg.DownloadsRoot, "scripts", paper.PaperID+".txt")
	if err := util.WriteTextAtomic(scriptPath, res.Script); err != nil {
		a.log.Warn("script artifact write failed", "paper_id", paper.PaperID, "error", err)
	}
	return WriteScriptOutput{Relevant: true, Accepted: res.Accepted, Iterations: res.Iterations}, nil
}

func (a *Activities) SynthesizeSpeechActivity(ctx context.Context, in SynthesizeSpeechInput) (SynthesizeSpeechOutput, error) {
	paper := in.Paper
	count, err := a.synthesizer.SynthesizePaper(ctx, paper)
	if err != nil {
		return SynthesizeSpeechOutput{}, fmt.Errorf("synthesize %s: %w", paper.PaperID, err)
	}

	paper.ScriptFileCount = count
	paper.Status = models.StatusTTSCompleted
	if _, err := a.paperRepo.Update(ctx, paper); err != nil {
		return SynthesizeSpeechOutput{}, fmt.Errorf("persist synthesis %s: %w", paper.PaperID, err)
	}
	return SynthesizeSpeechOutput{ChunkCount: count}, nil
}

func (a *Activities) AssembleAudioActivity(ctx context.Context, in AssembleAudioInput) (AssembleAudioOutput, error) {
	paper := in.Paper
	outPath, err := a.assembler.AssemblePaper(ctx, paper)
	if err != nil {
		return AssembleAudioOutput{}, fmt.Errorf("assemble %s: %w", paper.PaperID, err)
	}
	if err := a.paperRepo.UpdateStatus(ctx, paper.ID, models.StatusPodcastCreated); err != nil {
		return AssembleAudioOutput{}, fmt.Errorf("persist assembly %s: %w", paper.PaperID, err)
	}
	return AssembleAudioOutput{OutputPath: outPath}, nil
}

// ensureLocal downloads a blob to its local path unless it is already there.
func (a *Activities) ensureLocal(ctx context.Context, localPath string) error {
	if _, err := os.Stat(localPath); err == nil {
		return nil
	}
	key, err := blob.KeyFor(a.cfg.DownloadsRoot, localPath)
	if err != nil {
		return err
	}
	return a.store.Download(ctx, key, localPath)
}
