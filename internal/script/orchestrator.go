package script

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"papercast/internal/models"
	"papercast/internal/providers"
)

// MaxRetryCount caps compose/evaluate iterations per production run.
const MaxRetryCount = 3

// SectionExtractor supplies the scoped text of one outline section.
// *source.Document satisfies it.
type SectionExtractor interface {
	SectionText(sec models.Section) (string, error)
}

// Orchestrator runs the script-writing state machine: relevance filtering,
// one summarization pass, then a bounded compose/evaluate loop that feeds
// evaluator feedback back into composition.
type Orchestrator struct {
	gen        providers.TextGenerator
	maxRetries int
	log        *slog.Logger
}

func NewOrchestrator(gen providers.TextGenerator, maxRetries int, log *slog.Logger) *Orchestrator {
	if maxRetries <= 0 {
		maxRetries = MaxRetryCount
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{gen: gen, maxRetries: maxRetries, log: log}
}

// Run produces a script for the paper. A paper filtered out as not relevant
// returns Relevant=false. An exhausted retry loop returns the last rejected
// draft with Accepted=false rather than failing: a rough episode beats no
// episode.
func (o *Orchestrator) Run(ctx context.Context, paper models.Paper, extractor SectionExtractor) (Result, error) {
	relevant, err := o.isRelevant(ctx, paper)
	if err != nil {
		return Result{}, fmt.Errorf("relevance filter: %w", err)
	}
	if !relevant {
		o.log.Info("paper filtered out as not relevant", "paper_id", paper.PaperID)
		return Result{Relevant: false}, nil
	}

	summaries, err := o.summarizeSections(ctx, paper, extractor)
	if err != nil {
		return Result{}, fmt.Errorf("summarize sections: %w", err)
	}

	feedback := make([]string, 0, o.maxRetries)
	var draft string
	for retry := 0; retry < o.maxRetries; retry++ {
		draft, err = o.composeScript(ctx, paper, summaries, feedback)
		if err != nil {
			return Result{}, fmt.Errorf("compose script: %w", err)
		}
		eval, err := o.evaluateScript(ctx, paper, draft)
		if err != nil {
			return Result{}, fmt.Errorf("evaluate script: %w", err)
		}
		if eval.IsValid {
			return Result{Relevant: true, Accepted: true, Script: draft, Iterations: retry + 1}, nil
		}
		feedback = append(feedback, eval.FeedbackMessage)
		o.log.Warn("draft rejected", "paper_id", paper.PaperID, "iteration", retry+1, "feedback", eval.FeedbackMessage)
	}

	o.log.Warn("script retries exhausted, keeping last draft", "paper_id", paper.PaperID)
	return Result{Relevant: true, Accepted: false, Script: draft, Iterations: o.maxRetries}, nil
}

// isRelevant treats only the exact case-insensitive literal "yes" as a pass;
// any other reply, however close, fails closed.
func (o *Orchestrator) isRelevant(ctx context.Context, paper models.Paper) (bool, error) {
	raw, _, err := o.gen.Generate(ctx, providers.GenerateRequest{
		Operation: opIsRelevantPaper,
		Prompt:    buildRelevancePrompt(paper),
	})
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(raw), "yes"), nil
}

// summarizeSections runs sequentially in document order. Sequencing keeps
// request pressure on the backend low and makes summary order deterministic.
// Any failure aborts the stage.
func (o *Orchestrator) summarizeSections(ctx context.Context, paper models.Paper, extractor SectionExtractor) (*SummaryList, error) {
	summaries := NewSummaryList()
	for _, sec := range paper.Sections {
		text, err := extractor.SectionText(sec)
		if err != nil {
			return nil, fmt.Errorf("extract %q: %w", sec.Key(), err)
		}
		var out struct {
			Summary string `json:"summary"`
		}
		if _, err := o.gen.GenerateStructured(ctx, providers.GenerateRequest{
			Operation: opSummarizeSection,
			Prompt:    buildSummarizePrompt(paper, sec, text),
		}, &out); err != nil {
			return nil, fmt.Errorf("summarize %q: %w", sec.Key(), err)
		}
		summaries.Add(SectionSummary{Section: sec, Summary: out.Summary})
	}
	return summaries, nil
}

func (o *Orchestrator) composeScript(ctx context.Context, paper models.Paper, summaries *SummaryList, feedback []string) (string, error) {
	var out struct {
		Script string `json:"script"`
	}
	if _, err := o.gen.GenerateStructured(ctx, providers.GenerateRequest{
		Operation: opWriteScript,
		Prompt:    buildComposePrompt(paper, summaries, feedback),
	}, &out); err != nil {
		return "", err
	}
	return out.Script, nil
}

func (o *Orchestrator) evaluateScript(ctx context.Context, paper models.Paper, draft string) (EvaluateResult, error) {
	var out EvaluateResult
	if _, err := o.gen.GenerateStructured(ctx, providers.GenerateRequest{
		Operation: opEvaluateScript,
		Prompt:    buildEvaluatePrompt(paper, draft),
	}, &out); err != nil {
		return EvaluateResult{}, err
	}
	return out, nil
}
