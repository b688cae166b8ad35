package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"papercast/internal/activities"
	"papercast/internal/models"
)

const defaultBatchTimeout = 60 * time.Minute

// ScriptWritingWorkflow ingests the daily paper list and writes a podcast
// script for every relevant paper. Papers are processed one at a time; a
// failure on one paper is logged and the batch moves on.
func ScriptWritingWorkflow(ctx workflow.Context, input BatchInput) (BatchResult, error) {
	logger := workflow.GetLogger(ctx)
	result := BatchResult{TargetDate: input.TargetDate}

	listCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	})
	var listOut activities.ListDailyPapersOutput
	if err := workflow.ExecuteActivity(listCtx, "ListDailyPapersActivity", activities.ListDailyPapersInput{
		TargetDate: input.TargetDate,
	}).Get(ctx, &listOut); err != nil {
		return result, err
	}
	result.Listed = len(listOut.PaperIDs)

	createCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    3,
		},
	})
	// The script loop retries the model itself; a second activity attempt
	// would rerun the whole loop.
	scriptCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: batchTimeout(input),
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})

	for _, paperID := range listOut.PaperIDs {
		var created activities.CreatePaperOutput
		if err := workflow.ExecuteActivity(createCtx, "CreatePaperActivity", activities.CreatePaperInput{
			PaperID:    paperID,
			TargetDate: input.TargetDate,
		}).Get(ctx, &created); err != nil {
			logger.Error("paper creation failed", "paper_id", paperID, "error", err)
			continue
		}

		var scriptOut activities.WriteScriptOutput
		if err := workflow.ExecuteActivity(scriptCtx, "WriteScriptActivity", activities.WriteScriptInput{
			Paper: created.Paper,
		}).Get(ctx, &scriptOut); err != nil {
			logger.Error("script writing failed", "paper_id", paperID, "error", err)
			continue
		}
		if !scriptOut.Relevant {
			logger.Info("paper not relevant, skipping", "paper_id", paperID)
			continue
		}
		if !scriptOut.Accepted {
			logger.Warn("script evaluation exhausted, keeping last draft",
				"paper_id", paperID, "iterations", scriptOut.Iterations)
		}
		result.Processed++
	}
	return result, nil
}

// SpeechSynthesisWorkflow synthesizes audio chunks for every paper of the
// target date that has a script.
func SpeechSynthesisWorkflow(ctx workflow.Context, input BatchInput) (BatchResult, error) {
	logger := workflow.GetLogger(ctx)
	result := BatchResult{TargetDate: input.TargetDate}

	papers, err := selectPapers(ctx, input.TargetDate, models.StatusScriptCreated)
	if err != nil {
		return result, err
	}
	result.Listed = len(papers)

	// Synthesis does its own retrying per chunk; the activity gets one shot
	// bounded by the batch timeout.
	synthCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: batchTimeout(input),
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	for _, paper := range papers {
		var out activities.SynthesizeSpeechOutput
		if err := workflow.ExecuteActivity(synthCtx, "SynthesizeSpeechActivity", activities.SynthesizeSpeechInput{
			Paper: paper,
		}).Get(ctx, &out); err != nil {
			logger.Error("speech synthesis failed", "paper_id", paper.PaperID, "error", err)
			continue
		}
		result.Processed++
	}
	return result, nil
}

// AudioAssemblyWorkflow mixes the final track for every paper of the target
// date whose chunks are complete.
func AudioAssemblyWorkflow(ctx workflow.Context, input BatchInput) (BatchResult, error) {
	logger := workflow.GetLogger(ctx)
	result := BatchResult{TargetDate: input.TargetDate}

	papers, err := selectPapers(ctx, input.TargetDate, models.StatusTTSCompleted)
	if err != nil {
		return result, err
	}
	result.Listed = len(papers)

	assembleCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: batchTimeout(input),
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	for _, paper := range papers {
		var out activities.AssembleAudioOutput
		if err := workflow.ExecuteActivity(assembleCtx, "AssembleAudioActivity", activities.AssembleAudioInput{
			Paper: paper,
		}).Get(ctx, &out); err != nil {
			logger.Error("audio assembly failed", "paper_id", paper.PaperID, "error", err)
			continue
		}
		result.Processed++
	}
	return result, nil
}

func selectPapers(ctx workflow.Context, targetDate string, status models.Status) ([]models.Paper, error) {
	selectCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	})
	var out activities.SelectPapersOutput
	if err := workflow.ExecuteActivity(selectCtx, "SelectPapersActivity", activities.SelectPapersInput{
		TargetDate: targetDate,
		Status:     status,
	}).Get(ctx, &out); err != nil {
		return nil, err
	}
	return out.Papers, nil
}

func batchTimeout(input BatchInput) time.Duration {
	if input.TimeoutMins > 0 {
		return time.Duration(input.TimeoutMins) * time.Minute
	}
	return defaultBatchTimeout
}
