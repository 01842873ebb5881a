package docpipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/yungbote/claimsbridge-backend/internal/evidence"
)

// Workflow is the three-stage document chain: extraction, visit fan-out,
// finalization. Each stage carries its own retry budget; exhausting any
// stage's budget marks the document Failed and fails the run. Remaining
// fine-grained concurrency lives inside the activities, not here.
func Workflow(ctx workflow.Context, in PipelineInput) (FinalizeResult, error) {
	out := FinalizeResult{}
	if in.DocumentID == uuid.Nil {
		return out, fmt.Errorf("docpipeline: missing document_id")
	}

	// Fixed 10s delay between attempts, 3 attempts per stage.
	stageRetry := &temporal.RetryPolicy{
		InitialInterval:    10 * time.Second,
		BackoffCoefficient: 1.0,
		MaximumAttempts:    3,
	}
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		HeartbeatTimeout:    2 * time.Minute,
		RetryPolicy:         stageRetry,
	})

	var extracted ExtractResult
	if err := workflow.ExecuteActivity(ctx, ActivityExtract, in).Get(ctx, &extracted); err != nil {
		markFailed(ctx, in)
		return out, fmt.Errorf("docpipeline: extraction stage: %w", err)
	}

	var stats evidence.ProcessStats
	if err := workflow.ExecuteActivity(ctx, ActivityProcessPages, in, extracted.Pages).Get(ctx, &stats); err != nil {
		markFailed(ctx, in)
		return out, fmt.Errorf("docpipeline: evidence stage: %w", err)
	}

	// The finalize barrier: nexus recompute only runs after every visit and
	// diagnosis of this batch has been awaited and committed.
	if err := workflow.ExecuteActivity(ctx, ActivityFinalize, in).Get(ctx, nil); err != nil {
		markFailed(ctx, in)
		return out, fmt.Errorf("docpipeline: finalize stage: %w", err)
	}

	out.Status = "complete"
	out.Stats = stats
	return out, nil
}

// markFailed flips the document's status after a stage exhausts its
// retries. Best effort: the pipeline error is surfaced either way.
func markFailed(ctx workflow.Context, in PipelineInput) {
	failCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 1 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    5,
		},
	})
	if err := workflow.ExecuteActivity(failCtx, ActivityMarkFailed, in).Get(failCtx, nil); err != nil {
		workflow.GetLogger(ctx).Error("Failed to mark document failed", "document_id", in.DocumentID, "error", err)
	}
}
