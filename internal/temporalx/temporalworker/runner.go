package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"gorm.io/gorm"

	"github.com/yungbote/claimsbridge-backend/internal/data/repos"
	"github.com/yungbote/claimsbridge-backend/internal/evidence"
	"github.com/yungbote/claimsbridge-backend/internal/extraction"
	"github.com/yungbote/claimsbridge-backend/internal/platform/envutil"
	"github.com/yungbote/claimsbridge-backend/internal/platform/gcp"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
	"github.com/yungbote/claimsbridge-backend/internal/temporalx"
	"github.com/yungbote/claimsbridge-backend/internal/temporalx/docpipeline"
)

// Runner hosts the document pipeline worker: it registers the workflow and
// its activities on the configured task queue and keeps retrying startup
// until Temporal is reachable.
type Runner struct {
	log *logger.Logger

	tc        temporalsdkclient.Client
	db        *gorm.DB
	repos     repos.All
	bucket    gcp.BucketService
	extractor extraction.Extractor
	visits    *evidence.VisitProcessor
	nexus     *evidence.NexusEngine
}

func NewRunner(
	log *logger.Logger,
	tc temporalsdkclient.Client,
	db *gorm.DB,
	r repos.All,
	bucket gcp.BucketService,
	extractor extraction.Extractor,
	visits *evidence.VisitProcessor,
	nexus *evidence.NexusEngine,
) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if db == nil || bucket == nil || extractor == nil || visits == nil || nexus == nil {
		return nil, fmt.Errorf("temporal worker missing deps")
	}
	return &Runner{
		log:       log,
		tc:        tc,
		db:        db,
		repos:     r,
		bucket:    bucket,
		extractor: extractor,
		visits:    visits,
		nexus:     nexus,
	}, nil
}

func (r *Runner) Start(ctx context.Context) error {
	if r == nil || r.tc == nil {
		return fmt.Errorf("temporal worker not initialized")
	}

	cfg := temporalx.LoadConfig()
	if r.log != nil {
		r.log.Info("Starting Temporal worker", "address", cfg.Address, "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue)
	}

	maxWait := 60 * time.Second
	backoff := 250 * time.Millisecond
	deadline := time.Now().Add(maxWait)

	for attempt := 1; ; attempt++ {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		w := r.newWorker(cfg)
		startErr := w.Start()
		if startErr == nil {
			if ctx != nil {
				go func() {
					<-ctx.Done()
					w.Stop()
				}()
			}
			if r.log != nil {
				r.log.Info("Temporal worker started", "namespace", cfg.Namespace, "task_queue", cfg.TaskQueue, "attempts", attempt)
			}
			return nil
		}
		w.Stop()

		var nfe *serviceerror.NamespaceNotFound
		if errors.As(startErr, &nfe) {
			baseCtx := ctx
			if baseCtx == nil {
				baseCtx = context.Background()
			}
			if err := temporalx.EnsureNamespace(baseCtx, cfg, r.log); err != nil && r.log != nil {
				r.log.Warn("Temporal namespace ensure failed", "namespace", cfg.Namespace, "error", err)
			}
		}

		if time.Now().After(deadline) {
			return startErr
		}
		if r.log != nil {
			r.log.Warn("Temporal worker failed to start; retrying", "namespace", cfg.Namespace, "attempt", attempt, "error", startErr)
		}
		time.Sleep(backoff)
		if backoff < 5*time.Second {
			backoff *= 2
		}
	}
}

func (r *Runner) newWorker(cfg temporalx.Config) worker.Worker {
	concurrency := envutil.GetEnvAsInt("WORKER_CONCURRENCY", 4, r.log)
	if concurrency < 1 {
		concurrency = 1
	}

	w := worker.New(r.tc, cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})

	acts := &docpipeline.Activities{
		Log:       r.log,
		DB:        r.db,
		Repos:     r.repos,
		Bucket:    r.bucket,
		Extractor: r.extractor,
		Visits:    r.visits,
		Nexus:     r.nexus,
	}

	w.RegisterWorkflowWithOptions(docpipeline.Workflow, workflow.RegisterOptions{Name: docpipeline.WorkflowName})
	w.RegisterActivityWithOptions(acts.Extract, activity.RegisterOptions{Name: docpipeline.ActivityExtract})
	w.RegisterActivityWithOptions(acts.ProcessPages, activity.RegisterOptions{Name: docpipeline.ActivityProcessPages})
	w.RegisterActivityWithOptions(acts.Finalize, activity.RegisterOptions{Name: docpipeline.ActivityFinalize})
	w.RegisterActivityWithOptions(acts.MarkFailed, activity.RegisterOptions{Name: docpipeline.ActivityMarkFailed})
	return w
}
