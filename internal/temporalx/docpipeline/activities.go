package docpipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/claimsbridge-backend/internal/data/repos"
	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"github.com/yungbote/claimsbridge-backend/internal/evidence"
	"github.com/yungbote/claimsbridge-backend/internal/extraction"
	"github.com/yungbote/claimsbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/claimsbridge-backend/internal/platform/gcp"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
)

type Activities struct {
	Log       *logger.Logger
	DB        *gorm.DB
	Repos     repos.All
	Bucket    gcp.BucketService
	Extractor extraction.Extractor
	Visits    *evidence.VisitProcessor
	Nexus     *evidence.NexusEngine
}

// Extract downloads the document, runs OCR plus classification, and stores
// per-page error markers as extraction warnings on the document row.
func (a *Activities) Extract(ctx context.Context, in PipelineInput) (ExtractResult, error) {
	res := ExtractResult{}
	if a == nil || a.DB == nil || a.Bucket == nil || a.Extractor == nil {
		return res, fmt.Errorf("docpipeline: extract activity not configured")
	}

	doc, err := a.loadDocument(ctx, in.DocumentID)
	if err != nil {
		return res, err
	}

	if err := a.Repos.Documents.UpdateStatus(dbctx.Context{Ctx: ctx}, doc.ID, types.DocumentStatusExtracting); err != nil {
		return res, fmt.Errorf("docpipeline: mark extracting: %w", err)
	}

	stop := a.startHeartbeat(ctx)
	defer stop()

	rc, err := a.Bucket.DownloadFile(ctx, doc.StorageKey)
	if err != nil {
		return res, fmt.Errorf("docpipeline: download %s: %w", doc.StorageKey, err)
	}
	raw, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return res, fmt.Errorf("docpipeline: read %s: %w", doc.StorageKey, err)
	}

	pages, err := a.Extractor.Extract(ctx, raw, doc.Kind)
	if err != nil {
		return res, err
	}

	if warnings := collectWarnings(pages); warnings != nil {
		if err := a.Repos.Documents.SetExtractionWarnings(dbctx.Context{Ctx: ctx}, doc.ID, warnings); err != nil {
			a.Log.Warn("Failed to store extraction warnings", "document_id", doc.ID, "error", err)
		}
	}

	a.Log.Info("Extraction stage complete", "document_id", doc.ID, "pages", len(pages))
	res.Pages = pages
	return res, nil
}

// ProcessPages runs the visit/diagnosis fan-out over the extracted pages.
// Per-unit failures are contained inside the processor; only stage-level
// failures (status update, service period load) return an error here.
func (a *Activities) ProcessPages(ctx context.Context, in PipelineInput, pages []extraction.PageResult) (evidence.ProcessStats, error) {
	stats := evidence.ProcessStats{}
	if a == nil || a.Visits == nil {
		return stats, fmt.Errorf("docpipeline: process activity not configured")
	}

	if err := a.Repos.Documents.UpdateStatus(dbctx.Context{Ctx: ctx}, in.DocumentID, types.DocumentStatusFinding); err != nil {
		return stats, fmt.Errorf("docpipeline: mark finding evidence: %w", err)
	}

	periods, err := a.Repos.ServicePeriods.GetByVeteranID(dbctx.Context{Ctx: ctx}, in.VeteranID)
	if err != nil {
		return stats, fmt.Errorf("docpipeline: load service periods: %w", err)
	}

	stop := a.startHeartbeat(ctx)
	defer stop()

	stats = a.Visits.ProcessPages(ctx, pages, in.VeteranID, in.DocumentID, periods)
	return stats, nil
}

// Finalize recomputes the nexus index for the veteran and completes the
// document. This only runs after the fan-out barrier, never beside it.
func (a *Activities) Finalize(ctx context.Context, in PipelineInput) error {
	if a == nil || a.Nexus == nil {
		return fmt.Errorf("docpipeline: finalize activity not configured")
	}

	if err := a.Nexus.Recompute(ctx, in.VeteranID); err != nil {
		return err
	}
	if err := a.Repos.Documents.UpdateStatus(dbctx.Context{Ctx: ctx}, in.DocumentID, types.DocumentStatusComplete); err != nil {
		return fmt.Errorf("docpipeline: mark complete: %w", err)
	}
	a.Log.Info("Pipeline complete", "document_id", in.DocumentID)
	return nil
}

func (a *Activities) MarkFailed(ctx context.Context, in PipelineInput) error {
	if a == nil {
		return fmt.Errorf("docpipeline: activity not configured")
	}
	return a.Repos.Documents.UpdateStatus(dbctx.Context{Ctx: ctx}, in.DocumentID, types.DocumentStatusFailed)
}

func (a *Activities) loadDocument(ctx context.Context, id uuid.UUID) (*types.SourceDocument, error) {
	docs, err := a.Repos.Documents.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("docpipeline: load document: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("docpipeline: document not found")
	}
	return docs[0], nil
}

// startHeartbeat keeps long stages visible to Temporal. Safe to call from
// tests outside an activity context.
func (a *Activities) startHeartbeat(ctx context.Context) func() {
	if !activity.IsActivity(ctx) {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				activity.RecordHeartbeat(ctx)
			}
		}
	}()
	return func() { close(done) }
}

func collectWarnings(pages []extraction.PageResult) datatypes.JSON {
	type warning struct {
		Page  int    `json:"page"`
		Error string `json:"error"`
	}
	var warnings []warning
	for _, p := range pages {
		if p.Err != "" {
			warnings = append(warnings, warning{Page: p.Page, Error: p.Err})
		}
	}
	if len(warnings) == 0 {
		return nil
	}
	raw, err := json.Marshal(warnings)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
