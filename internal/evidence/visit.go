package evidence

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"github.com/yungbote/claimsbridge-backend/internal/extraction"
	"github.com/yungbote/claimsbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/claimsbridge-backend/internal/platform/envutil"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
)

// VisitProcessor runs the two-level fan-out over extracted pages: visits
// concurrently, and within each visit its diagnoses concurrently. Every
// diagnosis gets its own transactional session; a failing unit is logged
// and never cancels its siblings.
type VisitProcessor struct {
	log    *logger.Logger
	db     *gorm.DB
	writer *Writer
	assoc  *Associator

	visitWorkers     int
	diagnosisWorkers int
}

// ProcessStats summarizes one fan-out pass for logging and pipeline output.
type ProcessStats struct {
	Visits            int `json:"visits"`
	VisitsSkipped     int `json:"visits_skipped"`
	ConditionsWritten int `json:"conditions_written"`
	ConditionsReplay  int `json:"conditions_replayed"`
	DiagnosisFailures int `json:"diagnosis_failures"`
}

func NewVisitProcessor(log *logger.Logger, db *gorm.DB, writer *Writer, assoc *Associator) *VisitProcessor {
	slog := log.With("service", "VisitProcessor")
	return &VisitProcessor{
		log:              slog,
		db:               db,
		writer:           writer,
		assoc:            assoc,
		visitWorkers:     envutil.GetEnvAsInt("EVIDENCE_VISIT_WORKERS", 10, slog),
		diagnosisWorkers: envutil.GetEnvAsInt("EVIDENCE_DIAGNOSIS_WORKERS", 10, slog),
	}
}

// ProcessPages walks the clinical pages and processes every visit found.
// It returns only aggregate stats: per-unit failures are contained here.
func (p *VisitProcessor) ProcessPages(
	ctx context.Context,
	pages []extraction.PageResult,
	veteranID uuid.UUID,
	documentID uuid.UUID,
	periods []*types.ServicePeriod,
) ProcessStats {
	var visits, skipped, written, replayed, failures int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.visitWorkers)

	for _, page := range pages {
		if page.Category != extraction.CategoryClinicalRecords || page.Details == nil {
			continue
		}
		pageNum := page.Page
		for _, visit := range page.Details.Visits {
			visit := visit
			g.Go(func() error {
				atomic.AddInt64(&visits, 1)
				stats := p.processVisit(gctx, visit, pageNum, veteranID, documentID, periods)
				atomic.AddInt64(&skipped, int64(stats.VisitsSkipped))
				atomic.AddInt64(&written, int64(stats.ConditionsWritten))
				atomic.AddInt64(&replayed, int64(stats.ConditionsReplay))
				atomic.AddInt64(&failures, int64(stats.DiagnosisFailures))
				return nil
			})
		}
	}
	_ = g.Wait()

	out := ProcessStats{
		Visits:            int(visits),
		VisitsSkipped:     int(skipped),
		ConditionsWritten: int(written),
		ConditionsReplay:  int(replayed),
		DiagnosisFailures: int(failures),
	}
	p.log.Info("Visit fan-out complete",
		"document_id", documentID,
		"visits", out.Visits,
		"visits_skipped", out.VisitsSkipped,
		"conditions_written", out.ConditionsWritten,
		"conditions_replayed", out.ConditionsReplay,
		"diagnosis_failures", out.DiagnosisFailures,
	)
	return out
}

func (p *VisitProcessor) processVisit(
	ctx context.Context,
	visit extraction.Visit,
	pageNumber int,
	veteranID uuid.UUID,
	documentID uuid.UUID,
	periods []*types.ServicePeriod,
) ProcessStats {
	visitDate, err := time.Parse("2006-01-02", strings.TrimSpace(visit.DateOfVisit))
	if err != nil {
		p.log.Error("Invalid visit date, skipping visit",
			"date", visit.DateOfVisit,
			"page", pageNumber,
			"error", err,
		)
		return ProcessStats{VisitsSkipped: 1}
	}

	// The in-service flag is computed once per visit and applied to every
	// child diagnosis; bounds are inclusive on both ends.
	inService := false
	for _, period := range periods {
		if period.Contains(visitDate) {
			inService = true
			break
		}
	}

	professionals := strings.Join(visit.MedicalProfessionals, ", ")

	var written, replayed, failures int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.diagnosisWorkers)
	for _, diag := range visit.Diagnoses {
		diag := diag
		g.Go(func() error {
			created, ok := p.processDiagnosis(gctx, diag, veteranID, documentID, pageNumber, visitDate, professionals, inService)
			if !ok {
				atomic.AddInt64(&failures, 1)
			} else if created {
				atomic.AddInt64(&written, 1)
			} else {
				atomic.AddInt64(&replayed, 1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return ProcessStats{
		ConditionsWritten: int(written),
		ConditionsReplay:  int(replayed),
		DiagnosisFailures: int(failures),
	}
}

// processDiagnosis writes one diagnosis in its own transaction, then hands
// the stored condition to the associator. It reports (created, ok); ok is
// false only when persistence itself failed.
func (p *VisitProcessor) processDiagnosis(
	ctx context.Context,
	diag extraction.Diagnosis,
	veteranID uuid.UUID,
	documentID uuid.UUID,
	pageNumber int,
	visitDate time.Time,
	professionals string,
	inService bool,
) (bool, bool) {
	tx := p.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		p.log.Error("Begin diagnosis transaction failed", "page", pageNumber, "error", tx.Error)
		return false, false
	}

	cond, created, err := p.writer.WriteDiagnosis(
		dbctx.Context{Ctx: ctx, Tx: tx},
		diag, veteranID, documentID, pageNumber, &visitDate, professionals, inService,
	)
	if err != nil {
		tx.Rollback()
		p.log.Error("Writing diagnosis failed", "page", pageNumber, "error", err)
		return false, false
	}
	if cond == nil {
		// Validation skip; nothing to commit.
		tx.Rollback()
		return false, true
	}
	if err := tx.Commit().Error; err != nil {
		p.log.Error("Commit diagnosis failed", "page", pageNumber, "error", err)
		return false, false
	}

	if created {
		p.assoc.Associate(ctx, cond)
	} else {
		// A prior attempt may have committed the row and died before
		// association ran; settle the replayed row now.
		p.assoc.EnsureAssociated(ctx, cond)
	}
	return created, true
}
