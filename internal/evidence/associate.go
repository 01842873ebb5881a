package evidence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/yungbote/claimsbridge-backend/internal/data/repos"
	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"github.com/yungbote/claimsbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/claimsbridge-backend/internal/platform/envutil"
	"github.com/yungbote/claimsbridge-backend/internal/platform/faults"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
	"github.com/yungbote/claimsbridge-backend/internal/platform/openai"
)

// Associator embeds a condition's descriptive text, stores the vector, and
// links the condition to its nearest catalog tag when the match is
// confident enough. Failures never escape: they resolve to ratable=false
// with a logged cause.
type Associator struct {
	log        *logger.Logger
	db         *gorm.DB
	ai         openai.Client
	conditions repos.ConditionRepo
	embeddings repos.ConditionEmbeddingRepo
	tags       repos.TagRepo

	// Calibrated acceptance threshold; inclusive.
	maxDistance float64
}

func NewAssociator(log *logger.Logger, db *gorm.DB, ai openai.Client, r repos.All) *Associator {
	slog := log.With("service", "TagAssociator")
	return &Associator{
		log:         slog,
		db:          db,
		ai:          ai,
		conditions:  r.Conditions,
		embeddings:  r.Embeddings,
		tags:        r.Tags,
		maxDistance: envutil.GetEnvAsFloat("EVIDENCE_MAX_COSINE_DISTANCE", 0.559, slog),
	}
}

// EnsureAssociated settles a replayed condition whose earlier attempt
// committed the row but died before association finished. Conditions
// already linked, or already marked non-ratable, are left alone; both
// association writes absorb re-runs, so re-associating is safe.
func (a *Associator) EnsureAssociated(ctx context.Context, cond *types.Condition) {
	if cond == nil || !cond.Ratable {
		return
	}
	linked, err := a.conditions.HasTagLink(dbctx.Context{Ctx: ctx}, cond.ID)
	if err != nil {
		a.log.Error("Tag link check failed, re-running association", "condition_id", cond.ID, "error", err)
	}
	if linked {
		return
	}
	a.Associate(ctx, cond)
}

// Associate always leaves the condition in a determinate ratable state.
func (a *Associator) Associate(ctx context.Context, cond *types.Condition) {
	if cond == nil {
		return
	}
	log := a.log.With("condition_id", cond.ID)

	text := fmt.Sprintf("Condition Name: %s, Findings: %s", cond.Name, cond.Findings)

	vecs, err := a.ai.Embed(ctx, []string{text})
	if err != nil {
		log.Error("Embedding call failed, marking non-ratable", "error", err)
		a.markNonRatable(ctx, cond.ID)
		return
	}
	if len(vecs) == 0 || vecs[0] == nil {
		log.Error("Embedding service returned no vector, marking non-ratable")
		a.markNonRatable(ctx, cond.ID)
		return
	}
	probe := pgvector.NewVector(vecs[0])

	tx := a.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		log.Error("Begin association transaction failed, marking non-ratable", "error", tx.Error)
		a.markNonRatable(ctx, cond.ID)
		return
	}
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	ratable, err := a.associateTx(dbc, cond.ID, probe, log)
	if err != nil {
		tx.Rollback()
		log.Error("Tag association failed, marking non-ratable", "error", err)
		a.markNonRatable(ctx, cond.ID)
		return
	}
	if err := tx.Commit().Error; err != nil {
		log.Error("Commit association failed, marking non-ratable", "error", err)
		a.markNonRatable(ctx, cond.ID)
		return
	}
	if !ratable {
		a.markNonRatable(ctx, cond.ID)
	}
}

// associateTx runs the vector write and nearest-tag lookup in one session
// and reports whether the condition stays ratable.
func (a *Associator) associateTx(dbc dbctx.Context, conditionID uuid.UUID, probe pgvector.Vector, log *logger.Logger) (bool, error) {
	if err := a.embeddings.Create(dbc, &types.ConditionEmbedding{
		ConditionID: conditionID,
		Embedding:   probe,
	}); err != nil {
		return false, fmt.Errorf("%w: store embedding: %v", faults.ErrAssociation, err)
	}

	matches, err := a.tags.NearestByEmbedding(dbc, probe, 1)
	if err != nil {
		return false, fmt.Errorf("%w: nearest tag lookup: %v", faults.ErrAssociation, err)
	}
	if len(matches) == 0 {
		log.Info("No catalog tags available, marking non-ratable")
		return false, nil
	}

	best := matches[0]
	if best.Distance > a.maxDistance {
		log.Info("Nearest tag beyond acceptance threshold, marking non-ratable",
			"tag_id", best.Tag.ID,
			"distance", best.Distance,
			"threshold", a.maxDistance,
		)
		return false, nil
	}

	if err := a.conditions.LinkTag(dbc, conditionID, best.Tag.ID); err != nil {
		return false, fmt.Errorf("%w: link tag: %v", faults.ErrAssociation, err)
	}
	log.Info("Associated tag with condition",
		"tag_id", best.Tag.ID,
		"distance", best.Distance,
	)
	return true, nil
}

func (a *Associator) markNonRatable(ctx context.Context, conditionID uuid.UUID) {
	if err := a.conditions.SetRatable(dbctx.Context{Ctx: ctx}, conditionID, false); err != nil {
		a.log.Error("Failed to mark condition non-ratable", "condition_id", conditionID, "error", err)
	}
}
