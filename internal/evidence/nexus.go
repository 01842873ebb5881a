package evidence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/claimsbridge-backend/internal/data/repos"
	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"github.com/yungbote/claimsbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/claimsbridge-backend/internal/platform/faults"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
)

// NexusEngine reconciles the derived nexus index for one veteran. A tag
// qualifies when the veteran has linked conditions on both sides of the
// service boundary; qualifying tags without an active entry get one, and
// active entries that no longer qualify are revoked in place.
type NexusEngine struct {
	log        *logger.Logger
	db         *gorm.DB
	conditions repos.ConditionRepo
	nexusTags  repos.NexusTagRepo
}

func NewNexusEngine(log *logger.Logger, db *gorm.DB, r repos.All) *NexusEngine {
	return &NexusEngine{
		log:        log.With("service", "NexusEngine"),
		db:         db,
		conditions: r.Conditions,
		nexusTags:  r.NexusTags,
	}
}

// Recompute is a set reconciliation, safe to call repeatedly and
// concurrently for the same veteran. The qualifying predicate is evaluated
// once and both the discover and revoke decisions derive from it.
func (n *NexusEngine) Recompute(ctx context.Context, veteranID uuid.UUID) error {
	tx := n.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("%w: begin nexus recompute: %v", faults.ErrPersistence, tx.Error)
	}
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	if err := n.recomputeTx(dbc, veteranID); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("%w: commit nexus recompute: %v", faults.ErrPersistence, err)
	}
	return nil
}

func (n *NexusEngine) recomputeTx(dbc dbctx.Context, veteranID uuid.UUID) error {
	evidence, err := n.conditions.TagEvidenceByVeteranID(dbc, veteranID)
	if err != nil {
		return fmt.Errorf("%w: tag evidence: %v", faults.ErrPersistence, err)
	}

	qualifying := make(map[uuid.UUID]bool, len(evidence))
	for _, e := range evidence {
		if e.BothSides() {
			qualifying[e.TagID] = true
		}
	}

	active, err := n.nexusTags.GetActiveByVeteranID(dbc, veteranID)
	if err != nil {
		return fmt.Errorf("%w: active nexus entries: %v", faults.ErrPersistence, err)
	}
	activeByTag := make(map[uuid.UUID]*types.NexusTag, len(active))
	for _, entry := range active {
		activeByTag[entry.TagID] = entry
	}

	var discovered []*types.NexusTag
	for tagID := range qualifying {
		if _, ok := activeByTag[tagID]; ok {
			continue
		}
		discovered = append(discovered, &types.NexusTag{
			TagID:     tagID,
			VeteranID: veteranID,
		})
	}
	if len(discovered) > 0 {
		if _, err := n.nexusTags.Create(dbc, discovered); err != nil {
			return fmt.Errorf("%w: discover nexus entries: %v", faults.ErrPersistence, err)
		}
	}

	var revoked []uuid.UUID
	for tagID, entry := range activeByTag {
		if qualifying[tagID] {
			continue
		}
		revoked = append(revoked, entry.ID)
	}
	if len(revoked) > 0 {
		if err := n.nexusTags.RevokeByIDs(dbc, revoked, time.Now().UTC()); err != nil {
			return fmt.Errorf("%w: revoke nexus entries: %v", faults.ErrPersistence, err)
		}
	}

	n.log.Info("Nexus recompute complete",
		"veteran_id", veteranID,
		"qualifying", len(qualifying),
		"discovered", len(discovered),
		"revoked", len(revoked),
	)
	return nil
}
