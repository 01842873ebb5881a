package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/claimsbridge-backend/internal/data/repos"
	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"github.com/yungbote/claimsbridge-backend/internal/evidence"
	"github.com/yungbote/claimsbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
)

// ConditionService reads and removes evidence records. Deleting a record
// changes the both-sides evidence set, so removal always re-runs the nexus
// reconciliation before returning.
type ConditionService interface {
	ListByVeteran(ctx context.Context, veteranID uuid.UUID) ([]*types.Condition, error)
	Delete(ctx context.Context, veteranID, conditionID uuid.UUID) error
}

type conditionService struct {
	db         *gorm.DB
	log        *logger.Logger
	conditions repos.ConditionRepo
	nexus      *evidence.NexusEngine
}

func NewConditionService(db *gorm.DB, baseLog *logger.Logger, r repos.All, nexus *evidence.NexusEngine) ConditionService {
	return &conditionService{
		db:         db,
		log:        baseLog.With("service", "ConditionService"),
		conditions: r.Conditions,
		nexus:      nexus,
	}
}

func (s *conditionService) ListByVeteran(ctx context.Context, veteranID uuid.UUID) ([]*types.Condition, error) {
	return s.conditions.GetByVeteranID(dbctx.Context{Ctx: ctx}, veteranID)
}

func (s *conditionService) Delete(ctx context.Context, veteranID, conditionID uuid.UUID) error {
	conds, err := s.conditions.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{conditionID})
	if err != nil {
		return err
	}
	if len(conds) == 0 {
		return gorm.ErrRecordNotFound
	}
	if conds[0].VeteranID != veteranID {
		return fmt.Errorf("condition %s does not belong to veteran %s", conditionID, veteranID)
	}

	if err := s.conditions.DeleteByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{conditionID}); err != nil {
		return err
	}
	return s.nexus.Recompute(ctx, veteranID)
}
