package claims

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"github.com/yungbote/claimsbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
)

type ConditionEmbeddingRepo interface {
	Create(dbc dbctx.Context, emb *types.ConditionEmbedding) error
	GetByConditionIDs(dbc dbctx.Context, conditionIDs []uuid.UUID) ([]*types.ConditionEmbedding, error)
}

type conditionEmbeddingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConditionEmbeddingRepo(db *gorm.DB, baseLog *logger.Logger) ConditionEmbeddingRepo {
	return &conditionEmbeddingRepo{db: db, log: baseLog.With("repo", "ConditionEmbeddingRepo")}
}

func (r *conditionEmbeddingRepo) Create(dbc dbctx.Context, emb *types.ConditionEmbedding) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if emb == nil {
		return nil
	}

	// The vector is immutable once written; a retry keeps the first one.
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "condition_id"}},
			DoNothing: true,
		}).
		Create(emb).Error
}

func (r *conditionEmbeddingRepo) GetByConditionIDs(dbc dbctx.Context, conditionIDs []uuid.UUID) ([]*types.ConditionEmbedding, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ConditionEmbedding
	if len(conditionIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("condition_id IN ?", conditionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
