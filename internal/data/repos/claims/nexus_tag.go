package claims

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"github.com/yungbote/claimsbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
)

type NexusTagRepo interface {
	Create(dbc dbctx.Context, entries []*types.NexusTag) ([]*types.NexusTag, error)
	GetByVeteranID(dbc dbctx.Context, veteranID uuid.UUID) ([]*types.NexusTag, error)
	GetActiveByVeteranID(dbc dbctx.Context, veteranID uuid.UUID) ([]*types.NexusTag, error)
	// RevokeByIDs stamps revoked_at on active entries; revoked rows are
	// never deleted and never re-stamped.
	RevokeByIDs(dbc dbctx.Context, ids []uuid.UUID, at time.Time) error
}

type nexusTagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNexusTagRepo(db *gorm.DB, baseLog *logger.Logger) NexusTagRepo {
	return &nexusTagRepo{db: db, log: baseLog.With("repo", "NexusTagRepo")}
}

func (r *nexusTagRepo) Create(dbc dbctx.Context, entries []*types.NexusTag) ([]*types.NexusTag, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(entries) == 0 {
		return []*types.NexusTag{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *nexusTagRepo) GetByVeteranID(dbc dbctx.Context, veteranID uuid.UUID) ([]*types.NexusTag, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.NexusTag
	if veteranID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("veteran_id = ?", veteranID).
		Order("discovered_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *nexusTagRepo) GetActiveByVeteranID(dbc dbctx.Context, veteranID uuid.UUID) ([]*types.NexusTag, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.NexusTag
	if veteranID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("veteran_id = ? AND revoked_at IS NULL", veteranID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *nexusTagRepo) RevokeByIDs(dbc dbctx.Context, ids []uuid.UUID, at time.Time) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.NexusTag{}).
		Where("id IN ? AND revoked_at IS NULL", ids).
		Update("revoked_at", at.UTC()).Error
}
