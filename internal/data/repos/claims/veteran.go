package claims

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"github.com/yungbote/claimsbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
)

type VeteranRepo interface {
	Create(dbc dbctx.Context, veterans []*types.Veteran) ([]*types.Veteran, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Veteran, error)
}

type veteranRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVeteranRepo(db *gorm.DB, baseLog *logger.Logger) VeteranRepo {
	return &veteranRepo{db: db, log: baseLog.With("repo", "VeteranRepo")}
}

func (r *veteranRepo) Create(dbc dbctx.Context, veterans []*types.Veteran) ([]*types.Veteran, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(veterans) == 0 {
		return []*types.Veteran{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&veterans).Error; err != nil {
		return nil, err
	}
	return veterans, nil
}

func (r *veteranRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Veteran, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Veteran
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
