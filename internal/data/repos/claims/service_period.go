package claims

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"github.com/yungbote/claimsbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
)

type ServicePeriodRepo interface {
	Create(dbc dbctx.Context, periods []*types.ServicePeriod) ([]*types.ServicePeriod, error)
	GetByVeteranID(dbc dbctx.Context, veteranID uuid.UUID) ([]*types.ServicePeriod, error)
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type servicePeriodRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewServicePeriodRepo(db *gorm.DB, baseLog *logger.Logger) ServicePeriodRepo {
	return &servicePeriodRepo{db: db, log: baseLog.With("repo", "ServicePeriodRepo")}
}

func (r *servicePeriodRepo) Create(dbc dbctx.Context, periods []*types.ServicePeriod) ([]*types.ServicePeriod, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(periods) == 0 {
		return []*types.ServicePeriod{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&periods).Error; err != nil {
		return nil, err
	}
	return periods, nil
}

func (r *servicePeriodRepo) GetByVeteranID(dbc dbctx.Context, veteranID uuid.UUID) ([]*types.ServicePeriod, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ServicePeriod
	if veteranID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("veteran_id = ?", veteranID).
		Order("start_date ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *servicePeriodRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.ServicePeriod{}).Error
}
