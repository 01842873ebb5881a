package claims

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"github.com/yungbote/claimsbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
)

type SourceDocumentRepo interface {
	Create(dbc dbctx.Context, docs []*types.SourceDocument) ([]*types.SourceDocument, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.SourceDocument, error)
	GetByVeteranID(dbc dbctx.Context, veteranID uuid.UUID) ([]*types.SourceDocument, error)
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, status string) error
	SetExtractionWarnings(dbc dbctx.Context, id uuid.UUID, warnings datatypes.JSON) error
}

type sourceDocumentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSourceDocumentRepo(db *gorm.DB, baseLog *logger.Logger) SourceDocumentRepo {
	return &sourceDocumentRepo{db: db, log: baseLog.With("repo", "SourceDocumentRepo")}
}

func (r *sourceDocumentRepo) Create(dbc dbctx.Context, docs []*types.SourceDocument) ([]*types.SourceDocument, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(docs) == 0 {
		return []*types.SourceDocument{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *sourceDocumentRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.SourceDocument, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.SourceDocument
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

func (r *sourceDocumentRepo) GetByVeteranID(dbc dbctx.Context, veteranID uuid.UUID) ([]*types.SourceDocument, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.SourceDocument
	if veteranID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("veteran_id = ?", veteranID).
		Order("uploaded_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sourceDocumentRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, status string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(dbc.Ctx).
		Model(&types.SourceDocument{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *sourceDocumentRepo) SetExtractionWarnings(dbc dbctx.Context, id uuid.UUID, warnings datatypes.JSON) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(dbc.Ctx).
		Model(&types.SourceDocument{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"extraction_warnings": warnings,
			"updated_at":          time.Now().UTC(),
		}).Error
}
