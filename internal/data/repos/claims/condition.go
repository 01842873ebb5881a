package claims

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"github.com/yungbote/claimsbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
)

// TagEvidence is the per-tag aggregation the nexus engine reconciles
// against: how many linked conditions sit inside vs. outside service.
type TagEvidence struct {
	TagID        uuid.UUID
	InService    int
	OutOfService int
}

func (e TagEvidence) BothSides() bool { return e.InService > 0 && e.OutOfService > 0 }

type ConditionRepo interface {
	// Insert writes one condition keyed by its dedupe key. It reports
	// false when the key already exists (retry replay); the stored row is
	// returned either way.
	Insert(dbc dbctx.Context, cond *types.Condition) (*types.Condition, bool, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Condition, error)
	GetByVeteranID(dbc dbctx.Context, veteranID uuid.UUID) ([]*types.Condition, error)
	GetByDocumentID(dbc dbctx.Context, documentID uuid.UUID) ([]*types.Condition, error)
	SetRatable(dbc dbctx.Context, id uuid.UUID, ratable bool) error
	LinkTag(dbc dbctx.Context, conditionID, tagID uuid.UUID) error
	// HasTagLink reports whether any tag is linked to the condition.
	HasTagLink(dbc dbctx.Context, conditionID uuid.UUID) (bool, error)
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	// TagEvidenceByVeteranID returns, per tag linked to any of the
	// veteran's conditions, the in/out-of-service counts.
	TagEvidenceByVeteranID(dbc dbctx.Context, veteranID uuid.UUID) ([]TagEvidence, error)
}

type conditionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConditionRepo(db *gorm.DB, baseLog *logger.Logger) ConditionRepo {
	return &conditionRepo{db: db, log: baseLog.With("repo", "ConditionRepo")}
}

func (r *conditionRepo) Insert(dbc dbctx.Context, cond *types.Condition) (*types.Condition, bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if cond == nil {
		return nil, false, nil
	}

	res := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dedupe_key"}},
			DoNothing: true,
		}).
		Create(cond)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return cond, true, nil
	}

	// Conflict: a previous attempt already wrote this diagnosis.
	var existing types.Condition
	if err := transaction.WithContext(dbc.Ctx).
		Where("dedupe_key = ?", cond.DedupeKey).
		First(&existing).Error; err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

func (r *conditionRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Condition, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Condition
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

func (r *conditionRepo) GetByVeteranID(dbc dbctx.Context, veteranID uuid.UUID) ([]*types.Condition, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Condition
	if veteranID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("veteran_id = ?", veteranID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *conditionRepo) GetByDocumentID(dbc dbctx.Context, documentID uuid.UUID) ([]*types.Condition, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Condition
	if documentID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("document_id = ?", documentID).
		Order("page_number ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *conditionRepo) SetRatable(dbc dbctx.Context, id uuid.UUID, ratable bool) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(dbc.Ctx).
		Model(&types.Condition{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"ratable":    ratable,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *conditionRepo) LinkTag(dbc dbctx.Context, conditionID, tagID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	// Association insert is idempotent; retries must not duplicate links.
	return transaction.WithContext(dbc.Ctx).
		Exec(`INSERT INTO condition_tag (condition_id, tag_id) VALUES (?, ?)
		      ON CONFLICT DO NOTHING`, conditionID, tagID).Error
}

func (r *conditionRepo) HasTagLink(dbc dbctx.Context, conditionID uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	err := transaction.WithContext(dbc.Ctx).Raw(
		`SELECT COUNT(*) FROM condition_tag WHERE condition_id = ?`, conditionID).
		Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *conditionRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&types.Condition{}).Error
}

func (r *conditionRepo) TagEvidenceByVeteranID(dbc dbctx.Context, veteranID uuid.UUID) ([]TagEvidence, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var rows []TagEvidence
	if veteranID == uuid.Nil {
		return rows, nil
	}
	err := transaction.WithContext(dbc.Ctx).Raw(
		`SELECT ct.tag_id AS tag_id,
		        COUNT(*) FILTER (WHERE c.in_service)     AS in_service,
		        COUNT(*) FILTER (WHERE NOT c.in_service) AS out_of_service
		 FROM condition_tag ct
		 JOIN condition c ON c.id = ct.condition_id
		 WHERE c.veteran_id = ?
		 GROUP BY ct.tag_id`, veteranID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
