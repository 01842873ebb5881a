package claims

import (
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"github.com/yungbote/claimsbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
)

type TagRepo interface {
	UpsertByCode(dbc dbctx.Context, tags []*types.Tag) error
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Tag, error)
	GetAll(dbc dbctx.Context) ([]*types.Tag, error)
	Count(dbc dbctx.Context) (int64, error)
	// NearestByEmbedding returns the topN catalog tags by cosine distance
	// to the probe vector, closest first.
	NearestByEmbedding(dbc dbctx.Context, probe pgvector.Vector, topN int) ([]types.TagMatch, error)
}

type tagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
	return &tagRepo{db: db, log: baseLog.With("repo", "TagRepo")}
}

func (r *tagRepo) UpsertByCode(dbc dbctx.Context, tags []*types.Tag) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(tags) == 0 {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "embedding", "updated_at"}),
		}).
		Create(&tags).Error
}

func (r *tagRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Tag, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Tag
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

func (r *tagRepo) GetAll(dbc dbctx.Context) ([]*types.Tag, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Tag
	if err := transaction.WithContext(dbc.Ctx).
		Order("code ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *tagRepo) Count(dbc dbctx.Context) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var n int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Tag{}).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *tagRepo) NearestByEmbedding(dbc dbctx.Context, probe pgvector.Vector, topN int) ([]types.TagMatch, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if topN < 1 {
		topN = 1
	}

	type row struct {
		types.Tag
		Distance float64
	}
	var rows []row
	if err := transaction.WithContext(dbc.Ctx).Raw(
		`SELECT *, embedding <=> ? AS distance
		 FROM tag
		 WHERE embedding IS NOT NULL
		 ORDER BY distance ASC
		 LIMIT ?`, probe, topN).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	matches := make([]types.TagMatch, 0, len(rows))
	for i := range rows {
		tag := rows[i].Tag
		matches = append(matches, types.TagMatch{Tag: &tag, Distance: rows[i].Distance})
	}
	return matches, nil
}
