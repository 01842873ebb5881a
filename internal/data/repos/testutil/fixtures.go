package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"gorm.io/gorm"
)

func SeedVeteran(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.Veteran {
	tb.Helper()
	v := &types.Veteran{
		ID:        uuid.New(),
		Email:     email,
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed veteran: %v", err)
	}
	return v
}

func SeedServicePeriod(tb testing.TB, ctx context.Context, tx *gorm.DB, veteranID uuid.UUID, start, end time.Time) *types.ServicePeriod {
	tb.Helper()
	p := &types.ServicePeriod{
		ID:        uuid.New(),
		VeteranID: veteranID,
		Branch:    "Army",
		StartDate: start,
		EndDate:   end,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed service period: %v", err)
	}
	return p
}

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, veteranID uuid.UUID) *types.SourceDocument {
	tb.Helper()
	d := &types.SourceDocument{
		ID:           uuid.New(),
		VeteranID:    veteranID,
		OriginalName: "records.pdf",
		Kind:         "pdf",
		Category:     "medical",
		StorageKey:   "documents/records.pdf",
		Status:       types.DocumentStatusUploaded,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

func SeedTag(tb testing.TB, ctx context.Context, tx *gorm.DB, code int, name string, embedding []float32) *types.Tag {
	tb.Helper()
	tg := &types.Tag{
		ID:          uuid.New(),
		Code:        code,
		Name:        name,
		Description: name,
		Embedding:   pgvector.NewVector(embedding),
	}
	if err := tx.WithContext(ctx).Create(tg).Error; err != nil {
		tb.Fatalf("seed tag: %v", err)
	}
	return tg
}

func SeedCondition(tb testing.TB, ctx context.Context, tx *gorm.DB, veteranID, documentID uuid.UUID, name string, visitDate time.Time, inService bool) *types.Condition {
	tb.Helper()
	vd := visitDate
	c := &types.Condition{
		ID:         uuid.New(),
		VeteranID:  veteranID,
		DocumentID: documentID,
		PageNumber: 1,
		Name:       name,
		VisitDate:  &vd,
		InService:  inService,
		Ratable:    true,
		DedupeKey:  types.ConditionDedupeKey(documentID, 1, &vd, name),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed condition: %v", err)
	}
	return c
}
