package claims

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/yungbote/claimsbridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"github.com/yungbote/claimsbridge-backend/internal/platform/dbctx"
)

func embedding(seed float32) []float32 {
	vec := make([]float32, types.EmbeddingDim)
	vec[0] = seed
	vec[1] = 1
	return vec
}

func TestConditionRepo_InsertAbsorbsReplay(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewConditionRepo(db, testutil.Logger(t))

	vet := testutil.SeedVeteran(t, ctx, tx, "replay@example.com")
	doc := testutil.SeedDocument(t, ctx, tx, vet.ID)
	vd := time.Date(2015, time.June, 10, 0, 0, 0, 0, time.UTC)

	cond := &types.Condition{
		VeteranID:  vet.ID,
		DocumentID: doc.ID,
		PageNumber: 2,
		Name:       "Knee Pain",
		VisitDate:  &vd,
		Ratable:    true,
		DedupeKey:  types.ConditionDedupeKey(doc.ID, 2, &vd, "Knee Pain"),
	}
	first, created, err := repo.Insert(dbc, cond)
	if err != nil || !created {
		t.Fatalf("first insert: created=%v err=%v", created, err)
	}

	replay := &types.Condition{
		VeteranID:  vet.ID,
		DocumentID: doc.ID,
		PageNumber: 2,
		Name:       "Knee Pain",
		VisitDate:  &vd,
		Ratable:    true,
		DedupeKey:  types.ConditionDedupeKey(doc.ID, 2, &vd, "Knee Pain"),
	}
	second, created, err := repo.Insert(dbc, replay)
	if err != nil {
		t.Fatalf("replay insert: %v", err)
	}
	if created {
		t.Fatalf("replay must not create a second row")
	}
	if second.ID != first.ID {
		t.Fatalf("replay must return the stored row")
	}

	rows, err := repo.GetByDocumentID(dbc, doc.ID)
	if err != nil {
		t.Fatalf("GetByDocumentID: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows=%d", len(rows))
	}
}

func TestConditionRepo_TagEvidenceCounts(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewConditionRepo(db, testutil.Logger(t))

	vet := testutil.SeedVeteran(t, ctx, tx, "evidence@example.com")
	doc := testutil.SeedDocument(t, ctx, tx, vet.ID)
	tag := testutil.SeedTag(t, ctx, tx, 5257, "Knee Condition", embedding(0.5))

	inSvc := testutil.SeedCondition(t, ctx, tx, vet.ID, doc.ID, "Knee Pain A", time.Date(2012, 4, 10, 0, 0, 0, 0, time.UTC), true)
	outSvc := testutil.SeedCondition(t, ctx, tx, vet.ID, doc.ID, "Knee Pain B", time.Date(2016, 4, 10, 0, 0, 0, 0, time.UTC), false)
	unlinked := testutil.SeedCondition(t, ctx, tx, vet.ID, doc.ID, "Vertigo", time.Date(2016, 5, 10, 0, 0, 0, 0, time.UTC), false)

	for _, id := range []uuid.UUID{inSvc.ID, outSvc.ID} {
		if err := repo.LinkTag(dbc, id, tag.ID); err != nil {
			t.Fatalf("LinkTag: %v", err)
		}
	}
	// Linking twice must stay idempotent.
	if err := repo.LinkTag(dbc, inSvc.ID, tag.ID); err != nil {
		t.Fatalf("repeat LinkTag: %v", err)
	}

	rows, err := repo.TagEvidenceByVeteranID(dbc, vet.ID)
	if err != nil {
		t.Fatalf("TagEvidenceByVeteranID: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one tag row, got %d", len(rows))
	}
	got := rows[0]
	if got.TagID != tag.ID || got.InService != 1 || got.OutOfService != 1 {
		t.Fatalf("unexpected evidence row: %+v", got)
	}
	if !got.BothSides() {
		t.Fatalf("one in-service plus one out-of-service qualifies")
	}

	if linked, err := repo.HasTagLink(dbc, inSvc.ID); err != nil || !linked {
		t.Fatalf("linked condition must report a tag link: linked=%v err=%v", linked, err)
	}
	if linked, err := repo.HasTagLink(dbc, unlinked.ID); err != nil || linked {
		t.Fatalf("unlinked condition must report no tag link: linked=%v err=%v", linked, err)
	}
}

func TestTagRepo_NearestByEmbedding(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewTagRepo(db, testutil.Logger(t))

	near := testutil.SeedTag(t, ctx, tx, 5257, "Knee Condition", embedding(1))
	testutil.SeedTag(t, ctx, tx, 6260, "Tinnitus", embedding(-1))

	matches, err := repo.NearestByEmbedding(dbc, pgvector.NewVector(embedding(1)), 1)
	if err != nil {
		t.Fatalf("NearestByEmbedding: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("matches=%d", len(matches))
	}
	if matches[0].Tag.ID != near.ID {
		t.Fatalf("nearest tag wrong: %s", matches[0].Tag.Name)
	}
	if matches[0].Distance > 0.001 {
		t.Fatalf("identical vectors should have ~zero distance, got %f", matches[0].Distance)
	}
}

func TestNexusTagRepo_RevokeOnlyActive(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewNexusTagRepo(db, testutil.Logger(t))

	vet := testutil.SeedVeteran(t, ctx, tx, "nexus@example.com")
	tag := testutil.SeedTag(t, ctx, tx, 5257, "Knee Condition", embedding(0.5))

	entries, err := repo.Create(dbc, []*types.NexusTag{{TagID: tag.ID, VeteranID: vet.ID}})
	if err != nil || len(entries) != 1 {
		t.Fatalf("Create: %v", err)
	}
	entry := entries[0]

	firstStamp := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := repo.RevokeByIDs(dbc, []uuid.UUID{entry.ID}, firstStamp); err != nil {
		t.Fatalf("RevokeByIDs: %v", err)
	}
	// A second revoke pass must not move the stamp.
	if err := repo.RevokeByIDs(dbc, []uuid.UUID{entry.ID}, firstStamp.Add(24*time.Hour)); err != nil {
		t.Fatalf("repeat RevokeByIDs: %v", err)
	}

	all, err := repo.GetByVeteranID(dbc, vet.ID)
	if err != nil || len(all) != 1 {
		t.Fatalf("GetByVeteranID: %v (n=%d)", err, len(all))
	}
	if all[0].RevokedAt == nil || !all[0].RevokedAt.Equal(firstStamp) {
		t.Fatalf("revoked_at=%v, want %v", all[0].RevokedAt, firstStamp)
	}

	active, err := repo.GetActiveByVeteranID(dbc, vet.ID)
	if err != nil {
		t.Fatalf("GetActiveByVeteranID: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("revoked entries are not active")
	}
}
