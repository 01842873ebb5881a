package evidence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/claimsbridge-backend/internal/data/repos"
	"github.com/yungbote/claimsbridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"github.com/yungbote/claimsbridge-backend/internal/platform/dbctx"
)

func catalogEmbedding() []float32 {
	vec := make([]float32, types.EmbeddingDim)
	vec[0] = 1
	return vec
}

// Discovery and revocation against real rows: a veteran with Knee Pain
// diagnoses on both sides of the service boundary gains an active entry,
// and deleting the post-service diagnosis later revokes it in place.
func TestNexusRecompute_EvidenceLifecycle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	conditions := repos.NewConditionRepo(db, log)
	nexusTags := repos.NewNexusTagRepo(db, log)
	engine := &NexusEngine{log: log, db: db, conditions: conditions, nexusTags: nexusTags}

	vet := testutil.SeedVeteran(t, ctx, tx, "lifecycle@example.com")
	testutil.SeedServicePeriod(t, ctx, tx, vet.ID,
		time.Date(2010, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2014, time.March, 1, 0, 0, 0, 0, time.UTC))
	doc := testutil.SeedDocument(t, ctx, tx, vet.ID)
	tag := testutil.SeedTag(t, ctx, tx, 5257, "Knee Condition", catalogEmbedding())

	inSvc := testutil.SeedCondition(t, ctx, tx, vet.ID, doc.ID, "Knee Pain",
		time.Date(2012, time.April, 10, 0, 0, 0, 0, time.UTC), true)
	postSvc := testutil.SeedCondition(t, ctx, tx, vet.ID, doc.ID, "Knee Pain Follow-up",
		time.Date(2016, time.April, 10, 0, 0, 0, 0, time.UTC), false)
	for _, id := range []uuid.UUID{inSvc.ID, postSvc.ID} {
		if err := conditions.LinkTag(dbc, id, tag.ID); err != nil {
			t.Fatalf("LinkTag: %v", err)
		}
	}

	if err := engine.recomputeTx(dbc, vet.ID); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	active, err := nexusTags.GetActiveByVeteranID(dbc, vet.ID)
	if err != nil || len(active) != 1 {
		t.Fatalf("expected one active entry: %v (n=%d)", err, len(active))
	}
	if active[0].TagID != tag.ID {
		t.Fatalf("entry points at wrong tag")
	}
	discoveredAt := active[0].DiscoveredAt

	// Recompute again without changes: no new entry, no revocation.
	if err := engine.recomputeTx(dbc, vet.ID); err != nil {
		t.Fatalf("repeat recompute: %v", err)
	}
	all, err := nexusTags.GetByVeteranID(dbc, vet.ID)
	if err != nil || len(all) != 1 {
		t.Fatalf("repeat recompute changed rows: %v (n=%d)", err, len(all))
	}

	// The post-service diagnosis is deleted; only in-service evidence
	// remains and the entry no longer qualifies.
	if err := conditions.DeleteByIDs(dbc, []uuid.UUID{postSvc.ID}); err != nil {
		t.Fatalf("DeleteByIDs: %v", err)
	}
	if err := tx.Exec(`DELETE FROM condition_tag WHERE condition_id = ?`, postSvc.ID).Error; err != nil {
		t.Fatalf("clear links: %v", err)
	}
	if err := engine.recomputeTx(dbc, vet.ID); err != nil {
		t.Fatalf("revoke recompute: %v", err)
	}

	all, err = nexusTags.GetByVeteranID(dbc, vet.ID)
	if err != nil || len(all) != 1 {
		t.Fatalf("revocation must keep the row: %v (n=%d)", err, len(all))
	}
	if all[0].RevokedAt == nil {
		t.Fatalf("entry should be revoked")
	}
	if !all[0].DiscoveredAt.Equal(discoveredAt) {
		t.Fatalf("discovered_at must not change on revocation")
	}
}
