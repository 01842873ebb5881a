package evidence

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/claimsbridge-backend/internal/data/repos"
	"github.com/yungbote/claimsbridge-backend/internal/platform/dbctx"
)

func newTestNexusEngine(tb testing.TB, conds *stubConditionRepo, nexus *stubNexusRepo) *NexusEngine {
	tb.Helper()
	return &NexusEngine{
		log:        testLogger(tb),
		conditions: conds,
		nexusTags:  nexus,
	}
}

func TestRecompute_DiscoversBothSidesTag(t *testing.T) {
	vetID := uuid.New()
	bothSides := uuid.New()
	oneSided := uuid.New()

	conds := newStubConditionRepo()
	conds.evidence = []repos.TagEvidence{
		{TagID: bothSides, InService: 1, OutOfService: 2},
		{TagID: oneSided, InService: 3, OutOfService: 0},
	}
	nexus := &stubNexusRepo{}
	n := newTestNexusEngine(t, conds, nexus)

	if err := n.recomputeTx(dbctx.Context{Ctx: context.Background()}, vetID); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if len(nexus.created) != 1 {
		t.Fatalf("expected one discovered entry, got %d", len(nexus.created))
	}
	if nexus.created[0].TagID != bothSides {
		t.Fatalf("discovered entry points at the wrong tag")
	}
	if len(nexus.revoked) != 0 {
		t.Fatalf("nothing to revoke on first discovery")
	}
}

func TestRecompute_Idempotent(t *testing.T) {
	vetID := uuid.New()
	tagID := uuid.New()

	conds := newStubConditionRepo()
	conds.evidence = []repos.TagEvidence{{TagID: tagID, InService: 1, OutOfService: 1}}
	nexus := &stubNexusRepo{}
	n := newTestNexusEngine(t, conds, nexus)
	dbc := dbctx.Context{Ctx: context.Background()}

	if err := n.recomputeTx(dbc, vetID); err != nil {
		t.Fatalf("first recompute: %v", err)
	}
	if err := n.recomputeTx(dbc, vetID); err != nil {
		t.Fatalf("second recompute: %v", err)
	}
	if len(nexus.created) != 1 {
		t.Fatalf("repeat recompute must not duplicate the active entry, got %d", len(nexus.created))
	}
	if len(nexus.revoked) != 0 {
		t.Fatalf("a still-qualifying tag must not be revoked")
	}
}

func TestRecompute_RevokesWhenEvidenceThins(t *testing.T) {
	vetID := uuid.New()
	tagID := uuid.New()

	conds := newStubConditionRepo()
	conds.evidence = []repos.TagEvidence{{TagID: tagID, InService: 1, OutOfService: 1}}
	nexus := &stubNexusRepo{}
	n := newTestNexusEngine(t, conds, nexus)
	dbc := dbctx.Context{Ctx: context.Background()}

	if err := n.recomputeTx(dbc, vetID); err != nil {
		t.Fatalf("discover: %v", err)
	}
	entry := nexus.created[0]
	discoveredAt := entry.DiscoveredAt

	// The post-service condition goes away; only in-service evidence left.
	conds.evidence = []repos.TagEvidence{{TagID: tagID, InService: 1, OutOfService: 0}}
	if err := n.recomputeTx(dbc, vetID); err != nil {
		t.Fatalf("revoke pass: %v", err)
	}

	if entry.RevokedAt == nil {
		t.Fatalf("entry must be revoked in place, not deleted")
	}
	if !entry.DiscoveredAt.Equal(discoveredAt) {
		t.Fatalf("revocation must not touch discovered_at")
	}
	if len(nexus.active) != 1 {
		t.Fatalf("revoked rows are kept as audit trail")
	}
}

func TestRecompute_RediscoveryInsertsFreshRow(t *testing.T) {
	vetID := uuid.New()
	tagID := uuid.New()

	conds := newStubConditionRepo()
	conds.evidence = []repos.TagEvidence{{TagID: tagID, InService: 1, OutOfService: 1}}
	nexus := &stubNexusRepo{}
	n := newTestNexusEngine(t, conds, nexus)
	dbc := dbctx.Context{Ctx: context.Background()}

	if err := n.recomputeTx(dbc, vetID); err != nil {
		t.Fatalf("discover: %v", err)
	}
	conds.evidence = []repos.TagEvidence{{TagID: tagID, InService: 0, OutOfService: 1}}
	if err := n.recomputeTx(dbc, vetID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	conds.evidence = []repos.TagEvidence{{TagID: tagID, InService: 2, OutOfService: 1}}
	if err := n.recomputeTx(dbc, vetID); err != nil {
		t.Fatalf("rediscover: %v", err)
	}

	if len(nexus.created) != 2 {
		t.Fatalf("re-discovery after revocation inserts a fresh row, got %d rows", len(nexus.created))
	}
	first, second := nexus.created[0], nexus.created[1]
	if first.RevokedAt == nil {
		t.Fatalf("original entry stays revoked")
	}
	if second.RevokedAt != nil {
		t.Fatalf("fresh entry must be active")
	}
}

// Randomized reconciliation: after every recompute, a tag has an active
// entry exactly when its evidence spans both sides of the service boundary.
func TestRecompute_ActiveMatchesQualifyingSet(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	vetID := uuid.New()

	tagIDs := make([]uuid.UUID, 4)
	for i := range tagIDs {
		tagIDs[i] = uuid.New()
	}

	conds := newStubConditionRepo()
	nexus := &stubNexusRepo{}
	n := newTestNexusEngine(t, conds, nexus)
	dbc := dbctx.Context{Ctx: context.Background()}

	for round := 0; round < 50; round++ {
		rows := make([]repos.TagEvidence, 0, len(tagIDs))
		for _, tagID := range tagIDs {
			rows = append(rows, repos.TagEvidence{
				TagID:        tagID,
				InService:    rng.Intn(3),
				OutOfService: rng.Intn(3),
			})
		}
		conds.evidence = rows

		if err := n.recomputeTx(dbc, vetID); err != nil {
			t.Fatalf("round %d: recompute: %v", round, err)
		}

		active, err := nexus.GetActiveByVeteranID(dbc, vetID)
		if err != nil {
			t.Fatalf("round %d: active: %v", round, err)
		}
		activeByTag := make(map[uuid.UUID]bool, len(active))
		for _, e := range active {
			if activeByTag[e.TagID] {
				t.Fatalf("round %d: duplicate active entry for tag %s", round, e.TagID)
			}
			activeByTag[e.TagID] = true
		}
		for _, e := range rows {
			if e.BothSides() != activeByTag[e.TagID] {
				t.Fatalf("round %d: tag %s qualifying=%v active=%v (in=%d out=%d)",
					round, e.TagID, e.BothSides(), activeByTag[e.TagID], e.InService, e.OutOfService)
			}
		}
	}
}
