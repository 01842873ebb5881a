package evidence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/claimsbridge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"github.com/yungbote/claimsbridge-backend/internal/extraction"
)

// The fan-out tests need a database handle only for the per-diagnosis
// transactions, so an in-memory one suffices; repositories stay stubbed
// and only orchestration is under test.
func newTestVisitProcessor(t *testing.T, conds *stubConditionRepo) *VisitProcessor {
	t.Helper()
	return newVisitProcessor(t, conds, &stubEmbeddingRepo{}, &stubTagRepo{})
}

func newVisitProcessor(t *testing.T, conds *stubConditionRepo, embs *stubEmbeddingRepo, tags *stubTagRepo) *VisitProcessor {
	t.Helper()
	db := testutil.MemoryDB(t)
	log := testutil.Logger(t)

	writer := NewWriter(log, conds)
	assoc := &Associator{
		log:         log,
		db:          db,
		ai:          &stubAI{vecs: [][]float32{{0.1, 0.2}}},
		conditions:  conds,
		embeddings:  embs,
		tags:        tags,
		maxDistance: 0.559,
	}
	return NewVisitProcessor(log, db, writer, assoc)
}

func clinicalPage(page int, visits ...extraction.Visit) extraction.PageResult {
	return extraction.PageResult{
		Page:     page,
		Category: extraction.CategoryClinicalRecords,
		Details:  &extraction.ClinicalRecord{Visits: visits},
	}
}

func TestProcessPages_CountsAndIsolation(t *testing.T) {
	conds := newStubConditionRepo()
	conds.insertErrOn["Vertigo"] = errors.New("write conflict")
	p := newTestVisitProcessor(t, conds)

	pages := []extraction.PageResult{
		clinicalPage(1, extraction.Visit{
			DateOfVisit:          "2012-04-10",
			MedicalProfessionals: []string{"Dr. Reyes", "Dr. Okafor"},
			Diagnoses: []extraction.Diagnosis{
				{Name: "Knee Pain"},
				{Name: "Tinnitus"},
				{Name: "Vertigo"},
				{Name: ""},
				{Name: "Back Pain"},
			},
		}),
		{Page: 2, Category: extraction.CategoryDD214},
	}

	stats := p.ProcessPages(context.Background(), pages, uuid.New(), uuid.New(), nil)

	if stats.Visits != 1 {
		t.Fatalf("visits=%d", stats.Visits)
	}
	if stats.ConditionsWritten != 3 {
		t.Fatalf("one failing diagnosis must not stop its siblings: written=%d", stats.ConditionsWritten)
	}
	if stats.DiagnosisFailures != 1 {
		t.Fatalf("failures=%d", stats.DiagnosisFailures)
	}
	for _, c := range conds.inserted {
		if c.Professionals != "Dr. Reyes, Dr. Okafor" {
			t.Fatalf("professionals=%q", c.Professionals)
		}
	}
}

func TestProcessPages_InvalidDateSkipsVisit(t *testing.T) {
	conds := newStubConditionRepo()
	p := newTestVisitProcessor(t, conds)

	pages := []extraction.PageResult{
		clinicalPage(1,
			extraction.Visit{DateOfVisit: "not-a-date", Diagnoses: []extraction.Diagnosis{{Name: "Knee Pain"}}},
			extraction.Visit{DateOfVisit: "2012-04-10", Diagnoses: []extraction.Diagnosis{{Name: "Tinnitus"}}},
		),
	}

	stats := p.ProcessPages(context.Background(), pages, uuid.New(), uuid.New(), nil)

	if stats.VisitsSkipped != 1 {
		t.Fatalf("skipped=%d", stats.VisitsSkipped)
	}
	if stats.ConditionsWritten != 1 {
		t.Fatalf("the well-formed visit must still be processed: written=%d", stats.ConditionsWritten)
	}
	if len(conds.inserted) != 1 || conds.inserted[0].Name != "Tinnitus" {
		t.Fatalf("unexpected inserts: %+v", conds.inserted)
	}
}

func TestProcessPages_InServiceFromPeriods(t *testing.T) {
	conds := newStubConditionRepo()
	p := newTestVisitProcessor(t, conds)

	periods := []*types.ServicePeriod{{
		StartDate: time.Date(2010, time.March, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2014, time.March, 1, 0, 0, 0, 0, time.UTC),
	}}
	pages := []extraction.PageResult{
		clinicalPage(1,
			extraction.Visit{DateOfVisit: "2012-04-10", Diagnoses: []extraction.Diagnosis{{Name: "Knee Pain"}}},
			extraction.Visit{DateOfVisit: "2016-04-10", Diagnoses: []extraction.Diagnosis{{Name: "Knee Pain"}}},
		),
	}

	p.ProcessPages(context.Background(), pages, uuid.New(), uuid.New(), periods)

	var in, out int
	for _, c := range conds.inserted {
		if c.InService {
			in++
		} else {
			out++
		}
	}
	if in != 1 || out != 1 {
		t.Fatalf("expected one in-service and one post-service row, got in=%d out=%d", in, out)
	}
}

func TestProcessPages_ReplayCountsSeparately(t *testing.T) {
	conds := newStubConditionRepo()
	p := newTestVisitProcessor(t, conds)

	pages := []extraction.PageResult{
		clinicalPage(1, extraction.Visit{DateOfVisit: "2012-04-10", Diagnoses: []extraction.Diagnosis{{Name: "Knee Pain"}}}),
	}
	vetID, docID := uuid.New(), uuid.New()

	first := p.ProcessPages(context.Background(), pages, vetID, docID, nil)
	second := p.ProcessPages(context.Background(), pages, vetID, docID, nil)

	if first.ConditionsWritten != 1 || first.ConditionsReplay != 0 {
		t.Fatalf("first pass: %+v", first)
	}
	if second.ConditionsWritten != 0 || second.ConditionsReplay != 1 {
		t.Fatalf("replay pass must absorb, not rewrite: %+v", second)
	}
	if len(conds.inserted) != 1 {
		t.Fatalf("one row total, got %d", len(conds.inserted))
	}
}

func TestProcessPages_ReplaySettlesUnassociatedRow(t *testing.T) {
	conds := newStubConditionRepo()
	embs := &stubEmbeddingRepo{}
	tagID := uuid.New()
	tags := &stubTagRepo{matches: []types.TagMatch{
		{Tag: &types.Tag{ID: tagID, Name: "Knee Condition"}, Distance: 0.2},
	}}

	docID := uuid.New()
	vd := time.Date(2012, time.April, 10, 0, 0, 0, 0, time.UTC)

	// A prior attempt committed this row, then died before association
	// ran: no embedding, no tag link, ratable never resolved.
	orphan := &types.Condition{
		ID:        uuid.New(),
		Name:      "Knee Pain",
		Ratable:   true,
		DedupeKey: types.ConditionDedupeKey(docID, 1, &vd, "Knee Pain"),
	}
	conds.byKey[orphan.DedupeKey] = orphan

	p := newVisitProcessor(t, conds, embs, tags)
	pages := []extraction.PageResult{
		clinicalPage(1, extraction.Visit{DateOfVisit: "2012-04-10", Diagnoses: []extraction.Diagnosis{{Name: "Knee Pain"}}}),
	}

	stats := p.ProcessPages(context.Background(), pages, uuid.New(), docID, nil)

	if stats.ConditionsReplay != 1 || stats.ConditionsWritten != 0 {
		t.Fatalf("expected a pure replay pass: %+v", stats)
	}
	if len(embs.created) != 1 || embs.created[0].ConditionID != orphan.ID {
		t.Fatalf("replay must still embed the unassociated row: %+v", embs.created)
	}
	if got := conds.links[orphan.ID]; got != tagID {
		t.Fatalf("replay must still link the unassociated row, got %s", got)
	}
}

func TestProcessPages_ReplayLeavesSettledRowsAlone(t *testing.T) {
	conds := newStubConditionRepo()
	embs := &stubEmbeddingRepo{}
	tagID := uuid.New()
	tags := &stubTagRepo{matches: []types.TagMatch{
		{Tag: &types.Tag{ID: tagID}, Distance: 0.2},
	}}

	docID := uuid.New()
	vd := time.Date(2012, time.April, 10, 0, 0, 0, 0, time.UTC)

	linked := &types.Condition{
		ID:        uuid.New(),
		Name:      "Knee Pain",
		Ratable:   true,
		DedupeKey: types.ConditionDedupeKey(docID, 1, &vd, "Knee Pain"),
	}
	conds.byKey[linked.DedupeKey] = linked
	conds.links[linked.ID] = tagID

	nonRatable := &types.Condition{
		ID:        uuid.New(),
		Name:      "Tinnitus",
		Ratable:   false,
		DedupeKey: types.ConditionDedupeKey(docID, 1, &vd, "Tinnitus"),
	}
	conds.byKey[nonRatable.DedupeKey] = nonRatable

	p := newVisitProcessor(t, conds, embs, tags)
	pages := []extraction.PageResult{
		clinicalPage(1, extraction.Visit{
			DateOfVisit: "2012-04-10",
			Diagnoses:   []extraction.Diagnosis{{Name: "Knee Pain"}, {Name: "Tinnitus"}},
		}),
	}

	stats := p.ProcessPages(context.Background(), pages, uuid.New(), docID, nil)

	if stats.ConditionsReplay != 2 {
		t.Fatalf("expected both rows absorbed as replays: %+v", stats)
	}
	if len(embs.created) != 0 {
		t.Fatalf("settled rows must not be re-embedded: %+v", embs.created)
	}
}
