package evidence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/yungbote/claimsbridge-backend/internal/data/repos"
	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"github.com/yungbote/claimsbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
)

func testLogger(tb testing.TB) *logger.Logger {
	tb.Helper()
	log, err := logger.New("test")
	if err != nil {
		tb.Fatalf("init logger: %v", err)
	}
	return log
}

// stubConditionRepo records mutations in memory; errors are injectable
// per call site.
type stubConditionRepo struct {
	mu sync.Mutex

	insertErr   error
	insertErrOn map[string]error

	inserted []*types.Condition
	byKey    map[string]*types.Condition

	ratable   map[uuid.UUID]bool
	links     map[uuid.UUID]uuid.UUID
	linkErr   error
	evidence  []repos.TagEvidence
	evidErr   error
	setRatErr error
}

func newStubConditionRepo() *stubConditionRepo {
	return &stubConditionRepo{
		byKey:       map[string]*types.Condition{},
		ratable:     map[uuid.UUID]bool{},
		links:       map[uuid.UUID]uuid.UUID{},
		insertErrOn: map[string]error{},
	}
}

func (s *stubConditionRepo) Insert(dbc dbctx.Context, cond *types.Condition) (*types.Condition, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return nil, false, s.insertErr
	}
	if err, ok := s.insertErrOn[cond.Name]; ok {
		return nil, false, err
	}
	if existing, ok := s.byKey[cond.DedupeKey]; ok {
		return existing, false, nil
	}
	stored := *cond
	stored.ID = uuid.New()
	s.byKey[cond.DedupeKey] = &stored
	s.inserted = append(s.inserted, &stored)
	return &stored, true, nil
}

func (s *stubConditionRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Condition, error) {
	return nil, nil
}

func (s *stubConditionRepo) GetByVeteranID(dbc dbctx.Context, veteranID uuid.UUID) ([]*types.Condition, error) {
	return nil, nil
}

func (s *stubConditionRepo) GetByDocumentID(dbc dbctx.Context, documentID uuid.UUID) ([]*types.Condition, error) {
	return nil, nil
}

func (s *stubConditionRepo) SetRatable(dbc dbctx.Context, id uuid.UUID, ratable bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setRatErr != nil {
		return s.setRatErr
	}
	s.ratable[id] = ratable
	return nil
}

func (s *stubConditionRepo) LinkTag(dbc dbctx.Context, conditionID, tagID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.linkErr != nil {
		return s.linkErr
	}
	s.links[conditionID] = tagID
	return nil
}

func (s *stubConditionRepo) HasTagLink(dbc dbctx.Context, conditionID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.links[conditionID]
	return ok, nil
}

func (s *stubConditionRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error { return nil }

func (s *stubConditionRepo) TagEvidenceByVeteranID(dbc dbctx.Context, veteranID uuid.UUID) ([]repos.TagEvidence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evidErr != nil {
		return nil, s.evidErr
	}
	return s.evidence, nil
}

type stubEmbeddingRepo struct {
	mu      sync.Mutex
	created []*types.ConditionEmbedding
	err     error
}

func (s *stubEmbeddingRepo) Create(dbc dbctx.Context, emb *types.ConditionEmbedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, emb)
	return nil
}

func (s *stubEmbeddingRepo) GetByConditionIDs(dbc dbctx.Context, conditionIDs []uuid.UUID) ([]*types.ConditionEmbedding, error) {
	return nil, nil
}

type stubTagRepo struct {
	matches []types.TagMatch
	err     error
}

func (s *stubTagRepo) UpsertByCode(dbc dbctx.Context, tags []*types.Tag) error { return nil }
func (s *stubTagRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Tag, error) {
	return nil, nil
}
func (s *stubTagRepo) GetAll(dbc dbctx.Context) ([]*types.Tag, error) { return nil, nil }
func (s *stubTagRepo) Count(dbc dbctx.Context) (int64, error)         { return int64(len(s.matches)), nil }

func (s *stubTagRepo) NearestByEmbedding(dbc dbctx.Context, probe pgvector.Vector, topN int) ([]types.TagMatch, error) {
	if s.err != nil {
		return nil, s.err
	}
	if topN < len(s.matches) {
		return s.matches[:topN], nil
	}
	return s.matches, nil
}

type stubNexusRepo struct {
	mu      sync.Mutex
	active  []*types.NexusTag
	created []*types.NexusTag
	revoked []uuid.UUID
}

func (s *stubNexusRepo) Create(dbc dbctx.Context, entries []*types.NexusTag) ([]*types.NexusTag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		e.ID = uuid.New()
		e.DiscoveredAt = time.Now().UTC()
	}
	s.created = append(s.created, entries...)
	s.active = append(s.active, entries...)
	return entries, nil
}

func (s *stubNexusRepo) GetByVeteranID(dbc dbctx.Context, veteranID uuid.UUID) ([]*types.NexusTag, error) {
	return append(s.active[:0:0], s.active...), nil
}

func (s *stubNexusRepo) GetActiveByVeteranID(dbc dbctx.Context, veteranID uuid.UUID) ([]*types.NexusTag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*types.NexusTag
	for _, e := range s.active {
		if e.RevokedAt == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubNexusRepo) RevokeByIDs(dbc dbctx.Context, ids []uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp := at.UTC()
	for _, id := range ids {
		for _, e := range s.active {
			if e.ID == id && e.RevokedAt == nil {
				t := stamp
				e.RevokedAt = &t
			}
		}
	}
	s.revoked = append(s.revoked, ids...)
	return nil
}

// stubAI returns canned embeddings; GenerateJSON is unused by these tests.
type stubAI struct {
	vecs [][]float32
	err  error
}

func (s *stubAI) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vecs, nil
}

func (s *stubAI) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	return nil, nil
}
