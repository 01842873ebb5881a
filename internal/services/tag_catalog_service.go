package services

import (
	"context"
	"fmt"
	"os"

	"github.com/pgvector/pgvector-go"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/yungbote/claimsbridge-backend/internal/data/repos"
	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"github.com/yungbote/claimsbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/claimsbridge-backend/internal/platform/envutil"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
	"github.com/yungbote/claimsbridge-backend/internal/platform/openai"
)

// TagCatalogService seeds the fixed eligibility tag catalog from a YAML
// file, embedding each entry's description for nearest-neighbor matching.
// Seeding is idempotent: entries upsert by code.
type TagCatalogService interface {
	Seed(ctx context.Context) error
}

type tagCatalogService struct {
	db   *gorm.DB
	log  *logger.Logger
	ai   openai.Client
	tags repos.TagRepo

	catalogPath string
}

func NewTagCatalogService(db *gorm.DB, baseLog *logger.Logger, ai openai.Client, tags repos.TagRepo) TagCatalogService {
	serviceLog := baseLog.With("service", "TagCatalogService")
	return &tagCatalogService{
		db:          db,
		log:         serviceLog,
		ai:          ai,
		tags:        tags,
		catalogPath: envutil.GetEnv("TAG_CATALOG_PATH", "deploy/tags.yaml", serviceLog),
	}
}

type catalogEntry struct {
	Code        int    `yaml:"code"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type catalogFile struct {
	Tags []catalogEntry `yaml:"tags"`
}

func (s *tagCatalogService) Seed(ctx context.Context) error {
	raw, err := os.ReadFile(s.catalogPath)
	if err != nil {
		return fmt.Errorf("tag catalog: read %s: %w", s.catalogPath, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("tag catalog: parse %s: %w", s.catalogPath, err)
	}
	if len(file.Tags) == 0 {
		s.log.Warn("Tag catalog is empty", "path", s.catalogPath)
		return nil
	}

	texts := make([]string, len(file.Tags))
	for i, entry := range file.Tags {
		texts[i] = fmt.Sprintf("%s: %s", entry.Name, entry.Description)
	}
	vecs, err := s.ai.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("tag catalog: embed descriptions: %w", err)
	}
	if len(vecs) != len(file.Tags) {
		return fmt.Errorf("tag catalog: embedding count mismatch: %d != %d", len(vecs), len(file.Tags))
	}

	tags := make([]*types.Tag, len(file.Tags))
	for i, entry := range file.Tags {
		tags[i] = &types.Tag{
			Code:        entry.Code,
			Name:        entry.Name,
			Description: entry.Description,
			Embedding:   pgvector.NewVector(vecs[i]),
		}
	}

	if err := s.tags.UpsertByCode(dbctx.Context{Ctx: ctx}, tags); err != nil {
		return fmt.Errorf("tag catalog: upsert: %w", err)
	}
	s.log.Info("Tag catalog seeded", "path", s.catalogPath, "tags", len(tags))
	return nil
}
