package db

import (
	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"gorm.io/gorm"
)

// AutoMigrateAll creates the full schema. No ANN index goes on the tag
// embeddings: ivfflat and hnsw cap out at 2000 dimensions, and the
// catalog is small enough that nearest-tag lookups run as exact scans.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Identity + declared service
		&types.Veteran{},
		&types.ServicePeriod{},

		// Uploaded evidence
		&types.SourceDocument{},

		// Extracted evidence + derived tag state
		&types.Condition{},
		&types.ConditionEmbedding{},
		&types.Tag{},
		&types.NexusTag{},
	)
}
