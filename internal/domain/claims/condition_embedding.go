package claims

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingDim matches the embedding model output; the tag catalog and
// condition embeddings must agree on it for cosine distance to be defined.
const EmbeddingDim = 3072

// ConditionEmbedding holds the semantic vector for one condition,
// one-to-one, immutable once written.
type ConditionEmbedding struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ConditionID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"condition_id"`
	Condition   *Condition `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConditionID;references:ID" json:"condition,omitempty"`

	Embedding pgvector.Vector `gorm:"type:vector(3072)" json:"-"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ConditionEmbedding) TableName() string { return "condition_embedding" }
