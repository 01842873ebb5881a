package claims

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Tag is one eligibility category in the fixed catalog. Its reference
// embedding anchors nearest-1 association of conditions.
type Tag struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Code        int       `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description"`

	Embedding pgvector.Vector `gorm:"type:vector(3072)" json:"-"`

	Conditions []*Condition `gorm:"many2many:condition_tag;constraint:OnDelete:CASCADE" json:"conditions,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Tag) TableName() string { return "tag" }

// TagMatch pairs a catalog tag with its cosine distance to a probe vector.
type TagMatch struct {
	Tag      *Tag
	Distance float64
}
