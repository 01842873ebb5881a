package claims

import (
	"time"

	"github.com/google/uuid"
)

// NexusTag asserts that a veteran has qualifying evidence for a tag on
// both sides of the service boundary. At most one active row (RevokedAt
// null) exists per (tag, veteran); re-discovery after revocation inserts a
// fresh row, revoked rows are kept as an audit trail.
type NexusTag struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TagID     uuid.UUID `gorm:"type:uuid;not null;index" json:"tag_id"`
	Tag       *Tag      `gorm:"constraint:OnDelete:CASCADE;foreignKey:TagID;references:ID" json:"tag,omitempty"`
	VeteranID uuid.UUID `gorm:"type:uuid;not null;index" json:"veteran_id"`
	Veteran   *Veteran  `gorm:"constraint:OnDelete:CASCADE;foreignKey:VeteranID;references:ID" json:"veteran,omitempty"`

	DiscoveredAt time.Time  `gorm:"column:discovered_at;not null;default:now()" json:"discovered_at"`
	RevokedAt    *time.Time `gorm:"column:revoked_at;index" json:"revoked_at,omitempty"`
}

func (NexusTag) TableName() string { return "nexus_tag" }

func (n NexusTag) Active() bool { return n.RevokedAt == nil }
