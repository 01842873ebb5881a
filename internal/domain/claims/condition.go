package claims

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Condition is one persisted diagnosis instance tied to a dated visit.
// InService is computed once at insert from the veteran's service periods
// and never changes afterwards; Ratable defaults true and flips false when
// tag association fails or yields no confident match.
type Condition struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	VeteranID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"veteran_id"`
	Veteran    *Veteran        `gorm:"constraint:OnDelete:CASCADE;foreignKey:VeteranID;references:ID" json:"veteran,omitempty"`
	DocumentID uuid.UUID       `gorm:"type:uuid;not null;index" json:"document_id"`
	Document   *SourceDocument `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"document,omitempty"`

	PageNumber    int            `gorm:"column:page_number" json:"page_number"`
	Name          string         `gorm:"column:name;not null" json:"name"`
	VisitDate     *time.Time     `gorm:"column:visit_date" json:"visit_date,omitempty"`
	Professionals string         `gorm:"column:professionals" json:"professionals"`
	Medications   datatypes.JSON `gorm:"column:medications;type:jsonb" json:"medications,omitempty"`
	Treatments    string         `gorm:"column:treatments;type:text" json:"treatments"`
	Findings      string         `gorm:"column:findings;type:text" json:"findings"`
	Comments      string         `gorm:"column:comments;type:text" json:"comments"`

	InService bool `gorm:"column:in_service;not null;default:false;index" json:"in_service"`
	Ratable   bool `gorm:"column:ratable;not null;default:true" json:"ratable"`

	// DedupeKey makes stage retries idempotent: re-running the fan-out for
	// the same document inserts nothing new.
	DedupeKey string `gorm:"column:dedupe_key;not null;uniqueIndex" json:"-"`

	Tags []*Tag `gorm:"many2many:condition_tag;constraint:OnDelete:CASCADE" json:"tags,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Condition) TableName() string { return "condition" }

// ConditionDedupeKey derives the idempotency key for one extracted
// diagnosis. It covers everything that identifies the diagnosis within the
// document so the same extraction replayed under at-least-once delivery
// maps to the same row.
func ConditionDedupeKey(documentID uuid.UUID, pageNumber int, visitDate *time.Time, name string) string {
	h := sha256.New()
	_, _ = h.Write([]byte(documentID.String()))
	_, _ = h.Write([]byte{'|'})
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(name))))
	_, _ = h.Write([]byte{'|'})
	if visitDate != nil {
		_, _ = h.Write([]byte(visitDate.UTC().Format("2006-01-02")))
	}
	_, _ = h.Write([]byte{'|'})
	_, _ = h.Write([]byte{byte(pageNumber >> 8), byte(pageNumber)})
	return hex.EncodeToString(h.Sum(nil))
}
