package claims

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document lifecycle. Status is the only externally polled progress
// indicator; callers never see task-queue internals.
const (
	DocumentStatusUploaded   = "Uploaded"
	DocumentStatusExtracting = "Extracting Data"
	DocumentStatusFinding    = "Finding Evidence"
	DocumentStatusComplete   = "Complete"
	DocumentStatusFailed     = "Failed"
)

type SourceDocument struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	VeteranID uuid.UUID `gorm:"type:uuid;not null;index" json:"veteran_id"`
	Veteran   *Veteran  `gorm:"constraint:OnDelete:CASCADE;foreignKey:VeteranID;references:ID" json:"veteran,omitempty"`

	OriginalName string `gorm:"column:original_name;not null" json:"original_name"`
	Kind         string `gorm:"column:kind;not null" json:"kind"`
	Category     string `gorm:"column:category" json:"category"`
	StorageKey   string `gorm:"column:storage_key;not null" json:"storage_key"`
	SizeBytes    int64  `gorm:"column:size_bytes" json:"size_bytes"`
	Status       string `gorm:"column:status;not null;default:'Uploaded';index" json:"status"`

	ExtractionWarnings datatypes.JSON `gorm:"column:extraction_warnings;type:jsonb" json:"extraction_warnings,omitempty"`

	UploadedAt time.Time      `gorm:"column:uploaded_at;not null;default:now()" json:"uploaded_at"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (SourceDocument) TableName() string { return "source_document" }
