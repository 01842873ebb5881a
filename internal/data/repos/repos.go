package repos

import (
	"github.com/yungbote/claimsbridge-backend/internal/data/repos/claims"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type VeteranRepo = claims.VeteranRepo
type ServicePeriodRepo = claims.ServicePeriodRepo
type SourceDocumentRepo = claims.SourceDocumentRepo
type ConditionRepo = claims.ConditionRepo
type ConditionEmbeddingRepo = claims.ConditionEmbeddingRepo
type TagRepo = claims.TagRepo
type NexusTagRepo = claims.NexusTagRepo

type TagEvidence = claims.TagEvidence

var (
	NewVeteranRepo            = claims.NewVeteranRepo
	NewServicePeriodRepo      = claims.NewServicePeriodRepo
	NewSourceDocumentRepo     = claims.NewSourceDocumentRepo
	NewConditionRepo          = claims.NewConditionRepo
	NewConditionEmbeddingRepo = claims.NewConditionEmbeddingRepo
	NewTagRepo                = claims.NewTagRepo
	NewNexusTagRepo           = claims.NewNexusTagRepo
)

// All bundles every repo constructed over one DB handle; services and
// pipeline activities take the bundle instead of seven parameters.
type All struct {
	Veterans       VeteranRepo
	ServicePeriods ServicePeriodRepo
	Documents      SourceDocumentRepo
	Conditions     ConditionRepo
	Embeddings     ConditionEmbeddingRepo
	Tags           TagRepo
	NexusTags      NexusTagRepo
}

func NewAll(db *gorm.DB, log *logger.Logger) All {
	return All{
		Veterans:       NewVeteranRepo(db, log),
		ServicePeriods: NewServicePeriodRepo(db, log),
		Documents:      NewSourceDocumentRepo(db, log),
		Conditions:     NewConditionRepo(db, log),
		Embeddings:     NewConditionEmbeddingRepo(db, log),
		Tags:           NewTagRepo(db, log),
		NexusTags:      NewNexusTagRepo(db, log),
	}
}
