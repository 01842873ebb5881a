// Package domain re-exports the claims model under one import path, the
// convention the rest of the backend relies on (imported as `types`).
package domain

import (
	"github.com/yungbote/claimsbridge-backend/internal/domain/claims"
)

const (
	DocumentStatusUploaded   = claims.DocumentStatusUploaded
	DocumentStatusExtracting = claims.DocumentStatusExtracting
	DocumentStatusFinding    = claims.DocumentStatusFinding
	DocumentStatusComplete   = claims.DocumentStatusComplete
	DocumentStatusFailed     = claims.DocumentStatusFailed

	EmbeddingDim = claims.EmbeddingDim
)

type (
	Veteran            = claims.Veteran
	ServicePeriod      = claims.ServicePeriod
	SourceDocument     = claims.SourceDocument
	Condition          = claims.Condition
	ConditionEmbedding = claims.ConditionEmbedding
	Tag                = claims.Tag
	TagMatch           = claims.TagMatch
	NexusTag           = claims.NexusTag
)

var ConditionDedupeKey = claims.ConditionDedupeKey
