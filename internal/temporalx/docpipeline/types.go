package docpipeline

import (
	"github.com/google/uuid"

	"github.com/yungbote/claimsbridge-backend/internal/evidence"
	"github.com/yungbote/claimsbridge-backend/internal/extraction"
)

const (
	WorkflowName = "document_pipeline"

	ActivityExtract      = "document_extract"
	ActivityProcessPages = "document_process_pages"
	ActivityFinalize     = "document_finalize"
	ActivityMarkFailed   = "document_mark_failed"
)

// PipelineInput identifies one uploaded document run.
type PipelineInput struct {
	DocumentID uuid.UUID `json:"document_id"`
	VeteranID  uuid.UUID `json:"veteran_id"`
}

type ExtractResult struct {
	Pages []extraction.PageResult `json:"pages"`
}

type FinalizeResult struct {
	Status string                `json:"status"`
	Stats  evidence.ProcessStats `json:"stats"`
}
