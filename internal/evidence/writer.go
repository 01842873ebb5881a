package evidence

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/claimsbridge-backend/internal/data/repos"
	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"github.com/yungbote/claimsbridge-backend/internal/extraction"
	"github.com/yungbote/claimsbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/claimsbridge-backend/internal/platform/faults"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
)

// Writer persists one condition row per extracted diagnosis.
type Writer struct {
	log        *logger.Logger
	conditions repos.ConditionRepo
}

func NewWriter(log *logger.Logger, conditions repos.ConditionRepo) *Writer {
	return &Writer{
		log:        log.With("service", "EvidenceWriter"),
		conditions: conditions,
	}
}

// WriteDiagnosis validates and inserts a single diagnosis. A diagnosis with
// an empty name is logged and skipped (nil, false, nil) so sibling
// diagnoses in the same visit keep going. The created flag is false when
// the row already existed from an earlier run of the same stage.
func (w *Writer) WriteDiagnosis(
	dbc dbctx.Context,
	diag extraction.Diagnosis,
	veteranID uuid.UUID,
	documentID uuid.UUID,
	pageNumber int,
	visitDate *time.Time,
	professionals string,
	inService bool,
) (*types.Condition, bool, error) {
	name := strings.TrimSpace(diag.Name)
	if name == "" {
		w.log.Warn("Skipping diagnosis with empty name",
			"document_id", documentID,
			"page", pageNumber,
		)
		return nil, false, nil
	}

	var medications datatypes.JSON
	if len(diag.Medications) > 0 {
		raw, err := json.Marshal(diag.Medications)
		if err != nil {
			return nil, false, fmt.Errorf("%w: encode medications: %v", faults.ErrValidation, err)
		}
		medications = datatypes.JSON(raw)
	}

	cond := &types.Condition{
		VeteranID:     veteranID,
		DocumentID:    documentID,
		PageNumber:    pageNumber,
		Name:          name,
		VisitDate:     visitDate,
		Professionals: professionals,
		Medications:   medications,
		Treatments:    diag.Treatments,
		Findings:      diag.Findings,
		Comments:      diag.Comments,
		InService:     inService,
		Ratable:       true,
		DedupeKey:     types.ConditionDedupeKey(documentID, pageNumber, visitDate, name),
	}

	stored, created, err := w.conditions.Insert(dbc, cond)
	if err != nil {
		return nil, false, fmt.Errorf("%w: insert condition: %v", faults.ErrPersistence, err)
	}
	if !created {
		w.log.Debug("Condition already present, replay absorbed",
			"condition_id", stored.ID,
			"page", pageNumber,
		)
	}
	return stored, created, nil
}
