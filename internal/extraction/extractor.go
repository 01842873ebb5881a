package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/claimsbridge-backend/internal/platform/envutil"
	"github.com/yungbote/claimsbridge-backend/internal/platform/faults"
	"github.com/yungbote/claimsbridge-backend/internal/platform/gcp"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
	"github.com/yungbote/claimsbridge-backend/internal/platform/openai"
)

// Extractor turns raw document bytes into classified, structured pages.
type Extractor interface {
	Extract(ctx context.Context, raw []byte, kind string) ([]PageResult, error)
}

type extractor struct {
	log *logger.Logger
	ocr gcp.Document
	ai  openai.Client

	// Classification batch size tracks the downstream context-length limit.
	batchSize int
	workers   int
}

func NewExtractor(log *logger.Logger, ocr gcp.Document, ai openai.Client) (Extractor, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if ocr == nil || ai == nil {
		return nil, fmt.Errorf("ocr and ai clients required")
	}
	slog := log.With("service", "Extractor")
	return &extractor{
		log:       slog,
		ocr:       ocr,
		ai:        ai,
		batchSize: envutil.GetEnvAsInt("EXTRACTION_CLASSIFY_BATCH_SIZE", 25, slog),
		workers:   envutil.GetEnvAsInt("EXTRACTION_WORKER_COUNT", 10, slog),
	}, nil
}

var mimeByKind = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"tiff": "image/tiff",
}

func (e *extractor) Extract(ctx context.Context, raw []byte, kind string) ([]PageResult, error) {
	mime, ok := mimeByKind[strings.ToLower(strings.TrimSpace(kind))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", faults.ErrUnsupportedKind, kind)
	}

	pages, err := e.ocr.ExtractPages(ctx, raw, mime)
	if err != nil {
		return nil, fmt.Errorf("%w: ocr: %v", faults.ErrExtraction, err)
	}
	if len(pages) == 0 {
		return nil, nil
	}
	e.log.Info("OCR complete", "pages", len(pages))

	classifications, err := e.classifyPages(ctx, pages)
	if err != nil {
		return nil, err
	}

	results := e.extractDetails(ctx, pages, classifications)

	sort.Slice(results, func(i, j int) bool { return results[i].Page < results[j].Page })
	return results, nil
}

// classifyPages runs the classifier over the page texts in fixed-size
// batches, batches executing concurrently. A failed batch fails the whole
// call so the stage retries as a unit.
func (e *extractor) classifyPages(ctx context.Context, pages []string) (map[int]pageClassification, error) {
	type batch struct {
		start int
		texts []string
	}

	var batches []batch
	for i := 0; i < len(pages); i += e.batchSize {
		end := i + e.batchSize
		if end > len(pages) {
			end = len(pages)
		}
		batches = append(batches, batch{start: i, texts: pages[i:end]})
	}

	var mu sync.Mutex
	out := make(map[int]pageClassification, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, b := range batches {
		b := b
		g.Go(func() error {
			rows, err := e.classifyBatch(gctx, b.start, b.texts)
			if err != nil {
				return fmt.Errorf("%w: classify batch starting at page %d: %v", faults.ErrExtraction, b.start+1, err)
			}
			mu.Lock()
			for _, row := range rows {
				out[row.PageNumber] = row
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *extractor) classifyBatch(ctx context.Context, startIdx int, texts []string) ([]pageClassification, error) {
	system := "For each of the following claims documents, identify the category based on its content and structure. " +
		"Choose each category from the allowed set only. " +
		"Report one entry per page with its page number, category, confidence, and document date (ISO 8601, YYYY-MM-DD, empty if none)."

	var user strings.Builder
	for i, text := range texts {
		fmt.Fprintf(&user, "Page %d:\n%s\n\n", startIdx+i+1, text)
	}

	obj, err := e.ai.GenerateJSON(ctx, system, user.String(), "page_classifications", classificationSchema())
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Pages []pageClassification `json:"pages"`
	}
	if err := decodeInto(obj, &parsed); err != nil {
		return nil, err
	}
	return parsed.Pages, nil
}

// extractDetails fans out structured extraction per clinical page. A page
// whose extraction fails is returned with an error marker; siblings keep
// going.
func (e *extractor) extractDetails(ctx context.Context, pages []string, classifications map[int]pageClassification) []PageResult {
	results := make([]PageResult, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range pages {
		i := i
		pageNum := i + 1
		g.Go(func() error {
			cls, ok := classifications[pageNum]
			if !ok {
				results[i] = PageResult{Page: pageNum, Category: CategoryUnclassified}
				return nil
			}
			res := PageResult{Page: pageNum, Category: cls.Category}
			if cls.Category == CategoryClinicalRecords {
				record, err := e.extractClinicalRecord(gctx, pages[i])
				if err != nil {
					e.log.Error("Clinical record extraction failed", "page", pageNum, "error", err)
					res.Err = err.Error()
				} else {
					res.Details = record
				}
			}
			results[i] = res
			return nil
		})
	}
	// Workers never return errors; per-page failures land in Err markers.
	_ = g.Wait()

	return results
}

func (e *extractor) extractClinicalRecord(ctx context.Context, pageText string) (*ClinicalRecord, error) {
	system := "You are an assistant designed to extract record information accurately. " +
		"For each visit in the clinical record, identify each diagnosis and associate only the relevant medications, treatments, and findings with that specific diagnosis. " +
		"Ensure that no unrelated medications, treatments, or doctor comments are linked to a diagnosis. " +
		"Do not use the active medications list as it could belong to another diagnosis; focus on prescriptions provided by the current doctor. " +
		"Use ISO 8601 format for dates: YYYY-MM-DD."

	obj, err := e.ai.GenerateJSON(ctx, system, pageText, "clinical_record", clinicalRecordSchema())
	if err != nil {
		return nil, err
	}

	var record ClinicalRecord
	if err := decodeInto(obj, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func decodeInto(obj map[string]any, out any) error {
	raw, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func classificationSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pages": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"page_number":   map[string]any{"type": "integer"},
						"category":      map[string]any{"type": "string", "enum": knownCategories()},
						"confidence":    map[string]any{"type": "number"},
						"document_date": map[string]any{"type": "string"},
					},
					"required":             []string{"page_number", "category", "confidence", "document_date"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"pages"},
		"additionalProperties": false,
	}
}

func clinicalRecordSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"patient_name": map[string]any{"type": "string"},
			"visits": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"date_of_visit": map[string]any{"type": "string"},
						"medical_professionals": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
						"diagnosis": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"diagnosis_name": map[string]any{"type": "string"},
									"medication_list": map[string]any{
										"type":  "array",
										"items": map[string]any{"type": "string"},
									},
									"treatments":      map[string]any{"type": "string"},
									"findings":        map[string]any{"type": "string"},
									"doctor_comments": map[string]any{"type": "string"},
								},
								"required":             []string{"diagnosis_name", "medication_list", "treatments", "findings", "doctor_comments"},
								"additionalProperties": false,
							},
						},
					},
					"required":             []string{"date_of_visit", "medical_professionals", "diagnosis"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"patient_name", "visits"},
		"additionalProperties": false,
	}
}
