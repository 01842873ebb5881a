package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	temporalsdkclient "go.temporal.io/sdk/client"
	"gorm.io/gorm"

	"github.com/yungbote/claimsbridge-backend/internal/data/repos"
	types "github.com/yungbote/claimsbridge-backend/internal/domain"
	"github.com/yungbote/claimsbridge-backend/internal/platform/dbctx"
	"github.com/yungbote/claimsbridge-backend/internal/platform/gcp"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
	"github.com/yungbote/claimsbridge-backend/internal/temporalx"
	"github.com/yungbote/claimsbridge-backend/internal/temporalx/docpipeline"
)

// DocumentService owns the upload path and the status surface callers
// poll while the pipeline runs.
type DocumentService interface {
	Upload(ctx context.Context, veteranID uuid.UUID, filename, category string, size int64, content io.Reader) (*types.SourceDocument, error)
	Get(ctx context.Context, documentID uuid.UUID) (*types.SourceDocument, error)
	ListByVeteran(ctx context.Context, veteranID uuid.UUID) ([]*types.SourceDocument, error)
}

type documentService struct {
	db        *gorm.DB
	log       *logger.Logger
	bucket    gcp.BucketService
	documents repos.SourceDocumentRepo
	veterans  repos.VeteranRepo
	temporal  temporalsdkclient.Client
}

func NewDocumentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	bucket gcp.BucketService,
	r repos.All,
	temporal temporalsdkclient.Client,
) DocumentService {
	return &documentService{
		db:        db,
		log:       baseLog.With("service", "DocumentService"),
		bucket:    bucket,
		documents: r.Documents,
		veterans:  r.Veterans,
		temporal:  temporal,
	}
}

var supportedKinds = map[string]bool{
	"pdf": true, "jpg": true, "jpeg": true, "png": true, "tiff": true,
}

// Upload stores the bytes, inserts the document row in Uploaded state, and
// starts the pipeline workflow. The workflow ID is derived from the
// document ID so a duplicate submit of the same document is a no-op.
func (s *documentService) Upload(ctx context.Context, veteranID uuid.UUID, filename, category string, size int64, content io.Reader) (*types.SourceDocument, error) {
	if veteranID == uuid.Nil {
		return nil, fmt.Errorf("upload: missing veteran id")
	}
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, fmt.Errorf("upload: missing filename")
	}
	kind := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !supportedKinds[kind] {
		return nil, fmt.Errorf("upload: unsupported file type %q", kind)
	}

	docID := uuid.New()
	storageKey := fmt.Sprintf("veterans/%s/documents/%s/%s", veteranID, docID, filename)
	contentType := mime.TypeByExtension("." + kind)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := s.bucket.UploadFile(ctx, storageKey, content, contentType); err != nil {
		return nil, fmt.Errorf("upload: store object: %w", err)
	}

	doc := &types.SourceDocument{
		ID:           docID,
		VeteranID:    veteranID,
		OriginalName: filename,
		Kind:         kind,
		Category:     strings.TrimSpace(category),
		StorageKey:   storageKey,
		SizeBytes:    size,
		Status:       types.DocumentStatusUploaded,
		UploadedAt:   time.Now().UTC(),
	}
	created, err := s.documents.Create(dbctx.Context{Ctx: ctx}, []*types.SourceDocument{doc})
	if err != nil {
		// The object store supports idempotent overwrite; the orphan blob
		// gets replaced on the next attempt.
		return nil, fmt.Errorf("upload: insert document: %w", err)
	}
	doc = created[0]

	if err := s.startPipeline(ctx, doc); err != nil {
		s.log.Error("Failed to start pipeline, marking document failed", "document_id", doc.ID, "error", err)
		if uerr := s.documents.UpdateStatus(dbctx.Context{Ctx: ctx}, doc.ID, types.DocumentStatusFailed); uerr != nil {
			s.log.Error("Failed to mark document failed", "document_id", doc.ID, "error", uerr)
		}
		return nil, err
	}

	s.log.Info("Document accepted",
		"document_id", doc.ID,
		"veteran_id", veteranID,
		"kind", kind,
		"size_bytes", size,
	)
	return doc, nil
}

func (s *documentService) startPipeline(ctx context.Context, doc *types.SourceDocument) error {
	if s.temporal == nil {
		return fmt.Errorf("upload: temporal is not configured")
	}
	cfg := temporalx.LoadConfig()
	_, err := s.temporal.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
		ID:        fmt.Sprintf("docpipeline-%s", doc.ID),
		TaskQueue: cfg.TaskQueue,
	}, docpipeline.WorkflowName, docpipeline.PipelineInput{
		DocumentID: doc.ID,
		VeteranID:  doc.VeteranID,
	})
	return err
}

func (s *documentService) Get(ctx context.Context, documentID uuid.UUID) (*types.SourceDocument, error) {
	docs, err := s.documents.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{documentID})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return docs[0], nil
}

func (s *documentService) ListByVeteran(ctx context.Context, veteranID uuid.UUID) ([]*types.SourceDocument, error) {
	return s.documents.GetByVeteranID(dbctx.Context{Ctx: ctx}, veteranID)
}
