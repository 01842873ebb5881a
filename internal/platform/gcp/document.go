package gcp

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yungbote/claimsbridge-backend/internal/platform/envutil"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
)

// Document is the OCR boundary: raw bytes in, per-page text out.
type Document interface {
	ExtractPages(ctx context.Context, data []byte, mimeType string) ([]string, error)
	Close() error
}

type documentService struct {
	log *logger.Logger

	docClient *documentai.DocumentProcessorClient

	projectID        string
	location         string
	processorID      string
	processorVersion string

	maxRetries int
}

func NewDocument(log *logger.Logger) (Document, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "gcp.Document")

	projectID := strings.TrimSpace(os.Getenv("DOCUMENTAI_PROJECT_ID"))
	processorID := strings.TrimSpace(os.Getenv("DOCUMENTAI_PROCESSOR_ID"))
	if projectID == "" || processorID == "" {
		return nil, fmt.Errorf("missing DOCUMENTAI_PROJECT_ID or DOCUMENTAI_PROCESSOR_ID")
	}
	location := strings.TrimSpace(os.Getenv("DOCUMENTAI_LOCATION"))
	if location == "" {
		location = "us"
	}
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)

	docOpts := append([]option.ClientOption{option.WithEndpoint(endpoint)}, ClientOptionsFromEnv()...)
	c, err := documentai.NewDocumentProcessorClient(context.Background(), docOpts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}

	slog.Info("Document AI initialized", "endpoint", endpoint)

	return &documentService{
		log:              slog,
		docClient:        c,
		projectID:        projectID,
		location:         location,
		processorID:      processorID,
		processorVersion: strings.TrimSpace(os.Getenv("DOCUMENTAI_PROCESSOR_VERSION")),
		maxRetries:       envutil.GetEnvAsInt("DOCUMENTAI_MAX_RETRIES", 3, slog),
	}, nil
}

func (s *documentService) Close() error {
	if s == nil || s.docClient == nil {
		return nil
	}
	return s.docClient.Close()
}

func (s *documentService) ExtractPages(ctx context.Context, data []byte, mimeType string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	if len(data) == 0 {
		return nil, nil
	}
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	req := &documentaipb.ProcessRequest{
		Name: s.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: mimeType,
			},
		},
	}

	resp, err := s.process(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("documentai ProcessDocument: %w", err)
	}
	if resp == nil || resp.Document == nil {
		return nil, nil
	}
	return pagesFromDocument(resp.Document), nil
}

// process retries transient RPC failures with exponential backoff.
func (s *documentService) process(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error) {
	var last error
	backoff := 1 * time.Second

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		resp, err := s.docClient.ProcessDocument(ctx, req)
		if err == nil {
			return resp, nil
		}
		last = err

		code := status.Code(err)
		if code != codes.Unavailable && code != codes.ResourceExhausted && code != codes.DeadlineExceeded {
			return nil, err
		}
		if attempt == s.maxRetries {
			break
		}
		s.log.Warn("Document AI transient failure; retrying",
			"attempt", attempt+1,
			"code", code.String(),
			"error", err,
		)

		time.Sleep(backoff)
		backoff *= 2
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}
	return nil, last
}

func (s *documentService) processorName() string {
	if s.processorVersion != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			s.projectID, s.location, s.processorID, s.processorVersion)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", s.projectID, s.location, s.processorID)
}

// pagesFromDocument slices the document's full text back into per-page
// strings using each page layout's text anchor segments.
func pagesFromDocument(doc *documentaipb.Document) []string {
	if doc == nil {
		return nil
	}
	full := doc.GetText()
	pages := doc.GetPages()
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		anchor := p.GetLayout().GetTextAnchor()
		if anchor == nil {
			out = append(out, "")
			continue
		}
		var b strings.Builder
		for _, seg := range anchor.GetTextSegments() {
			start := int(seg.GetStartIndex())
			end := int(seg.GetEndIndex())
			if start < 0 || end > len(full) || start >= end {
				continue
			}
			b.WriteString(full[start:end])
		}
		out = append(out, b.String())
	}
	return out
}
