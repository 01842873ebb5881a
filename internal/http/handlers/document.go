package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/claimsbridge-backend/internal/http/response"
	"github.com/yungbote/claimsbridge-backend/internal/platform/logger"
	"github.com/yungbote/claimsbridge-backend/internal/services"
)

type DocumentHandler struct {
	log       *logger.Logger
	documents services.DocumentService
}

func NewDocumentHandler(log *logger.Logger, documents services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		log:       log.With("handler", "DocumentHandler"),
		documents: documents,
	}
}

// Upload accepts one multipart file plus a category and kicks off the
// processing pipeline. The response returns immediately with the document
// in Uploaded state; callers poll the status endpoint for progress.
func (h *DocumentHandler) Upload(c *gin.Context) {
	veteranID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid veteran id"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("missing file"))
		return
	}
	category := c.PostForm("category")

	f, err := fileHeader.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	defer f.Close()

	doc, err := h.documents.Upload(c.Request.Context(), veteranID, fileHeader.Filename, category, fileHeader.Size, f)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "upload_failed", err)
		return
	}
	response.RespondCreated(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	veteranID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid veteran id"))
		return
	}
	docs, err := h.documents.ListByVeteran(c.Request.Context(), veteranID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	response.RespondOK(c, docs)
}

// Status exposes the coarse pipeline state callers poll.
func (h *DocumentHandler) Status(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("docId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid document id"))
		return
	}
	doc, err := h.documents.Get(c.Request.Context(), documentID)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	response.RespondOK(c, gin.H{
		"document_id": doc.ID,
		"status":      doc.Status,
	})
}
