package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	middleware "github.com/orgmind-ai/orgmind/internal/api/middlewares"
	"github.com/orgmind-ai/orgmind/internal/core"
	"github.com/orgmind-ai/orgmind/internal/core/errs"
	"github.com/orgmind-ai/orgmind/internal/core/ingestion_engine"
)

const maxUploadBytes = 52 << 20 // 52 MB

type DocumentHandler struct {
	dbclient core.DbClient
	ingestor ingestion_engine.Ingestor
	logger   *zap.Logger
}

func NewDocumentHandler(dbclient core.DbClient, ingestor ingestion_engine.Ingestor, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{dbclient: dbclient, ingestor: ingestor, logger: logger}
}

// UploadDocument accepts a multipart file, stores it and schedules
// ingestion. Responds 201 with the document still in pending; processing is
// fire-and-forget.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc, err := h.ingestor.IntakeFile(r.Context(), tenant.ID, header.Filename, content, contentType)
	if err != nil {
		h.logger.Error("file intake failed",
			zap.String("tenant_id", tenant.ID), zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

// UploadURL registers a URL source for ingestion.
func (h *DocumentHandler) UploadURL(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	doc, err := h.ingestor.IntakeURL(r.Context(), tenant.ID, req.URL)
	if err != nil {
		h.logger.Error("url intake failed",
			zap.String("tenant_id", tenant.ID), zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	documents, err := h.dbclient.ListDocumentsByTenant(r.Context(), tenant.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, documents)
}

// DeleteDocument removes a document, its vectors and its blob. A document
// still processing cannot be deleted and yields 409.
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	docID := chi.URLParam(r, "id")
	if err := h.ingestor.Delete(r.Context(), docID, tenant.ID); err != nil {
		status := statusFor(err)
		if errors.Is(err, errs.ErrValidation) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "document removed"})
}
