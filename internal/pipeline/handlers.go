package pipeline

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/livvitt-quotes/internal/common"
)

// Handler exposes the pipeline board.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the pipeline endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/pipeline", h.Board)
	r.Get("/pipeline/export", h.Export)
}

// Board handles GET /api/v1/pipeline.
func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Report(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": report})
}

// Export handles GET /api/v1/pipeline/export.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Export(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Attachment(w, "application/json", ExportFileName, data)
}
