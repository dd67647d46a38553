package quote

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/livvitt-quotes/internal/common"
	"github.com/noah-isme/livvitt-quotes/internal/document"
	"github.com/noah-isme/livvitt-quotes/internal/pricebook"
	"github.com/noah-isme/livvitt-quotes/internal/render"
)

const defaultPerPage = 50

// Handler exposes document endpoints.
type Handler struct {
	service *Service
	money   render.Formatter
	company render.Company
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
	Money   render.Formatter
	Company render.Company
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	money := cfg.Money
	if money.Code() == "" {
		money = render.NewFormatter(render.DefaultCurrency)
	}
	return &Handler{service: cfg.Service, money: money, company: cfg.Company}
}

// Routes mounts the document endpoints on r. create wraps the endpoints
// that issue new numbers.
func (h *Handler) Routes(r chi.Router, create ...func(http.Handler) http.Handler) {
	r.With(create...).Post("/quotes", h.Create)
	r.Post("/preview", h.Preview)
	r.Route("/documents", func(d chi.Router) {
		d.Get("/", h.List)
		d.Post("/import", h.Import)
		d.Route("/{id}", func(doc chi.Router) {
			doc.Get("/", h.Get)
			doc.Put("/", h.Save)
			doc.Delete("/", h.Delete)
			doc.Put("/status", h.SetStatus)
			doc.Post("/items", h.AddItem)
			doc.Delete("/items/{itemID}", h.RemoveItem)
			doc.With(create...).Post("/invoice", h.Convert)
			doc.Get("/export", h.Export)
			doc.Get("/pdf", h.PDF)
		})
	})
}

// List handles GET /api/v1/documents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	rows, err := h.service.List(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
		filtered := rows[:0]
		for _, row := range rows {
			if string(row.Document.Status) == status {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}
	page, perPage := common.ParsePagination(r, defaultPerPage)
	start, end := common.Window(page, perPage, len(rows))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       rows[start:end],
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: len(rows)},
	})
}

// Create handles POST /api/v1/quotes. The body is optional.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var draft Draft
	if err := decodeOptional(r, &draft); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	priced, err := h.service.NewQuote(r.Context(), draft)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": priced})
}

// Get handles GET /api/v1/documents/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	priced, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": priced})
}

// Save handles PUT /api/v1/documents/{id}.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id := chi.URLParam(r, "id")
	var doc document.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if doc.ID == "" {
		doc.ID = id
	}
	if doc.ID != id {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "document id does not match path", nil)
		return
	}
	priced, err := h.service.Save(r.Context(), doc)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": priced})
}

// Delete handles DELETE /api/v1/documents/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetStatus handles PUT /api/v1/documents/{id}/status.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var body struct {
		Status document.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	priced, err := h.service.SetStatus(r.Context(), chi.URLParam(r, "id"), body.Status)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": priced})
}

// AddItem handles POST /api/v1/documents/{id}/items. Without a body the
// default custom banner is added.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var item *document.Item
	if err := decodeOptional(r, &item); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	priced, err := h.service.AddItem(r.Context(), chi.URLParam(r, "id"), item)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": priced})
}

// RemoveItem handles DELETE /api/v1/documents/{id}/items/{itemID}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	priced, err := h.service.RemoveItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemID"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": priced})
}

// Convert handles POST /api/v1/documents/{id}/invoice.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	priced, err := h.service.ConvertToInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": priced})
}

// Import handles POST /api/v1/documents/import with a raw document body.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
			return
		}
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "could not read body", nil)
		return
	}
	priced, err := h.service.Import(r.Context(), body)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": priced})
}

// Export handles GET /api/v1/documents/{id}/export.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	data, name, err := h.service.Export(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Attachment(w, "application/json", name, data)
}

// PDF handles GET /api/v1/documents/{id}/pdf.
func (h *Handler) PDF(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	priced, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := render.PDF(render.Sheet{
		Company:  h.company,
		Document: priced.Document,
		Summary:  priced.Totals,
		Lines:    priced.Lines,
		Money:    h.money,
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to render document", nil)
		return
	}
	common.Attachment(w, "application/pdf", render.FileName(priced.Document, "pdf"), out)
}

type previewRequest struct {
	Document  document.Document    `json:"document"`
	PriceBook *pricebook.PriceBook `json:"priceBook"`
}

// Preview handles POST /api/v1/preview: totals for an unsaved document,
// optionally against a proposed price book.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	priced, err := h.service.Preview(r.Context(), req.Document, req.PriceBook)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": priced,
		"formatted": map[string]string{
			"itemsSubtotal": h.money.Format(priced.Totals.ItemsSubtotal),
			"installTotal":  h.money.Format(priced.Totals.InstallTotal),
			"discount":      h.money.Format(priced.Totals.Discount),
			"tax":           h.money.Format(priced.Totals.Tax),
			"total":         h.money.Format(priced.Totals.Total),
		},
	})
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return false
	}
	return true
}

// decodeOptional decodes a JSON body into dst, leaving dst untouched when
// the body is empty.
func decodeOptional(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
