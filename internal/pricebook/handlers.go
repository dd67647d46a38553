package pricebook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/livvitt-quotes/internal/common"
)

// Store persists the active price book.
type Store interface {
	PriceBook(ctx context.Context) (PriceBook, error)
	SavePriceBook(ctx context.Context, book PriceBook) error
	UpdatePriceBook(ctx context.Context, fn func(PriceBook) (PriceBook, error)) (PriceBook, error)
}

// Handler serves the price book settings.
type Handler struct {
	store Store
	log   zerolog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(store Store, log zerolog.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// Routes mounts the price book endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/pricebook", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Replace)
		r.Post("/reset", h.Reset)
		r.Put("/sqft/{type}", h.SetRate(func(b PriceBook, t string, v float64) PriceBook { return b.WithSqftRate(t, v) }))
		r.Put("/unit/{type}", h.SetRate(func(b PriceBook, t string, v float64) PriceBook { return b.WithUnitRate(t, v) }))
	})
}

// Get returns the active price book.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	book, err := h.load(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": book})
}

// Replace stores a whole new price book.
func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	var book PriceBook
	if err := json.NewDecoder(r.Body).Decode(&book); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	h.save(w, r, book.Clone())
}

// Reset restores the default price book.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, Default())
}

type rateRequest struct {
	Rate *float64 `json:"rate"`
}

// SetRate returns a handler that replaces one rate of the active book.
func (h *Handler) SetRate(apply func(PriceBook, string, float64) PriceBook) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemType := strings.TrimSpace(chi.URLParam(r, "type"))
		var req rateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Rate == nil || itemType == "" {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "rate is required", nil)
			return
		}
		if h.store == nil {
			common.WriteError(w, errors.New("pricebook: store not configured"))
			return
		}
		book, err := h.store.UpdatePriceBook(r.Context(), func(b PriceBook) (PriceBook, error) {
			return apply(b, itemType, *req.Rate), nil
		})
		if err != nil {
			h.writeSaveError(w, err)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": book})
	}
}

func (h *Handler) load(ctx context.Context) (PriceBook, error) {
	if h.store == nil {
		return PriceBook{}, errors.New("pricebook: store not configured")
	}
	book, err := h.store.PriceBook(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("load price book failed")
		return PriceBook{}, common.NewAppError("INTERNAL", "failed to load price book", http.StatusInternalServerError, err)
	}
	return book, nil
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, book PriceBook) {
	if h.store == nil {
		common.WriteError(w, errors.New("pricebook: store not configured"))
		return
	}
	if err := h.store.SavePriceBook(r.Context(), book); err != nil {
		h.writeSaveError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": book})
}

func (h *Handler) writeSaveError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalid) {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	h.log.Error().Err(err).Msg("save price book failed")
	common.WriteError(w, err)
}
