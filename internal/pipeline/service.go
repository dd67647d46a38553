package pipeline

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/livvitt-quotes/internal/common"
	"github.com/noah-isme/livvitt-quotes/internal/document"
	"github.com/noah-isme/livvitt-quotes/internal/obs"
	"github.com/noah-isme/livvitt-quotes/internal/pricebook"
	"github.com/noah-isme/livvitt-quotes/internal/pricing"
	"github.com/noah-isme/livvitt-quotes/internal/store"
)

// ExportFileName is the download name of a pipeline export.
const ExportFileName = "livvitt-pipeline.json"

// Source supplies the saved documents and the active price book.
type Source interface {
	List(ctx context.Context) ([]document.Document, error)
	PriceBook(ctx context.Context) (pricebook.PriceBook, error)
}

// Card is a document as shown on the board.
type Card struct {
	ID       string          `json:"id"`
	Kind     document.Kind   `json:"kind"`
	Number   string          `json:"number"`
	Customer string          `json:"customer"`
	Status   document.Status `json:"status"`
	Total    float64         `json:"total"`
}

// Lane is one status column of the board.
type Lane struct {
	Status document.Status `json:"status"`
	Count  int             `json:"count"`
	Cards  []Card          `json:"cards"`
}

// Report is the whole board plus the value chart.
type Report struct {
	Lanes []Lane  `json:"lanes"`
	Stats Summary `json:"stats"`
}

// ServiceConfig wires the Service dependencies.
type ServiceConfig struct {
	Source Source
	Logger zerolog.Logger
}

// Service builds pipeline reports.
type Service struct {
	source Source
	log    zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Source == nil {
		return nil, errors.New("pipeline: source is required")
	}
	return &Service{source: cfg.Source, log: cfg.Logger}, nil
}

// Report groups the saved documents and prices every card with the current
// book. Pipeline gauges are refreshed as a side effect.
func (s *Service) Report(ctx context.Context) (Report, error) {
	if s == nil {
		return Report{}, errors.New("pipeline service not configured")
	}
	docs, err := s.source.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("load documents failed")
		return Report{}, common.NewAppError("INTERNAL", "failed to load documents", http.StatusInternalServerError, err)
	}
	book, err := s.source.PriceBook(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("load price book failed")
		return Report{}, common.NewAppError("INTERNAL", "failed to load price book", http.StatusInternalServerError, err)
	}

	cols := Group(docs)
	report := Report{Lanes: make([]Lane, 0, len(cols)), Stats: Stats(docs, book)}
	for _, col := range cols {
		lane := Lane{Status: col.Status, Count: len(col.Documents), Cards: make([]Card, 0, len(col.Documents))}
		for _, d := range col.Documents {
			lane.Cards = append(lane.Cards, Card{
				ID:       d.ID,
				Kind:     d.Kind,
				Number:   d.Number,
				Customer: d.Customer.Name,
				Status:   d.Status,
				Total:    pricing.Compute(d, book).Total,
			})
		}
		report.Lanes = append(report.Lanes, lane)
	}
	for _, sv := range report.Stats.ByStatus {
		obs.SetPipelineValue(string(sv.Status), sv.Value)
	}
	return report, nil
}

// Export renders every saved document as one JSON array. It fails with
// store.ErrEmpty when nothing has been saved.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	if s == nil {
		return nil, errors.New("pipeline service not configured")
	}
	docs, err := s.source.List(ctx)
	if err != nil {
		return nil, common.NewAppError("INTERNAL", "failed to load documents", http.StatusInternalServerError, err)
	}
	if len(docs) == 0 {
		return nil, common.NewAppError("NOT_FOUND", "no saved documents", http.StatusNotFound, store.ErrEmpty)
	}
	data, err := document.EncodeAll(docs)
	if err != nil {
		return nil, common.NewAppError("INTERNAL", "failed to encode documents", http.StatusInternalServerError, err)
	}
	return data, nil
}
