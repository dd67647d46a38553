package quote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/livvitt-quotes/internal/common"
	"github.com/noah-isme/livvitt-quotes/internal/document"
	"github.com/noah-isme/livvitt-quotes/internal/numbering"
	"github.com/noah-isme/livvitt-quotes/internal/obs"
	"github.com/noah-isme/livvitt-quotes/internal/pricebook"
	"github.com/noah-isme/livvitt-quotes/internal/pricing"
	"github.com/noah-isme/livvitt-quotes/internal/store"
)

// DefaultTerms are printed on every new quote.
const DefaultTerms = "50% deposit to schedule. Balance due upon installation."

// ErrAlreadyInvoice is returned when converting a document that is already
// an invoice.
var ErrAlreadyInvoice = errors.New("quote: document is already an invoice")

// Store is the persistence the service needs.
type Store interface {
	List(ctx context.Context) ([]document.Document, error)
	Get(ctx context.Context, id string) (document.Document, error)
	Save(ctx context.Context, doc document.Document) (document.Document, error)
	UpdateDocument(ctx context.Context, id string, fn func(document.Document) (document.Document, error)) (document.Document, error)
	UpdateStatus(ctx context.Context, id string, status document.Status) (document.Document, error)
	Import(ctx context.Context, doc document.Document) (document.Document, error)
	Delete(ctx context.Context, id string) error
	PriceBook(ctx context.Context) (pricebook.PriceBook, error)
}

// Numberer issues document numbers.
type Numberer interface {
	Next(ctx context.Context, kind document.Kind) (string, error)
}

// Priced is a document together with the totals derived from the current
// price book.
type Priced struct {
	Document document.Document `json:"document"`
	Totals   pricing.Summary   `json:"totals"`
	Lines    []pricing.Line    `json:"lines"`
}

// Draft carries the caller-supplied parts of a new quote. Everything else is
// seeded from the price book.
type Draft struct {
	Customer    document.Customer `json:"customer"`
	SiteAddress string            `json:"siteAddress"`
	InstallDate string            `json:"installDate"`
	Crew        []string          `json:"crew"`
	Notes       string            `json:"notes"`
	Items       []document.Item   `json:"items"`
}

// ServiceConfig wires the Service dependencies.
type ServiceConfig struct {
	Store   Store
	Numbers Numberer
	Now     func() time.Time
	NewID   func() string
	Logger  zerolog.Logger
}

// Service runs the lifecycle of quotes and invoices.
type Service struct {
	store   Store
	numbers Numberer
	now     func() time.Time
	newID   func() string
	log     zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("quote: store is required")
	}
	if cfg.Numbers == nil {
		return nil, errors.New("quote: numberer is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Service{store: cfg.Store, numbers: cfg.Numbers, now: now, newID: newID, log: cfg.Logger}, nil
}

// Price derives totals for doc against book. It never fails.
func Price(doc document.Document, book pricebook.PriceBook) Priced {
	return Priced{Document: doc, Totals: pricing.Compute(doc, book), Lines: pricing.Lines(doc, book)}
}

// NewQuote numbers and saves a draft quote seeded from the price book.
func (s *Service) NewQuote(ctx context.Context, draft Draft) (Priced, error) {
	ctx, span := obs.StartSpan(ctx, "quote.NewQuote")
	defer span.End()

	book, err := s.store.PriceBook(ctx)
	if err != nil {
		return Priced{}, s.internal("load price book", err)
	}
	number, err := s.numbers.Next(ctx, document.KindQuote)
	if err != nil {
		return Priced{}, s.internal("issue quote number", err)
	}
	now := s.now().UTC()
	installDate := draft.InstallDate
	if installDate == "" {
		installDate = now.Format(time.DateOnly)
	}
	doc := document.Document{
		ID:        s.newID(),
		Kind:      document.KindQuote,
		Number:    number,
		Status:    document.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
		Customer:  draft.Customer,
		Job: document.Job{
			SiteAddress: draft.SiteAddress,
			InstallDate: installDate,
			Crew:        draft.Crew,
			Hours:       book.Install.CrewMinHours,
			HourlyRate:  book.Install.HourlyRate,
			TaxInstall:  true,
		},
		Terms:        DefaultTerms,
		Notes:        draft.Notes,
		TaxRate:      book.Document.TaxRate,
		DiscountMode: document.DiscountMode(book.Document.DiscountMode),
		Items:        s.withIDs(draft.Items),
	}
	if doc.Job.Crew == nil {
		doc.Job.Crew = []string{}
	}
	if doc.DiscountMode == "" {
		doc.DiscountMode = document.DiscountAmount
	}
	saved, err := s.store.Save(ctx, doc)
	if err != nil {
		return Priced{}, s.translate(err)
	}
	span.SetAttributes(attribute.String("livvitt.number", saved.Number))
	s.log.Info().Str("document_id", saved.ID).Str("number", saved.Number).Msg("quote created")
	return Price(saved, book), nil
}

// Save persists doc as given. Items without an id receive one.
func (s *Service) Save(ctx context.Context, doc document.Document) (Priced, error) {
	doc = doc.Clone()
	doc.Items = s.withIDs(doc.Items)
	saved, err := s.store.Save(ctx, doc)
	if err != nil {
		return Priced{}, s.translate(err)
	}
	return s.price(ctx, saved)
}

// Get returns a saved document with its totals.
func (s *Service) Get(ctx context.Context, id string) (Priced, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return Priced{}, s.translate(err)
	}
	return s.price(ctx, doc)
}

// List returns every saved document, newest first, priced with the current
// book.
func (s *Service) List(ctx context.Context) ([]Priced, error) {
	docs, err := s.store.List(ctx)
	if err != nil {
		return nil, s.translate(err)
	}
	book, err := s.store.PriceBook(ctx)
	if err != nil {
		return nil, s.internal("load price book", err)
	}
	out := make([]Priced, 0, len(docs))
	for _, d := range docs {
		out = append(out, Price(d, book))
	}
	return out, nil
}

// AddItem appends item to a saved document. A nil item adds the default
// custom banner line.
func (s *Service) AddItem(ctx context.Context, id string, item *document.Item) (Priced, error) {
	return s.mutate(ctx, id, func(doc document.Document) (document.Document, error) {
		next := document.NewItem(s.newID())
		if item != nil {
			next = *item
			if strings.TrimSpace(next.ID) == "" {
				next.ID = s.newID()
			}
		}
		return doc.WithItem(next), nil
	})
}

// RemoveItem drops the item with itemID from a saved document.
func (s *Service) RemoveItem(ctx context.Context, id, itemID string) (Priced, error) {
	return s.mutate(ctx, id, func(doc document.Document) (document.Document, error) {
		if !doc.HasItem(itemID) {
			return doc, common.NewAppError("NOT_FOUND", "item not found", http.StatusNotFound, fmt.Errorf("%w: item %s", store.ErrNotFound, itemID))
		}
		return doc.WithoutItem(itemID), nil
	})
}

// SetStatus moves a saved document to status. Any status may follow any
// other.
func (s *Service) SetStatus(ctx context.Context, id string, status document.Status) (Priced, error) {
	doc, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return Priced{}, s.translate(err)
	}
	return s.price(ctx, doc)
}

// ConvertToInvoice turns a saved quote into an invoice: it receives a fresh
// invoice number and the Invoiced status, and keeps its id. The number is
// drawn while the document is held, so concurrent conversions of the same
// quote issue a single number.
func (s *Service) ConvertToInvoice(ctx context.Context, id string) (Priced, error) {
	ctx, span := obs.StartSpan(ctx, "quote.ConvertToInvoice")
	defer span.End()

	saved, err := s.store.UpdateDocument(ctx, id, func(doc document.Document) (document.Document, error) {
		if doc.Kind == document.KindInvoice {
			return doc, ErrAlreadyInvoice
		}
		number, err := s.numbers.Next(ctx, document.KindInvoice)
		if err != nil {
			return doc, s.internal("issue invoice number", err)
		}
		doc.Kind = document.KindInvoice
		doc.Number = number
		doc.Status = document.StatusInvoiced
		return doc, nil
	})
	if err != nil {
		return Priced{}, s.translate(err)
	}
	s.log.Info().Str("document_id", saved.ID).Str("number", saved.Number).Msg("quote converted to invoice")
	return s.price(ctx, saved)
}

// Delete removes a saved document.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return s.translate(err)
	}
	return nil
}

// Import decodes an exported document and stores it. A missing kind or
// status is read as a draft quote.
func (s *Service) Import(ctx context.Context, data []byte) (Priced, error) {
	doc, err := document.Decode(data)
	if err != nil {
		obs.ObserveDocumentImport("rejected")
		return Priced{}, s.translate(err)
	}
	if doc.Kind == "" {
		doc.Kind = document.KindQuote
	}
	if doc.Status == "" {
		doc.Status = document.StatusDraft
	}
	saved, err := s.store.Import(ctx, doc)
	if err != nil {
		return Priced{}, s.translate(err)
	}
	return s.price(ctx, saved)
}

// Export renders a saved document as indented JSON, along with its
// download name.
func (s *Service) Export(ctx context.Context, id string) ([]byte, string, error) {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, "", s.translate(err)
	}
	data, err := document.Encode(doc)
	if err != nil {
		return nil, "", s.internal("encode document", err)
	}
	name := doc.Number
	if name == "" {
		name = doc.ID
	}
	return data, name + ".json", nil
}

// Preview prices an unsaved document. A nil book uses the saved price book.
func (s *Service) Preview(ctx context.Context, doc document.Document, book *pricebook.PriceBook) (Priced, error) {
	if book != nil {
		return Price(doc, *book), nil
	}
	saved, err := s.store.PriceBook(ctx)
	if err != nil {
		return Priced{}, s.internal("load price book", err)
	}
	return Price(doc, saved), nil
}

func (s *Service) mutate(ctx context.Context, id string, fn func(document.Document) (document.Document, error)) (Priced, error) {
	saved, err := s.store.UpdateDocument(ctx, id, fn)
	if err != nil {
		return Priced{}, s.translate(err)
	}
	return s.price(ctx, saved)
}

func (s *Service) price(ctx context.Context, doc document.Document) (Priced, error) {
	book, err := s.store.PriceBook(ctx)
	if err != nil {
		return Priced{}, s.internal("load price book", err)
	}
	return Price(doc, book), nil
}

func (s *Service) withIDs(items []document.Item) []document.Item {
	out := make([]document.Item, len(items))
	for i, it := range items {
		if strings.TrimSpace(it.ID) == "" {
			it.ID = s.newID()
		}
		out[i] = it
	}
	return out
}

func (s *Service) internal(action string, err error) error {
	s.log.Error().Err(err).Msg(action + " failed")
	return common.NewAppError("INTERNAL", "failed to "+action, http.StatusInternalServerError, err)
}

// translate maps domain errors to API errors.
func (s *Service) translate(err error) error {
	if err == nil || common.IsAppError(err) {
		return err
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return common.NewAppError("NOT_FOUND", "document not found", http.StatusNotFound, err)
	case errors.Is(err, document.ErrInvalidJSON):
		return common.NewAppError("INVALID_JSON", document.ErrInvalidJSON.Error(), http.StatusBadRequest, err)
	case errors.Is(err, document.ErrNotDocument):
		return common.NewAppError("NOT_A_DOCUMENT", document.ErrNotDocument.Error(), http.StatusUnprocessableEntity, err)
	case errors.Is(err, document.ErrInvalid):
		appErr := common.NewAppError("VALIDATION_ERROR", "invalid document", http.StatusUnprocessableEntity, err)
		appErr.Details = map[string]string{"reason": err.Error()}
		return appErr
	case errors.Is(err, numbering.ErrUnknownKind):
		return common.NewAppError("BAD_REQUEST", "unknown document kind", http.StatusBadRequest, err)
	case errors.Is(err, ErrAlreadyInvoice):
		return common.NewAppError("CONFLICT", "document is already an invoice", http.StatusConflict, err)
	default:
		return s.internal("access document store", err)
	}
}
