package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/livvitt-quotes/internal/document"
	"github.com/noah-isme/livvitt-quotes/internal/obs"
	"github.com/noah-isme/livvitt-quotes/internal/pricebook"
)

// DefaultPrefix matches the key layout of the browser tool, so exported
// local storage can be loaded as-is.
const DefaultPrefix = "livvitt."

// Store persists documents, the price book and the numbering counters.
type Store struct {
	kv     KV
	prefix string
	now    func() time.Time
	log    zerolog.Logger
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used for updatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New builds a Store over kv. An empty prefix uses DefaultPrefix.
func New(kv KV, prefix string, opts ...Option) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	s := &Store{kv: kv, prefix: prefix, now: time.Now, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) quotesKey() string   { return s.prefix + "quotes" }
func (s *Store) settingsKey() string { return s.prefix + "settings" }
func (s *Store) countersKey() string { return s.prefix + "counters" }

// List returns every saved document, newest first.
func (s *Store) List(ctx context.Context) ([]document.Document, error) {
	raw, err := s.kv.Get(ctx, s.quotesKey())
	if errors.Is(err, ErrNotFound) {
		return []document.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: load documents: %w", err)
	}
	return decodeDocuments(raw)
}

// Get returns the document with id.
func (s *Store) Get(ctx context.Context, id string) (document.Document, error) {
	docs, err := s.List(ctx)
	if err != nil {
		return document.Document{}, err
	}
	idx := indexOf(docs, id)
	if idx < 0 {
		return document.Document{}, fmt.Errorf("%w: document %s", ErrNotFound, id)
	}
	return docs[idx], nil
}

// Save upserts doc: an existing document with the same id is replaced in
// place, a new one is put at the front. updatedAt is stamped on every save.
func (s *Store) Save(ctx context.Context, doc document.Document) (document.Document, error) {
	if err := doc.Validate(); err != nil {
		obs.ObserveDocumentSave(string(doc.Kind), "invalid")
		return document.Document{}, err
	}
	now := s.now().UTC()
	entry := doc.Clone()
	entry.UpdatedAt = now
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	err := s.updateDocuments(ctx, func(docs []document.Document) ([]document.Document, error) {
		if idx := indexOf(docs, entry.ID); idx >= 0 {
			docs[idx] = entry
			return docs, nil
		}
		return append([]document.Document{entry}, docs...), nil
	})
	if err != nil {
		obs.ObserveDocumentSave(string(doc.Kind), "error")
		s.log.Error().Err(err).Str("document_id", doc.ID).Msg("save document failed")
		return document.Document{}, err
	}
	obs.ObserveDocumentSave(string(entry.Kind), "ok")
	s.log.Debug().Str("document_id", entry.ID).Str("number", entry.Number).Msg("document saved")
	return entry, nil
}

// UpdateDocument applies fn to the saved document with id and stores the
// result in place. fn runs inside the critical section of the documents
// key, so no other write interleaves between the read and the save.
func (s *Store) UpdateDocument(ctx context.Context, id string, fn func(document.Document) (document.Document, error)) (document.Document, error) {
	var updated document.Document
	err := s.updateDocuments(ctx, func(docs []document.Document) ([]document.Document, error) {
		idx := indexOf(docs, id)
		if idx < 0 {
			return nil, fmt.Errorf("%w: document %s", ErrNotFound, id)
		}
		next, err := fn(docs[idx].Clone())
		if err != nil {
			return nil, err
		}
		if next.ID != id {
			return nil, fmt.Errorf("%w: id cannot change", document.ErrInvalid)
		}
		if err := next.Validate(); err != nil {
			return nil, err
		}
		next.UpdatedAt = s.now().UTC()
		if next.CreatedAt.IsZero() {
			next.CreatedAt = next.UpdatedAt
		}
		updated = next
		docs[idx] = next
		return docs, nil
	})
	if err != nil {
		result := "error"
		if errors.Is(err, document.ErrInvalid) {
			result = "invalid"
		}
		obs.ObserveDocumentSave(string(updated.Kind), result)
		return document.Document{}, err
	}
	obs.ObserveDocumentSave(string(updated.Kind), "ok")
	s.log.Debug().Str("document_id", updated.ID).Str("number", updated.Number).Msg("document updated")
	return updated, nil
}

// UpdateStatus moves a saved document to status.
func (s *Store) UpdateStatus(ctx context.Context, id string, status document.Status) (document.Document, error) {
	if !status.Valid() {
		return document.Document{}, fmt.Errorf("%w: unknown status %q", document.ErrInvalid, status)
	}
	var updated document.Document
	err := s.updateDocuments(ctx, func(docs []document.Document) ([]document.Document, error) {
		idx := indexOf(docs, id)
		if idx < 0 {
			return nil, fmt.Errorf("%w: document %s", ErrNotFound, id)
		}
		updated = docs[idx].WithStatus(status, s.now().UTC())
		docs[idx] = updated
		return docs, nil
	})
	if err != nil {
		return document.Document{}, err
	}
	s.log.Info().Str("document_id", id).Str("status", string(status)).Msg("document status changed")
	return updated, nil
}

// Import stores a document decoded from an external file. It lands at the
// front of the list; a saved document with the same id is replaced.
func (s *Store) Import(ctx context.Context, doc document.Document) (document.Document, error) {
	if err := doc.Validate(); err != nil {
		obs.ObserveDocumentImport("invalid")
		return document.Document{}, err
	}
	entry := doc.Clone()
	err := s.updateDocuments(ctx, func(docs []document.Document) ([]document.Document, error) {
		docs = slices.DeleteFunc(docs, func(d document.Document) bool { return d.ID == entry.ID })
		return append([]document.Document{entry}, docs...), nil
	})
	if err != nil {
		obs.ObserveDocumentImport("error")
		return document.Document{}, err
	}
	obs.ObserveDocumentImport("ok")
	s.log.Info().Str("document_id", entry.ID).Str("number", entry.Number).Msg("document imported")
	return entry, nil
}

// Delete removes a saved document.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.updateDocuments(ctx, func(docs []document.Document) ([]document.Document, error) {
		idx := indexOf(docs, id)
		if idx < 0 {
			return nil, fmt.Errorf("%w: document %s", ErrNotFound, id)
		}
		return slices.Delete(docs, idx, idx+1), nil
	})
}

// PriceBook returns the saved price book, or the default one when none has
// been saved yet.
func (s *Store) PriceBook(ctx context.Context) (pricebook.PriceBook, error) {
	raw, err := s.kv.Get(ctx, s.settingsKey())
	if errors.Is(err, ErrNotFound) {
		return pricebook.Default(), nil
	}
	if err != nil {
		return pricebook.PriceBook{}, fmt.Errorf("store: load price book: %w", err)
	}
	var book pricebook.PriceBook
	if err := json.Unmarshal(raw, &book); err != nil {
		return pricebook.PriceBook{}, fmt.Errorf("store: decode price book: %w", err)
	}
	return book, nil
}

// SavePriceBook validates and persists book.
func (s *Store) SavePriceBook(ctx context.Context, book pricebook.PriceBook) error {
	if err := book.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("store: encode price book: %w", err)
	}
	if err := s.kv.Set(ctx, s.settingsKey(), data); err != nil {
		return fmt.Errorf("store: save price book: %w", err)
	}
	obs.ObservePriceBookUpdate()
	s.log.Info().Msg("price book saved")
	return nil
}

// UpdatePriceBook applies fn to the saved price book (the default one when
// none is saved) and persists the validated result atomically.
func (s *Store) UpdatePriceBook(ctx context.Context, fn func(pricebook.PriceBook) (pricebook.PriceBook, error)) (pricebook.PriceBook, error) {
	var saved pricebook.PriceBook
	err := s.kv.Update(ctx, s.settingsKey(), func(cur []byte) ([]byte, error) {
		book := pricebook.Default()
		if len(cur) > 0 {
			book = pricebook.PriceBook{}
			if err := json.Unmarshal(cur, &book); err != nil {
				return nil, fmt.Errorf("store: decode price book: %w", err)
			}
		}
		next, err := fn(book)
		if err != nil {
			return nil, err
		}
		if err := next.Validate(); err != nil {
			return nil, err
		}
		saved = next
		return json.Marshal(next)
	})
	if err != nil {
		return pricebook.PriceBook{}, err
	}
	obs.ObservePriceBookUpdate()
	s.log.Info().Msg("price book updated")
	return saved, nil
}

// IncrementCounter bumps the named counter and returns its new value. The
// increment is persisted before the value is returned.
func (s *Store) IncrementCounter(ctx context.Context, name string) (int, error) {
	var next int
	err := s.kv.Update(ctx, s.countersKey(), func(cur []byte) ([]byte, error) {
		counters := map[string]int{}
		if len(cur) > 0 {
			if err := json.Unmarshal(cur, &counters); err != nil {
				return nil, fmt.Errorf("store: decode counters: %w", err)
			}
		}
		counters[name]++
		next = counters[name]
		return json.Marshal(counters)
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Counters returns a snapshot of every numbering counter.
func (s *Store) Counters(ctx context.Context) (map[string]int, error) {
	raw, err := s.kv.Get(ctx, s.countersKey())
	if errors.Is(err, ErrNotFound) {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, err
	}
	counters := map[string]int{}
	if err := json.Unmarshal(raw, &counters); err != nil {
		return nil, fmt.Errorf("store: decode counters: %w", err)
	}
	return counters, nil
}

// Ping reports whether the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}

func (s *Store) updateDocuments(ctx context.Context, fn func([]document.Document) ([]document.Document, error)) error {
	return s.kv.Update(ctx, s.quotesKey(), func(cur []byte) ([]byte, error) {
		docs := []document.Document{}
		if len(cur) > 0 {
			decoded, err := decodeDocuments(cur)
			if err != nil {
				return nil, err
			}
			docs = decoded
		}
		next, err := fn(docs)
		if err != nil {
			return nil, err
		}
		return document.EncodeAll(next)
	})
}

func decodeDocuments(raw []byte) ([]document.Document, error) {
	var docs []document.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("store: decode documents: %w", err)
	}
	// Entries without an id cannot be addressed and are dropped.
	docs = slices.DeleteFunc(docs, func(d document.Document) bool { return d.ID == "" })
	if docs == nil {
		docs = []document.Document{}
	}
	return docs, nil
}

func indexOf(docs []document.Document, id string) int {
	return slices.IndexFunc(docs, func(d document.Document) bool { return d.ID == id })
}
