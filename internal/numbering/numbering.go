package numbering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/livvitt-quotes/internal/document"
	"github.com/noah-isme/livvitt-quotes/internal/obs"
)

// ErrUnknownKind is returned for kinds other than Quote and Invoice.
var ErrUnknownKind = errors.New("numbering: unknown document kind")

// Counters persists per-key sequence counters. IncrementCounter must be
// atomic with respect to other callers and persist the new value before
// returning it.
type Counters interface {
	IncrementCounter(ctx context.Context, name string) (int, error)
}

// Prefix returns the number prefix for kind.
func Prefix(kind document.Kind) (string, error) {
	switch kind {
	case document.KindQuote:
		return "LVQ", nil
	case document.KindInvoice:
		return "LVI", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// CounterKey names the counter for kind in year.
func CounterKey(kind document.Kind, year int) string {
	return fmt.Sprintf("%s-%d", kind, year)
}

// Format renders a document number such as LVQ-2026-0007. Sequences above
// 9999 are printed in full.
func Format(kind document.Kind, year, seq int) (string, error) {
	prefix, err := Prefix(kind)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, year, seq), nil
}

// Sequencer hands out document numbers from persisted counters.
type Sequencer struct {
	Counters Counters
	Now      func() time.Time
}

// Next increments the counter for kind in the current year and returns the
// formatted number. Every call consumes a sequence; a failure after the
// counter is persisted leaves a gap, which is accepted.
func (s Sequencer) Next(ctx context.Context, kind document.Kind) (string, error) {
	if _, err := Prefix(kind); err != nil {
		return "", err
	}
	if s.Counters == nil {
		return "", errors.New("numbering: counters not configured")
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	year := now().Year()
	seq, err := s.Counters.IncrementCounter(ctx, CounterKey(kind, year))
	if err != nil {
		return "", fmt.Errorf("numbering: increment %s counter: %w", kind, err)
	}
	obs.ObserveDocumentNumbered(string(kind))
	return Format(kind, year, seq)
}
