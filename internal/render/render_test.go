package render

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/livvitt-quotes/internal/document"
	"github.com/noah-isme/livvitt-quotes/internal/pricebook"
	"github.com/noah-isme/livvitt-quotes/internal/pricing"
)

func TestMoneyFormatsUSD(t *testing.T) {
	require.Equal(t, "$1,486.80", Money(1486.8, "USD"))
	require.Equal(t, "$0.00", Money(0, "usd"))
	require.Equal(t, "$70.80", Money(70.80000000000001, "USD"))
	require.Equal(t, "$0.00", Money(math.NaN(), "USD"))
}

func TestMoneyUnknownCurrencyFallsBack(t *testing.T) {
	require.Equal(t, "USD", NewFormatter("ZZZ").Code())
	require.Equal(t, Money(12.5, "USD"), Money(12.5, "ZZZ"))
}

func TestMinorRounding(t *testing.T) {
	f := NewFormatter("USD")
	require.Equal(t, int64(1), f.Minor(0.005))
	require.Equal(t, int64(148680), f.Minor(1486.8))
}

func TestDescribe(t *testing.T) {
	it := document.Item{Label: "Shop banner", UnitType: document.UnitSqft, WidthFt: 4, HeightFt: 2, Lamination: true, Grommets: 10}
	require.Equal(t, "Shop banner (4×2 ft, laminated, 10 grommets)", Describe(it))
	require.Equal(t, "AFrame_White", Describe(document.Item{Type: "AFrame_White", UnitType: document.UnitFlat}))
}

func TestPDF(t *testing.T) {
	doc := document.Document{
		ID:        "k3j9x2a",
		Kind:      document.KindQuote,
		Number:    "LVQ-2026-0001",
		Status:    document.StatusDraft,
		CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		Customer:  document.Customer{Name: "Top 1 Toys (Demo)"},
		Job:       document.Job{Hours: 2, HourlyRate: 75, TaxInstall: true},
		Terms:     "50% deposit to schedule.",
		TaxRate:   0.05,
		Items: []document.Item{
			{ID: "a", Type: "PVC_12mm", Label: "12mm PVC panel", WidthFt: 4, HeightFt: 3, Qty: 2, Lamination: true, UnitType: document.UnitSqft},
		},
	}
	book := pricebook.Default()
	out, err := PDF(Sheet{
		Company:  Company{Name: "LIVVITT"},
		Document: doc,
		Summary:  pricing.Compute(doc, book),
		Lines:    pricing.Lines(doc, book),
		Money:    NewFormatter("USD"),
	})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestFileName(t *testing.T) {
	require.Equal(t, "LVI-2026-0003.pdf", FileName(document.Document{ID: "x", Number: "LVI-2026-0003"}, "pdf"))
	require.Equal(t, "x.json", FileName(document.Document{ID: "x"}, "json"))
}
