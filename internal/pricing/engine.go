package pricing

import (
	"math"

	"github.com/noah-isme/livvitt-quotes/internal/document"
	"github.com/noah-isme/livvitt-quotes/internal/pricebook"
)

// MinimumCharge is the floor applied to the per-unit price of area-priced items.
const MinimumCharge = 25.0

// Summary aggregates computed document totals.
type Summary struct {
	ItemsSubtotal float64 `json:"itemsSubtotal"`
	InstallTotal  float64 `json:"installTotal"`
	Discount      float64 `json:"discount"`
	Tax           float64 `json:"tax"`
	Total         float64 `json:"total"`
}

// Line pairs an item id with its computed subtotal.
type Line struct {
	ItemID   string  `json:"itemId"`
	Subtotal float64 `json:"subtotal"`
}

// ItemSubtotal prices a single line item against the book. It never fails:
// unknown types price at zero and unknown unit types yield zero.
func ItemSubtotal(item document.Item, book pricebook.PriceBook) float64 {
	qty := float64(max(item.Qty, 0))
	switch item.UnitType {
	case document.UnitSqft:
		// Every product is converted explicitly so it is rounded on its own
		// and never fused into an FMA with a neighbouring sum.
		area := float64(math.Max(0, item.WidthFt) * math.Max(0, item.HeightFt))
		base := float64(area * book.SqftRate(item.Type))
		if item.Lamination {
			base += float64(area * book.Options.LaminationPerSqft)
		}
		// Doubling runs after lamination and before grommets: the lamination
		// surcharge is doubled, grommets are not.
		if item.DoubleSided {
			base *= 2
		}
		if item.Grommets > 0 {
			base += float64(float64(item.Grommets) * book.Options.GrommetEach)
		}
		base = math.Max(base, MinimumCharge)
		return float64(base * qty)
	case document.UnitFlat:
		single := book.UnitRate(item.Type)
		if item.DoubleSided {
			single *= 2
		}
		return float64(single * qty)
	default:
		return 0
	}
}

// Lines returns the subtotal of every item in document order.
func Lines(doc document.Document, book pricebook.PriceBook) []Line {
	out := make([]Line, 0, len(doc.Items))
	for _, it := range doc.Items {
		out = append(out, Line{ItemID: it.ID, Subtotal: ItemSubtotal(it, book)})
	}
	return out
}

// Compute derives the document totals. The order of the steps is part of
// the contract: the discount is taken before tax, and the total is summed
// from the raw components rather than from the taxable base.
func Compute(doc document.Document, book pricebook.PriceBook) Summary {
	var itemsSubtotal float64
	for _, it := range doc.Items {
		itemsSubtotal += ItemSubtotal(it, book)
	}
	installTotal := float64(doc.Job.Hours * doc.Job.HourlyRate)

	discount := doc.Discount
	if doc.DiscountMode == document.DiscountPercent {
		discount = float64((itemsSubtotal + installTotal) * (doc.Discount / 100))
	}

	taxableBase := itemsSubtotal - discount
	if doc.Job.TaxInstall {
		taxableBase = itemsSubtotal + installTotal - discount
	}
	tax := float64(math.Max(0, taxableBase) * doc.TaxRate)
	total := math.Max(0, itemsSubtotal+installTotal-discount+tax)

	return Summary{
		ItemsSubtotal: itemsSubtotal,
		InstallTotal:  installTotal,
		Discount:      discount,
		Tax:           tax,
		Total:         total,
	}
}
