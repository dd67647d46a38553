package pipeline

import (
	"math"

	"github.com/noah-isme/livvitt-quotes/internal/document"
	"github.com/noah-isme/livvitt-quotes/internal/pricebook"
	"github.com/noah-isme/livvitt-quotes/internal/pricing"
)

// Column holds the documents currently sitting in one status.
type Column struct {
	Status    document.Status     `json:"status"`
	Documents []document.Document `json:"documents"`
}

// Group buckets docs by status. Every known status gets a column, in
// pipeline order; documents with an unknown status are left out. Input
// order is kept inside each column.
func Group(docs []document.Document) []Column {
	cols := make([]Column, len(document.Statuses))
	index := make(map[document.Status]int, len(document.Statuses))
	for i, s := range document.Statuses {
		cols[i] = Column{Status: s, Documents: []document.Document{}}
		index[s] = i
	}
	for _, d := range docs {
		if i, ok := index[d.Status]; ok {
			cols[i].Documents = append(cols[i].Documents, d)
		}
	}
	return cols
}

// StatusValue is the summed total of one status.
type StatusValue struct {
	Status  document.Status `json:"status"`
	Count   int             `json:"count"`
	Value   float64         `json:"value"`
	Percent int             `json:"percent"`
}

// Summary is the value-by-status chart.
type Summary struct {
	ByStatus []StatusValue `json:"byStatus"`
	Max      float64       `json:"max"`
}

// Stats sums the document totals per status and scales each against the
// largest one. Max is never below 1, so an empty pipeline charts as all
// zeros.
func Stats(docs []document.Document, book pricebook.PriceBook) Summary {
	values := make(map[document.Status]float64, len(document.Statuses))
	counts := make(map[document.Status]int, len(document.Statuses))
	for _, d := range docs {
		if !d.Status.Valid() {
			continue
		}
		values[d.Status] += pricing.Compute(d, book).Total
		counts[d.Status]++
	}
	maxValue := 1.0
	for _, v := range values {
		maxValue = math.Max(maxValue, v)
	}
	out := Summary{ByStatus: make([]StatusValue, 0, len(document.Statuses)), Max: maxValue}
	for _, s := range document.Statuses {
		v := values[s]
		out.ByStatus = append(out.ByStatus, StatusValue{
			Status:  s,
			Count:   counts[s],
			Value:   v,
			Percent: int(math.Round(v / maxValue * 100)),
		})
	}
	return out
}
