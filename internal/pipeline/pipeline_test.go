package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/livvitt-quotes/internal/document"
	"github.com/noah-isme/livvitt-quotes/internal/pricebook"
)

func flat(id string, status document.Status, qty int) document.Document {
	return document.Document{
		ID:     id,
		Status: status,
		Items:  []document.Item{{Type: "AFrame_White", Qty: qty, UnitType: document.UnitFlat}},
	}
}

func TestGroupKeepsEveryStatusInOrder(t *testing.T) {
	docs := []document.Document{
		flat("a", document.StatusPaid, 1),
		flat("b", document.StatusDraft, 1),
		flat("c", "Archived", 1),
		flat("d", document.StatusPaid, 1),
	}
	cols := Group(docs)
	require.Len(t, cols, len(document.Statuses))
	for i, c := range cols {
		require.Equal(t, document.Statuses[i], c.Status)
		require.NotNil(t, c.Documents)
	}
	require.Len(t, cols[0].Documents, 1)
	paid := cols[len(cols)-1].Documents
	require.Equal(t, "a", paid[0].ID)
	require.Equal(t, "d", paid[1].ID)

	total := 0
	for _, c := range cols {
		total += len(c.Documents)
	}
	require.Equal(t, 3, total)
}

func TestStatsPercentOfLargest(t *testing.T) {
	book := pricebook.Default()
	docs := []document.Document{
		flat("a", document.StatusQuoted, 4),   // 900
		flat("b", document.StatusApproved, 1), // 225
		flat("c", document.StatusApproved, 1), // 225
		flat("d", "Mystery", 10),
	}
	got := Stats(docs, book)
	require.Equal(t, 900.0, got.Max)

	byStatus := map[document.Status]StatusValue{}
	for _, sv := range got.ByStatus {
		byStatus[sv.Status] = sv
	}
	require.Equal(t, 100, byStatus[document.StatusQuoted].Percent)
	require.Equal(t, 50, byStatus[document.StatusApproved].Percent)
	require.Equal(t, 2, byStatus[document.StatusApproved].Count)
	require.Equal(t, 0, byStatus[document.StatusPaid].Percent)
	require.Len(t, got.ByStatus, 7)
}

func TestStatsEmptyPipeline(t *testing.T) {
	got := Stats(nil, pricebook.Default())
	require.Equal(t, 1.0, got.Max)
	for _, sv := range got.ByStatus {
		require.Zero(t, sv.Value)
		require.Zero(t, sv.Percent)
	}
}

func TestStatsSmallValuesScaleAgainstOne(t *testing.T) {
	book := pricebook.PriceBook{Unit: map[string]float64{"Sticker": 0.5}}
	docs := []document.Document{{ID: "a", Status: document.StatusDraft, Items: []document.Item{{Type: "Sticker", Qty: 1, UnitType: document.UnitFlat}}}}
	got := Stats(docs, book)
	require.Equal(t, 1.0, got.Max)
	require.Equal(t, 50, got.ByStatus[0].Percent)
}
