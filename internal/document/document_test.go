package document

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const savedQuote = `{
  "id": "k3j9x2a",
  "kind": "Quote",
  "number": "LVQ-2025-0007",
  "status": "Approved",
  "createdAt": "2025-03-01T14:22:05.120Z",
  "updatedAt": "2025-03-02T09:00:00.000Z",
  "customer": {"name": "Top 1 Toys (Demo)", "email": "orders@top1toys.sx", "phone": "+1 721-555-0101", "billingAddress": "Sky Building, Welfare Rd, Cole Bay"},
  "job": {"siteAddress": "Sky Building Rooftop, Cole Bay", "installDate": "2025-03-05", "crew": ["Joel", "Camilo"], "hours": 2, "hourlyRate": 75, "taxInstall": true},
  "terms": "50% deposit to schedule. Balance due upon installation.",
  "notes": "Rooftop bracket weld + sign mount per sketch.",
  "taxRate": 0.05,
  "discount": 0,
  "discountMode": "amount",
  "items": [
    {"id": "a1", "type": "PVC_12mm", "label": "12mm PVC panel 4ft x 3ft", "width_ft": 4, "height_ft": 3, "qty": 2, "doubleSided": false, "lamination": true, "grommets": 0, "unitPrice": null, "unitType": "sqft"},
    {"id": "a2", "type": "AFrame_White", "label": "A-Frame sidewalk sign (white)", "width_ft": 0, "height_ft": 0, "qty": 1, "doubleSided": true, "lamination": false, "grommets": 0, "unitPrice": null, "unitType": "unit"}
  ]
}`

func TestDecodeSavedDocument(t *testing.T) {
	doc, err := Decode([]byte(savedQuote))
	require.NoError(t, err)
	require.Equal(t, "k3j9x2a", doc.ID)
	require.Equal(t, KindQuote, doc.Kind)
	require.Equal(t, StatusApproved, doc.Status)
	require.Equal(t, []string{"Joel", "Camilo"}, doc.Job.Crew)
	require.Equal(t, 75.0, doc.Job.HourlyRate)
	require.True(t, doc.Job.TaxInstall)
	require.Equal(t, 0.05, doc.TaxRate)
	require.Len(t, doc.Items, 2)
	require.Equal(t, 4.0, doc.Items[0].WidthFt)
	require.Equal(t, 2, doc.Items[0].Qty)
	require.Nil(t, doc.Items[0].UnitPrice)
	require.Equal(t, UnitFlat, doc.Items[1].UnitType)
	require.Equal(t, 2025, doc.CreatedAt.Year())
	require.NoError(t, doc.Validate())
}

func TestEncodePreservesFieldNames(t *testing.T) {
	doc, err := Decode([]byte(savedQuote))
	require.NoError(t, err)
	out, err := Encode(doc)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(out, &generic))
	for _, key := range []string{"id", "kind", "number", "status", "createdAt", "updatedAt", "customer", "job", "terms", "notes", "taxRate", "discount", "discountMode", "items"} {
		require.Contains(t, generic, key)
	}
	job := generic["job"].(map[string]any)
	for _, key := range []string{"siteAddress", "installDate", "crew", "hours", "hourlyRate", "taxInstall"} {
		require.Contains(t, job, key)
	}
	item := generic["items"].([]any)[0].(map[string]any)
	for _, key := range []string{"id", "type", "label", "width_ft", "height_ft", "qty", "doubleSided", "lamination", "grommets", "unitPrice", "unitType"} {
		require.Contains(t, item, key)
	}
	require.Nil(t, item["unitPrice"])
	customer := generic["customer"].(map[string]any)
	require.Contains(t, customer, "billingAddress")
}

func TestDecodeMalformedNumbersDegradeToZero(t *testing.T) {
	raw := `{"id":"x","kind":"Quote","status":"Draft","taxRate":"abc","discount":null,
		"job":{"hours":"3","hourlyRate":{}},
		"items":[{"id":"i","width_ft":"wide","height_ft":"2.5","qty":null,"grommets":"ten","unitPrice":"12","unitType":"sqft"}]}`
	doc, err := Decode([]byte(raw))
	require.NoError(t, err)
	require.Zero(t, doc.TaxRate)
	require.Zero(t, doc.Discount)
	require.Equal(t, 3.0, doc.Job.Hours)
	require.Zero(t, doc.Job.HourlyRate)
	it := doc.Items[0]
	require.Zero(t, it.WidthFt)
	require.Equal(t, 2.5, it.HeightFt)
	require.Zero(t, it.Qty)
	require.Zero(t, it.Grommets)
	require.NotNil(t, it.UnitPrice)
	require.Equal(t, 12.0, *it.UnitPrice)
}

func TestDecodeMistypedFieldsKeepIdentity(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		check func(t *testing.T, doc Document)
	}{
		{"numeric id", `{"id":42}`, func(t *testing.T, doc Document) {
			require.Equal(t, "42", doc.ID)
		}},
		{"empty timestamps", `{"id":"abc","createdAt":"","updatedAt":"not a date"}`, func(t *testing.T, doc Document) {
			require.True(t, doc.CreatedAt.IsZero())
			require.True(t, doc.UpdatedAt.IsZero())
		}},
		{"epoch millis", `{"id":"abc","createdAt":1741000000000}`, func(t *testing.T, doc Document) {
			require.Equal(t, time.UnixMilli(1741000000000).UTC(), doc.CreatedAt)
		}},
		{"string booleans", `{"id":"abc","job":{"taxInstall":"false"},"items":[{"id":"i","doubleSided":"true","lamination":1,"unitType":"sqft"}]}`, func(t *testing.T, doc Document) {
			require.False(t, doc.Job.TaxInstall)
			require.True(t, doc.Items[0].DoubleSided)
			require.True(t, doc.Items[0].Lamination)
		}},
		{"scalar crew", `{"id":"abc","job":{"crew":"Joel"}}`, func(t *testing.T, doc Document) {
			require.Equal(t, []string{"Joel"}, doc.Job.Crew)
		}},
		{"wrong shapes", `{"id":"abc","kind":false,"customer":"Top 1 Toys","job":[],"items":{"a":1}}`, func(t *testing.T, doc Document) {
			require.Empty(t, doc.Kind)
			require.Empty(t, doc.Customer.Name)
			require.Empty(t, doc.Items)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Decode([]byte(tc.raw))
			require.NoError(t, err)
			tc.check(t, doc)
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", ErrInvalidJSON},
		{"garbage", "{not json", ErrInvalidJSON},
		{"no id", `{"kind":"Quote"}`, ErrNotDocument},
		{"blank id", `{"id":"  "}`, ErrNotDocument},
		{"array", `[{"id":"x"}]`, ErrNotDocument},
		{"number", `42`, ErrNotDocument},
		{"boolean id", `{"id":true}`, ErrNotDocument},
		{"object id", `{"id":{"v":1}}`, ErrNotDocument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.raw))
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestValidate(t *testing.T) {
	doc := Document{ID: "a", Kind: KindInvoice, Status: StatusPaid}
	require.NoError(t, doc.Validate())

	bad := doc
	bad.Status = "Lost"
	require.ErrorIs(t, bad.Validate(), ErrInvalid)

	bad = doc
	bad.Kind = "Receipt"
	require.ErrorIs(t, bad.Validate(), ErrInvalid)

	bad = doc
	bad.ID = ""
	require.ErrorIs(t, bad.Validate(), ErrInvalid)

	bad = doc
	bad.DiscountMode = "coupon"
	require.ErrorIs(t, bad.Validate(), ErrInvalid)
}

func TestItemHelpersDoNotMutate(t *testing.T) {
	price := 10.0
	base := Document{ID: "d", Items: []Item{{ID: "a", UnitPrice: &price}}, Job: Job{Crew: []string{"Joel"}}}

	added := base.WithItem(NewItem("b"))
	require.Len(t, base.Items, 1)
	require.Len(t, added.Items, 2)
	require.Equal(t, "Banner", added.Items[1].Type)
	require.Equal(t, 10, added.Items[1].Grommets)
	require.True(t, added.HasItem("b"))

	removed := added.WithoutItem("a")
	require.Len(t, added.Items, 2)
	require.Len(t, removed.Items, 1)
	require.False(t, removed.HasItem("a"))

	clone := base.Clone()
	*clone.Items[0].UnitPrice = 99
	clone.Job.Crew[0] = "Camilo"
	require.Equal(t, 10.0, *base.Items[0].UnitPrice)
	require.Equal(t, "Joel", base.Job.Crew[0])

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	moved := base.WithStatus(StatusScheduled, now)
	require.Equal(t, StatusScheduled, moved.Status)
	require.Equal(t, now, moved.UpdatedAt)
	require.Empty(t, base.Status)
}

func TestStatusValid(t *testing.T) {
	for _, s := range Statuses {
		require.True(t, s.Valid())
	}
	require.False(t, Status("draft").Valid())
	require.Len(t, Statuses, 7)
}
