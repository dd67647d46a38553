package render

import (
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/noah-isme/livvitt-quotes/internal/document"
	"github.com/noah-isme/livvitt-quotes/internal/pricing"
)

// Company is the letterhead printed on every document.
type Company struct {
	Name    string
	Address string
	Email   string
	Phone   string
}

// Sheet is everything needed to print a document.
type Sheet struct {
	Company  Company
	Document document.Document
	Summary  pricing.Summary
	Lines    []pricing.Line
	Money    Formatter
}

// PDF renders the printable quote or invoice.
func PDF(s Sheet) ([]byte, error) {
	doc := s.Document
	fm := s.Money
	if fm.Code() == "" {
		fm = NewFormatter(DefaultCurrency)
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, s.Company.Name, props.Text{Size: 18, Style: fontstyle.Bold, Align: align.Left}),
		text.NewCol(4, strings.ToUpper(string(doc.Kind)), props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(18,
		col.New(8).Add(
			text.New(s.Company.Address, props.Text{Size: 9}),
			text.New(joinNonEmpty(" · ", s.Company.Email, s.Company.Phone), props.Text{Size: 9, Top: 5}),
		),
		col.New(4).Add(
			text.New("No. "+doc.Number, props.Text{Size: 9, Align: align.Right}),
			text.New("Status: "+string(doc.Status), props.Text{Size: 9, Align: align.Right, Top: 5}),
			text.New("Date: "+dateOf(doc), props.Text{Size: 9, Align: align.Right, Top: 10}),
		),
	)

	m.AddRow(32,
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold, Size: 10}),
			text.New(doc.Customer.Name, props.Text{Size: 9, Top: 5}),
			text.New(doc.Customer.BillingAddress, props.Text{Size: 9, Top: 10}),
			text.New(joinNonEmpty(" · ", doc.Customer.Email, doc.Customer.Phone), props.Text{Size: 9, Top: 15}),
		),
		col.New(6).Add(
			text.New("Installation", props.Text{Style: fontstyle.Bold, Size: 10}),
			text.New(doc.Job.SiteAddress, props.Text{Size: 9, Top: 5}),
			text.New(joinNonEmpty(" · ", doc.Job.InstallDate, strings.Join(doc.Job.Crew, ", ")), props.Text{Size: 9, Top: 10}),
			text.New(fmt.Sprintf("%g h @ %s", doc.Job.Hours, fm.Format(doc.Job.HourlyRate)), props.Text{Size: 9, Top: 15}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Item", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Each", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	subtotals := make(map[string]float64, len(s.Lines))
	for _, l := range s.Lines {
		subtotals[l.ItemID] = l.Subtotal
	}
	for _, it := range doc.Items {
		amount := subtotals[it.ID]
		each := 0.0
		if it.Qty > 0 {
			each = amount / float64(it.Qty)
		}
		m.AddRow(8,
			text.NewCol(6, Describe(it), props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", it.Qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, fm.Format(each), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, fm.Format(amount), props.Text{Size: 9, Align: align.Right}),
		)
	}

	totals := []struct {
		label string
		value float64
		bold  bool
	}{
		{"Items", s.Summary.ItemsSubtotal, false},
		{"Installation", s.Summary.InstallTotal, false},
		{"Discount", -s.Summary.Discount, false},
		{"Tax", s.Summary.Tax, false},
		{"Total", s.Summary.Total, true},
	}
	for _, row := range totals {
		style := fontstyle.Normal
		if row.bold {
			style = fontstyle.Bold
		}
		m.AddRow(7,
			col.New(8),
			text.NewCol(2, row.label, props.Text{Size: 9, Style: style}),
			text.NewCol(2, fm.Format(row.value), props.Text{Size: 9, Style: style, Align: align.Right}),
		)
	}

	if doc.Terms != "" {
		m.AddRow(12, text.NewCol(12, "Terms: "+doc.Terms, props.Text{Size: 9, Top: 4}))
	}
	if doc.Notes != "" {
		m.AddRow(10, text.NewCol(12, "Notes: "+doc.Notes, props.Text{Size: 9}))
	}

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render: generate pdf: %w", err)
	}
	return out.GetBytes(), nil
}

// FileName is the download name of a rendered document.
func FileName(doc document.Document, ext string) string {
	name := doc.Number
	if name == "" {
		name = doc.ID
	}
	return name + "." + ext
}

// Describe renders the one-line label printed for an item.
func Describe(it document.Item) string {
	label := it.Label
	if label == "" {
		label = it.Type
	}
	var extras []string
	if it.UnitType == document.UnitSqft {
		extras = append(extras, fmt.Sprintf("%g×%g ft", it.WidthFt, it.HeightFt))
	}
	if it.DoubleSided {
		extras = append(extras, "double-sided")
	}
	if it.Lamination {
		extras = append(extras, "laminated")
	}
	if it.Grommets > 0 {
		extras = append(extras, fmt.Sprintf("%d grommets", it.Grommets))
	}
	if len(extras) == 0 {
		return label
	}
	return label + " (" + strings.Join(extras, ", ") + ")"
}

func dateOf(doc document.Document) string {
	if doc.CreatedAt.IsZero() {
		return ""
	}
	return doc.CreatedAt.Format("2006-01-02")
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
