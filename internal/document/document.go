package document

import (
	"errors"
	"fmt"
	"slices"
	"time"

	validator "github.com/go-playground/validator/v10"
)

// Kind distinguishes quotes from invoices. Both share the same shape.
type Kind string

const (
	KindQuote   Kind = "Quote"
	KindInvoice Kind = "Invoice"
)

// Status is the pipeline stage of a document. Progression is user driven.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusQuoted    Status = "Quoted"
	StatusApproved  Status = "Approved"
	StatusScheduled Status = "Scheduled"
	StatusInstalled Status = "Installed"
	StatusInvoiced  Status = "Invoiced"
	StatusPaid      Status = "Paid"
)

// Statuses lists every status in pipeline order.
var Statuses = []Status{
	StatusDraft,
	StatusQuoted,
	StatusApproved,
	StatusScheduled,
	StatusInstalled,
	StatusInvoiced,
	StatusPaid,
}

// Valid reports whether s is one of the known pipeline statuses.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// UnitType selects the pricing rule applied to a line item.
type UnitType string

const (
	UnitSqft UnitType = "sqft"
	UnitFlat UnitType = "unit"
)

// DiscountMode controls how Document.Discount is interpreted.
type DiscountMode string

const (
	DiscountAmount  DiscountMode = "amount"
	DiscountPercent DiscountMode = "percent"
)

var (
	// ErrInvalidJSON is returned when an imported payload is not JSON at all.
	ErrInvalidJSON = errors.New("invalid JSON")
	// ErrNotDocument is returned when a JSON payload carries no identity token.
	ErrNotDocument = errors.New("not a valid document")
	// ErrInvalid is returned by Validate.
	ErrInvalid = errors.New("document: invalid document")
)

// Customer is the billing party of a document.
type Customer struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	BillingAddress string `json:"billingAddress"`
}

// Job describes the installation attached to a document.
type Job struct {
	SiteAddress string   `json:"siteAddress"`
	InstallDate string   `json:"installDate"`
	Crew        []string `json:"crew"`
	Hours       float64  `json:"hours"`
	HourlyRate  float64  `json:"hourlyRate"`
	TaxInstall  bool     `json:"taxInstall"`
}

// Item is one priced row on a document.
type Item struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Label       string   `json:"label"`
	WidthFt     float64  `json:"width_ft"`
	HeightFt    float64  `json:"height_ft"`
	Qty         int      `json:"qty"`
	DoubleSided bool     `json:"doubleSided"`
	Lamination  bool     `json:"lamination"`
	Grommets    int      `json:"grommets"`
	UnitPrice   *float64 `json:"unitPrice"`
	UnitType    UnitType `json:"unitType"`
}

// Document is a quote or an invoice. Totals are never stored on it; they are
// derived from the document and a price book on every read.
type Document struct {
	ID           string       `json:"id" validate:"required"`
	Kind         Kind         `json:"kind" validate:"oneof=Quote Invoice"`
	Number       string       `json:"number"`
	Status       Status       `json:"status" validate:"oneof=Draft Quoted Approved Scheduled Installed Invoiced Paid"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	Customer     Customer     `json:"customer"`
	Job          Job          `json:"job"`
	Terms        string       `json:"terms"`
	Notes        string       `json:"notes"`
	TaxRate      float64      `json:"taxRate"`
	Discount     float64      `json:"discount"`
	DiscountMode DiscountMode `json:"discountMode" validate:"omitempty,oneof=amount percent"`
	Items        []Item       `json:"items"`
}

var validate = validator.New()

// Validate checks identity and the enumerated fields. Numeric fields are not
// checked: the pricing engine degrades gracefully on any value.
func (d Document) Validate() error {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed on %q", ErrInvalid, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := d
	if d.Items != nil {
		out.Items = make([]Item, len(d.Items))
		for i, it := range d.Items {
			out.Items[i] = it.clone()
		}
	}
	out.Job.Crew = slices.Clone(d.Job.Crew)
	return out
}

func (it Item) clone() Item {
	if it.UnitPrice != nil {
		v := *it.UnitPrice
		it.UnitPrice = &v
	}
	return it
}

// WithItem returns a copy with item appended.
func (d Document) WithItem(item Item) Document {
	out := d.Clone()
	out.Items = append(out.Items, item.clone())
	return out
}

// WithoutItem returns a copy with every item carrying id removed.
func (d Document) WithoutItem(id string) Document {
	out := d.Clone()
	out.Items = slices.DeleteFunc(out.Items, func(it Item) bool { return it.ID == id })
	return out
}

// HasItem reports whether an item with id is present.
func (d Document) HasItem(id string) bool {
	return slices.ContainsFunc(d.Items, func(it Item) bool { return it.ID == id })
}

// WithStatus returns a copy moved to status and stamped at now.
func (d Document) WithStatus(status Status, now time.Time) Document {
	out := d.Clone()
	out.Status = status
	out.UpdatedAt = now
	return out
}

// NewItem returns the default line added from the item editor: a custom
// 4×2 ft banner with ten grommets.
func NewItem(id string) Item {
	return Item{
		ID:       id,
		Type:     "Banner",
		Label:    "Custom banner",
		WidthFt:  4,
		HeightFt: 2,
		Qty:      1,
		Grommets: 10,
		UnitType: UnitSqft,
	}
}
