package pricebook

import (
	"errors"
	"fmt"
	"maps"

	validator "github.com/go-playground/validator/v10"
)

// ErrInvalid is returned when a price book fails validation.
var ErrInvalid = errors.New("pricebook: invalid price book")

// DiscountMode values accepted by the document defaults.
const (
	DiscountAmount  = "amount"
	DiscountPercent = "percent"
)

// Options holds surcharge rates applied on top of the material price.
type Options struct {
	LaminationPerSqft float64 `json:"lamination_per_sqft" validate:"gte=0"`
	GrommetEach       float64 `json:"grommet_each" validate:"gte=0"`
}

// Install holds labour defaults used when a new document is seeded.
type Install struct {
	HourlyRate   float64 `json:"hourly_rate" validate:"gte=0"`
	CrewMinHours float64 `json:"crew_min_hours" validate:"gte=0"`
}

// DocumentDefaults are copied onto every newly created document.
type DocumentDefaults struct {
	TaxRate      float64 `json:"tax_rate" validate:"gte=0"`
	DiscountMode string  `json:"discount_mode" validate:"omitempty,oneof=amount percent"`
}

// PriceBook is a read-only snapshot of the shop's prices. Edits go through
// the With* helpers which return a new snapshot and leave the receiver
// untouched.
type PriceBook struct {
	Sqft     map[string]float64 `json:"sqft" validate:"dive,gte=0"`
	Unit     map[string]float64 `json:"unit" validate:"dive,gte=0"`
	Options  Options            `json:"options"`
	Install  Install            `json:"install"`
	Document DocumentDefaults   `json:"document"`
}

// Default returns the price book the shop starts with.
func Default() PriceBook {
	return PriceBook{
		Sqft: map[string]float64{
			"Banner":     8,
			"PVC_6mm":    20,
			"PVC_9mm":    24,
			"PVC_12mm":   30,
			"PVC_15mm":   36,
			"Dibond_4mm": 28,
		},
		Unit: map[string]float64{
			"AFrame_White":  225,
			"AFrame_Black":  225,
			"StandUpBanner": 180,
		},
		Options: Options{LaminationPerSqft: 4, GrommetEach: 0.5},
		Install: Install{HourlyRate: 75, CrewMinHours: 2},
		Document: DocumentDefaults{
			TaxRate:      0.05,
			DiscountMode: DiscountAmount,
		},
	}
}

// SqftRate returns the area price for the item type, or 0 when unknown.
func (b PriceBook) SqftRate(itemType string) float64 {
	return b.Sqft[itemType]
}

// UnitRate returns the flat price for the item type, or 0 when unknown.
func (b PriceBook) UnitRate(itemType string) float64 {
	return b.Unit[itemType]
}

// Clone returns a deep copy so callers can never alias the maps of a shared
// snapshot.
func (b PriceBook) Clone() PriceBook {
	out := b
	out.Sqft = maps.Clone(b.Sqft)
	out.Unit = maps.Clone(b.Unit)
	if out.Sqft == nil {
		out.Sqft = map[string]float64{}
	}
	if out.Unit == nil {
		out.Unit = map[string]float64{}
	}
	return out
}

// WithSqftRate returns a copy with the area price for itemType replaced.
func (b PriceBook) WithSqftRate(itemType string, rate float64) PriceBook {
	out := b.Clone()
	out.Sqft[itemType] = rate
	return out
}

// WithUnitRate returns a copy with the flat price for itemType replaced.
func (b PriceBook) WithUnitRate(itemType string, rate float64) PriceBook {
	out := b.Clone()
	out.Unit[itemType] = rate
	return out
}

// WithOptions returns a copy with the surcharge rates replaced.
func (b PriceBook) WithOptions(opts Options) PriceBook {
	out := b.Clone()
	out.Options = opts
	return out
}

// WithInstall returns a copy with the labour defaults replaced.
func (b PriceBook) WithInstall(install Install) PriceBook {
	out := b.Clone()
	out.Install = install
	return out
}

// WithDocumentDefaults returns a copy with the tax and discount defaults replaced.
func (b PriceBook) WithDocumentDefaults(defaults DocumentDefaults) PriceBook {
	out := b.Clone()
	out.Document = defaults
	return out
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports whether every rate is non-negative and the discount mode
// is recognised.
func (b PriceBook) Validate() error {
	if err := validate.Struct(b); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed on %q", ErrInvalid, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
