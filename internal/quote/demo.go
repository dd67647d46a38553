package quote

import "github.com/noah-isme/livvitt-quotes/internal/document"

// DemoDraft is the sample rooftop job used to seed a fresh store.
func DemoDraft() Draft {
	return Draft{
		Customer: document.Customer{
			Name:           "Top 1 Toys (Demo)",
			Email:          "orders@top1toys.sx",
			Phone:          "+1 721-555-0101",
			BillingAddress: "Sky Building, Welfare Rd, Cole Bay",
		},
		SiteAddress: "Sky Building Rooftop, Cole Bay",
		Crew:        []string{"Joel", "Camilo"},
		Notes:       "Rooftop bracket weld + sign mount per sketch.",
		Items: []document.Item{
			{
				Type:       "PVC_12mm",
				Label:      "12mm PVC panel 4ft x 3ft",
				WidthFt:    4,
				HeightFt:   3,
				Qty:        2,
				Lamination: true,
				UnitType:   document.UnitSqft,
			},
			{
				Type:        "AFrame_White",
				Label:       "A-Frame sidewalk sign (white)",
				Qty:         1,
				DoubleSided: true,
				UnitType:    document.UnitFlat,
			},
		},
	}
}
