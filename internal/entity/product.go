package entity

// Product is one row of the products collection returned by the extraction service.
type Product struct {
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    float64 `json:"unitPrice"`
	Tax          float64 `json:"tax"`
	PriceWithTax float64 `json:"priceWithTax"`
	Discount     string  `json:"discount"` // free text; "NA" when the document has none
}

// NoDiscount is the marker the extraction service uses for a missing discount.
const NoDiscount = "NA"

// HasDiscount reports whether the product carries a real discount value.
func (p Product) HasDiscount() bool {
	return p.Discount != "" && p.Discount != NoDiscount
}
