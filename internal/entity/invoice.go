package entity

// Invoice is one row of the invoices collection returned by the extraction service.
type Invoice struct {
	SerialNumber string  `json:"serialNumber"`
	CustomerName string  `json:"customerName"`
	ProductName  string  `json:"productName"`
	Quantity     float64 `json:"quantity"`
	TotalAmount  float64 `json:"totalAmount"`
	Date         string  `json:"date"` // as printed on the document, usually YYYY-MM-DD
}
