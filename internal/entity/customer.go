package entity

// Customer is one row of the customers collection returned by the extraction service.
type Customer struct {
	CustomerName        string  `json:"customerName"`
	PhoneNumber         string  `json:"phoneNumber"`
	TotalPurchaseAmount float64 `json:"totalPurchaseAmount"`
}
