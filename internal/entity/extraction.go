package entity

// Extraction is the success body of the extraction service: three ordered collections.
// A nil slice means the service omitted the collection.
type Extraction struct {
	Customers []Customer `json:"customers"`
	Invoices  []Invoice  `json:"invoices"`
	Products  []Product  `json:"products"`
}

// UploadPayload is the encoded file handed to the extraction service.
// It lives only for the duration of one submission.
type UploadPayload struct {
	FileName    string
	MimeType    string
	EncodedBody string // base64, standard alphabet, padded
}
