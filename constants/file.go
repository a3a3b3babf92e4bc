package constants

import "strings"

// MIME types accepted by the extraction service.
const (
	MimePDF  = "application/pdf"
	MimeJPEG = "image/jpeg"
	MimeCSV  = "text/csv"
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	MimeOctetStream = "application/octet-stream"
)

// AllowedExtensions maps the upload form's accepted extensions to their MIME type.
var AllowedExtensions = map[string]string{
	"pdf":  MimePDF,
	"jpg":  MimeJPEG,
	"jpeg": MimeJPEG,
	"csv":  MimeCSV,
	"xlsx": MimeXLSX,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MimeForExt returns the MIME type for an accepted extension.
func MimeForExt(ext string) (string, bool) {
	mt, ok := AllowedExtensions[NormalizeExt(ext)]
	return mt, ok
}
