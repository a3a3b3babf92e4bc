package encoder

import (
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/invoice-extract/constants"
)

// File is a user-selected document. Open must return a fresh reader positioned at the start.
type File interface {
	Name() string
	MimeType() string
	Open() (io.ReadCloser, error)
}

// PathFile is a File backed by the local filesystem.
type PathFile struct {
	Path string
}

// NewPathFile returns a File for path.
func NewPathFile(path string) PathFile {
	return PathFile{Path: path}
}

func (f PathFile) Name() string { return filepath.Base(f.Path) }

// MimeType resolves the type from the extension: the accepted-upload table first,
// then the system MIME registry.
func (f PathFile) MimeType() string {
	return MimeTypeFor(f.Path)
}

func (f PathFile) Open() (io.ReadCloser, error) {
	return os.Open(f.Path)
}

// MimeTypeFor returns the MIME type for a file name based on its extension.
func MimeTypeFor(name string) string {
	ext := filepath.Ext(name)
	if mt, ok := constants.MimeForExt(ext); ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		if base, _, err := mime.ParseMediaType(mt); err == nil {
			return base
		}
		return mt
	}
	return constants.MimeOctetStream
}
