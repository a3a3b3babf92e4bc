// Package encoder turns a user-selected file into the base64 payload the extraction service accepts.
package encoder

import (
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-extract/internal/common"
	"github.com/joseph-ayodele/invoice-extract/internal/entity"
)

// EncodingError reports a file that could not be read before any network activity.
type EncodingError struct {
	FileName string
	Err      error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode %q: %v", e.FileName, e.Err)
}

func (e *EncodingError) Unwrap() []error {
	return []error{common.ErrEncoding, e.Err}
}

// Encoder reads files in full and base64-encodes them.
type Encoder struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Encoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Encoder{logger: logger}
}

// Encode reads f from the start and returns its payload once the whole content is consumed.
func (e *Encoder) Encode(f File) (entity.UploadPayload, error) {
	start := time.Now()
	name := f.Name()

	rc, err := f.Open()
	if err != nil {
		e.logger.Error("encoder.open_error", "file", name, "error", err)
		return entity.UploadPayload{}, &EncodingError{FileName: name, Err: err}
	}
	defer func(rc io.ReadCloser) {
		if err := rc.Close(); err != nil {
			e.logger.Warn("encoder.close_error", "file", name, "error", err)
		}
	}(rc)

	var sb strings.Builder
	w := base64.NewEncoder(base64.StdEncoding, &sb)
	n, err := io.Copy(w, rc)
	if err != nil {
		e.logger.Error("encoder.read_error", "file", name, "bytes_read", n, "error", err)
		return entity.UploadPayload{}, &EncodingError{FileName: name, Err: err}
	}
	if err := w.Close(); err != nil {
		return entity.UploadPayload{}, &EncodingError{FileName: name, Err: err}
	}

	p := entity.UploadPayload{
		FileName:    name,
		MimeType:    f.MimeType(),
		EncodedBody: sb.String(),
	}
	e.logger.Debug("encoder.ok",
		"file", name,
		"mime_type", p.MimeType,
		"bytes", n,
		"encoded_len", len(p.EncodedBody),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return p, nil
}
