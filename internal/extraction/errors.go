package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/invoice-extract/internal/common"
)

// TransportError covers failures where no usable HTTP response arrived:
// dial errors, timeouts, a body cut off mid-read.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "transport: " + e.Err.Error() }

func (e *TransportError) Unwrap() []error { return []error{common.ErrTransport, e.Err} }

// ServerError is a non-2xx response. Message holds the server's diagnostic, if any.
type ServerError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server status %d", e.StatusCode)
}

func (e *ServerError) Unwrap() error { return common.ErrServer }

// MalformedResponseError is a 2xx response whose body is not a valid extraction.
type MalformedResponseError struct {
	Body []byte
	Err  error
}

func (e *MalformedResponseError) Error() string { return "malformed response: " + e.Err.Error() }

func (e *MalformedResponseError) Unwrap() []error {
	return []error{common.ErrMalformedResponse, e.Err}
}

// serverMessage pulls a diagnostic out of an error body. JSON bodies contribute their
// "message" and "error" fields; short plain-text bodies are used as-is.
func serverMessage(body []byte) string {
	var doc struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &doc); err == nil {
		switch {
		case doc.Message != "" && doc.Error != "":
			return doc.Message + ": " + doc.Error
		case doc.Message != "":
			return doc.Message
		default:
			return doc.Error
		}
	}
	s := strings.TrimSpace(string(body))
	if s == "" || strings.HasPrefix(s, "<") || strings.HasPrefix(s, "{") {
		return ""
	}
	return truncate(s, 200)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n == 1 {
		return string(r[:1])
	}
	return string(r[:n-1]) + "…"
}
