package state

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extract/internal/common"
	"github.com/joseph-ayodele/invoice-extract/internal/entity"
)

// Status is the phase of the current submission. Exactly one holds at a time.
type Status int

const (
	Idle Status = iota
	Pending
	Fulfilled
	Rejected
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Pending:
		return "PENDING"
	case Fulfilled:
		return "FULFILLED"
	case Rejected:
		return "REJECTED"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ErrorKind tells the four rejection causes apart for diagnostics.
type ErrorKind string

const (
	KindEncoding          ErrorKind = common.CodeEncoding
	KindTransport         ErrorKind = common.CodeTransport
	KindServer            ErrorKind = common.CodeServer
	KindMalformedResponse ErrorKind = common.CodeMalformedResponse
)

// GenericFailure is shown when the backend gave no usable diagnostic.
const GenericFailure = "An error occurred while uploading the file."

// ErrorInfo is the diagnostic carried by a Rejected state.
type ErrorInfo struct {
	Kind       ErrorKind
	Message    string // server-provided message, or GenericFailure
	Detail     string // underlying error text
	StatusCode int    // HTTP status for SERVER_ERROR, else 0
}

// Submission identifies one call to Submit.
type Submission struct {
	ID        uuid.UUID
	Seq       uint64 // strictly increasing per store
	FileName  string
	StartedAt time.Time
}

// RequestState is a snapshot of the shared request state.
// Result and Error are read-only for consumers.
type RequestState struct {
	Status     Status
	Submission Submission
	Result     *entity.Extraction
	Error      *ErrorInfo
}

// Consistent reports whether the snapshot satisfies the state invariants.
func (s RequestState) Consistent() bool {
	if s.Result != nil && s.Error != nil {
		return false
	}
	switch s.Status {
	case Idle:
		return s.Result == nil && s.Error == nil && s.Submission.Seq == 0
	case Pending:
		return s.Error == nil
	case Fulfilled:
		return s.Result != nil
	case Rejected:
		return s.Error != nil
	}
	return false
}
