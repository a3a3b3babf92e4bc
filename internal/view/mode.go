// Package view renders the shared request state as customers, invoices and products tables.
package view

import (
	"fmt"

	"github.com/joseph-ayodele/invoice-extract/internal/entity"
	"github.com/joseph-ayodele/invoice-extract/internal/state"
)

// Mode is what a view shows for a given state. Exactly one applies.
type Mode int

const (
	ModeEmpty Mode = iota
	ModeLoading
	ModeError
	ModeTable
)

func (m Mode) String() string {
	switch m {
	case ModeEmpty:
		return "empty"
	case ModeLoading:
		return "loading"
	case ModeError:
		return "error"
	case ModeTable:
		return "table"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Select is the single decision shared by every view: error, then loading, then
// empty, then the view's own collection.
func Select[T any](st state.RequestState, pick func(*entity.Extraction) []T) (Mode, []T) {
	switch st.Status {
	case state.Rejected:
		return ModeError, nil
	case state.Pending:
		return ModeLoading, nil
	case state.Idle:
		return ModeEmpty, nil
	case state.Fulfilled:
		if st.Result == nil {
			return ModeEmpty, nil
		}
		rows := pick(st.Result)
		if len(rows) == 0 {
			return ModeEmpty, nil
		}
		return ModeTable, rows
	}
	panic(fmt.Sprintf("view: unhandled status %v", st.Status))
}
