package view

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/joseph-ayodele/invoice-extract/internal/entity"
	"github.com/joseph-ayodele/invoice-extract/internal/state"
)

// Indicator texts for the non-table modes.
const (
	ErrorIndicator   = "Something went wrong while extracting data. Try uploading the file again."
	LoadingIndicator = "Extracting data..."
	emptyIndicator   = "Upload an invoice file to see %s."
	noDiscountMarker = "(!)"
)

// Renderer is a display view that can draw itself.
type Renderer interface {
	Name() string
	Mode() Mode
	Render(w io.Writer) error
	Mount(w io.Writer, onErr func(error)) (unmount func())
}

// View renders one collection of the shared result. It only reads the source.
type View[T any] struct {
	name    string
	caption string
	headers []string
	src     state.Source
	pick    func(*entity.Extraction) []T
	row     func(T) []string
}

func (v *View[T]) Name() string { return v.name }

// Mode reports what the view currently shows.
func (v *View[T]) Mode() Mode {
	m, _ := Select(v.src.State(), v.pick)
	return m
}

// Rows returns the table rows for the current state, nil unless in ModeTable.
func (v *View[T]) Rows() [][]string {
	_, items := Select(v.src.State(), v.pick)
	return v.rows(items)
}

func (v *View[T]) rows(items []T) [][]string {
	if len(items) == 0 {
		return nil
	}
	out := make([][]string, 0, len(items))
	for _, it := range items {
		out = append(out, v.row(it))
	}
	return out
}

// Render draws the current state to w.
func (v *View[T]) Render(w io.Writer) error {
	return v.renderState(w, v.src.State())
}

func (v *View[T]) renderState(w io.Writer, st state.RequestState) error {
	mode, items := Select(st, v.pick)
	var err error
	switch mode {
	case ModeError:
		_, err = fmt.Fprintf(w, "[%s] %s\n", v.name, ErrorIndicator)
	case ModeLoading:
		_, err = fmt.Fprintf(w, "[%s] %s\n", v.name, LoadingIndicator)
	case ModeEmpty:
		_, err = fmt.Fprintf(w, "[%s] "+emptyIndicator+"\n", v.name, v.name)
	case ModeTable:
		table := tablewriter.NewWriter(w)
		table.SetHeader(v.headers)
		table.SetCaption(true, v.caption)
		table.SetAutoWrapText(false)
		table.AppendBulk(v.rows(items))
		table.Render()
	}
	return err
}

// Mount renders the current state to w and again on every transition until the
// returned func is called. Render errors are reported to onErr when non-nil.
func (v *View[T]) Mount(w io.Writer, onErr func(error)) (unmount func()) {
	report := func(err error) {
		if err != nil && onErr != nil {
			onErr(err)
		}
	}
	unsubscribe := v.src.Subscribe(func(st state.RequestState) {
		report(v.renderState(w, st))
	})
	report(v.Render(w))
	return unsubscribe
}

// NewCustomers returns the customers view.
func NewCustomers(src state.Source) *View[entity.Customer] {
	return &View[entity.Customer]{
		name:    "customers",
		caption: "A list of customers.",
		headers: []string{"Customer Name", "Phone Number", "Total Purchase Amount"},
		src:     src,
		pick:    func(r *entity.Extraction) []entity.Customer { return r.Customers },
		row: func(c entity.Customer) []string {
			return []string{c.CustomerName, c.PhoneNumber, number(c.TotalPurchaseAmount)}
		},
	}
}

// NewInvoices returns the invoices view.
func NewInvoices(src state.Source) *View[entity.Invoice] {
	return &View[entity.Invoice]{
		name:    "invoices",
		caption: "A list of invoices.",
		headers: []string{"Serial Number", "Customer Name", "Product Name", "Quantity", "Total Amount", "Date"},
		src:     src,
		pick:    func(r *entity.Extraction) []entity.Invoice { return r.Invoices },
		row: func(i entity.Invoice) []string {
			return []string{i.SerialNumber, i.CustomerName, i.ProductName, number(i.Quantity), number(i.TotalAmount), i.Date}
		},
	}
}

// NewProducts returns the products view.
func NewProducts(src state.Source) *View[entity.Product] {
	return &View[entity.Product]{
		name:    "products",
		caption: "A list of products. " + noDiscountMarker + " marks a missing discount.",
		headers: []string{"Name", "Quantity", "Unit Price", "Tax", "Price with Tax", "Discount"},
		src:     src,
		pick:    func(r *entity.Extraction) []entity.Product { return r.Products },
		row: func(p entity.Product) []string {
			return []string{p.Name, number(p.Quantity), number(p.UnitPrice), number(p.Tax), number(p.PriceWithTax), discount(p)}
		},
	}
}

// All returns the three views over src, in tab order.
func All(src state.Source) []Renderer {
	return []Renderer{NewCustomers(src), NewInvoices(src), NewProducts(src)}
}

func number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func discount(p entity.Product) string {
	if p.HasDiscount() {
		return p.Discount
	}
	return entity.NoDiscount + " " + noDiscountMarker
}
