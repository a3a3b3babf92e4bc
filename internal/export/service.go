package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-extract/internal/entity"
)

const (
	SheetCustomers = "Customers"
	SheetInvoices  = "Invoices"
	SheetProducts  = "Products"
)

// Service produces XLSX bytes for a fulfilled extraction.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

type sheet struct {
	name    string
	headers []string
	widths  []float64
	rows    [][]any
}

// ExtractionXLSX returns a workbook with one sheet per collection. Absent collections get a header row only.
func (s *Service) ExtractionXLSX(ex entity.Extraction) ([]byte, error) {
	start := time.Now()

	sheets := []sheet{
		{
			name:    SheetCustomers,
			headers: []string{"Customer Name", "Phone Number", "Total Purchase Amount"},
			widths:  []float64{28, 18, 22},
			rows:    customerRows(ex.Customers),
		},
		{
			name:    SheetInvoices,
			headers: []string{"Serial Number", "Customer Name", "Product Name", "Quantity", "Total Amount", "Date"},
			widths:  []float64{16, 28, 28, 10, 14, 14},
			rows:    invoiceRows(ex.Invoices),
		},
		{
			name:    SheetProducts,
			headers: []string{"Name", "Quantity", "Unit Price", "Tax", "Price with Tax", "Discount"},
			widths:  []float64{28, 10, 12, 10, 16, 12},
			rows:    productRows(ex.Products),
		},
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return nil, fmt.Errorf("new sheet %s: %w", sh.name, err)
		}
		if err := writeSheet(f, sh); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"customers", len(ex.Customers),
		"invoices", len(ex.Invoices),
		"products", len(ex.Products),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sh sheet) error {
	write := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sh.name, cell, v)
	}

	for i, h := range sh.headers {
		if err := write(i+1, 1, h); err != nil {
			return fmt.Errorf("%s header: %w", sh.name, err)
		}
	}
	for r, values := range sh.rows {
		for c, v := range values {
			if err := write(c+1, r+2, v); err != nil {
				return fmt.Errorf("%s row %d: %w", sh.name, r+1, err)
			}
		}
	}
	for i, w := range sh.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		_ = f.SetColWidth(sh.name, col, col, w)
	}
	return nil
}

func customerRows(cs []entity.Customer) [][]any {
	rows := make([][]any, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, []any{c.CustomerName, c.PhoneNumber, c.TotalPurchaseAmount})
	}
	return rows
}

func invoiceRows(is []entity.Invoice) [][]any {
	rows := make([][]any, 0, len(is))
	for _, i := range is {
		rows = append(rows, []any{i.SerialNumber, i.CustomerName, i.ProductName, i.Quantity, i.TotalAmount, i.Date})
	}
	return rows
}

func productRows(ps []entity.Product) [][]any {
	rows := make([][]any, 0, len(ps))
	for _, p := range ps {
		rows = append(rows, []any{p.Name, p.Quantity, p.UnitPrice, p.Tax, p.PriceWithTax, p.Discount})
	}
	return rows
}
