package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-extract/internal/entity"
)

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestExtractionXLSXSheets(t *testing.T) {
	ex := entity.Extraction{
		Customers: []entity.Customer{{CustomerName: "Ada", PhoneNumber: "555-0100", TotalPurchaseAmount: 2000}},
		Invoices: []entity.Invoice{
			{SerialNumber: "INV-1", CustomerName: "Ada", ProductName: "Widget", Quantity: 2, TotalAmount: 40, Date: "2024-01-05"},
			{SerialNumber: "INV-2", CustomerName: "Ada", ProductName: "Gadget", Quantity: 1, TotalAmount: 15.5, Date: "2024-01-06"},
		},
		Products: []entity.Product{{Name: "Widget", Quantity: 2, UnitPrice: 18, Tax: 10, PriceWithTax: 20, Discount: entity.NoDiscount}},
	}

	data, err := NewService(nil).ExtractionXLSX(ex)
	require.NoError(t, err)

	f := openWorkbook(t, data)
	assert.Equal(t, []string{SheetCustomers, SheetInvoices, SheetProducts}, f.GetSheetList())

	rows, err := f.GetRows(SheetCustomers)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Customer Name", "Phone Number", "Total Purchase Amount"},
		{"Ada", "555-0100", "2000"},
	}, rows)

	rows, err = f.GetRows(SheetInvoices)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"INV-2", "Ada", "Gadget", "1", "15.5", "2024-01-06"}, rows[2])

	rows, err = f.GetRows(SheetProducts)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Widget", "2", "18", "10", "20", "NA"}, rows[1])
}

func TestExtractionXLSXEmptyCollections(t *testing.T) {
	data, err := NewService(nil).ExtractionXLSX(entity.Extraction{})
	require.NoError(t, err)

	f := openWorkbook(t, data)
	for _, name := range []string{SheetCustomers, SheetInvoices, SheetProducts} {
		rows, err := f.GetRows(name)
		require.NoError(t, err)
		assert.Len(t, rows, 1, name)
	}
}
