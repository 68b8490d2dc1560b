package invoice

import (
	"fmt"
	"io"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const title = "SAT Simulation - Invoice"

// column widths in mm for the items table; they add up to the A4 text width
var itemColumns = []struct {
	header string
	width  float64
	align  string
}{
	{"Product / Service", 70, "L"},
	{"Qty", 15, "R"},
	{"Unit price", 30, "R"},
	{"Tax", 30, "R"},
	{"Total", 35, "R"},
}

// WritePDF lays out the invoice for a priced, persisted order.
func WritePDF(w io.Writer, order *domain.Order) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("taxsim", true)
	if !order.CreatedAt.IsZero() {
		pdf.SetCreationDate(order.CreatedAt)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, title, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	field := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(35, 7, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 7, tr(value), "", 1, "L", false, 0, "")
	}
	field("Order:", fmt.Sprintf("%d", order.ID))
	field("Date:", order.CreatedAt.Format("2006-01-02 15:04:05"))
	field("Client:", order.ClientName)
	field("NIT:", order.ClientTaxID)
	field("Address:", order.ClientAddress)
	if order.ProviderName != "" {
		field("Provider:", order.ProviderName)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range itemColumns {
		pdf.CellFormat(c.width, 8, c.header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range order.Items {
		tax, total := decimal.Zero, decimal.Zero
		if it.Amounts != nil {
			tax, total = it.Amounts.TaxApplied, it.Amounts.Total
		}
		cells := []string{
			tr(it.Name),
			fmt.Sprintf("%d", it.Quantity),
			it.UnitCost.StringFixed(2),
			tax.StringFixed(2),
			total.StringFixed(2),
		}
		for i, c := range itemColumns {
			pdf.CellFormat(c.width, 7, cells[i], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(145, 8, "Total taxes:", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, order.TotalTaxes.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.CellFormat(145, 8, "Total amount:", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, order.TotalAmount.StringFixed(2), "", 1, "R", false, 0, "")

	return pdf.Output(w)
}
