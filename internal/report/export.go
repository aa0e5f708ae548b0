// Package report renders settlement summaries into printable and
// spreadsheet formats.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/agropesa/backend-balanza/internal/settlement"
)

// Meta carries the document header fields.
type Meta struct {
	StationName string
	EntityName  string
	Currency    string
	GeneratedAt time.Time
}

// BuildTicketPDF renders a printable settlement ticket.
func BuildTicketPDF(summary settlement.Summary, meta Meta) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, tr(meta.StationName))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Entity: %s", meta.EntityName)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", meta.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Category", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Weight", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Unit Price", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Subtotal", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, line := range summary.CategoryBreakdown {
		pdf.CellFormat(60, 6, tr(line.CategoryName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", line.TotalWeight), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", line.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", line.Subtotal), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Total weight: %.2f", summary.TotalWeight))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Gross total (%s): %.2f", meta.Currency, summary.GrossTotal))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Freight deduction (%s): -%.2f", meta.Currency, summary.FreightTotal))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Sack payment (%s): %.2f", meta.Currency, summary.SackValue))
	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Final amount (%s): %.2f", meta.Currency, summary.FinalAmount))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildSummaryXLSX renders the settlement breakdown as a spreadsheet.
func BuildSummaryXLSX(summary settlement.Summary, meta Meta) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "settlement"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", meta.StationName)
	_ = f.SetCellValue(sheet, "A2", "Entity")
	_ = f.SetCellValue(sheet, "B2", meta.EntityName)
	_ = f.SetCellValue(sheet, "A3", "Generated")
	_ = f.SetCellValue(sheet, "B3", meta.GeneratedAt.Format(time.RFC3339))
	_ = f.SetCellValue(sheet, "A4", "Currency")
	_ = f.SetCellValue(sheet, "B4", meta.Currency)

	_ = f.SetCellValue(sheet, "A6", "Category")
	_ = f.SetCellValue(sheet, "B6", "Weight")
	_ = f.SetCellValue(sheet, "C6", "Unit Price")
	_ = f.SetCellValue(sheet, "D6", "Subtotal")
	row := 7
	for _, line := range summary.CategoryBreakdown {
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), line.CategoryName)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), line.TotalWeight)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), line.UnitPrice)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), line.Subtotal)
		row++
	}

	row++
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Total weight")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), summary.TotalWeight)
	row++
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Gross total")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), summary.GrossTotal)
	row++
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Freight deduction")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), summary.FreightTotal)
	row++
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Sack payment")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), summary.SackValue)
	row++
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Final amount")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), summary.FinalAmount)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
