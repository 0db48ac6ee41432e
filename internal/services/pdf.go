package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/omondijeff/errorlytic/internal/domain"
)

type PDFService struct{}

func NewPDFService() *PDFService {
	return &PDFService{}
}

// GenerateQuotePDF renders a quotation as a printable document.
func (s *PDFService) GenerateQuotePDF(quote domain.Quotation, analysis domain.Analysis, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure pdf directory: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Repair Quotation %s", quote.ID), false)
	pdf.SetAuthor("Errorlytic", false)
	pdf.AddPage()

	createdAt := time.Unix(quote.CreatedAt, 0).Local()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Repair Quotation")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 6, fmt.Sprintf("Quotation: %s", quote.ID))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", createdAt.Format("02/01/2006 15:04")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", strings.ToUpper(quote.Status)))
	pdf.Ln(6)
	if analysis.Summary.Overview != "" {
		pdf.MultiCell(0, 6, fmt.Sprintf("Diagnosis: %s", analysis.Summary.Overview), "", "L", false)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Parts")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 11)
	for _, line := range quote.Parts {
		tier := "aftermarket"
		if line.IsOEM {
			tier = "OEM"
		}
		pdf.MultiCell(0, 6, fmt.Sprintf("%s (%s, %s) x%d  %s %.2f",
			line.Name, line.PartNumber, tier, line.Quantity, quote.Currency, line.Subtotal), "", "L", false)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Labor")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, fmt.Sprintf("%.2f hours @ %s %.2f/hr  %s %.2f",
		quote.Labor.Hours, quote.Currency, quote.Labor.RatePerHour, quote.Currency, quote.Labor.Subtotal), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Totals")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 11)
	totals := []string{
		fmt.Sprintf("Parts subtotal: %s %.2f", quote.Currency, quote.Totals.Parts),
		fmt.Sprintf("Labor subtotal: %s %.2f", quote.Currency, quote.Totals.Labor),
		fmt.Sprintf("Markup (%.1f%%): %s %.2f", quote.MarkupPct, quote.Currency, quote.Totals.Markup),
		fmt.Sprintf("Tax (%.1f%%): %s %.2f", quote.TaxPct, quote.Currency, quote.Totals.Tax),
	}
	for _, line := range totals {
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Grand total: %s %.2f", quote.Currency, quote.Totals.Grand))

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}

	return nil
}
