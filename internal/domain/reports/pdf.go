package reports

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

const (
	targetColWidth = 70.0
	roleColWidth   = 28.0
	rowHeight      = 7.0
)

// WriteAccessMatrixPDF renders m as an A4 landscape document.
func WriteAccessMatrixPDF(w io.Writer, m AccessMatrix) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Access matrix", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Access matrix")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", m.GeneratedAt.UTC().Format("2006-01-02 15:04 MST")))
	pdf.Ln(10)

	writeSection(pdf, "Permissions", m, m.Permissions)
	writeSection(pdf, "Routes", m, m.Routes)
	writeSection(pdf, "Sensitive operations", m, m.Operations)

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func writeSection(pdf *gofpdf.Fpdf, title string, m AccessMatrix, rows []Grant) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(targetColWidth, rowHeight, "Target", "1", 0, "L", true, 0, "")
	pdf.CellFormat(targetColWidth-10, rowHeight, "Requires", "1", 0, "L", true, 0, "")
	for _, role := range m.Roles {
		pdf.CellFormat(roleColWidth, rowHeight, string(role), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range rows {
		pdf.CellFormat(targetColWidth, rowHeight, row.Target, "1", 0, "L", false, 0, "")
		pdf.CellFormat(targetColWidth-10, rowHeight, string(row.Permission), "1", 0, "L", false, 0, "")
		for _, role := range m.Roles {
			mark := "-"
			if row.Allowed[role] {
				mark = "yes"
			}
			pdf.CellFormat(roleColWidth, rowHeight, mark, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(6)
}
