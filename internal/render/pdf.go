package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// renderPDF lays the document out on A4 pages. The watermark is drawn under
// the content of every page and never touches the section list.
func renderPDF(doc *Document, loc *Locale, opts Options) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Pinned info-dictionary dates keep identical inputs byte-identical;
	// fpdf stamps the wall clock into any date left unset.
	createdAt, err := time.Parse(time.RFC3339, doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("document creation date: %w", err)
	}
	pdf.SetCreationDate(createdAt.UTC())
	pdf.SetModificationDate(createdAt.UTC())
	pdf.SetTitle(tr(doc.Title), true)
	pdf.SetAuthor(tr(doc.Heading), true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	pdf.AliasNbPages("")

	if opts.Watermark {
		pdf.SetHeaderFunc(func() {
			pdf.SetFont("Helvetica", "B", 40)
			pdf.SetTextColor(225, 225, 225)
			pdf.TransformBegin()
			pdf.TransformRotate(45, 105, 160)
			pdf.Text(30, 165, tr(loc.WatermarkText))
			pdf.TransformEnd()
			pdf.SetTextColor(0, 0, 0)
			pdf.SetXY(20, 20)
		})
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-18)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		footer := fmt.Sprintf("%s — %d/{nb}", tr(doc.Heading), pdf.PageNo())
		pdf.CellFormat(0, 8, footer, "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()

	// Title block.
	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 9, tr(doc.Heading), "", "C", false)
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 13)
	pdf.MultiCell(0, 7, tr(doc.Title), "", "C", false)
	pdf.Ln(6)

	for i, sec := range doc.Sections {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.MultiCell(0, 7, tr(fmt.Sprintf("%d. %s", i+1, sec.Title)), "", "L", false)
		pdf.Ln(1)
		for _, b := range sec.Blocks {
			writePDFBlock(pdf, tr, b)
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writePDFBlock(pdf *fpdf.Fpdf, tr func(string) string, b Block) {
	switch b.Kind {
	case BlockParagraph:
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr(b.Text), "", "L", false)
		pdf.Ln(1)
	case BlockFact:
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(55, 6, tr(b.Label+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr(b.Value), "", "L", false)
	case BlockBullets:
		pdf.SetFont("Helvetica", "", 11)
		for _, item := range b.Items {
			pdf.CellFormat(6, 6, "-", "", 0, "R", false, 0, "")
			pdf.MultiCell(0, 6, tr(item), "", "L", false)
		}
		pdf.Ln(1)
	}
}
