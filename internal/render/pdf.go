package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/dshills/contractdesk/internal/contract"
)

// defaultFont covers Latin and Cyrillic, so client data renders as typed.
//
//go:embed fonts/DejaVuSansCondensed.ttf
var defaultFont []byte

const (
	bodyFamily = "body"
	pageWidth  = 190.0 // A4 less default margins
)

type pdfRenderer struct {
	fontPath string
	stamp    []byte
}

func (r *pdfRenderer) Ext() string { return ".pdf" }

func (r *pdfRenderer) Render(rec *contract.Record) ([]byte, error) {
	doc := layout(rec)

	pdf := fpdf.New("P", "mm", "A4", "")
	if !rec.CreationDate.IsZero() {
		d := rec.CreationDate
		pdf.SetCreationDate(time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC))
	}

	if r.fontPath != "" {
		pdf.AddUTF8Font(bodyFamily, "", r.fontPath)
	} else {
		pdf.AddUTF8FontFromBytes(bodyFamily, "", defaultFont)
	}

	pdf.AddPage()

	pdf.SetFont(bodyFamily, "", 12)
	pdf.SetFillColor(200, 220, 255)
	pdf.CellFormat(pageWidth, 10, doc.Title, "", 1, "C", true, 0, "")
	pdf.Ln(10)

	pdf.SetFont(bodyFamily, "", 10)
	for _, rw := range doc.Rows {
		pdf.CellFormat(pageWidth, 6, rw.Label+": "+rw.Value, "1", 1, "", false, 0, "")
	}

	pdf.Ln(10)
	pdf.CellFormat(pageWidth, 6, doc.TermsHeading+":", "", 1, "C", true, 0, "")
	pdf.MultiCell(0, 6, strings.Join(doc.Terms, "\n"), "", "", false)

	pdf.Ln(50)
	pdf.CellFormat(pageWidth, 6, doc.Signatures[0], "", 1, "C", false, 0, "")
	pdf.CellFormat(pageWidth, 6, doc.Signatures[1], "", 1, "C", false, 0, "")
	pdf.Ln(10)
	pdf.CellFormat(pageWidth, 6, doc.Created, "", 1, "C", false, 0, "")

	stamp := r.stamp
	if stamp == nil {
		var err error
		if stamp, err = DefaultStamp(); err != nil {
			return nil, err
		}
	}
	opt := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("stamp", opt, bytes.NewReader(stamp))
	pdf.ImageOptions("stamp", stampX, stampY, stampWidth, 0, false, opt, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering pdf: %w", err)
	}
	return buf.Bytes(), nil
}
