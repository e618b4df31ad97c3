package pdf

import (
	"bytes"
	"errors"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/vibast-solutions/ms-go-letters/app/entity"
)

var ErrNoLetterContent = errors.New("order has no letter content")

// Core fonts only carry cp1252 glyphs, so Turkish letters outside it are
// folded to their closest Latin form before translation.
var turkishFolder = strings.NewReplacer(
	"ğ", "g", "Ğ", "G",
	"ş", "s", "Ş", "S",
	"ı", "i", "İ", "I",
)

type LetterRenderer struct {
	fontFamily string
}

func NewLetterRenderer() *LetterRenderer {
	return &LetterRenderer{fontFamily: "Helvetica"}
}

// Render lays out the printable letter for an order: addressing block,
// letter body and sender footer.
func (r *LetterRenderer) Render(order *entity.Order) ([]byte, error) {
	if order == nil || strings.TrimSpace(order.LetterText) == "" {
		return nil, ErrNoLetterContent
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Mektup "+order.TrackingCode, true)
	doc.SetMargins(20, 20, 20)
	doc.SetAutoPageBreak(true, 20)
	doc.AddPage()

	tr := doc.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string { return tr(turkishFolder.Replace(s)) }

	doc.SetFont(r.fontFamily, "B", 10)
	doc.CellFormat(0, 6, text("Takip Kodu: "+order.TrackingCode), "", 1, "R", false, 0, "")
	doc.Ln(4)

	doc.SetFont(r.fontFamily, "", 11)
	for _, line := range addressLines(order) {
		doc.CellFormat(0, 6, text(line), "", 1, "L", false, 0, "")
	}
	doc.Ln(8)

	doc.SetFont(r.fontFamily, "", 12)
	doc.MultiCell(0, 6, text(order.LetterText), "", "L", false)

	if footer := senderLine(order); footer != "" {
		doc.Ln(10)
		doc.SetFont(r.fontFamily, "I", 11)
		doc.CellFormat(0, 6, text(footer), "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addressLines(order *entity.Order) []string {
	lines := make([]string, 0, 4)
	if order.RecipientName != nil && strings.TrimSpace(*order.RecipientName) != "" {
		lines = append(lines, strings.TrimSpace(*order.RecipientName))
	}
	lines = append(lines, order.PrisonName)
	if strings.TrimSpace(order.AddressLine) != "" {
		lines = append(lines, order.AddressLine)
	}
	lines = append(lines, order.City)
	return lines
}

func senderLine(order *entity.Order) string {
	parts := make([]string, 0, 2)
	if order.SenderName != nil && strings.TrimSpace(*order.SenderName) != "" {
		parts = append(parts, strings.TrimSpace(*order.SenderName))
	}
	if order.SenderCity != nil && strings.TrimSpace(*order.SenderCity) != "" {
		parts = append(parts, strings.TrimSpace(*order.SenderCity))
	}
	return strings.Join(parts, ", ")
}
