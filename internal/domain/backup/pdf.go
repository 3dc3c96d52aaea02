package backup

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/roundshub/roundshub/internal/domain/ward"
)

const (
	pdfMarginMM  = 15
	snippetLen   = 80
	invDateColMM = 28
	invTextColMM = 76
	rowHeightMM  = 6
	imageWidthMM = 120
)

var unsafeFilenameRE = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeFilename collapses anything outside a conservative character set
// to single underscores.
func sanitizeFilename(s string) string {
	s = unsafeFilenameRE.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// BedPDFFilename builds the download name for a single-bed export, e.g.
// "Surgery_Department-Ward1-Bed3-Jane_Doe-2026-08-29.pdf". The patient part
// is omitted when the bed has no named patient.
func BedPDFFilename(w *ward.Ward, b ward.Bed, now time.Time) string {
	parts := []string{sanitizeFilename(w.Title)}
	if w.WardNumber != nil && *w.WardNumber != "" {
		parts = append(parts, "Ward"+sanitizeFilename(*w.WardNumber))
	}
	parts = append(parts, fmt.Sprintf("Bed%d", b.Number))
	if b.Patient != nil && b.Patient.Name != nil && strings.TrimSpace(*b.Patient.Name) != "" {
		parts = append(parts, sanitizeFilename(*b.Patient.Name))
	}
	parts = append(parts, now.Format("2006-01-02"))
	return strings.Join(parts, "-") + ".pdf"
}

func newDoc() *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMarginMM, pdfMarginMM, pdfMarginMM)
	pdf.SetAutoPageBreak(true, pdfMarginMM)
	pdf.AddPage()
	return pdf
}

func heading(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func label(pdf *gofpdf.Fpdf, name, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(40, rowHeightMM, name, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, rowHeightMM, value, "", "L", false)
}

func snippet(s *string, max int) string {
	if s == nil {
		return ""
	}
	text := strings.TrimSpace(*s)
	runes := []rune(text)
	if len(runes) > max {
		return string(runes[:max]) + "…"
	}
	return text
}

// embedDataURL draws a base64 data-URL image at the cursor. Unsupported or
// undecodable payloads are skipped silently; a missing drawing never fails
// the export.
func embedDataURL(pdf *gofpdf.Fpdf, dataURL string) {
	idx := strings.Index(dataURL, ",")
	if !strings.HasPrefix(dataURL, "data:image/") || idx < 0 {
		return
	}
	meta := dataURL[:idx]
	imgType := "PNG"
	if strings.Contains(meta, "image/jpeg") || strings.Contains(meta, "image/jpg") {
		imgType = "JPG"
	}
	decoded, err := base64.StdEncoding.DecodeString(dataURL[idx+1:])
	if err != nil {
		return
	}
	name := fmt.Sprintf("img-%d", pdf.PageCount()*1000+int(pdf.GetY()))
	opts := gofpdf.ImageOptions{ImageType: imgType, ReadDpi: true}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(decoded))
	if pdf.Err() {
		pdf.ClearError()
		return
	}
	pdf.ImageOptions(name, pdfMarginMM, pdf.GetY(), imageWidthMM, 0, true, opts, 0, "")
	if pdf.Err() {
		pdf.ClearError()
	}
	pdf.Ln(3)
}

func dxPlanSection(pdf *gofpdf.Fpdf, title string, content *ward.DxPlanContent) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if content == nil {
		pdf.MultiCell(0, rowHeightMM, "-", "", "L", false)
		pdf.Ln(1)
		return
	}
	if content.Text != nil && strings.TrimSpace(*content.Text) != "" {
		pdf.MultiCell(0, rowHeightMM, strings.TrimSpace(*content.Text), "", "L", false)
	}
	if content.Image != nil {
		embedDataURL(pdf, *content.Image)
	}
	pdf.Ln(1)
}

// WardSummaryPDF renders the whole ward as a printable round sheet: one row
// per bed with truncated Dx/Plan, followed by the reference cards.
func (s *Service) WardSummaryPDF(ctx context.Context) ([]byte, string, error) {
	w := s.ward.Snapshot()
	if w == nil {
		return nil, "", fmt.Errorf("ward not loaded")
	}

	pdf := newDoc()
	title := w.Title
	if w.WardNumber != nil && *w.WardNumber != "" {
		title = fmt.Sprintf("%s — Ward %s", w.Title, *w.WardNumber)
	}
	heading(pdf, title)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, time.Now().Format("2006-01-02"), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(12, rowHeightMM, "Bed", "1", 0, "C", false, 0, "")
	pdf.CellFormat(48, rowHeightMM, "Patient", "1", 0, "L", false, 0, "")
	pdf.CellFormat(60, rowHeightMM, "Dx", "1", 0, "L", false, 0, "")
	pdf.CellFormat(60, rowHeightMM, "Plan", "1", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, b := range w.Beds {
		name, dx, plan := "", "", ""
		if b.Patient != nil {
			if b.Patient.Name != nil {
				name = *b.Patient.Name
			}
			if b.Patient.Dx != nil {
				dx = snippet(b.Patient.Dx.Text, snippetLen)
			}
			if b.Patient.Plan != nil {
				plan = snippet(b.Patient.Plan.Text, snippetLen)
			}
		}
		pdf.CellFormat(12, rowHeightMM, fmt.Sprintf("%d", b.Number), "1", 0, "C", false, 0, "")
		pdf.CellFormat(48, rowHeightMM, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, rowHeightMM, dx, "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, rowHeightMM, plan, "1", 1, "L", false, 0, "")
	}

	cards := s.references.Load(ctx)
	if len(cards) > 0 {
		pdf.Ln(6)
		heading(pdf, "References")
		for _, card := range cards {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(0, rowHeightMM, card.Title, "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 9)
			pdf.MultiCell(0, 5, card.Body, "", "L", false)
			pdf.Ln(2)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("render pdf: %w", err)
	}
	name := fmt.Sprintf("RoundsHub-round-%s.pdf", time.Now().Format("2006-01-02"))
	return buf.Bytes(), name, nil
}

// BedPDF renders a single bed's full record: demographics, Dx and Plan with
// any handwritten overlays, and the investigation table.
func (s *Service) BedPDF(ctx context.Context, bedID string) ([]byte, string, error) {
	w := s.ward.Snapshot()
	if w == nil {
		return nil, "", fmt.Errorf("ward not loaded")
	}
	var bed *ward.Bed
	for i := range w.Beds {
		if w.Beds[i].ID == bedID {
			bed = &w.Beds[i]
			break
		}
	}
	if bed == nil {
		return nil, "", ward.ErrBedNotFound
	}

	pdf := newDoc()
	heading(pdf, fmt.Sprintf("%s — Bed %d", w.Title, bed.Number))

	p := bed.Patient
	if p == nil {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, rowHeightMM, "Empty bed", "", 1, "L", false, 0, "")
	} else {
		if p.Name != nil {
			label(pdf, "Name", *p.Name)
		}
		if p.Age != nil {
			label(pdf, "Age", fmt.Sprintf("%d", *p.Age))
		}
		if p.Gender != nil {
			label(pdf, "Gender", *p.Gender)
		}
		if p.AdmissionDate != nil {
			label(pdf, "Admitted", *p.AdmissionDate)
		}
		if p.DischargeDate != nil {
			label(pdf, "Discharged", *p.DischargeDate)
		}
		pdf.Ln(2)
		dxPlanSection(pdf, "Diagnosis", p.Dx)
		dxPlanSection(pdf, "Plan", p.Plan)

		if len(p.Inv) > 0 {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.CellFormat(0, 7, "Investigations", "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "B", 9)
			pdf.CellFormat(invDateColMM, rowHeightMM, "Date", "1", 0, "L", false, 0, "")
			pdf.CellFormat(invTextColMM, rowHeightMM, "Investigation", "1", 0, "L", false, 0, "")
			pdf.CellFormat(invTextColMM, rowHeightMM, "Findings", "1", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 9)
			for _, row := range p.Inv {
				date, inv, findings := "", "", ""
				if row.Date != nil {
					date = *row.Date
				}
				if row.Investigation != nil {
					inv = snippet(row.Investigation, snippetLen)
				}
				if row.Findings != nil {
					findings = snippet(row.Findings, snippetLen)
				}
				pdf.CellFormat(invDateColMM, rowHeightMM, date, "1", 0, "L", false, 0, "")
				pdf.CellFormat(invTextColMM, rowHeightMM, inv, "1", 0, "L", false, 0, "")
				pdf.CellFormat(invTextColMM, rowHeightMM, findings, "1", 1, "L", false, 0, "")
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), BedPDFFilename(w, *bed, time.Now()), nil
}
