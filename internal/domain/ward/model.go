package ward

import "strings"

// Gender values accepted on a patient record.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

var validGenders = map[string]bool{
	GenderMale:   true,
	GenderFemale: true,
	GenderOther:  true,
}

// DefaultCanvasMinImageChars is the blank-canvas heuristic: a base64
// handwriting image shorter than this is an empty canvas, not content. It is
// a heuristic about the PNG encoder's floor, not a format guarantee.
const DefaultCanvasMinImageChars = 400

// DxPlanContent holds one free-text field with an optional handwritten
// annotation (base64 PNG).
type DxPlanContent struct {
	Text  *string `json:"text,omitempty"`
	Image *string `json:"image,omitempty"`
}

// InvRow is one row of the investigations table: three independent
// text+handwriting pairs.
type InvRow struct {
	ID                 string  `json:"id"`
	Date               *string `json:"date,omitempty"`
	DateImage          *string `json:"dateImage,omitempty"`
	Investigation      *string `json:"investigation,omitempty"`
	InvestigationImage *string `json:"investigationImage,omitempty"`
	Findings           *string `json:"findings,omitempty"`
	FindingsImage      *string `json:"findingsImage,omitempty"`
}

// PatientData is everything recorded against an occupied bed. Every field is
// optional; a bed with no patient at all stays Patient == nil.
type PatientData struct {
	Name          *string        `json:"name,omitempty"`
	Age           *int           `json:"age,omitempty"`
	Gender        *string        `json:"gender,omitempty"`
	AdmissionDate *string        `json:"admissionDate,omitempty"`
	DischargeDate *string        `json:"dischargeDate,omitempty"`
	Dx            *DxPlanContent `json:"dx,omitempty"`
	Plan          *DxPlanContent `json:"plan,omitempty"`
	Inv           []InvRow       `json:"inv,omitempty"`
}

// Bed is one ward bed. ID is opaque and immutable; Number is a dense 1..N
// sequence maintained by the service.
type Bed struct {
	ID      string       `json:"id"`
	Number  int          `json:"number"`
	Patient *PatientData `json:"patient,omitempty"`
}

// Ward is the root aggregate. One ward exists per installation; edits
// replace the whole value.
type Ward struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	WardNumber *string `json:"wardNumber,omitempty"`
	Beds       []Bed   `json:"beds"`
}

// Clone deep-copies the ward so a mutator can build the next snapshot
// without touching the one handed to subscribers.
func (w *Ward) Clone() *Ward {
	if w == nil {
		return nil
	}
	next := &Ward{
		ID:         w.ID,
		Title:      w.Title,
		WardNumber: cloneStr(w.WardNumber),
		Beds:       make([]Bed, len(w.Beds)),
	}
	for i, b := range w.Beds {
		next.Beds[i] = b.clone()
	}
	return next
}

func (b Bed) clone() Bed {
	out := Bed{ID: b.ID, Number: b.Number}
	if b.Patient != nil {
		p := b.Patient.clone()
		out.Patient = &p
	}
	return out
}

func (p PatientData) clone() PatientData {
	out := PatientData{
		Name:          cloneStr(p.Name),
		Age:           cloneInt(p.Age),
		Gender:        cloneStr(p.Gender),
		AdmissionDate: cloneStr(p.AdmissionDate),
		DischargeDate: cloneStr(p.DischargeDate),
	}
	if p.Dx != nil {
		out.Dx = &DxPlanContent{Text: cloneStr(p.Dx.Text), Image: cloneStr(p.Dx.Image)}
	}
	if p.Plan != nil {
		out.Plan = &DxPlanContent{Text: cloneStr(p.Plan.Text), Image: cloneStr(p.Plan.Image)}
	}
	if p.Inv != nil {
		out.Inv = make([]InvRow, len(p.Inv))
		for i, r := range p.Inv {
			out.Inv[i] = InvRow{
				ID:                 r.ID,
				Date:               cloneStr(r.Date),
				DateImage:          cloneStr(r.DateImage),
				Investigation:      cloneStr(r.Investigation),
				InvestigationImage: cloneStr(r.InvestigationImage),
				Findings:           cloneStr(r.Findings),
				FindingsImage:      cloneStr(r.FindingsImage),
			}
		}
	}
	return out
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(n *int) *int {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}

// hasText reports whether the string pointer holds non-whitespace content.
func hasText(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

// hasCanvasImage applies the blank-canvas heuristic with the given
// threshold; threshold <= 0 means any image counts.
func hasCanvasImage(img *string, minChars int) bool {
	if img == nil || *img == "" {
		return false
	}
	return len(*img) >= minChars
}

func (c *DxPlanContent) hasContent(minImageChars int) bool {
	if c == nil {
		return false
	}
	return hasText(c.Text) || hasCanvasImage(c.Image, minImageChars)
}

// HasPatientData reports whether the bed shows as occupied on the grid:
// any demographic field, dx/plan content, or investigation row counts.
func (b Bed) HasPatientData(minImageChars int) bool {
	p := b.Patient
	if p == nil {
		return false
	}
	return hasText(p.Name) ||
		p.Age != nil ||
		p.Gender != nil ||
		p.Dx.hasContent(minImageChars) ||
		p.Plan.hasContent(minImageChars) ||
		len(p.Inv) > 0
}

// DataIndicators are the per-section badges shown on a bed card.
type DataIndicators struct {
	Name bool `json:"name"`
	Dx   bool `json:"dx"`
	Plan bool `json:"plan"`
	Inv  bool `json:"inv"`
}

func (b Bed) Indicators(minImageChars int) DataIndicators {
	p := b.Patient
	if p == nil {
		return DataIndicators{}
	}
	return DataIndicators{
		Name: hasText(p.Name) || p.Age != nil || p.Gender != nil,
		Dx:   p.Dx.hasContent(minImageChars),
		Plan: p.Plan.hasContent(minImageChars),
		Inv:  len(p.Inv) > 0,
	}
}
