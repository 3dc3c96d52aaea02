package ward

import (
	"encoding/json"
	"math"
	"regexp"
)

// The parsers below defend against hand-edited or corrupted storage content
// and against records written by older app versions. They never return an
// error: a document that cannot be trusted is reported as nothing stored.
//
// The ward is all-or-nothing: one malformed bed invalidates the whole
// document. Beds carry patient data that only makes sense against the full
// bed sequence, so a partial ward is worse than an empty one.

var isoDateRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseWard decodes a stored ward document. It returns nil for anything it
// cannot fully validate, including malformed JSON.
func ParseWard(raw []byte) *Ward {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil
	}
	id, ok := nonEmptyString(obj["id"])
	if !ok {
		return nil
	}
	title, ok := nonEmptyString(obj["title"])
	if !ok {
		return nil
	}
	bedsRaw, ok := obj["beds"].([]any)
	if !ok {
		return nil
	}
	w := &Ward{ID: id, Title: title, Beds: make([]Bed, 0, len(bedsRaw))}
	if v, present := obj["wardNumber"]; present && v != nil {
		s, ok := v.(string)
		if !ok {
			return nil
		}
		w.WardNumber = &s
	}
	for _, b := range bedsRaw {
		bed := parseBed(b)
		if bed == nil {
			return nil
		}
		w.Beds = append(w.Beds, *bed)
	}
	return w
}

func parseBed(v any) *Bed {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	id, ok := nonEmptyString(obj["id"])
	if !ok {
		return nil
	}
	number, ok := intValue(obj["number"])
	if !ok || number < 1 {
		return nil
	}
	bed := &Bed{ID: id, Number: number}
	if p, present := obj["patient"]; present && p != nil {
		if pObj, ok := p.(map[string]any); ok {
			bed.Patient = parsePatient(pObj)
		}
	}
	return bed
}

// parsePatient returns nil when the object carries none of the marker
// fields, collapsing a stored-but-empty patient back to an empty bed.
func parsePatient(obj map[string]any) *PatientData {
	_, nameIsString := obj["name"].(string)
	_, ageIsNumber := obj["age"].(float64)
	_, genderIsString := obj["gender"].(string)
	dxPresent := obj["dx"] != nil
	planPresent := obj["plan"] != nil
	_, invIsArray := obj["inv"].([]any)
	if !nameIsString && !ageIsNumber && !genderIsString && !dxPresent && !planPresent && !invIsArray {
		return nil
	}

	p := &PatientData{}
	if s, ok := obj["name"].(string); ok {
		p.Name = &s
	}
	if n, ok := intValue(obj["age"]); ok && n >= 1 && n <= 150 {
		p.Age = &n
	}
	if s, ok := obj["gender"].(string); ok && validGenders[s] {
		p.Gender = &s
	}
	if s, ok := obj["admissionDate"].(string); ok && isoDateRE.MatchString(s) {
		p.AdmissionDate = &s
	}
	if s, ok := obj["dischargeDate"].(string); ok && isoDateRE.MatchString(s) {
		p.DischargeDate = &s
	}
	p.Dx = parseDxPlan(obj["dx"])
	p.Plan = parseDxPlan(obj["plan"])
	if rows, ok := obj["inv"].([]any); ok {
		inv := make([]InvRow, 0, len(rows))
		for _, r := range rows {
			if row := parseInvRow(r); row != nil {
				inv = append(inv, *row)
			}
		}
		if len(inv) > 0 {
			p.Inv = inv
		}
	}
	return p
}

func parseDxPlan(v any) *DxPlanContent {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	c := &DxPlanContent{}
	if s, ok := obj["text"].(string); ok {
		c.Text = &s
	}
	if s, ok := obj["image"].(string); ok {
		c.Image = &s
	}
	return c
}

// Malformed investigation rows are dropped individually; the table is the
// one nested collection that loads best-effort.
func parseInvRow(v any) *InvRow {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	id, ok := nonEmptyString(obj["id"])
	if !ok {
		return nil
	}
	row := &InvRow{ID: id}
	if s, ok := obj["date"].(string); ok {
		row.Date = &s
	}
	if s, ok := obj["dateImage"].(string); ok {
		row.DateImage = &s
	}
	if s, ok := obj["investigation"].(string); ok {
		row.Investigation = &s
	}
	if s, ok := obj["investigationImage"].(string); ok {
		row.InvestigationImage = &s
	}
	if s, ok := obj["findings"].(string); ok {
		row.Findings = &s
	}
	if s, ok := obj["findingsImage"].(string); ok {
		row.FindingsImage = &s
	}
	return row
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// intValue accepts only whole JSON numbers; 2.5 is the wrong type, not a
// value to round.
func intValue(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
