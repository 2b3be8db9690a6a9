package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PediatricAgeLimit is the exclusive upper bound for the pediatric
// stratum. A case's stratum is fixed at ingestion time.
const PediatricAgeLimit = 15

// AnonymousPatientName is used when a draft carries no patient name.
const AnonymousPatientName = "Paciente Anonimizado"

// CaseRecord is a fully normalized clinical case. Records are
// append-only: once ingested they are never mutated or deleted.
type CaseRecord struct {
	ID          uuid.UUID           `json:"id"`
	Date        time.Time           `json:"date"`
	PatientName string              `json:"patientName"`
	Diagnosis   []string            `json:"diagnosis"`
	Medications []MedicationMention `json:"medications"`
	Evolution   string              `json:"evolution"`
	Notes       string              `json:"notes"`
	Vitals      *Vitals             `json:"vitals,omitempty"`
	Age         int                 `json:"age"`
	Gender      string              `json:"gender"`
}

// IsPediatric reports whether the case falls into the pediatric stratum.
func (c *CaseRecord) IsPediatric() bool {
	return c.Age < PediatricAgeLimit
}

// MedicationMention is a single drug observation inside a case.
// Only Name is required; a mention without a name cannot be keyed
// and is skipped by the formulary aggregator.
type MedicationMention struct {
	Name         string `json:"name"`
	Dose         string `json:"dose,omitempty"`
	Presentation string `json:"presentation,omitempty"`
	Family       string `json:"family,omitempty"`
	Subfamily    string `json:"subfamily,omitempty"`
}

// Vitals holds measurement strings captured with a case. The
// aggregation engine treats them as opaque.
type Vitals struct {
	BloodPressure   string `json:"pa,omitempty"`
	HeartRate       string `json:"fc,omitempty"`
	RespiratoryRate string `json:"fr,omitempty"`
	Temperature     string `json:"temp,omitempty"`
	Saturation      string `json:"sat,omitempty"`
}

// CaseDraft is an unvalidated case description as produced by manual
// entry or the OCR/AI extraction boundary. Every field is optional;
// normalization turns a draft into a CaseRecord.
type CaseDraft struct {
	PatientName string              `json:"patientName"`
	Diagnosis   DiagnosisList       `json:"diagnosis"`
	Medications []MedicationMention `json:"medications"`
	Evolution   string              `json:"evolution"`
	Notes       string              `json:"notes"`
	Vitals      *Vitals             `json:"vitals,omitempty"`
	Age         FlexibleAge         `json:"age"`
	Gender      string              `json:"gender"`
}

// DiagnosisList accepts either a JSON array of labels or a single
// comma-separated string, the two shapes draft producers emit.
type DiagnosisList []string

func (d *DiagnosisList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*d = nil
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			*d = nil
			return nil
		}
		*d = cleanLabels(items)
		return nil
	}

	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		*d = nil
		return nil
	}
	*d = cleanLabels(strings.Split(joined, ","))
	return nil
}

func cleanLabels(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// FlexibleAge accepts a JSON number or a numeric string. Anything
// unparseable leaves the age unset, which normalization defaults to 0.
type FlexibleAge struct {
	Years int
	Valid bool
}

func (a *FlexibleAge) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		a.Years = int(n)
		a.Valid = true
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	years, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	a.Years = years
	a.Valid = true
	return nil
}

func (a FlexibleAge) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.Years)
}
