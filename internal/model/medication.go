package model

import "time"

// DefaultMedicationFamily classifies drugs whose mention carried no family.
const DefaultMedicationFamily = "Otros"

// UnspecifiedVariationField fills dosage or presentation when a
// mention omits them.
const UnspecifiedVariationField = "No espec."

// MedicationEntry is one drug in the personal formulary. Identity is
// the lower-cased name; Name keeps the casing of the first sighting.
type MedicationEntry struct {
	Name                string                `json:"name"`
	Family              string                `json:"family"`
	Subfamily           string                `json:"subfamily,omitempty"`
	AddedAt             time.Time             `json:"addedAt"`
	AdultVariations     []MedicationVariation `json:"adultVariations"`
	PediatricVariations []MedicationVariation `json:"pediatricVariations"`
	// Mechanism is reserved for manual annotation; ingestion never fills it.
	Mechanism string `json:"mechanism"`
}

// Clone returns a deep copy so merges never alias the stored entry.
func (m MedicationEntry) Clone() MedicationEntry {
	out := m
	out.AdultVariations = append([]MedicationVariation(nil), m.AdultVariations...)
	out.PediatricVariations = append([]MedicationVariation(nil), m.PediatricVariations...)
	return out
}

// MedicationVariation is a distinct dosage/presentation combination
// observed within one age stratum. DetectedAt and PatientAge reflect
// the first occurrence only.
type MedicationVariation struct {
	Dosage       string    `json:"dosage"`
	Presentation string    `json:"presentation"`
	DetectedAt   time.Time `json:"detectedAt"`
	PatientAge   int       `json:"patientAge"`
}

// MedicationPatch carries the manually editable fields of an entry.
type MedicationPatch struct {
	Family    string `json:"family,omitempty"`
	Subfamily string `json:"subfamily,omitempty"`
	Mechanism string `json:"mechanism,omitempty"`
}
