// Package normalize is the only boundary between unvalidated drafts
// and stored case records. It always succeeds on partial input; the
// single failure mode is a draft that is not a record at all.
package normalize

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medintern-api/internal/model"
)

// Normalize coerces a raw draft into a complete CaseRecord, assigning
// a fresh ID and timestamp. Missing optional fields resolve to
// documented defaults and never produce an error.
func Normalize(draft *model.CaseDraft) (*model.CaseRecord, error) {
	if draft == nil {
		return nil, fmt.Errorf("draft is not a valid case record")
	}

	rec := &model.CaseRecord{
		ID:          uuid.New(),
		Date:        time.Now().UTC(),
		PatientName: draft.PatientName,
		Diagnosis:   append([]string{}, draft.Diagnosis...),
		Medications: append([]model.MedicationMention{}, draft.Medications...),
		Evolution:   draft.Evolution,
		Notes:       draft.Notes,
		Vitals:      draft.Vitals,
		Gender:      draft.Gender,
	}

	if rec.PatientName == "" {
		rec.PatientName = model.AnonymousPatientName
	}
	if draft.Age.Valid {
		rec.Age = draft.Age.Years
	}

	return rec, nil
}
