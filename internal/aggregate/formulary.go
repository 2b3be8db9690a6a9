// Package aggregate holds the pure merge functions that fold a
// normalized case into the cumulative formulary and pathology index.
// Merges never mutate their inputs; each call returns a fresh slice.
package aggregate

import (
	"strings"
	"time"

	"github.com/jwalitptl/medintern-api/internal/model"
)

// MergeFormulary folds the case's medication mentions into the drug
// list. Entries are keyed by lower-cased name; the display name keeps
// the casing of the first sighting. Variations are stratified by the
// case's age group and deduplicated on the exact (dosage,
// presentation) pair. Mentions without a name cannot be keyed and are
// skipped.
func MergeFormulary(existing []model.MedicationEntry, rec *model.CaseRecord, now time.Time) []model.MedicationEntry {
	merged := make([]model.MedicationEntry, 0, len(existing))
	index := make(map[string]int, len(existing))
	for i, entry := range existing {
		merged = append(merged, entry.Clone())
		index[strings.ToLower(entry.Name)] = i
	}

	for _, mention := range rec.Medications {
		if mention.Name == "" {
			continue
		}

		variation := model.MedicationVariation{
			Dosage:       orUnspecified(mention.Dose),
			Presentation: orUnspecified(mention.Presentation),
			DetectedAt:   now,
			PatientAge:   rec.Age,
		}

		key := strings.ToLower(mention.Name)
		i, ok := index[key]
		if !ok {
			entry := model.MedicationEntry{
				Name:                mention.Name,
				Family:              orDefaultFamily(mention.Family),
				Subfamily:           mention.Subfamily,
				AddedAt:             now,
				AdultVariations:     []model.MedicationVariation{},
				PediatricVariations: []model.MedicationVariation{},
			}
			if rec.IsPediatric() {
				entry.PediatricVariations = append(entry.PediatricVariations, variation)
			} else {
				entry.AdultVariations = append(entry.AdultVariations, variation)
			}
			merged = append(merged, entry)
			index[key] = len(merged) - 1
			continue
		}

		entry := &merged[i]
		if rec.IsPediatric() {
			entry.PediatricVariations = appendVariation(entry.PediatricVariations, variation)
		} else {
			entry.AdultVariations = appendVariation(entry.AdultVariations, variation)
		}

		// Classification backfill is one-directional: once set it is
		// never overwritten by later cases.
		if entry.Family == "" {
			entry.Family = orDefaultFamily(mention.Family)
		}
		if entry.Subfamily == "" {
			entry.Subfamily = mention.Subfamily
		}
	}

	return merged
}

func appendVariation(list []model.MedicationVariation, v model.MedicationVariation) []model.MedicationVariation {
	for _, have := range list {
		if have.Dosage == v.Dosage && have.Presentation == v.Presentation {
			return list
		}
	}
	return append(list, v)
}

func orUnspecified(s string) string {
	if s == "" {
		return model.UnspecifiedVariationField
	}
	return s
}

func orDefaultFamily(s string) string {
	if s == "" {
		return model.DefaultMedicationFamily
	}
	return s
}
