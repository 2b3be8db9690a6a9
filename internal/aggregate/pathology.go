package aggregate

import (
	"strings"

	"github.com/jwalitptl/medintern-api/internal/model"
)

// MergePathologies folds the case's diagnosis labels into the
// pathology index. Matching is case-insensitive; the stored name keeps
// the casing of the first sighting. A label repeated within the same
// case increments the frequency once per occurrence, matching the
// counting behavior the index has always had.
func MergePathologies(existing []model.PathologyEntry, rec *model.CaseRecord) []model.PathologyEntry {
	merged := append([]model.PathologyEntry{}, existing...)
	index := make(map[string]int, len(merged))
	for i, entry := range merged {
		index[strings.ToLower(entry.Name)] = i
	}

	for _, label := range rec.Diagnosis {
		key := strings.ToLower(label)
		if i, ok := index[key]; ok {
			merged[i].Frequency++
			continue
		}
		merged = append(merged, model.PathologyEntry{Name: label, Frequency: 1})
		index[key] = len(merged) - 1
	}

	return merged
}
