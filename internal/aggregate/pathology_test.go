package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medintern-api/internal/model"
)

func caseWithDiagnosis(labels ...string) *model.CaseRecord {
	return &model.CaseRecord{Diagnosis: labels}
}

func TestMergePathologiesCreatesEntries(t *testing.T) {
	merged := MergePathologies(nil, caseWithDiagnosis("Asma", "Rinitis"))

	require.Len(t, merged, 2)
	assert.Equal(t, model.PathologyEntry{Name: "Asma", Frequency: 1}, merged[0])
	assert.Equal(t, model.PathologyEntry{Name: "Rinitis", Frequency: 1}, merged[1])
}

func TestMergePathologiesAccumulatesAcrossCases(t *testing.T) {
	var merged []model.PathologyEntry
	for i := 0; i < 3; i++ {
		merged = MergePathologies(merged, caseWithDiagnosis("Hipertensión"))
	}

	require.Len(t, merged, 1)
	assert.Equal(t, 3, merged[0].Frequency)
}

func TestMergePathologiesCaseInsensitiveIdentity(t *testing.T) {
	merged := MergePathologies(nil, caseWithDiagnosis("Asma"))
	merged = MergePathologies(merged, caseWithDiagnosis("ASMA"))

	require.Len(t, merged, 1)
	assert.Equal(t, "Asma", merged[0].Name, "display name keeps first-seen casing")
	assert.Equal(t, 2, merged[0].Frequency)
}

func TestMergePathologiesCountsDuplicateLabelsWithinOneCase(t *testing.T) {
	// A label repeated in a single case's diagnosis list increments
	// the frequency once per occurrence. This over-counting is the
	// index's long-standing behavior and is kept on purpose.
	merged := MergePathologies(nil, caseWithDiagnosis("Asma", "asma"))

	require.Len(t, merged, 1)
	assert.Equal(t, 2, merged[0].Frequency)
}

func TestMergePathologiesKeepsAnnotations(t *testing.T) {
	existing := []model.PathologyEntry{{Name: "Asma", Frequency: 2, Description: "obstructiva", Treatment: "SABA"}}

	merged := MergePathologies(existing, caseWithDiagnosis("asma"))

	require.Len(t, merged, 1)
	assert.Equal(t, 3, merged[0].Frequency)
	assert.Equal(t, "obstructiva", merged[0].Description)
	assert.Equal(t, "SABA", merged[0].Treatment)
}

func TestMergePathologiesDoesNotMutateInput(t *testing.T) {
	existing := []model.PathologyEntry{{Name: "Asma", Frequency: 1}}

	MergePathologies(existing, caseWithDiagnosis("Asma"))

	assert.Equal(t, 1, existing[0].Frequency)
}
