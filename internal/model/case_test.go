package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosisListAcceptsArrayAndCommaString(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"array", `["Asma","HTA"]`, []string{"Asma", "HTA"}},
		{"comma string", `"Asma, HTA , Diabetes"`, []string{"Asma", "HTA", "Diabetes"}},
		{"empty items dropped", `"Asma,,  ,HTA"`, []string{"Asma", "HTA"}},
		{"null", `null`, nil},
		{"wrong type tolerated", `42`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var list DiagnosisList
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &list))
			assert.Equal(t, tt.want, []string(list))
		})
	}
}

func TestFlexibleAgeAcceptsNumberAndNumericString(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantYears int
		wantValid bool
	}{
		{"number", `42`, 42, true},
		{"float truncated", `42.7`, 42, true},
		{"numeric string", `"8"`, 8, true},
		{"padded string", `" 8 "`, 8, true},
		{"garbage string", `"ocho"`, 0, false},
		{"null", `null`, 0, false},
		{"wrong type tolerated", `[8]`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var age FlexibleAge
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &age))
			assert.Equal(t, tt.wantValid, age.Valid)
			assert.Equal(t, tt.wantYears, age.Years)
		})
	}
}

func TestIsPediatricBoundary(t *testing.T) {
	assert.True(t, (&CaseRecord{Age: 10}).IsPediatric())
	assert.True(t, (&CaseRecord{Age: 14}).IsPediatric())
	assert.False(t, (&CaseRecord{Age: 15}).IsPediatric())
	assert.False(t, (&CaseRecord{Age: 40}).IsPediatric())
}

func TestSnapshotCloneIsIndependent(t *testing.T) {
	snap := &Snapshot{
		Cases: []CaseRecord{{PatientName: "Juan"}},
		Medications: []MedicationEntry{{
			Name:            "Salbutamol",
			AdultVariations: []MedicationVariation{{Dosage: "100mcg"}},
		}},
		Pathologies: []PathologyEntry{{Name: "Asma", Frequency: 1}},
	}

	clone := snap.Clone()
	clone.Medications[0].AdultVariations[0].Dosage = "200mcg"
	clone.Pathologies[0].Frequency = 99

	assert.Equal(t, "100mcg", snap.Medications[0].AdultVariations[0].Dosage)
	assert.Equal(t, 1, snap.Pathologies[0].Frequency)
}
