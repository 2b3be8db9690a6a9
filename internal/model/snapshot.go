package model

// Snapshot is the combined value of the three collections at one point
// in time. It is always persisted and restored as a unit: a reader
// must never observe one collection updated without the others.
type Snapshot struct {
	Cases       []CaseRecord      `json:"cases"`
	Medications []MedicationEntry `json:"medications"`
	Pathologies []PathologyEntry  `json:"pathologies"`
}

// NewSnapshot returns an empty snapshot with non-nil collections.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Cases:       []CaseRecord{},
		Medications: []MedicationEntry{},
		Pathologies: []PathologyEntry{},
	}
}

// Clone deep-copies the snapshot so an ingestion can build the next
// state without mutating the current one.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Cases:       append([]CaseRecord(nil), s.Cases...),
		Medications: make([]MedicationEntry, 0, len(s.Medications)),
		Pathologies: append([]PathologyEntry(nil), s.Pathologies...),
	}
	for _, med := range s.Medications {
		out.Medications = append(out.Medications, med.Clone())
	}
	return out
}

// Backup is the export/import document. Key names match the backup
// files produced by earlier releases.
type Backup struct {
	Cases       []CaseRecord      `json:"cases"`
	Medications []MedicationEntry `json:"meds"`
	Pathologies []PathologyEntry  `json:"paths"`
}
