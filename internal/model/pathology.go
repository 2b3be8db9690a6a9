package model

// PathologyEntry is one diagnosis in the pathology index. Identity is
// the lower-cased name; Frequency counts sightings across ingested
// cases.
type PathologyEntry struct {
	Name        string `json:"name"`
	Frequency   int    `json:"frequency"`
	Description string `json:"description,omitempty"`
	Treatment   string `json:"treatment,omitempty"`
}

// PathologyPatch carries the manually editable fields of an entry.
type PathologyPatch struct {
	Description string `json:"description,omitempty"`
	Treatment   string `json:"treatment,omitempty"`
}

// DiagnosisCount is one row of the insights ranking.
type DiagnosisCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
