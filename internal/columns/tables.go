package columns

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed synonyms.yaml
var embeddedSynonyms []byte

// Canonical field keys for the two schemas.
const (
	FieldDate            = "date"
	FieldArrival         = "arrival"
	FieldDeparture       = "departure"
	FieldDisposition     = "disposition"
	FieldLOS             = "los"
	FieldDoorToProvider  = "door_to_provider"
	FieldDecisionToLeave = "decision_to_leave"
	FieldLab             = "lab"

	FieldTimestamp       = "timestamp"
	FieldCurrentPatients = "current_patients"
	FieldOccupiedBeds    = "occupied_beds"
	FieldNurseRatio      = "nurse_ratio"
	FieldDoctorRatio     = "doctor_ratio"
	FieldLabMinutes      = "lab_minutes"
)

// TriageFields lists the snapshot triage-count fields in level order.
var TriageFields = []string{"triage_1", "triage_2", "triage_3", "triage_4", "triage_5"}

// Tables holds the candidate-name lists per canonical field. It is a
// versioned configuration artifact: synonyms ship embedded and can be
// extended from a file without touching the resolver.
type Tables struct {
	Version  int                 `yaml:"version"`
	Legacy   map[string][]string `yaml:"legacy"`
	Snapshot map[string][]string `yaml:"snapshot"`
}

// DefaultTables returns the embedded synonym tables.
func DefaultTables() (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(embeddedSynonyms, &t); err != nil {
		return nil, fmt.Errorf("parse embedded synonyms: %w", err)
	}
	return &t, nil
}

// LoadTables returns the embedded tables, extended with synonyms from
// overridePath when it is non-empty. File entries are appended after the
// embedded ones so the shipped (more precisely curated) names keep
// priority; unknown field keys in the file introduce new fields.
func LoadTables(overridePath string) (*Tables, error) {
	t, err := DefaultTables()
	if err != nil {
		return nil, err
	}
	if overridePath == "" {
		return t, nil
	}
	data, err := os.ReadFile(overridePath)
	if err != nil {
		return nil, fmt.Errorf("read synonyms file: %w", err)
	}
	var extra Tables
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("parse synonyms file %s: %w", overridePath, err)
	}
	mergeFieldLists(t.Legacy, extra.Legacy)
	mergeFieldLists(t.Snapshot, extra.Snapshot)
	if extra.Version > t.Version {
		t.Version = extra.Version
	}
	return t, nil
}

func mergeFieldLists(base, extra map[string][]string) {
	for field, names := range extra {
		base[field] = append(base[field], names...)
	}
}
