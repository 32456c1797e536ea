// Package schema classifies a raw ED export as legacy (per-visit rows),
// snapshot (department-state rows), or a hybrid of both, and builds one
// canonical record per usable data row.
package schema

import (
	"time"

	"github.com/edpulse/edpulse-cli/internal/normalize"
)

// Mode is the detected dataset shape.
type Mode string

const (
	ModeLegacy   Mode = "legacy"
	ModeSnapshot Mode = "snapshot"
	ModeHybrid   Mode = "hybrid"
)

// Record is one canonical row. Exactly the sub-structs whose schema
// columns were present in the export are populated, so "which fields are
// valid together" is visible in the type rather than a bag of nils.
type Record struct {
	// DateKey is YYYY-MM-DD, or a synthetic snapshot-NNN placeholder when
	// a snapshot-shaped row carries no resolvable date. Never empty.
	DateKey      string
	Timestamp    *time.Time
	RawTimestamp string

	Legacy   *LegacyFields
	Snapshot *SnapshotFields
}

// LegacyFields carries the visit-level measurements of a legacy row.
// Durations are minutes; nil means the cell was absent or unparseable.
type LegacyFields struct {
	Disposition            normalize.Disposition
	LOSMinutes             *float64
	DoorToProviderMinutes  *float64
	DecisionToLeaveMinutes *float64
	LabMinutes             *float64
	ArrivalHour            *int
	DepartureHour          *int
}

// SnapshotFields carries the department-state measurements of a
// snapshot row.
type SnapshotFields struct {
	CurrentPatients *float64
	OccupiedBeds    *float64
	NurseRatio      normalize.Ratio
	DoctorRatio     normalize.Ratio
	LabMinutes      *float64
	// Categories maps triage level (1-5) to a patient count.
	Categories map[int]float64
}

// HasValues reports whether any state metric or triage count is present.
func (s *SnapshotFields) HasValues() bool {
	if s == nil {
		return false
	}
	return s.CurrentPatients != nil || s.OccupiedBeds != nil ||
		s.NurseRatio.Value != nil || s.DoctorRatio.Value != nil ||
		s.LabMinutes != nil || len(s.Categories) > 0
}

// HasValues reports whether any visit-level measurement is present.
// An unclassified (unknown) disposition alone does not count.
func (l *LegacyFields) HasValues() bool {
	if l == nil {
		return false
	}
	return l.LOSMinutes != nil || l.DoorToProviderMinutes != nil ||
		l.DecisionToLeaveMinutes != nil || l.LabMinutes != nil ||
		l.ArrivalHour != nil || l.DepartureHour != nil ||
		l.Disposition.Category != normalize.CategoryUnknown
}
