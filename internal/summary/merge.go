package summary

import (
	"github.com/edpulse/edpulse-cli/internal/schema"
)

// Summarize runs the summarizer(s) matching the detected schema mode.
// Legacy and snapshot modes return their summarizer's output verbatim;
// hybrid overlays snapshot state metrics onto the legacy summary when
// the snapshot side produced any, and otherwise degrades to the legacy
// result in full. Zero records yield a fully nil/zero summary, never an
// error.
func Summarize(records []schema.Record, mode schema.Mode, opts Options) Output {
	switch mode {
	case schema.ModeSnapshot:
		return summarizeSnapshot(records, opts)
	case schema.ModeHybrid:
		return mergeHybrid(summarizeLegacy(records, opts), summarizeSnapshot(records, opts))
	default:
		return summarizeLegacy(records, opts)
	}
}

// hasStateMetrics reports whether the snapshot summary carries any of
// the four headline state fields. When it carries none, the snapshot
// side of a hybrid dataset is treated as noise.
func hasStateMetrics(s Summary) bool {
	return s.CurrentPatients != nil || s.OccupiedBeds != nil ||
		s.NurseRatio != nil || s.DoctorRatio != nil
}

// mergeHybrid overlays snapshot fields on the legacy summary; snapshot
// wins on overlap. The snapshot disposition and daily series are
// preferred when non-empty.
func mergeHybrid(legacy, snap Output) Output {
	legacy.Summary.Mode = schema.ModeHybrid
	if !hasStateMetrics(snap.Summary) {
		return legacy
	}

	merged := legacy
	s := &merged.Summary
	s.CurrentPatients = snap.Summary.CurrentPatients
	s.OccupiedBeds = snap.Summary.OccupiedBeds
	s.NurseRatio = snap.Summary.NurseRatio
	s.NurseRatioText = snap.Summary.NurseRatioText
	s.DoctorRatio = snap.Summary.DoctorRatio
	s.DoctorRatioText = snap.Summary.DoctorRatioText
	s.SnapshotLabMinutes = snap.Summary.SnapshotLabMinutes
	s.SnapshotDayCount = snap.Summary.SnapshotDayCount
	s.LatestSnapshotKey = snap.Summary.LatestSnapshotKey

	if len(snap.Dispositions) > 0 {
		merged.Dispositions = snap.Dispositions
	}
	if len(snap.Daily) > 0 {
		merged.Daily = snap.Daily
	}
	return merged
}
