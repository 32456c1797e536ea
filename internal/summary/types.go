// Package summary folds canonical ED records into the statistics the
// dashboard renders: totals, averages, percentiles, peak windows, and
// rolling trend deltas. Every computed ratio or average is nil when its
// sample count is zero; numbers are never silently coerced to zero.
package summary

import (
	"github.com/edpulse/edpulse-cli/internal/schema"
)

// Summary is the externally consumed result. It is rebuilt from scratch
// on every call and not mutated after return. Pointer fields are nil
// when the underlying statistic had no samples.
type Summary struct {
	Mode schema.Mode

	// Totals.
	EntryCount        int
	TotalPatients     int
	DayCount          int
	AvgPatientsPerDay *float64

	// Visit duration averages (minutes).
	AvgLOSMinutes             *float64
	AvgLOSHospitalizedMinutes *float64
	AvgDoorToProviderMinutes  *float64
	AvgDecisionToLeaveMinutes *float64
	AvgLabMinutes             *float64

	// Disposition category totals and shares.
	HospitalizedCount int
	DischargedCount   int
	TransferCount     int
	LeftCount         int
	OtherCount        int
	UnknownCount      int
	HospitalizedShare *float64
	DischargedShare   *float64
	LeftShare         *float64

	// Latest observed month and its year, relative to the data.
	MonthKey               string
	MonthPatients          int
	MonthAvgLOSMinutes     *float64
	MonthHospitalizedShare *float64
	MonthAvgLabMinutes     *float64
	YearPatients           int
	YearAvgLOSMinutes      *float64
	YearHospitalizedShare  *float64

	// Peak windows and flow pressure.
	PeakArrivalHoursText   string
	PeakDepartureHoursText string
	FlowRiskNote           string

	TaktTimeMinutes *float64

	// LOS distribution.
	MedianLOSMinutes    *float64
	P90LOSMinutes       *float64
	LOSVariabilityIndex *float64

	// Fast/slow lane split over the trailing trend window.
	FastTrackShare      *float64
	SlowLaneShare       *float64
	FastTrackTrendDelta *float64
	SlowLaneTrendDelta  *float64
	FastSlowSplitText   string

	// Department state (snapshot schema).
	CurrentPatients    *float64
	OccupiedBeds       *float64
	NurseRatio         *float64
	NurseRatioText     string
	DoctorRatio        *float64
	DoctorRatioText    string
	SnapshotLabMinutes *float64
	SnapshotDayCount   int
	LatestSnapshotKey  string
}

// DispositionEntry is one row of the ranked disposition (or triage
// distribution) breakdown. Derived, read-only, recomputed every call.
type DispositionEntry struct {
	Label       string
	Count       float64
	Share       *float64
	Category    string // legacy disposition category
	CategoryKey string // snapshot triage key, e.g. "triage_3"
}

// DailyStat is one point of the per-day series. Legacy exports populate
// the visit fields, snapshot exports the state fields.
type DailyStat struct {
	DateKey string

	Patients                 int
	AvgLOSMinutes            *float64
	AvgDoorToProviderMinutes *float64
	AvgLabMinutes            *float64
	FastCount                int
	SlowCount                int

	AvgCurrentPatients *float64
	AvgOccupiedBeds    *float64
	AvgNurseRatio      *float64
	AvgDoctorRatio     *float64
	AvgLabStateMinutes *float64
}

// Output bundles everything one summarization call produces.
type Output struct {
	Summary      Summary
	Dispositions []DispositionEntry
	Daily        []DailyStat
}

// Options tune the derived statistics.
type Options struct {
	// TrendWindowDays is the trailing window length for the fast/slow
	// lane trend. Values below 1 fall back to the default of 30.
	TrendWindowDays int
}

const defaultTrendWindowDays = 30

func (o Options) windowDays() int {
	if o.TrendWindowDays < 1 {
		return defaultTrendWindowDays
	}
	return o.TrendWindowDays
}

// Thresholds for the fast/slow lane split, in minutes.
const (
	fastTrackMaxMinutes = 120
	slowLaneMinMinutes  = 480
)

func ptr(v float64) *float64 { return &v }

// mean returns nil for an empty sample set, never 0 or NaN.
func mean(sum float64, count int) *float64 {
	if count == 0 {
		return nil
	}
	return ptr(sum / float64(count))
}

// share returns part/total, nil when total is zero.
func share(part float64, total float64) *float64 {
	if total == 0 {
		return nil
	}
	return ptr(part / total)
}
