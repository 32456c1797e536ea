package summary

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/edpulse/edpulse-cli/internal/columns"
	"github.com/edpulse/edpulse-cli/internal/normalize"
	"github.com/edpulse/edpulse-cli/internal/schema"
)

func fptr(v float64) *float64 { return &v }

func approx(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s = nil, want %v", name, want)
	}
	if math.Abs(*got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, *got, want)
	}
}

func visit(day string, los *float64, disp string) schema.Record {
	return schema.Record{
		DateKey: day,
		Legacy: &schema.LegacyFields{
			Disposition: normalize.ParseDisposition(disp),
			LOSMinutes:  los,
		},
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}
	cases := []struct {
		name string
		p    float64
		want float64
	}{
		{"below zero clamps to min", -0.5, 10},
		{"zero is min", 0, 10},
		{"median interpolates", 0.5, 25},
		{"p90 interpolates", 0.9, 37},
		{"one is max", 1, 40},
		{"above one clamps to max", 1.5, 40},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Percentile(sorted, tc.p)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Percentile(%v) = %v, want %v", tc.p, got, tc.want)
			}
		})
	}

	if got := Percentile([]float64{42}, 0.9); got != 42 {
		t.Errorf("single element = %v, want 42", got)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	out := Summarize(nil, schema.ModeLegacy, Options{})
	s := out.Summary
	if s.EntryCount != 0 || s.TotalPatients != 0 || s.DayCount != 0 {
		t.Errorf("counts = %d/%d/%d, want zeros", s.EntryCount, s.TotalPatients, s.DayCount)
	}
	if s.AvgLOSMinutes != nil || s.MedianLOSMinutes != nil || s.TaktTimeMinutes != nil {
		t.Error("averages must stay nil with no samples, not zero")
	}
	if len(out.Dispositions) != 0 || len(out.Daily) != 0 {
		t.Error("empty input must yield empty series")
	}
}

func TestSummarizeLegacyEndToEnd(t *testing.T) {
	csv := "Date,Arrival,Departure,Disposition\n" +
		"2024-01-01,08:00,10:00,Discharged\n" +
		"2024-01-01,09:00,17:00,Hospitalized\n"
	tables, err := columns.DefaultTables()
	if err != nil {
		t.Fatal(err)
	}
	ds, _, err := schema.Parse([]byte(csv), tables, 0)
	if err != nil {
		t.Fatal(err)
	}
	out := Summarize(ds.Records, ds.Mode, Options{})
	s := out.Summary

	if s.Mode != schema.ModeLegacy {
		t.Errorf("mode = %s", s.Mode)
	}
	if s.TotalPatients != 2 || s.DayCount != 1 {
		t.Errorf("patients/days = %d/%d, want 2/1", s.TotalPatients, s.DayCount)
	}
	approx(t, "avgPatientsPerDay", s.AvgPatientsPerDay, 2)
	approx(t, "avgLOSMinutes", s.AvgLOSMinutes, 300)
	approx(t, "avgLOSHospitalized", s.AvgLOSHospitalizedMinutes, 480)
	if s.HospitalizedCount != 1 || s.DischargedCount != 1 {
		t.Errorf("hosp/discharged = %d/%d", s.HospitalizedCount, s.DischargedCount)
	}
	approx(t, "hospitalizedShare", s.HospitalizedShare, 0.5)
	approx(t, "dischargedShare", s.DischargedShare, 0.5)

	approx(t, "medianLOS", s.MedianLOSMinutes, 300)
	approx(t, "p90LOS", s.P90LOSMinutes, 444)
	approx(t, "losVariability", s.LOSVariabilityIndex, 444.0/300)
	approx(t, "taktTime", s.TaktTimeMinutes, 720)

	if s.PeakArrivalHoursText != "08:00, 09:00" {
		t.Errorf("peakArrivals = %q", s.PeakArrivalHoursText)
	}
	if s.PeakDepartureHoursText != "10:00, 17:00" {
		t.Errorf("peakDepartures = %q", s.PeakDepartureHoursText)
	}
	if s.FlowRiskNote != "arrival and departure peaks diverge: possible boarding pressure" {
		t.Errorf("flowRiskNote = %q", s.FlowRiskNote)
	}

	if s.MonthKey != "2024-01" || s.MonthPatients != 2 {
		t.Errorf("month = %q/%d", s.MonthKey, s.MonthPatients)
	}
	approx(t, "monthAvgLOS", s.MonthAvgLOSMinutes, 300)

	wantOrder := []string{"Discharged", "Hospitalized"}
	if len(out.Dispositions) != 2 {
		t.Fatalf("dispositions = %d entries", len(out.Dispositions))
	}
	for i, want := range wantOrder {
		if out.Dispositions[i].Label != want {
			t.Errorf("dispositions[%d] = %q, want %q", i, out.Dispositions[i].Label, want)
		}
	}
	if len(out.Daily) != 1 || out.Daily[0].Patients != 2 {
		t.Errorf("daily = %+v", out.Daily)
	}
}

func TestSyntheticKeysExcludedFromVisits(t *testing.T) {
	records := []schema.Record{
		visit("2024-01-01", fptr(100), "Discharged"),
		{DateKey: "snapshot-001", Snapshot: &schema.SnapshotFields{CurrentPatients: fptr(5)}},
	}
	out := Summarize(records, schema.ModeLegacy, Options{})
	if out.Summary.TotalPatients != 1 {
		t.Errorf("totalPatients = %d, want 1 (synthetic keys are not visits)", out.Summary.TotalPatients)
	}
	if out.Summary.EntryCount != 2 {
		t.Errorf("entryCount = %d, want 2", out.Summary.EntryCount)
	}
}

func TestDispositionRanking(t *testing.T) {
	records := []schema.Record{
		visit("2024-01-01", nil, "Discharged"),
		visit("2024-01-01", nil, "Hazaengedve"),
		visit("2024-01-01", nil, "Admitted to ward"),
		visit("2024-01-01", nil, "Felvéve"),
		visit("2024-01-02", nil, "Transfer to cardiology"),
	}
	out := Summarize(records, schema.ModeLegacy, Options{})
	got := make([]string, len(out.Dispositions))
	for i, e := range out.Dispositions {
		got[i] = e.Label
	}
	// Two-way tie on count resolves alphabetically.
	want := []string{"Discharged", "Hospitalized", "Transferred"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ranking = %v, want %v", got, want)
	}
	approx(t, "top share", out.Dispositions[0].Share, 0.4)
}

func TestZeroLOSHandling(t *testing.T) {
	records := []schema.Record{
		visit("2024-01-01", fptr(0), "Discharged"),
		visit("2024-01-01", fptr(200), "Discharged"),
		visit("2024-01-01", fptr(400), "Discharged"),
	}
	out := Summarize(records, schema.ModeLegacy, Options{})
	// Median prefers the strictly positive values.
	approx(t, "medianLOS", out.Summary.MedianLOSMinutes, 300)

	allZero := []schema.Record{
		visit("2024-01-01", fptr(0), "Discharged"),
	}
	out = Summarize(allZero, schema.ModeLegacy, Options{})
	approx(t, "all-zero medianLOS", out.Summary.MedianLOSMinutes, 0)
	if out.Summary.LOSVariabilityIndex != nil {
		t.Error("variability must stay nil when median is zero")
	}
}

func TestMonthAndYearMetrics(t *testing.T) {
	records := []schema.Record{
		visit("2023-12-30", fptr(999), "Discharged"),
		visit("2024-01-10", fptr(100), "Hospitalized"),
		visit("2024-01-11", fptr(200), "Discharged"),
		visit("2024-02-05", fptr(300), "Hospitalized"),
	}
	out := Summarize(records, schema.ModeLegacy, Options{})
	s := out.Summary
	if s.MonthKey != "2024-02" {
		t.Fatalf("monthKey = %q, want 2024-02", s.MonthKey)
	}
	if s.MonthPatients != 1 {
		t.Errorf("monthPatients = %d, want 1", s.MonthPatients)
	}
	approx(t, "monthAvgLOS", s.MonthAvgLOSMinutes, 300)
	approx(t, "monthHospShare", s.MonthHospitalizedShare, 1)
	if s.YearPatients != 3 {
		t.Errorf("yearPatients = %d, want 3 (2023 excluded)", s.YearPatients)
	}
	approx(t, "yearAvgLOS", s.YearAvgLOSMinutes, 200)
	approx(t, "yearHospShare", s.YearHospitalizedShare, 2.0/3)
}

func TestTrendWindows(t *testing.T) {
	records := []schema.Record{
		visit("2024-01-01", fptr(100), "Discharged"),
		visit("2024-01-02", fptr(600), "Discharged"),
		visit("2024-01-03", fptr(100), "Discharged"),
		visit("2024-01-04", fptr(100), "Discharged"),
	}
	out := Summarize(records, schema.ModeLegacy, Options{TrendWindowDays: 2})
	s := out.Summary

	approx(t, "fastTrackShare", s.FastTrackShare, 1)
	approx(t, "slowLaneShare", s.SlowLaneShare, 0)
	approx(t, "fastTrendDelta", s.FastTrackTrendDelta, 0.5)
	approx(t, "slowTrendDelta", s.SlowLaneTrendDelta, -0.5)
	if s.FastSlowSplitText != "fast 100% / slow 0% (last 2 days)" {
		t.Errorf("splitText = %q", s.FastSlowSplitText)
	}
}

func TestTrendDeltasNeedBothWindows(t *testing.T) {
	records := []schema.Record{
		visit("2024-01-01", fptr(100), "Discharged"),
		visit("2024-01-02", fptr(100), "Discharged"),
	}
	out := Summarize(records, schema.ModeLegacy, Options{TrendWindowDays: 30})
	s := out.Summary
	if s.FastTrackShare == nil {
		t.Fatal("fastTrackShare missing")
	}
	if s.FastTrackTrendDelta != nil || s.SlowLaneTrendDelta != nil {
		t.Error("deltas must stay nil without a preceding window")
	}
}

func TestSummarizeSnapshot(t *testing.T) {
	ts := func(hour int) *time.Time {
		v := time.Date(2024, 1, 1, hour, 0, 0, 0, time.UTC)
		return &v
	}
	records := []schema.Record{
		{
			DateKey: "2024-01-01", Timestamp: ts(8),
			Snapshot: &schema.SnapshotFields{
				CurrentPatients: fptr(10),
				Categories:      map[int]float64{1: 2, 2: 2},
			},
		},
		{
			DateKey: "2024-01-01", Timestamp: ts(12),
			Snapshot: &schema.SnapshotFields{
				CurrentPatients: fptr(14),
				OccupiedBeds:    fptr(9),
				NurseRatio:      normalize.Ratio{Value: fptr(0.25), Text: "1:4"},
				Categories:      map[int]float64{1: 1, 2: 3},
			},
		},
		{
			DateKey:  "snapshot-001",
			Snapshot: &schema.SnapshotFields{CurrentPatients: fptr(20)},
		},
	}
	out := Summarize(records, schema.ModeSnapshot, Options{})
	s := out.Summary

	if s.SnapshotDayCount != 2 {
		t.Errorf("snapshotDayCount = %d, want 2", s.SnapshotDayCount)
	}
	if s.LatestSnapshotKey != "2024-01-01" {
		t.Errorf("latestKey = %q, real dates must beat synthetic keys", s.LatestSnapshotKey)
	}
	approx(t, "currentPatients", s.CurrentPatients, 12)
	approx(t, "occupiedBeds", s.OccupiedBeds, 9)
	approx(t, "nurseRatio", s.NurseRatio, 0.25)
	if s.NurseRatioText != "1:4" {
		t.Errorf("nurseRatioText = %q", s.NurseRatioText)
	}

	if len(out.Daily) != 2 || out.Daily[0].DateKey != "2024-01-01" {
		t.Fatalf("daily = %+v", out.Daily)
	}
	approx(t, "daily avgCurrentPatients", out.Daily[0].AvgCurrentPatients, 12)
	approx(t, "synthetic day patients", out.Daily[1].AvgCurrentPatients, 20)

	// Triage comes from the latest timestamped record, not a day mean.
	if len(out.Dispositions) != 2 {
		t.Fatalf("triage entries = %d", len(out.Dispositions))
	}
	if out.Dispositions[0].Label != "Triage 1" || out.Dispositions[0].Count != 1 {
		t.Errorf("triage[0] = %+v", out.Dispositions[0])
	}
	approx(t, "triage 2 share", out.Dispositions[1].Share, 0.75)
	if out.Dispositions[1].CategoryKey != "triage_2" {
		t.Errorf("categoryKey = %q", out.Dispositions[1].CategoryKey)
	}
}

func TestSnapshotSyntheticOnlyFallback(t *testing.T) {
	records := []schema.Record{
		{DateKey: "snapshot-001", Snapshot: &schema.SnapshotFields{CurrentPatients: fptr(8)}},
		{DateKey: "snapshot-002", Snapshot: &schema.SnapshotFields{CurrentPatients: fptr(12)}},
	}
	out := Summarize(records, schema.ModeSnapshot, Options{})
	if out.Summary.LatestSnapshotKey != "snapshot-002" {
		t.Errorf("latestKey = %q, want snapshot-002", out.Summary.LatestSnapshotKey)
	}
	approx(t, "currentPatients", out.Summary.CurrentPatients, 12)
}

func TestHybridOverlay(t *testing.T) {
	records := []schema.Record{
		visit("2024-01-01", fptr(240), "Hospitalized"),
		{
			DateKey:  "2024-01-02",
			Snapshot: &schema.SnapshotFields{CurrentPatients: fptr(11), OccupiedBeds: fptr(7)},
		},
	}
	out := Summarize(records, schema.ModeHybrid, Options{})
	s := out.Summary
	if s.Mode != schema.ModeHybrid {
		t.Errorf("mode = %s", s.Mode)
	}
	approx(t, "avgLOS (legacy side kept)", s.AvgLOSMinutes, 240)
	approx(t, "currentPatients (snapshot wins)", s.CurrentPatients, 11)
	approx(t, "occupiedBeds", s.OccupiedBeds, 7)
	if s.LatestSnapshotKey != "2024-01-02" {
		t.Errorf("latestSnapshotKey = %q", s.LatestSnapshotKey)
	}
	// The snapshot daily series replaces the legacy one when present.
	if len(out.Daily) != 1 || out.Daily[0].DateKey != "2024-01-02" {
		t.Errorf("daily = %+v, want the snapshot series", out.Daily)
	}
	approx(t, "daily avgCurrentPatients", out.Daily[0].AvgCurrentPatients, 11)
}

func TestHybridDegradesWithoutStateMetrics(t *testing.T) {
	records := []schema.Record{
		visit("2024-01-01", fptr(240), "Hospitalized"),
		{
			DateKey:  "2024-01-02",
			Snapshot: &schema.SnapshotFields{Categories: map[int]float64{1: 3}},
		},
	}
	out := Summarize(records, schema.ModeHybrid, Options{})
	s := out.Summary
	if s.Mode != schema.ModeHybrid {
		t.Errorf("mode = %s, mode stays hybrid even when degraded", s.Mode)
	}
	if s.CurrentPatients != nil || s.OccupiedBeds != nil {
		t.Error("state metrics must stay nil when the snapshot side is noise")
	}
	if len(out.Dispositions) == 0 || out.Dispositions[0].Label == "Triage 1" {
		t.Errorf("dispositions = %+v, want legacy ranking", out.Dispositions)
	}
}

func TestSummarizeIsPure(t *testing.T) {
	records := []schema.Record{
		visit("2024-01-01", fptr(100), "Discharged"),
		visit("2024-01-02", fptr(500), "Hospitalized"),
		{
			DateKey:  "2024-01-02",
			Snapshot: &schema.SnapshotFields{CurrentPatients: fptr(9), Categories: map[int]float64{1: 2, 3: 4}},
		},
	}
	first := Summarize(records, schema.ModeHybrid, Options{})
	second := Summarize(records, schema.ModeHybrid, Options{})
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated summarization of the same records diverged")
	}
}
