package schema

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/edpulse/edpulse-cli/internal/columns"
	"github.com/edpulse/edpulse-cli/internal/normalize"
)

// Dataset is the output of one parse run.
type Dataset struct {
	Mode    Mode
	Layout  Layout
	Records []Record
}

// Parse reads raw CSV bytes, detects the schema, and builds canonical
// records. counter seeds the synthetic snapshot-NNN key sequence and the
// advanced value is returned, so key numbering spans parse runs without
// package-level state. Structural problems (no header, no data rows) are
// errors; malformed individual rows are skipped.
func Parse(data []byte, tables *columns.Tables, counter int) (*Dataset, int, error) {
	data = bytes.TrimPrefix(data, []byte("\uFEFF"))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headerRow, err := reader.Read()
	if err != nil {
		return nil, counter, fmt.Errorf("export has no header row: %w", err)
	}
	if len(headerRow) == 0 || (len(headerRow) == 1 && strings.TrimSpace(headerRow[0]) == "") {
		return nil, counter, errors.New("export header row is empty")
	}

	layout, mode := Detect(headerRow, tables)

	ds := &Dataset{Mode: mode, Layout: layout}
	rowCount := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue // unparseable row: dropped, not repaired
		}
		rowCount++
		rec, next := buildRecord(row, layout, mode, counter)
		counter = next
		if rec != nil {
			ds.Records = append(ds.Records, *rec)
		}
	}
	if rowCount == 0 {
		return nil, counter, errors.New("export has no data rows")
	}
	return ds, counter, nil
}

// timePoint is one parsed arrival/departure cell: either an exact
// instant or a bare clock reading within an unknown day.
type timePoint struct {
	instant     *time.Time
	minuteOfDay *float64
	hour        *int
}

func parseTimePoint(cell string) timePoint {
	s := strings.TrimSpace(cell)
	if s == "" {
		return timePoint{}
	}
	if t, ok := normalize.Date(s); ok {
		mins := float64(t.Hour()*60 + t.Minute())
		h := t.Hour()
		return timePoint{instant: &t, minuteOfDay: &mins, hour: &h}
	}
	if v := normalize.DurationMinutes(s); v != nil {
		mins := *v
		h := int(mins/60) % 24
		if h < 0 {
			h = 0
		}
		return timePoint{minuteOfDay: &mins, hour: &h}
	}
	return timePoint{}
}

// nonNegative nils out negative duration readings; durations are
// minutes and a negative cell is a row anomaly, not a value.
func nonNegative(v *float64) *float64 {
	if v != nil && *v < 0 {
		return nil
	}
	return v
}

// lapMinutes is the departure minus arrival span. Both sides must be the
// same kind of reading, and negative spans are rejected.
func lapMinutes(arrival, departure timePoint) *float64 {
	if arrival.instant != nil && departure.instant != nil {
		diff := departure.instant.Sub(*arrival.instant).Minutes()
		if diff < 0 {
			return nil
		}
		return &diff
	}
	if arrival.minuteOfDay != nil && departure.minuteOfDay != nil {
		diff := *departure.minuteOfDay - *arrival.minuteOfDay
		if diff < 0 {
			return nil
		}
		return &diff
	}
	return nil
}

// buildRecord applies the row algorithm: resolve a date from the first
// column that yields one, compute visit durations, parse state metrics,
// then decide whether the row earns a record at all.
func buildRecord(row []string, layout Layout, mode Mode, counter int) (*Record, int) {
	cell := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	empty := true
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			empty = false
			break
		}
	}
	if empty {
		return nil, counter
	}

	rec := Record{}

	// Date resolution order: explicit date, arrival, departure, snapshot
	// timestamp. The first parse that succeeds wins.
	for _, idx := range []int{
		layout.legacyCol(columns.FieldDate),
		layout.legacyCol(columns.FieldArrival),
		layout.legacyCol(columns.FieldDeparture),
		layout.snapshotCol(columns.FieldTimestamp),
	} {
		raw := cell(idx)
		if raw == "" {
			continue
		}
		if t, ok := normalize.Date(raw); ok {
			rec.DateKey = normalize.DayKey(t)
			rec.Timestamp = &t
			rec.RawTimestamp = raw
			break
		}
	}

	arrival := parseTimePoint(cell(layout.legacyCol(columns.FieldArrival)))
	departure := parseTimePoint(cell(layout.legacyCol(columns.FieldDeparture)))

	legacy := &LegacyFields{
		Disposition:            normalize.ParseDisposition(cell(layout.legacyCol(columns.FieldDisposition))),
		DoorToProviderMinutes:  nonNegative(normalize.DurationMinutes(cell(layout.legacyCol(columns.FieldDoorToProvider)))),
		DecisionToLeaveMinutes: nonNegative(normalize.DurationMinutes(cell(layout.legacyCol(columns.FieldDecisionToLeave)))),
		LabMinutes:             nonNegative(normalize.DurationMinutes(cell(layout.legacyCol(columns.FieldLab)))),
		ArrivalHour:            arrival.hour,
		DepartureHour:          departure.hour,
	}
	legacy.LOSMinutes = nonNegative(normalize.DurationMinutes(cell(layout.legacyCol(columns.FieldLOS))))
	if legacy.LOSMinutes == nil {
		legacy.LOSMinutes = lapMinutes(arrival, departure)
	}

	snapshot := &SnapshotFields{
		CurrentPatients: normalize.Number(cell(layout.snapshotCol(columns.FieldCurrentPatients))),
		OccupiedBeds:    normalize.Number(cell(layout.snapshotCol(columns.FieldOccupiedBeds))),
		NurseRatio:      normalize.ParseRatio(cell(layout.snapshotCol(columns.FieldNurseRatio))),
		DoctorRatio:     normalize.ParseRatio(cell(layout.snapshotCol(columns.FieldDoctorRatio))),
		LabMinutes:      nonNegative(normalize.DurationMinutes(cell(layout.snapshotCol(columns.FieldLabMinutes)))),
	}
	for level, idx := range layout.Triage {
		if v := normalize.Number(cell(idx)); v != nil && *v >= 0 {
			if snapshot.Categories == nil {
				snapshot.Categories = make(map[int]float64)
			}
			snapshot.Categories[level] = *v
		}
	}

	// A snapshot dataset row with nothing structured is noise even when
	// it happens to contain a date.
	if mode == ModeSnapshot && !snapshot.HasValues() {
		return nil, counter
	}

	if rec.DateKey == "" {
		if snapshot.HasValues() {
			// State rows stay orderable under a synthetic key that is
			// never conflated with a real calendar day.
			counter++
			rec.DateKey = fmt.Sprintf("snapshot-%03d", counter)
		} else {
			// No date and no state values: in a legacy (or hybrid)
			// dataset this row is noise, not an anonymous snapshot.
			return nil, counter
		}
	}

	if mode != ModeSnapshot && legacy.HasValues() {
		rec.Legacy = legacy
	}
	if snapshot.HasValues() {
		rec.Snapshot = snapshot
	}
	return &rec, counter
}
