package summary

import (
	"fmt"
	"sort"

	"github.com/edpulse/edpulse-cli/internal/schema"
)

// snapshotBucket accumulates one day (real or synthetic) of state rows.
type snapshotBucket struct {
	patientsSum   float64
	patientsCount int
	bedsSum       float64
	bedsCount     int
	nurseSum      float64
	nurseCount    int
	nurseText     string
	doctorSum     float64
	doctorCount   int
	doctorText    string
	labSum        float64
	labCount      int
}

// summarizeSnapshot folds department-state records into per-day average
// series plus headline metrics from the most recent day. Triage counts
// are a point-in-time state, so the distribution comes from the single
// most recently timestamped record, not a day average.
func summarizeSnapshot(records []schema.Record, _ Options) Output {
	out := Output{Summary: Summary{Mode: schema.ModeSnapshot, EntryCount: len(records)}}

	buckets := make(map[string]*snapshotBucket)
	var latestTriage *schema.Record
	for i := range records {
		rec := &records[i]
		sf := rec.Snapshot
		if sf == nil {
			continue
		}
		b := buckets[rec.DateKey]
		if b == nil {
			b = &snapshotBucket{}
			buckets[rec.DateKey] = b
		}
		if sf.CurrentPatients != nil {
			b.patientsSum += *sf.CurrentPatients
			b.patientsCount++
		}
		if sf.OccupiedBeds != nil {
			b.bedsSum += *sf.OccupiedBeds
			b.bedsCount++
		}
		if sf.NurseRatio.Value != nil {
			b.nurseSum += *sf.NurseRatio.Value
			b.nurseCount++
			b.nurseText = sf.NurseRatio.Text
		}
		if sf.DoctorRatio.Value != nil {
			b.doctorSum += *sf.DoctorRatio.Value
			b.doctorCount++
			b.doctorText = sf.DoctorRatio.Text
		}
		if sf.LabMinutes != nil {
			b.labSum += *sf.LabMinutes
			b.labCount++
		}
		if len(sf.Categories) > 0 && isLaterSnapshot(latestTriage, rec) {
			latestTriage = rec
		}
	}
	if len(buckets) == 0 {
		return out
	}

	s := &out.Summary
	s.SnapshotDayCount = len(buckets)

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out.Daily = make([]DailyStat, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]
		out.Daily = append(out.Daily, DailyStat{
			DateKey:            key,
			AvgCurrentPatients: mean(b.patientsSum, b.patientsCount),
			AvgOccupiedBeds:    mean(b.bedsSum, b.bedsCount),
			AvgNurseRatio:      mean(b.nurseSum, b.nurseCount),
			AvgDoctorRatio:     mean(b.doctorSum, b.doctorCount),
			AvgLabStateMinutes: mean(b.labSum, b.labCount),
		})
	}

	latestKey := latestSnapshotKey(keys)
	s.LatestSnapshotKey = latestKey
	hb := buckets[latestKey]
	s.CurrentPatients = mean(hb.patientsSum, hb.patientsCount)
	s.OccupiedBeds = mean(hb.bedsSum, hb.bedsCount)
	s.NurseRatio = mean(hb.nurseSum, hb.nurseCount)
	s.NurseRatioText = hb.nurseText
	s.DoctorRatio = mean(hb.doctorSum, hb.doctorCount)
	s.DoctorRatioText = hb.doctorText
	s.SnapshotLabMinutes = mean(hb.labSum, hb.labCount)

	out.Dispositions = triageDistribution(latestTriage)
	return out
}

// latestSnapshotKey picks the headline day. Synthetic snapshot-NNN keys
// never outrank a real calendar date: the latest real date wins whenever
// one exists, and the highest synthetic key is only a fallback for
// datasets with no resolvable dates at all.
func latestSnapshotKey(sortedKeys []string) string {
	latestReal := ""
	for _, key := range sortedKeys {
		if dayKeyPattern.MatchString(key) {
			latestReal = key
		}
	}
	if latestReal != "" {
		return latestReal
	}
	return sortedKeys[len(sortedKeys)-1]
}

// isLaterSnapshot orders records by actual instant; records without a
// timestamp lose to timestamped ones and otherwise keep input order.
func isLaterSnapshot(current, candidate *schema.Record) bool {
	if current == nil {
		return true
	}
	if candidate.Timestamp == nil {
		return current.Timestamp == nil
	}
	if current.Timestamp == nil {
		return true
	}
	return !candidate.Timestamp.Before(*current.Timestamp)
}

// triageDistribution expands the latest triage counts into ranked
// entries with shares.
func triageDistribution(rec *schema.Record) []DispositionEntry {
	if rec == nil || rec.Snapshot == nil || len(rec.Snapshot.Categories) == 0 {
		return nil
	}
	var total float64
	for _, count := range rec.Snapshot.Categories {
		total += count
	}
	levels := make([]int, 0, len(rec.Snapshot.Categories))
	for level := range rec.Snapshot.Categories {
		levels = append(levels, level)
	}
	sort.Ints(levels)

	entries := make([]DispositionEntry, 0, len(levels))
	for _, level := range levels {
		count := rec.Snapshot.Categories[level]
		entries = append(entries, DispositionEntry{
			Label:       fmt.Sprintf("Triage %d", level),
			Count:       count,
			Share:       share(count, total),
			CategoryKey: fmt.Sprintf("triage_%d", level),
		})
	}
	return entries
}
