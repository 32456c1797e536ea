package summary

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/edpulse/edpulse-cli/internal/normalize"
	"github.com/edpulse/edpulse-cli/internal/schema"
)

var dayKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// dailyBucket accumulates one calendar day of visit records.
type dailyBucket struct {
	patients  int
	losSum    float64
	losCount  int
	doorSum   float64
	doorCount int
	labSum    float64
	labCount  int
	fastCount int
	slowCount int
}

// monthBucket accumulates one YYYY-MM of visit records.
type monthBucket struct {
	patients     int
	hospitalized int
	losSum       float64
	losCount     int
	hospLosSum   float64
	hospLosCount int
	labSum       float64
	labCount     int
}

// summarizeLegacy folds visit-level records into the legacy summary.
// Only records under a real calendar-day key participate; synthetic
// snapshot keys are excluded from visit aggregation.
func summarizeLegacy(records []schema.Record, opts Options) Output {
	out := Output{Summary: Summary{Mode: schema.ModeLegacy, EntryCount: len(records)}}

	var visits []schema.Record
	for _, rec := range records {
		if dayKeyPattern.MatchString(rec.DateKey) {
			visits = append(visits, rec)
		}
	}
	if len(visits) == 0 {
		return out
	}

	s := &out.Summary
	s.TotalPatients = len(visits)

	days := make(map[string]*dailyBucket)
	months := make(map[string]*monthBucket)
	catCounts := make(map[normalize.Category]int)
	labelCounts := make(map[string]int)
	labelCategory := make(map[string]normalize.Category)
	arrivalHours := make(map[int]int)
	departureHours := make(map[int]int)

	var losSum, hospLosSum, doorSum, decisionSum, labSum float64
	var losCount, hospLosCount, doorCount, decisionCount, labCount int
	var losValues []float64
	arrivalsWithHour := 0

	for _, rec := range visits {
		day := days[rec.DateKey]
		if day == nil {
			day = &dailyBucket{}
			days[rec.DateKey] = day
		}
		day.patients++

		monthKey := rec.DateKey[:7]
		month := months[monthKey]
		if month == nil {
			month = &monthBucket{}
			months[monthKey] = month
		}
		month.patients++

		disp := normalize.Disposition{Label: "Unknown", Category: normalize.CategoryUnknown}
		lf := rec.Legacy
		if lf != nil {
			disp = lf.Disposition
		}
		catCounts[disp.Category]++
		labelCounts[disp.Label]++
		labelCategory[disp.Label] = disp.Category
		if disp.Category == normalize.CategoryHospitalized {
			month.hospitalized++
		}

		if lf == nil {
			continue
		}
		if lf.LOSMinutes != nil {
			v := *lf.LOSMinutes
			losSum += v
			losCount++
			losValues = append(losValues, v)
			day.losSum += v
			day.losCount++
			month.losSum += v
			month.losCount++
			if v < fastTrackMaxMinutes {
				day.fastCount++
			}
			if v > slowLaneMinMinutes {
				day.slowCount++
			}
			if disp.Category == normalize.CategoryHospitalized {
				hospLosSum += v
				hospLosCount++
				month.hospLosSum += v
				month.hospLosCount++
			}
		}
		if lf.DoorToProviderMinutes != nil {
			doorSum += *lf.DoorToProviderMinutes
			doorCount++
			day.doorSum += *lf.DoorToProviderMinutes
			day.doorCount++
		}
		if lf.DecisionToLeaveMinutes != nil {
			decisionSum += *lf.DecisionToLeaveMinutes
			decisionCount++
		}
		if lf.LabMinutes != nil {
			labSum += *lf.LabMinutes
			labCount++
			day.labSum += *lf.LabMinutes
			day.labCount++
			month.labSum += *lf.LabMinutes
			month.labCount++
		}
		if lf.ArrivalHour != nil {
			arrivalHours[*lf.ArrivalHour]++
			arrivalsWithHour++
		}
		if lf.DepartureHour != nil {
			departureHours[*lf.DepartureHour]++
		}
	}

	s.DayCount = len(days)
	s.AvgPatientsPerDay = mean(float64(s.TotalPatients), s.DayCount)

	s.AvgLOSMinutes = mean(losSum, losCount)
	s.AvgLOSHospitalizedMinutes = mean(hospLosSum, hospLosCount)
	s.AvgDoorToProviderMinutes = mean(doorSum, doorCount)
	s.AvgDecisionToLeaveMinutes = mean(decisionSum, decisionCount)
	s.AvgLabMinutes = mean(labSum, labCount)

	s.HospitalizedCount = catCounts[normalize.CategoryHospitalized]
	s.DischargedCount = catCounts[normalize.CategoryDischarged]
	s.TransferCount = catCounts[normalize.CategoryTransfer]
	s.LeftCount = catCounts[normalize.CategoryLeft]
	s.OtherCount = catCounts[normalize.CategoryOther]
	s.UnknownCount = catCounts[normalize.CategoryUnknown]
	total := float64(s.TotalPatients)
	s.HospitalizedShare = share(float64(s.HospitalizedCount), total)
	s.DischargedShare = share(float64(s.DischargedCount), total)
	s.LeftShare = share(float64(s.LeftCount), total)

	out.Dispositions = rankDispositions(labelCounts, labelCategory, total)

	applyMonthMetrics(s, months)

	s.PeakArrivalHoursText = peakHoursText(arrivalHours)
	s.PeakDepartureHoursText = peakHoursText(departureHours)
	s.FlowRiskNote = flowRiskNote(arrivalHours, departureHours)

	if arrivalsWithHour > 0 && s.DayCount > 0 {
		rate := float64(arrivalsWithHour) / (float64(s.DayCount) * 24)
		s.TaktTimeMinutes = ptr(60 / rate)
	}

	applyLOSPercentiles(s, losValues)
	applyTrend(s, days, opts.windowDays())

	out.Daily = buildLegacyDaily(days)
	return out
}

// rankDispositions orders labels by count descending, ties broken
// alphabetically.
func rankDispositions(labelCounts map[string]int, labelCategory map[string]normalize.Category, total float64) []DispositionEntry {
	entries := make([]DispositionEntry, 0, len(labelCounts))
	for label, count := range labelCounts {
		entries = append(entries, DispositionEntry{
			Label:    label,
			Count:    float64(count),
			Share:    share(float64(count), total),
			Category: string(labelCategory[label]),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count == entries[j].Count {
			return entries[i].Label < entries[j].Label
		}
		return entries[i].Count > entries[j].Count
	})
	return entries
}

// applyMonthMetrics derives the "this month" and "this year" statistics
// relative to the latest month present in the data, not the wall clock.
func applyMonthMetrics(s *Summary, months map[string]*monthBucket) {
	latest := ""
	for key := range months {
		if key > latest {
			latest = key
		}
	}
	if latest == "" {
		return
	}
	s.MonthKey = latest

	mb := months[latest]
	s.MonthPatients = mb.patients
	s.MonthAvgLOSMinutes = mean(mb.losSum, mb.losCount)
	s.MonthHospitalizedShare = share(float64(mb.hospitalized), float64(mb.patients))
	s.MonthAvgLabMinutes = mean(mb.labSum, mb.labCount)

	year := latest[:4]
	var yb monthBucket
	for key, b := range months {
		if !strings.HasPrefix(key, year) {
			continue
		}
		yb.patients += b.patients
		yb.hospitalized += b.hospitalized
		yb.losSum += b.losSum
		yb.losCount += b.losCount
	}
	s.YearPatients = yb.patients
	s.YearAvgLOSMinutes = mean(yb.losSum, yb.losCount)
	s.YearHospitalizedShare = share(float64(yb.hospitalized), float64(yb.patients))
}

// peakHoursText formats the top-3 hours by count as "HH:00" entries,
// ties broken by the earlier hour.
func peakHoursText(hours map[int]int) string {
	if len(hours) == 0 {
		return ""
	}
	type hourCount struct {
		hour  int
		count int
	}
	ranked := make([]hourCount, 0, len(hours))
	for h, c := range hours {
		ranked = append(ranked, hourCount{h, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count == ranked[j].count {
			return ranked[i].hour < ranked[j].hour
		}
		return ranked[i].count > ranked[j].count
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	parts := make([]string, len(ranked))
	for i, hc := range ranked {
		parts[i] = fmt.Sprintf("%02d:00", hc.hour)
	}
	return strings.Join(parts, ", ")
}

func topHourSet(hours map[int]int) map[int]bool {
	type hourCount struct {
		hour  int
		count int
	}
	ranked := make([]hourCount, 0, len(hours))
	for h, c := range hours {
		ranked = append(ranked, hourCount{h, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count == ranked[j].count {
			return ranked[i].hour < ranked[j].hour
		}
		return ranked[i].count > ranked[j].count
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	set := make(map[int]bool, len(ranked))
	for _, hc := range ranked {
		set[hc.hour] = true
	}
	return set
}

// flowRiskNote compares the arrival and departure peak sets: diverging
// peaks hint at boarding pressure.
func flowRiskNote(arrivals, departures map[int]int) string {
	if len(arrivals) == 0 || len(departures) == 0 {
		return "not enough hourly data to compare arrival and departure peaks"
	}
	a := topHourSet(arrivals)
	d := topHourSet(departures)
	same := len(a) == len(d)
	if same {
		for h := range a {
			if !d[h] {
				same = false
				break
			}
		}
	}
	if same {
		return "arrival and departure flows aligned"
	}
	return "arrival and departure peaks diverge: possible boarding pressure"
}

// applyLOSPercentiles computes P50/P90 preferring strictly positive LOS
// values; zero-length stays, if that is all there is, are used as-is.
func applyLOSPercentiles(s *Summary, losValues []float64) {
	if len(losValues) == 0 {
		return
	}
	positives := make([]float64, 0, len(losValues))
	for _, v := range losValues {
		if v > 0 {
			positives = append(positives, v)
		}
	}
	sample := positives
	if len(sample) == 0 {
		sample = losValues
	}
	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)

	median := Percentile(sorted, 0.5)
	p90 := Percentile(sorted, 0.9)
	s.MedianLOSMinutes = ptr(median)
	s.P90LOSMinutes = ptr(p90)
	if median > 0 {
		s.LOSVariabilityIndex = ptr(p90 / median)
	}
}

// applyTrend compares the fast/slow lane shares of the trailing window
// against the immediately preceding window of equal length. Deltas stay
// nil unless both windows contain at least one LOS sample.
func applyTrend(s *Summary, days map[string]*dailyBucket, windowDays int) {
	keys := make([]string, 0, len(days))
	for key := range days {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	split := len(keys) - windowDays
	if split < 0 {
		split = 0
	}
	currentKeys := keys[split:]
	prevStart := split - windowDays
	if prevStart < 0 {
		prevStart = 0
	}
	prevKeys := keys[prevStart:split]

	windowShares := func(keys []string) (fast, slow *float64, samples int) {
		var fastN, slowN int
		for _, key := range keys {
			b := days[key]
			fastN += b.fastCount
			slowN += b.slowCount
			samples += b.losCount
		}
		if samples == 0 {
			return nil, nil, 0
		}
		return ptr(float64(fastN) / float64(samples)), ptr(float64(slowN) / float64(samples)), samples
	}

	curFast, curSlow, curSamples := windowShares(currentKeys)
	prevFast, prevSlow, prevSamples := windowShares(prevKeys)

	s.FastTrackShare = curFast
	s.SlowLaneShare = curSlow
	if curSamples > 0 && prevSamples > 0 {
		s.FastTrackTrendDelta = ptr(*curFast - *prevFast)
		s.SlowLaneTrendDelta = ptr(*curSlow - *prevSlow)
	}
	if curFast != nil && curSlow != nil {
		s.FastSlowSplitText = fmt.Sprintf("fast %.0f%% / slow %.0f%% (last %d days)",
			*curFast*100, *curSlow*100, len(currentKeys))
	}
}

func buildLegacyDaily(days map[string]*dailyBucket) []DailyStat {
	keys := make([]string, 0, len(days))
	for key := range days {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	daily := make([]DailyStat, 0, len(keys))
	for _, key := range keys {
		b := days[key]
		daily = append(daily, DailyStat{
			DateKey:                  key,
			Patients:                 b.patients,
			AvgLOSMinutes:            mean(b.losSum, b.losCount),
			AvgDoorToProviderMinutes: mean(b.doorSum, b.doorCount),
			AvgLabMinutes:            mean(b.labSum, b.labCount),
			FastCount:                b.fastCount,
			SlowCount:                b.slowCount,
		})
	}
	return daily
}
