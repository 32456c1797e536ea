package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/edpulse/edpulse-cli/internal/feed"
	"github.com/edpulse/edpulse-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	summaryJSON bool
	summaryOut  string
)

var summaryCmd = &cobra.Command{
	Use:   "summary [file]",
	Short: "Fetch the configured export (or read a local file) and print its summary",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := sourceFromConfig()

		var res feed.Result
		if len(args) == 1 {
			res = feed.FetchFile(args[0], src)
		} else {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			res = feed.Fetch(ctx, src)
		}

		if res.Error != "" {
			return fmt.Errorf("%s", res.Error)
		}

		if summaryJSON || summaryOut != "" {
			b, err := utils.PrettyJSON(res)
			if err != nil {
				return err
			}
			if summaryOut != "" {
				return utils.SafeWriteFile(summaryOut, b)
			}
			fmt.Println(string(b))
			return nil
		}
		fmt.Print(renderResult(res))
		return nil
	},
}

func init() {
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "emit the full result as JSON instead of text")
	summaryCmd.Flags().StringVarP(&summaryOut, "out", "o", "", "write the JSON result to a file (atomic replace)")
	rootCmd.AddCommand(summaryCmd)
}

func sourceFromConfig() feed.Source {
	src := feed.Source{}
	if cfg != nil {
		src.URL = cfg.SourceURL
		src.SynonymsFile = cfg.SynonymsFile
		src.TrendWindowDays = cfg.TrendWindowDays
		src.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSec) * time.Second
		src.RetryMax = cfg.RetryMaxAttempts
		src.RetryBaseDelay = time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond
		src.RetryMaxDelay = time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond
	}
	return src
}

func fmtNum(v *float64) string {
	if v == nil {
		return "—"
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.1f", *v), "0"), ".")
}

func fmtShare(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}

// renderResult prints the summary the way the dashboard cards group it.
// Display formatting is deliberately plain; locale rendering is the
// consumer's concern.
func renderResult(res feed.Result) string {
	s := res.Summary
	var b strings.Builder

	fmt.Fprintf(&b, "[ED SUMMARY] mode=%s run=%s updated=%s\n\n",
		res.Meta.Mode, res.Meta.RunID, res.UpdatedAt.Format(time.RFC3339))

	fmt.Fprintf(&b, "Entries: %d  Patients: %d  Days: %d  Avg/day: %s\n",
		s.EntryCount, s.TotalPatients, s.DayCount, fmtNum(s.AvgPatientsPerDay))
	fmt.Fprintf(&b, "LOS avg: %s min (hospitalized %s)  median %s  P90 %s  variability %s\n",
		fmtNum(s.AvgLOSMinutes), fmtNum(s.AvgLOSHospitalizedMinutes),
		fmtNum(s.MedianLOSMinutes), fmtNum(s.P90LOSMinutes), fmtNum(s.LOSVariabilityIndex))
	fmt.Fprintf(&b, "Door-to-provider: %s min  Decision-to-leave: %s min  Lab: %s min\n",
		fmtNum(s.AvgDoorToProviderMinutes), fmtNum(s.AvgDecisionToLeaveMinutes), fmtNum(s.AvgLabMinutes))
	fmt.Fprintf(&b, "Hospitalized: %s  Discharged: %s  Left: %s\n",
		fmtShare(s.HospitalizedShare), fmtShare(s.DischargedShare), fmtShare(s.LeftShare))

	if s.MonthKey != "" {
		fmt.Fprintf(&b, "\nMonth %s: %d patients, LOS %s min, hospitalized %s, lab %s min\n",
			s.MonthKey, s.MonthPatients, fmtNum(s.MonthAvgLOSMinutes),
			fmtShare(s.MonthHospitalizedShare), fmtNum(s.MonthAvgLabMinutes))
		fmt.Fprintf(&b, "Year %s: %d patients, LOS %s min, hospitalized %s\n",
			s.MonthKey[:4], s.YearPatients, fmtNum(s.YearAvgLOSMinutes), fmtShare(s.YearHospitalizedShare))
	}

	if s.PeakArrivalHoursText != "" || s.PeakDepartureHoursText != "" {
		fmt.Fprintf(&b, "\nPeak arrivals: %s  Peak departures: %s\n", s.PeakArrivalHoursText, s.PeakDepartureHoursText)
	}
	if s.FlowRiskNote != "" {
		fmt.Fprintf(&b, "Flow: %s\n", s.FlowRiskNote)
	}
	if s.TaktTimeMinutes != nil {
		fmt.Fprintf(&b, "Takt: %s min/arrival\n", fmtNum(s.TaktTimeMinutes))
	}
	if s.FastSlowSplitText != "" {
		fmt.Fprintf(&b, "Lanes: %s  Δfast %s  Δslow %s\n",
			s.FastSlowSplitText, fmtShare(s.FastTrackTrendDelta), fmtShare(s.SlowLaneTrendDelta))
	}

	if s.CurrentPatients != nil || s.OccupiedBeds != nil || s.NurseRatio != nil || s.DoctorRatio != nil {
		fmt.Fprintf(&b, "\nState (%s): patients %s, beds %s, nurse ratio %s, doctor ratio %s, lab %s min\n",
			s.LatestSnapshotKey, fmtNum(s.CurrentPatients), fmtNum(s.OccupiedBeds),
			ratioText(s.NurseRatio, s.NurseRatioText), ratioText(s.DoctorRatio, s.DoctorRatioText),
			fmtNum(s.SnapshotLabMinutes))
	}

	if len(res.Dispositions) > 0 {
		b.WriteString("\n[BREAKDOWN]\n")
		for _, d := range res.Dispositions {
			fmt.Fprintf(&b, "- %s: %.0f (%s)\n", d.Label, d.Count, fmtShare(d.Share))
		}
	}

	if len(res.Daily) > 0 {
		fmt.Fprintf(&b, "\n[DAILY] %d days, %s … %s\n",
			len(res.Daily), res.Daily[0].DateKey, res.Daily[len(res.Daily)-1].DateKey)
	}
	return b.String()
}

func ratioText(v *float64, text string) string {
	if text != "" {
		return text
	}
	return fmtNum(v)
}
