// Package normalize converts single raw CSV cells into typed values.
// Every function treats unparseable input as data, not a fault: the
// result is nil/zero, never an error.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// DurationMinutes parses a duration cell. "H:MM" (hours 1-2 digits) maps
// to hours*60+minutes; anything else is read as a locale-flexible decimal
// number of minutes. Returns nil for empty or unparseable input.
func DurationMinutes(text string) *float64 {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}
	if m := clockPattern.FindStringSubmatch(s); m != nil {
		hours, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		v := float64(hours*60 + mins)
		return &v
	}
	return Number(s)
}

// Number parses a numeric cell: whitespace stripped, comma accepted as
// the decimal separator. Returns nil if the result is not finite.
func Number(text string) *float64 {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Ratio is a staffing ratio cell: the computed value plus the original
// display text for the UI.
type Ratio struct {
	Value *float64
	Text  string
}

// ParseRatio handles "x:y" (numerator/denominator, denominator > 0) and
// bare positive numbers. The original text is always preserved.
func ParseRatio(text string) Ratio {
	s := strings.TrimSpace(text)
	if s == "" {
		return Ratio{}
	}
	if strings.Contains(s, ":") {
		parts := strings.SplitN(s, ":", 2)
		num := Number(parts[0])
		den := Number(parts[1])
		if num == nil || den == nil || *den <= 0 {
			return Ratio{Text: s}
		}
		v := *num / *den
		return Ratio{Value: &v, Text: s}
	}
	v := Number(s)
	if v == nil || *v <= 0 {
		return Ratio{Text: s}
	}
	return Ratio{Value: v, Text: s}
}

var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"02.01.2006",
	"02/01/2006",
}

// Date probes the supported layouts in order and returns the first hit.
// ISO-like forms win over day-first European forms.
func Date(text string) (time.Time, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DayKey formats an instant as the canonical YYYY-MM-DD bucket key.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
