package schema

import (
	"github.com/edpulse/edpulse-cli/internal/columns"
)

// Layout is the resolved column index per canonical field for one header
// row. -1 means the field has no matching column.
type Layout struct {
	Legacy   map[string]int
	Snapshot map[string]int
	Triage   map[int]int // triage level -> column index
	Headers  []columns.Header
}

// Detect resolves every canonical field of both schemas against the
// header row once and classifies the dataset: hybrid when both schemas
// have at least one resolved column, snapshot when only state columns
// appear, legacy otherwise.
func Detect(headerRow []string, tables *columns.Tables) (Layout, Mode) {
	headers := columns.BuildHeaders(headerRow)
	layout := Layout{
		Legacy:   make(map[string]int, len(tables.Legacy)),
		Snapshot: make(map[string]int, len(tables.Snapshot)),
		Triage:   make(map[int]int, len(columns.TriageFields)),
		Headers:  headers,
	}

	hasLegacy := false
	for field, candidates := range tables.Legacy {
		idx := columns.Resolve(headers, candidates)
		layout.Legacy[field] = idx
		if idx >= 0 {
			hasLegacy = true
		}
	}

	hasSnapshot := false
	for field, candidates := range tables.Snapshot {
		idx := columns.Resolve(headers, candidates)
		layout.Snapshot[field] = idx
		if idx >= 0 {
			hasSnapshot = true
		}
	}
	for level, field := range columns.TriageFields {
		if idx, ok := layout.Snapshot[field]; ok {
			layout.Triage[level+1] = idx
		}
	}

	switch {
	case hasLegacy && hasSnapshot:
		return layout, ModeHybrid
	case hasSnapshot:
		return layout, ModeSnapshot
	default:
		return layout, ModeLegacy
	}
}

func (l Layout) legacyCol(field string) int {
	if idx, ok := l.Legacy[field]; ok {
		return idx
	}
	return -1
}

func (l Layout) snapshotCol(field string) int {
	if idx, ok := l.Snapshot[field]; ok {
		return idx
	}
	return -1
}
