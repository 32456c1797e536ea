// Package columns maps raw CSV header labels onto canonical fields.
// Matching runs through ordered passes, from precise to coarse, so an
// exact label always beats a loose contains-match elsewhere in the row.
package columns

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Header is one raw CSV column, built once per ingestion run.
type Header struct {
	Original   string
	Normalized string // lowercased, trimmed
	Index      int
}

// BuildHeaders wraps a raw header row into Header entries.
func BuildHeaders(row []string) []Header {
	headers := make([]Header, 0, len(row))
	for i, cell := range row {
		original := strings.TrimSpace(cell)
		headers = append(headers, Header{
			Original:   original,
			Normalized: strings.ToLower(original),
			Index:      i,
		})
	}
	return headers
}

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold strips diacritics, lowercases, and collapses whitespace runs.
func Fold(s string) string {
	folded, _, err := transform.String(foldChain, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// Resolve returns the index of the header best matching one of the
// candidate names, or -1. Each pass scans the whole candidate list
// before falling through to the next, coarser pass:
//
//  1. exact match on the original label
//  2. exact match on the lowercased label
//  3. diacritic-folded exact match
//  4. diacritic-folded substring match, either direction
func Resolve(headers []Header, candidates []string) int {
	for _, cand := range candidates {
		trimmed := strings.TrimSpace(cand)
		for _, h := range headers {
			if h.Original == trimmed {
				return h.Index
			}
		}
	}
	for _, cand := range candidates {
		lower := strings.ToLower(strings.TrimSpace(cand))
		for _, h := range headers {
			if h.Normalized == lower {
				return h.Index
			}
		}
	}
	for _, cand := range candidates {
		folded := Fold(cand)
		if folded == "" {
			continue
		}
		for _, h := range headers {
			if Fold(h.Original) == folded {
				return h.Index
			}
		}
	}
	for _, cand := range candidates {
		folded := Fold(cand)
		if folded == "" {
			continue
		}
		for _, h := range headers {
			foldedHeader := Fold(h.Original)
			if foldedHeader == "" {
				continue
			}
			if strings.Contains(foldedHeader, folded) || strings.Contains(folded, foldedHeader) {
				return h.Index
			}
		}
	}
	return -1
}
