package normalize

import (
	"regexp"
	"strings"
)

// Category is the canonical disposition class of an ED visit.
type Category string

const (
	CategoryHospitalized Category = "hospitalized"
	CategoryDischarged   Category = "discharged"
	CategoryTransfer     Category = "transfer"
	CategoryLeft         Category = "left"
	CategoryOther        Category = "other"
	CategoryUnknown      Category = "unknown"
)

// Disposition is a classified disposition cell.
type Disposition struct {
	Label    string
	Category Category
}

// dispositionRule maps a keyword family to a category. Rules are
// evaluated top to bottom against the lowercased cell; first match wins.
// The keyword lists carry English and Hungarian vocabulary side by side
// (both diacritic and bare spellings) so a feed in either language
// classifies without code changes.
type dispositionRule struct {
	pattern  *regexp.Regexp
	category Category
	label    string
}

var dispositionRules = []dispositionRule{
	{
		pattern:  regexp.MustCompile(`hospitali[zs]|admit|inpatient|ward|felv[eé]tel|felv[eé]ve|oszt[aá]ly|k[oó]rh[aá]z`),
		category: CategoryHospitalized,
		label:    "Hospitalized",
	},
	{
		pattern:  regexp.MustCompile(`discharg|home|hazaenged|hazabocs[aá]t|otthon|emitt[aá]l`),
		category: CategoryDischarged,
		label:    "Discharged",
	},
	{
		pattern:  regexp.MustCompile(`transfer|referred|[aá]thelyez|[aá]tsz[aá]ll[ií]t|[aá]tir[aá]ny[ií]t`),
		category: CategoryTransfer,
		label:    "Transferred",
	},
	{
		pattern:  regexp.MustCompile(`left|lwbs|walked out|elt[aá]voz|t[aá]vozott|ell[aá]t[aá]s n[eé]lk[uü]l|[oö]nk[eé]nyes`),
		category: CategoryLeft,
		label:    "Left without being seen",
	},
}

// ParseDisposition classifies a free-text disposition cell. Empty input
// is Unknown; unmatched non-empty input keeps its original text verbatim
// under the "other" category.
func ParseDisposition(text string) Disposition {
	s := strings.TrimSpace(text)
	if s == "" {
		return Disposition{Label: "Unknown", Category: CategoryUnknown}
	}
	lower := strings.ToLower(s)
	for _, rule := range dispositionRules {
		if rule.pattern.MatchString(lower) {
			return Disposition{Label: rule.label, Category: rule.category}
		}
	}
	return Disposition{Label: s, Category: CategoryOther}
}
