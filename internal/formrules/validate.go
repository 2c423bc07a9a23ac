package formrules

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Severity grades a validation issue.
type Severity string

// Severity constants
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// FormValues maps field ids to their current values. Absent and empty are
// both treated as unfilled.
type FormValues map[string]string

// ValidationIssue is one finding of Validate.
type ValidationIssue struct {
	FieldID    string   `json:"field_id"`
	FieldLabel string   `json:"field_label"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
}

// Issues is an ordered list of validation findings.
type Issues []ValidationIssue

// Errors returns the error-severity issues.
func (is Issues) Errors() Issues {
	return is.bySeverity(SeverityError)
}

// Warnings returns the warning-severity issues.
func (is Issues) Warnings() Issues {
	return is.bySeverity(SeverityWarning)
}

// Infos returns the info-severity issues.
func (is Issues) Infos() Issues {
	return is.bySeverity(SeverityInfo)
}

func (is Issues) bySeverity(s Severity) Issues {
	var out Issues
	for _, issue := range is {
		if issue.Severity == s {
			out = append(out, issue)
		}
	}
	return out
}

// Blocking reports whether a submission must be refused.
func (is Issues) Blocking() bool {
	return len(is.Errors()) > 0
}

// NeedsReview reports whether the issues allow submission only after the
// requester acknowledged the warnings.
func (is Issues) NeedsReview() bool {
	return !is.Blocking() && len(is.Warnings()) > 0
}

// Keywords in zeithorizont that indicate a short project.
var shortDurationKeywords = []string{"Tag", "Woche"}

const strategicMinHeadcount = 20

// Validate checks values against the rules of a tier. All checks run and
// their findings accumulate in a fixed order: missing required fields, then
// short answers, both in catalog order, then the strategic plausibility
// checks. The values are never modified.
func (e *Engine) Validate(values FormValues, tier Tier) Issues {
	rules := e.table[tier]
	issues := Issues{}

	for _, id := range e.orderedRequired(tier) {
		if isBlank(values[id]) {
			issues = append(issues, ValidationIssue{
				FieldID:    id,
				FieldLabel: e.catalog.Label(id),
				Severity:   SeverityError,
				Message:    fmt.Sprintf("Das Feld ist Pflicht für deine Projektklasse (%s)", tier),
			})
		}
	}

	for _, id := range e.orderedMinLengths(tier) {
		minLen := rules.MinLengths[id]
		value := strings.TrimSpace(values[id])
		if value == "" {
			continue
		}
		if n := utf8.RuneCountInString(value); n < minLen {
			issues = append(issues, ValidationIssue{
				FieldID:    id,
				FieldLabel: e.catalog.Label(id),
				Severity:   SeverityWarning,
				Message: fmt.Sprintf(
					"Die Antwort ist recht knapp (%d / %d Zeichen). Für Projekte dieser Größe sind mindestens %d Zeichen empfohlen.",
					n, minLen, minLen),
			})
		}
	}

	if tier != TierStrategic {
		return issues
	}

	if horizon := values[FieldZeithorizont]; horizon != "" && containsAny(horizon, shortDurationKeywords) {
		issues = append(issues, ValidationIssue{
			FieldID:    FieldZeithorizont,
			FieldLabel: e.catalog.Label(FieldZeithorizont),
			Severity:   SeverityWarning,
			Message:    "Das Projekt dauert nur kurz, wurde aber als strategisch eingestuft. Ist das so gemeint?",
		})
	}

	if n, ok := parseHeadcount(values[FieldAnzahlMaFk]); ok && n < strategicMinHeadcount {
		issues = append(issues, ValidationIssue{
			FieldID:    FieldAnzahlMaFk,
			FieldLabel: e.catalog.Label(FieldAnzahlMaFk),
			Severity:   SeverityInfo,
			Message:    "Du hast wenige Personen angegeben, aber das Projekt als strategisch eingestuft. Sind vielleicht indirekt mehr betroffen?",
		})
	}

	return issues
}

// Progress summarizes how many required fields are filled.
type Progress struct {
	RequiredTotal  int `json:"required_total"`
	RequiredFilled int `json:"required_filled"`
	Percent        int `json:"percent"`
}

// Progress counts the filled required fields of a tier.
func (e *Engine) Progress(values FormValues, tier Tier) Progress {
	required := e.table[tier].Required
	p := Progress{RequiredTotal: len(required)}
	for _, id := range required {
		if !isBlank(values[id]) {
			p.RequiredFilled++
		}
	}
	if p.RequiredTotal == 0 {
		p.Percent = 100
		return p
	}
	p.Percent = int(math.Round(float64(p.RequiredFilled) * 100 / float64(p.RequiredTotal)))
	return p
}

// orderedRequired lists the tier's required ids in catalog order, followed by
// required ids the catalog does not know in table order.
func (e *Engine) orderedRequired(tier Tier) []string {
	return e.inCatalogOrder(e.table[tier].Required)
}

func (e *Engine) orderedMinLengths(tier Tier) []string {
	ids := make([]string, 0, len(e.table[tier].MinLengths))
	for id := range e.table[tier].MinLengths {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return e.inCatalogOrder(ids)
}

func (e *Engine) inCatalogOrder(ids []string) []string {
	pending := make(map[string]bool, len(ids))
	for _, id := range ids {
		pending[id] = true
	}
	ordered := make([]string, 0, len(ids))
	for _, id := range e.catalog.FieldIDs() {
		if pending[id] {
			ordered = append(ordered, id)
			delete(pending, id)
		}
	}
	for _, id := range ids {
		if pending[id] {
			ordered = append(ordered, id)
			delete(pending, id)
		}
	}
	return ordered
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// parseHeadcount keeps only the digits of s and parses them, so
// "120 MA, 15 FK" reads as 12015.
func parseHeadcount(s string) (int, bool) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < utf8.RuneSelf {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}
