package formrules

import (
	"fmt"
	"sort"
	"strings"
)

// FieldStatus is the per-tier visibility of a field.
type FieldStatus string

// FieldStatus constants
const (
	StatusRequired FieldStatus = "required"
	StatusOptional FieldStatus = "optional"
	StatusHidden   FieldStatus = "hidden"
)

// FieldRuleSet partitions the catalog for one tier and carries the
// recommended minimum lengths of its text fields.
type FieldRuleSet struct {
	Required   []string       `json:"required" yaml:"required"`
	Optional   []string       `json:"optional" yaml:"optional"`
	Hidden     []string       `json:"hidden" yaml:"hidden"`
	MinLengths map[string]int `json:"min_lengths" yaml:"min_lengths"`
}

func (rs FieldRuleSet) clone() FieldRuleSet {
	out := FieldRuleSet{
		Required:   append([]string{}, rs.Required...),
		Optional:   append([]string{}, rs.Optional...),
		Hidden:     append([]string{}, rs.Hidden...),
		MinLengths: make(map[string]int, len(rs.MinLengths)),
	}
	for id, n := range rs.MinLengths {
		out.MinLengths[id] = n
	}
	return out
}

// status returns the configured status of a field and whether it was found.
func (rs FieldRuleSet) status(fieldID string) (FieldStatus, bool) {
	switch {
	case containsID(rs.Required, fieldID):
		return StatusRequired, true
	case containsID(rs.Optional, fieldID):
		return StatusOptional, true
	case containsID(rs.Hidden, fieldID):
		return StatusHidden, true
	default:
		return "", false
	}
}

// RuleTable holds one FieldRuleSet per tier.
type RuleTable map[Tier]FieldRuleSet

func (t RuleTable) clone() RuleTable {
	out := make(RuleTable, len(t))
	for tier, rs := range t {
		out[tier] = rs.clone()
	}
	return out
}

// DefaultRuleTable returns the reference per-tier field rules.
func DefaultRuleTable() RuleTable {
	return RuleTable{
		TierMini: {
			Required: []string{
				FieldTitel,
				FieldBeschreibung,
				FieldAnsprechpartner,
				FieldZielsetzung,
				FieldStartdatum,
				FieldZeithorizont,
				FieldBetroffeneBereiche,
				FieldErwartungen,
			},
			Optional: []string{
				FieldWasPassiertMisserfolg,
				FieldAnzahlMaFk,
				FieldChangebedarf,
				FieldVonZu,
				FieldHindernisse,
				FieldErfolgsfaktoren,
				FieldVereinbarungen,
				FieldSonstiges,
			},
			Hidden: []string{
				FieldHeissePhasen,
				FieldStrategischeZiele,
				FieldBeitragKonzernstrategie,
			},
			MinLengths: map[string]int{
				FieldBeschreibung: 50,
				FieldZielsetzung:  50,
				FieldErwartungen:  30,
			},
		},
		TierStandard: {
			Required: []string{
				FieldTitel,
				FieldBeschreibung,
				FieldAnsprechpartner,
				FieldZielsetzung,
				FieldWasPassiertMisserfolg,
				FieldStartdatum,
				FieldZeithorizont,
				FieldBetroffeneBereiche,
				FieldAnzahlMaFk,
				FieldErwartungen,
				FieldChangebedarf,
				FieldVonZu,
				FieldHindernisse,
				FieldErfolgsfaktoren,
				FieldVereinbarungen,
			},
			Optional: []string{
				FieldHeissePhasen,
				FieldStrategischeZiele,
				FieldBeitragKonzernstrategie,
				FieldSonstiges,
			},
			Hidden: []string{},
			MinLengths: map[string]int{
				FieldBeschreibung: 100,
				FieldZielsetzung:  150,
				FieldErwartungen:  100,
			},
		},
		TierStrategic: {
			Required: []string{
				FieldTitel,
				FieldBeschreibung,
				FieldAnsprechpartner,
				FieldZielsetzung,
				FieldWasPassiertMisserfolg,
				FieldStartdatum,
				FieldZeithorizont,
				FieldHeissePhasen,
				FieldStrategischeZiele,
				FieldBeitragKonzernstrategie,
				FieldBetroffeneBereiche,
				FieldAnzahlMaFk,
				FieldErwartungen,
				FieldChangebedarf,
				FieldVonZu,
				FieldHindernisse,
				FieldErfolgsfaktoren,
				FieldVereinbarungen,
			},
			Optional: []string{FieldSonstiges},
			Hidden:   []string{},
			MinLengths: map[string]int{
				FieldBeschreibung:          200,
				FieldZielsetzung:           200,
				FieldWasPassiertMisserfolg: 100,
				FieldErwartungen:           150,
			},
		},
	}
}

// TableProblem describes one inconsistency between a rule table and a catalog.
type TableProblem struct {
	Tier    Tier   `json:"tier"`
	FieldID string `json:"field_id"`
	Kind    string `json:"kind"`
}

// Kinds of TableProblem
const (
	ProblemOverlap       = "overlap"         // field listed under more than one status
	ProblemUncovered     = "uncovered"       // catalog field missing from every list; treated as optional
	ProblemUnknownField  = "unknown_field"   // listed field not in the catalog
	ProblemMissingTier   = "missing_tier"    // tier has no rule set at all
	ProblemMinLengthOnly = "min_length_only" // min length for a field not in the catalog
)

// TableReport is the result of RuleTable.Check.
type TableReport struct {
	Problems []TableProblem `json:"problems"`
}

// OK reports whether the table is disjoint and covers the catalog exactly.
func (r TableReport) OK() bool {
	return len(r.Problems) == 0
}

// HasOverlaps reports whether any field is listed under two statuses.
func (r TableReport) HasOverlaps() bool {
	for _, p := range r.Problems {
		if p.Kind == ProblemOverlap {
			return true
		}
	}
	return false
}

func (r TableReport) Error() string {
	parts := make([]string, 0, len(r.Problems))
	for _, p := range r.Problems {
		parts = append(parts, fmt.Sprintf("%s/%s: %s", p.Tier, p.FieldID, p.Kind))
	}
	return "rule table inconsistent: " + strings.Join(parts, ", ")
}

// Check verifies that for every tier the three status lists are pairwise
// disjoint and that their union equals the catalog's field ids.
func (t RuleTable) Check(catalog Catalog) TableReport {
	var report TableReport
	catalogIDs := catalog.FieldIDs()
	known := make(map[string]bool, len(catalogIDs))
	for _, id := range catalogIDs {
		known[id] = true
	}

	for _, tier := range AllTiers() {
		rs, ok := t[tier]
		if !ok {
			report.Problems = append(report.Problems, TableProblem{Tier: tier, Kind: ProblemMissingTier})
			continue
		}

		seen := make(map[string]int)
		for _, list := range [][]string{rs.Required, rs.Optional, rs.Hidden} {
			for _, id := range list {
				seen[id]++
			}
		}

		listed := make([]string, 0, len(seen))
		for id := range seen {
			listed = append(listed, id)
		}
		sort.Strings(listed)

		for _, id := range listed {
			if seen[id] > 1 {
				report.Problems = append(report.Problems, TableProblem{Tier: tier, FieldID: id, Kind: ProblemOverlap})
			}
			if !known[id] {
				report.Problems = append(report.Problems, TableProblem{Tier: tier, FieldID: id, Kind: ProblemUnknownField})
			}
		}
		for _, id := range catalogIDs {
			if seen[id] == 0 {
				report.Problems = append(report.Problems, TableProblem{Tier: tier, FieldID: id, Kind: ProblemUncovered})
			}
		}

		minIDs := make([]string, 0, len(rs.MinLengths))
		for id := range rs.MinLengths {
			minIDs = append(minIDs, id)
		}
		sort.Strings(minIDs)
		for _, id := range minIDs {
			if !known[id] {
				report.Problems = append(report.Problems, TableProblem{Tier: tier, FieldID: id, Kind: ProblemMinLengthOnly})
			}
		}
	}
	return report
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
