package formrules

import (
	"fmt"
)

// Engine evaluates the form rules against an injected catalog, rule table and
// name mapping. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	catalog Catalog
	table   RuleTable
	mapping FieldNameMapping
}

// NewEngine builds an engine from the given reference data. The inputs are
// copied so later changes by the caller do not leak into the engine.
//
// Tables with overlapping status lists are rejected. Other drift, such as a
// catalog field that no list mentions, is tolerated: the field falls back to
// optional and the problem is visible through RuleTable.Check.
func NewEngine(catalog Catalog, table RuleTable, mapping FieldNameMapping) (*Engine, error) {
	if len(catalog) == 0 {
		return nil, fmt.Errorf("catalog must contain at least one section")
	}
	if report := table.Check(catalog); report.HasOverlaps() {
		return nil, fmt.Errorf("invalid rule table: %w", report)
	}
	return &Engine{
		catalog: catalog.clone(),
		table:   table.clone(),
		mapping: mapping.clone(),
	}, nil
}

// DefaultEngine returns an engine wired with the reference catalog, rule
// table and name mapping.
func DefaultEngine() *Engine {
	engine, err := NewEngine(DefaultCatalog(), DefaultRuleTable(), DefaultMapping())
	if err != nil {
		panic(fmt.Sprintf("formrules: reference data is inconsistent: %v", err))
	}
	return engine
}

// Catalog returns a copy of the engine's field catalog.
func (e *Engine) Catalog() Catalog {
	return e.catalog.clone()
}

// Mapping returns a copy of the engine's field name mapping.
func (e *Engine) Mapping() FieldNameMapping {
	return e.mapping.clone()
}

// CheckTable reports drift between the engine's rule table and catalog.
func (e *Engine) CheckTable() TableReport {
	return e.table.Check(e.catalog)
}

// DeriveFieldRules returns the rule set of a tier. The result is a copy.
// Unknown tiers yield an empty rule set, which makes every field optional.
func (e *Engine) DeriveFieldRules(tier Tier) FieldRuleSet {
	rs, ok := e.table[tier]
	if !ok {
		return FieldRuleSet{MinLengths: map[string]int{}}
	}
	return rs.clone()
}

// StatusOf returns the status of a field for a tier, falling back to optional
// for ids that no list mentions.
func (e *Engine) StatusOf(fieldID string, tier Tier) FieldStatus {
	if status, ok := e.table[tier].status(fieldID); ok {
		return status
	}
	return StatusOptional
}

// MinLengthOf returns the recommended minimum length of a field, or 0.
func (e *Engine) MinLengthOf(fieldID string, tier Tier) int {
	return e.table[tier].MinLengths[fieldID]
}

// RuledField is a catalog field annotated with its tier-specific rules.
type RuledField struct {
	FieldDefinition
	Status    FieldStatus `json:"status"`
	MinLength int         `json:"min_length,omitempty"`
}

// RuledSection is a catalog section whose fields carry their status.
type RuledSection struct {
	ID     string       `json:"id"`
	Title  string       `json:"title"`
	Icon   string       `json:"icon"`
	Fields []RuledField `json:"fields"`
}

// ApplyRules returns a new section list where every field carries its status
// and minimum length for the tier. The catalog itself is left untouched.
func (e *Engine) ApplyRules(tier Tier) []RuledSection {
	sections := make([]RuledSection, 0, len(e.catalog))
	for _, section := range e.catalog.clone() {
		ruled := RuledSection{
			ID:     section.ID,
			Title:  section.Title,
			Icon:   section.Icon,
			Fields: make([]RuledField, 0, len(section.Fields)),
		}
		for _, field := range section.Fields {
			ruled.Fields = append(ruled.Fields, RuledField{
				FieldDefinition: field,
				Status:          e.StatusOf(field.ID, tier),
				MinLength:       e.MinLengthOf(field.ID, tier),
			})
		}
		sections = append(sections, ruled)
	}
	return sections
}

// VisibleSections is ApplyRules without hidden fields. Sections left without
// any field are dropped.
func (e *Engine) VisibleSections(tier Tier) []RuledSection {
	var visible []RuledSection
	for _, section := range e.ApplyRules(tier) {
		fields := section.Fields[:0]
		for _, field := range section.Fields {
			if field.Status != StatusHidden {
				fields = append(fields, field)
			}
		}
		if len(fields) == 0 {
			continue
		}
		section.Fields = fields
		visible = append(visible, section)
	}
	return visible
}
