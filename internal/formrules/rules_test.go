package formrules

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRuleTable_DisjointAndCovering(t *testing.T) {
	catalog := DefaultCatalog()
	table := DefaultRuleTable()

	for _, tier := range AllTiers() {
		t.Run(string(tier), func(t *testing.T) {
			rs := table[tier]
			seen := map[string]FieldStatus{}
			for status, ids := range map[FieldStatus][]string{
				StatusRequired: rs.Required,
				StatusOptional: rs.Optional,
				StatusHidden:   rs.Hidden,
			} {
				for _, id := range ids {
					prev, dup := seen[id]
					assert.False(t, dup, "%s listed as %s and %s", id, prev, status)
					seen[id] = status
				}
			}

			assert.Len(t, seen, len(catalog.FieldIDs()))
			for _, id := range catalog.FieldIDs() {
				assert.Contains(t, seen, id)
			}
		})
	}

	report := table.Check(catalog)
	assert.True(t, report.OK(), report.Error())
}

func TestDefaultCatalog_Shape(t *testing.T) {
	catalog := DefaultCatalog()
	assert.Len(t, catalog, 8)
	assert.Len(t, catalog.FieldIDs(), 19)

	field, ok := catalog.Field(FieldChangebedarf)
	require.True(t, ok)
	assert.Equal(t, FieldKindSelect, field.Kind)
	assert.Len(t, field.Options, 3)

	titel, ok := catalog.Field(FieldTitel)
	require.True(t, ok)
	assert.Equal(t, 100, titel.MaxLength)

	assert.Equal(t, "Zielsetzung", catalog.Label(FieldZielsetzung))
	assert.Equal(t, "no_such_field", catalog.Label("no_such_field"))
}

func TestDefaultCatalog_FreshCopyEveryCall(t *testing.T) {
	first := DefaultCatalog()
	first[0].Fields[0].Label = "changed"
	first[5].Fields[1].Options[0].Label = "changed"

	second := DefaultCatalog()
	assert.Equal(t, "Thema/Titel", second[0].Fields[0].Label)
	assert.Equal(t, "Hoch", second[5].Fields[1].Options[0].Label)
}

func TestRuleTable_CheckReportsDrift(t *testing.T) {
	table := DefaultRuleTable()
	mini := table[TierMini]
	mini.Optional = removeID(mini.Optional, FieldSonstiges)
	mini.Hidden = append(mini.Hidden, FieldTitel, "ghost")
	mini.MinLengths["phantom"] = 10
	table[TierMini] = mini
	delete(table, TierStandard)

	report := table.Check(DefaultCatalog())

	expected := []TableProblem{
		{Tier: TierMini, FieldID: "ghost", Kind: ProblemUnknownField},
		{Tier: TierMini, FieldID: FieldTitel, Kind: ProblemOverlap},
		{Tier: TierMini, FieldID: FieldSonstiges, Kind: ProblemUncovered},
		{Tier: TierMini, FieldID: "phantom", Kind: ProblemMinLengthOnly},
		{Tier: TierStandard, Kind: ProblemMissingTier},
	}
	if diff := cmp.Diff(expected, report.Problems); diff != "" {
		t.Errorf("Check() mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, report.OK())
	assert.True(t, report.HasOverlaps())
	assert.Contains(t, report.Error(), "mini/titel: overlap")
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
