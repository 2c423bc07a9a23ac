package formrules

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completeValues fills every catalog field with text long enough for every tier.
func completeValues() FormValues {
	values := FormValues{}
	for _, id := range DefaultCatalog().FieldIDs() {
		values[id] = strings.Repeat("x", 250)
	}
	values[FieldZeithorizont] = "18 Monate"
	values[FieldAnzahlMaFk] = "450"
	return values
}

func TestValidate_MissingTitelAndShortBeschreibung(t *testing.T) {
	engine := DefaultEngine()

	issues := engine.Validate(FormValues{FieldTitel: "", FieldBeschreibung: "short"}, TierMini)

	var titelErrors, beschreibungErrors int
	for _, issue := range issues.Errors() {
		assert.Equal(t, "Das Feld ist Pflicht für deine Projektklasse (mini)", issue.Message)
		switch issue.FieldID {
		case FieldTitel:
			titelErrors++
		case FieldBeschreibung:
			beschreibungErrors++
		}
	}
	assert.Equal(t, 1, titelErrors)
	assert.Equal(t, 0, beschreibungErrors)

	warnings := issues.Warnings()
	require.Len(t, warnings, 1)
	assert.Equal(t, FieldBeschreibung, warnings[0].FieldID)
	assert.Equal(t, "Beschreibung (Stichpunkte)", warnings[0].FieldLabel)
	assert.Contains(t, warnings[0].Message, "5 / 50 Zeichen")
	assert.True(t, issues.Blocking())
	assert.False(t, issues.NeedsReview())
}

func TestValidate_Order(t *testing.T) {
	engine := DefaultEngine()
	values := FormValues{
		FieldBeschreibung: "kurz",
		FieldZielsetzung:  "auch kurz",
		FieldZeithorizont: "3 Tage",
		FieldAnzahlMaFk:   "12 MA",
	}

	issues := engine.Validate(values, TierStrategic)

	var got []string
	for _, issue := range issues {
		got = append(got, string(issue.Severity)+":"+issue.FieldID)
	}
	expected := []string{
		"error:" + FieldTitel,
		"error:" + FieldAnsprechpartner,
		"error:" + FieldWasPassiertMisserfolg,
		"error:" + FieldStartdatum,
		"error:" + FieldHeissePhasen,
		"error:" + FieldStrategischeZiele,
		"error:" + FieldBeitragKonzernstrategie,
		"error:" + FieldBetroffeneBereiche,
		"error:" + FieldErwartungen,
		"error:" + FieldChangebedarf,
		"error:" + FieldVonZu,
		"error:" + FieldHindernisse,
		"error:" + FieldErfolgsfaktoren,
		"error:" + FieldVereinbarungen,
		"warning:" + FieldBeschreibung,
		"warning:" + FieldZielsetzung,
		"warning:" + FieldZeithorizont,
		"info:" + FieldAnzahlMaFk,
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Validate() order mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_Strategic(t *testing.T) {
	engine := DefaultEngine()

	tests := []struct {
		name            string
		zeithorizont    string
		anzahl          string
		expectWarning   bool
		expectHeadcount bool
	}{
		{"two weeks is contradictory", "2 Wochen", "450", true, false},
		{"days are contradictory", "10 Tage", "450", true, false},
		{"keyword match is case sensitive", "2 wochen", "450", false, false},
		{"months are fine", "18 Monate", "450", false, false},
		{"few people", "18 Monate", "15 Personen", false, true},
		{"digits are concatenated", "18 Monate", "1 MA, 9 FK", false, true},
		{"twenty is enough", "18 Monate", "20", false, false},
		{"concatenated digits above threshold", "18 Monate", "120 MA, 15 FK", false, false},
		{"non numeric headcount is skipped", "18 Monate", "viele", false, false},
		{"overflowing headcount is skipped", "18 Monate", strings.Repeat("9", 40), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := completeValues()
			values[FieldZeithorizont] = tt.zeithorizont
			values[FieldAnzahlMaFk] = tt.anzahl

			issues := engine.Validate(values, TierStrategic)

			assert.Empty(t, issues.Errors())
			if tt.expectWarning {
				require.Len(t, issues.Warnings(), 1)
				w := issues.Warnings()[0]
				assert.Equal(t, FieldZeithorizont, w.FieldID)
				assert.Equal(t, "Zeithorizont/Dauer", w.FieldLabel)
				assert.True(t, issues.NeedsReview())
			} else {
				assert.Empty(t, issues.Warnings())
			}
			if tt.expectHeadcount {
				require.Len(t, issues.Infos(), 1)
				assert.Equal(t, FieldAnzahlMaFk, issues.Infos()[0].FieldID)
			} else {
				assert.Empty(t, issues.Infos())
			}
		})
	}
}

func TestValidate_ContradictionsOnlyForStrategic(t *testing.T) {
	engine := DefaultEngine()
	values := completeValues()
	values[FieldZeithorizont] = "2 Wochen"
	values[FieldAnzahlMaFk] = "3"

	for _, tier := range []Tier{TierMini, TierStandard} {
		assert.Empty(t, engine.Validate(values, tier), "tier %s", tier)
	}
}

func TestValidate_WhitespaceOnlyCountsAsMissing(t *testing.T) {
	engine := DefaultEngine()
	values := completeValues()
	values[FieldBeschreibung] = "   \t\n "

	issues := engine.Validate(values, TierMini)

	require.Len(t, issues, 1)
	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.Equal(t, FieldBeschreibung, issues[0].FieldID)
}

func TestValidate_CountsCharactersNotBytes(t *testing.T) {
	engine := DefaultEngine()
	values := completeValues()
	values[FieldErwartungen] = "  " + strings.Repeat("ä", 30) + "  "

	assert.Empty(t, engine.Validate(values, TierMini))

	values[FieldErwartungen] = strings.Repeat("ü", 29)
	issues := engine.Validate(values, TierMini)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "29 / 30 Zeichen")
}

func TestValidate_DoesNotMutateValues(t *testing.T) {
	engine := DefaultEngine()
	values := FormValues{FieldTitel: "  Titel  ", FieldBeschreibung: "kurz"}
	snapshot := FormValues{FieldTitel: "  Titel  ", FieldBeschreibung: "kurz"}

	engine.Validate(values, TierStandard)

	assert.Equal(t, snapshot, values)
}

func TestProgress(t *testing.T) {
	engine := DefaultEngine()

	p := engine.Progress(FormValues{FieldTitel: "x", FieldBeschreibung: " ", FieldZielsetzung: "y"}, TierMini)
	assert.Equal(t, Progress{RequiredTotal: 8, RequiredFilled: 2, Percent: 25}, p)

	full := engine.Progress(completeValues(), TierStrategic)
	assert.Equal(t, 100, full.Percent)
	assert.Equal(t, 18, full.RequiredTotal)

	none := engine.Progress(FormValues{}, Tier("huge"))
	assert.Equal(t, Progress{Percent: 100}, none)
}

// Property: Validate is deterministic and idempotent for any values and tier.
func TestProperty_ValidateIdempotent(t *testing.T) {
	engine := DefaultEngine()
	ids := DefaultCatalog().FieldIDs()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	tierGen := gen.OneConstOf(TierMini, TierStandard, TierStrategic)

	properties.Property("validating twice yields identical issues", prop.ForAll(
		func(raw []string, tier Tier) bool {
			values := FormValues{}
			for i, v := range raw {
				values[ids[i%len(ids)]] = v
			}
			first := engine.Validate(values, tier)
			second := engine.Validate(values, tier)
			return cmp.Equal(first, second)
		},
		gen.SliceOfN(len(ids), gen.OneGenOf(gen.Const(""), gen.AlphaString(), gen.AnyString())),
		tierGen,
	))

	properties.Property("missing external keys match the required errors", prop.ForAll(
		func(raw []string, tier Tier) bool {
			values := FormValues{}
			for i, v := range raw {
				values[ids[i%len(ids)]] = v
			}
			missing := engine.MissingExternalKeys(tier, values)
			errors := engine.Validate(values, tier).Errors()
			if len(missing) != len(errors) {
				return false
			}
			keys := map[string]bool{}
			for _, key := range missing {
				keys[key] = true
			}
			for _, issue := range errors {
				if !keys[engine.ExternalKey(issue.FieldID)] {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(len(ids), gen.OneGenOf(gen.Const(""), gen.Const("  "), gen.AlphaString())),
		tierGen,
	))

	properties.TestingRun(t)
}
