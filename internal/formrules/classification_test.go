package formrules

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestClassify_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		answers  Answers
		expected Tier
		rule     string
	}{
		{
			name:     "short single team project with medium risk is mini",
			answers:  Answers{Duration: DurationUpTo2Weeks, Scope: ScopeSingleTeam, Relevance: LevelLow, Risk: LevelMedium},
			expected: TierMini,
			rule:     "mini_eligible",
		},
		{
			name:     "high risk overrides mini eligibility",
			answers:  Answers{Duration: DurationUpTo2Weeks, Scope: ScopeSingleTeam, Relevance: LevelLow, Risk: LevelHigh},
			expected: TierStrategic,
			rule:     "strategic_override",
		},
		{
			name:     "high relevance alone forces strategic",
			answers:  Answers{Duration: DurationUpTo2Weeks, Scope: ScopeSingleTeam, Relevance: LevelHigh, Risk: LevelLow},
			expected: TierStrategic,
			rule:     "strategic_override",
		},
		{
			name:     "company wide scope forces strategic",
			answers:  Answers{Duration: Duration1To3Months, Scope: ScopeCompanyWide, Relevance: LevelLow, Risk: LevelLow},
			expected: TierStrategic,
			rule:     "strategic_override",
		},
		{
			name:     "over one year forces strategic",
			answers:  Answers{Duration: DurationOver1Year, Scope: ScopeSingleTeam, Relevance: LevelLow, Risk: LevelLow},
			expected: TierStrategic,
			rule:     "strategic_override",
		},
		{
			name:     "two to three teams in two weeks is mini",
			answers:  Answers{Duration: DurationUpTo2Weeks, Scope: Scope2To3Teams, Relevance: LevelMedium, Risk: LevelLow},
			expected: TierMini,
			rule:     "mini_eligible",
		},
		{
			name:     "multiple departments is standard",
			answers:  Answers{Duration: DurationUpTo2Weeks, Scope: ScopeMultipleDepartments, Relevance: LevelLow, Risk: LevelLow},
			expected: TierStandard,
			rule:     "default",
		},
		{
			name:     "three months is standard",
			answers:  Answers{Duration: Duration1To3Months, Scope: ScopeSingleTeam, Relevance: LevelLow, Risk: LevelLow},
			expected: TierStandard,
			rule:     "default",
		},
		{
			name:     "empty answers fall through to standard",
			answers:  Answers{},
			expected: TierStandard,
			rule:     "default",
		},
		{
			name:     "unknown tokens fall through to standard",
			answers:  Answers{Duration: "forever", Scope: "galaxy", Relevance: "huge", Risk: "?"},
			expected: TierStandard,
			rule:     "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, rule := ClassifyWithReason(tt.answers)
			assert.Equal(t, tt.expected, tier)
			assert.Equal(t, tt.rule, rule)
			assert.Equal(t, tt.expected, Classify(tt.answers))
		})
	}
}

// The mini rule never looks at risk. Any risk below high keeps a short,
// local, non-strategic project in mini.
func TestClassify_MiniIgnoresRisk(t *testing.T) {
	for _, risk := range []string{LevelLow, LevelMedium, "", "unknown"} {
		a := Answers{Duration: DurationUpTo2Weeks, Scope: ScopeSingleTeam, Relevance: LevelLow, Risk: risk}
		assert.Equal(t, TierMini, Classify(a), "risk=%q", risk)
	}
}

func TestClassify_AllAnswerTuples(t *testing.T) {
	counts := map[Tier]int{}
	total := 0
	for _, d := range durationValues {
		for _, s := range scopeValues {
			for _, rel := range levelValues {
				for _, risk := range levelValues {
					a := Answers{Duration: d, Scope: s, Relevance: rel, Risk: risk}
					want := expectedTier(a)
					got := Classify(a)
					assert.Equal(t, want, got, "answers=%+v", a)
					assert.True(t, a.Complete())
					counts[got]++
					total++
				}
			}
		}
	}

	assert.Equal(t, 144, total)
	assert.Equal(t, 108, counts[TierStrategic])
	assert.Equal(t, 8, counts[TierMini])
	assert.Equal(t, 28, counts[TierStandard])
}

// expectedTier restates the decision table independently of the rule list.
func expectedTier(a Answers) Tier {
	if a.Duration == DurationOver1Year || a.Scope == ScopeCompanyWide || a.Relevance == LevelHigh || a.Risk == LevelHigh {
		return TierStrategic
	}
	if a.Duration == DurationUpTo2Weeks && (a.Scope == ScopeSingleTeam || a.Scope == Scope2To3Teams) {
		return TierMini
	}
	return TierStandard
}

func TestAnswers_Complete(t *testing.T) {
	assert.True(t, Answers{Duration: DurationOver1Year, Scope: ScopeCompanyWide, Relevance: LevelHigh, Risk: LevelLow}.Complete())
	assert.False(t, Answers{Duration: DurationOver1Year, Scope: ScopeCompanyWide, Relevance: LevelHigh}.Complete())
	assert.False(t, Answers{Duration: "weeks", Scope: ScopeCompanyWide, Relevance: LevelHigh, Risk: LevelLow}.Complete())
}

func TestQuestionnaire_OptionsMatchAnswerDomains(t *testing.T) {
	questions := Questionnaire()
	if !assert.Len(t, questions, 4) {
		return
	}

	domains := map[string][]string{
		"duration":  durationValues,
		"scope":     scopeValues,
		"relevance": levelValues,
		"risk":      levelValues,
	}
	for _, q := range questions {
		var values []string
		for _, opt := range q.Options {
			values = append(values, opt.Value)
			assert.NotEmpty(t, opt.Label)
		}
		assert.Equal(t, domains[q.ID], values, "question %s", q.ID)
	}
}

func TestTier_ParseAndLabel(t *testing.T) {
	for _, tier := range AllTiers() {
		parsed, ok := ParseTier(string(tier))
		assert.True(t, ok)
		assert.Equal(t, tier, parsed)
		assert.NotEmpty(t, tier.Description())
	}

	_, ok := ParseTier("huge")
	assert.False(t, ok)
	assert.Equal(t, "Strategisches Großprojekt", TierStrategic.Label())
	assert.Equal(t, "huge", Tier("huge").Label())
}

// Property: Classify is total and deterministic over arbitrary strings, and
// any high answer or long duration wins over mini eligibility.
func TestProperty_ClassifyTotalAndStrategicPrecedence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	answerGen := func(domain []string) gopter.Gen {
		values := make([]interface{}, 0, len(domain)+1)
		for _, v := range domain {
			values = append(values, v)
		}
		values = append(values, "unexpected")
		return gen.OneConstOf(values...)
	}

	properties.Property("classify returns one known tier, the same one every time", prop.ForAll(
		func(d, s, rel, risk string) bool {
			a := Answers{Duration: d, Scope: s, Relevance: rel, Risk: risk}
			first := Classify(a)
			_, known := ParseTier(string(first))
			return known && first == Classify(a) && first == expectedTier(a)
		},
		answerGen(durationValues),
		answerGen(scopeValues),
		answerGen(levelValues),
		answerGen(levelValues),
	))

	properties.Property("arbitrary tokens never panic and never yield an empty tier", prop.ForAll(
		func(d, s, rel, risk string) bool {
			return Classify(Answers{Duration: d, Scope: s, Relevance: rel, Risk: risk}) != ""
		},
		gen.AnyString(),
		gen.AnyString(),
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
