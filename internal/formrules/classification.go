package formrules

// Duration answers
const (
	DurationUpTo2Weeks  = "up_to_2_weeks"
	Duration1To3Months  = "1_to_3_months"
	Duration3To12Months = "3_to_12_months"
	DurationOver1Year   = "over_1_year"
)

// Scope answers
const (
	ScopeSingleTeam          = "single_team"
	Scope2To3Teams           = "2_to_3_teams"
	ScopeMultipleDepartments = "multiple_departments"
	ScopeCompanyWide         = "company_wide"
)

// Level answers, shared by relevance and risk
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// Answers holds the four classification questionnaire answers.
type Answers struct {
	Duration  string `json:"duration" yaml:"duration"`
	Scope     string `json:"scope" yaml:"scope"`
	Relevance string `json:"relevance" yaml:"relevance"`
	Risk      string `json:"risk" yaml:"risk"`
}

// Complete reports whether every answer is within its known domain.
func (a Answers) Complete() bool {
	return inDomain(a.Duration, durationValues) &&
		inDomain(a.Scope, scopeValues) &&
		inDomain(a.Relevance, levelValues) &&
		inDomain(a.Risk, levelValues)
}

var (
	durationValues = []string{DurationUpTo2Weeks, Duration1To3Months, Duration3To12Months, DurationOver1Year}
	scopeValues    = []string{ScopeSingleTeam, Scope2To3Teams, ScopeMultipleDepartments, ScopeCompanyWide}
	levelValues    = []string{LevelLow, LevelMedium, LevelHigh}
)

func inDomain(v string, domain []string) bool {
	for _, d := range domain {
		if v == d {
			return true
		}
	}
	return false
}

// classificationRule is one row of the classifier's decision table.
type classificationRule struct {
	name  string
	tier  Tier
	match func(Answers) bool
}

// classificationRules is evaluated top to bottom; the first match wins.
//
// The mini rule does not consult risk: a short single-team project with medium
// risk is still mini. Pinned by TestClassify_MiniIgnoresRisk.
var classificationRules = []classificationRule{
	{
		name: "strategic_override",
		tier: TierStrategic,
		match: func(a Answers) bool {
			return a.Duration == DurationOver1Year ||
				a.Scope == ScopeCompanyWide ||
				a.Relevance == LevelHigh ||
				a.Risk == LevelHigh
		},
	},
	{
		name: "mini_eligible",
		tier: TierMini,
		match: func(a Answers) bool {
			return a.Duration == DurationUpTo2Weeks &&
				(a.Scope == ScopeSingleTeam || a.Scope == Scope2To3Teams) &&
				a.Relevance != LevelHigh
		},
	},
}

// Classify maps questionnaire answers to a tier. It is total: answers outside
// the known domains fall through to TierStandard.
func Classify(a Answers) Tier {
	tier, _ := ClassifyWithReason(a)
	return tier
}

// ClassifyWithReason is Classify plus the name of the rule that fired
// ("default" when none did).
func ClassifyWithReason(a Answers) (Tier, string) {
	for _, rule := range classificationRules {
		if rule.match(a) {
			return rule.tier, rule.name
		}
	}
	return TierStandard, "default"
}

// QuestionOption is a selectable answer of a questionnaire question.
type QuestionOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Question is one of the four classification questions.
type Question struct {
	ID       string           `json:"id"`
	Question string           `json:"question"`
	Options  []QuestionOption `json:"options"`
}

// Questionnaire returns the classification questions in the order they are asked.
func Questionnaire() []Question {
	return []Question{
		{
			ID:       "duration",
			Question: "1. Dauer des Vorhabens:",
			Options: []QuestionOption{
				{Value: DurationUpTo2Weeks, Label: "Bis 2 Wochen (z.B. Workshop, Sprint)"},
				{Value: Duration1To3Months, Label: "1-3 Monate"},
				{Value: Duration3To12Months, Label: "3-12 Monate"},
				{Value: DurationOver1Year, Label: "Über 1 Jahr"},
			},
		},
		{
			ID:       "scope",
			Question: "2. Anzahl betroffener Bereiche/Personen:",
			Options: []QuestionOption{
				{Value: ScopeSingleTeam, Label: "1 Team (bis 15 Personen)"},
				{Value: Scope2To3Teams, Label: "2-3 Teams/Bereiche (15-50 Personen)"},
				{Value: ScopeMultipleDepartments, Label: "Mehrere Abteilungen (50-200 Personen)"},
				{Value: ScopeCompanyWide, Label: "Konzernweit (>200 Personen)"},
			},
		},
		{
			ID:       "relevance",
			Question: "3. Strategische Relevanz:",
			Options: []QuestionOption{
				{Value: LevelLow, Label: "Niedrig (operative Optimierung)"},
				{Value: LevelMedium, Label: "Mittel (wichtig für Bereichsziele)"},
				{Value: LevelHigh, Label: "Hoch (unterstützt Konzernstrategie)"},
			},
		},
		{
			ID:       "risk",
			Question: "4. Unsicherheit/Risiko (Selbsteinschätzung):",
			Options: []QuestionOption{
				{Value: LevelLow, Label: "Niedrig (klarer Ablauf, bekannte Prozesse)"},
				{Value: LevelMedium, Label: "Mittel (einige Unbekannte)"},
				{Value: LevelHigh, Label: "Hoch (neuartiges Vorhaben, viele Unsicherheiten)"},
			},
		},
	}
}
