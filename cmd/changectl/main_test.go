package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"change-intake-service/internal/dto"
	"change-intake-service/internal/formrules"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("RULES_TABLE_PATH", "")

	out := &bytes.Buffer{}
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestQuestionnaireCmd(t *testing.T) {
	out, err := execute(t, "questionnaire")
	require.NoError(t, err)

	var questions []formrules.Question
	require.NoError(t, json.Unmarshal([]byte(out), &questions))
	require.Len(t, questions, 4)
	assert.Equal(t, "risk", questions[3].ID)
}

func TestClassifyCmd(t *testing.T) {
	out, err := execute(t, "classify",
		"--duration", formrules.DurationUpTo2Weeks,
		"--scope", formrules.ScopeSingleTeam,
		"--relevance", formrules.LevelLow,
		"--risk", formrules.LevelHigh,
	)
	require.NoError(t, err)

	var resp dto.ClassificationResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, formrules.TierMini, resp.Tier)
	assert.Equal(t, "mini_eligible", resp.Rule)
}

func TestClassifyCmd_Errors(t *testing.T) {
	_, err := execute(t, "classify", "--duration", formrules.DurationUpTo2Weeks)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")

	_, err = execute(t, "classify", "--duration", "forever", "--scope", formrules.ScopeSingleTeam,
		"--relevance", formrules.LevelLow, "--risk", formrules.LevelLow)
	require.Error(t, err)
}

func TestCatalogCmd(t *testing.T) {
	out, err := execute(t, "catalog", "--tier", "standard")
	require.NoError(t, err)

	var resp dto.CatalogResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, formrules.TierStandard, resp.Tier)
	assert.Equal(t, 15, resp.RequiredCount)
	assert.Contains(t, resp.ExternalKeys, "ziel_change_begleitung_von")

	_, err = execute(t, "catalog", "--tier", "huge")
	require.Error(t, err)
}

func TestValidateCmd(t *testing.T) {
	tests := []struct {
		name         string
		values       string
		wantBlocking bool
		wantErrors   int
	}{
		{
			name:         "blocking",
			values:       `{"titel": "CRM-Einführung"}`,
			wantBlocking: true,
			wantErrors:   7,
		},
		{
			name: "complete",
			values: `{
				"titel": "CRM-Einführung",
				"beschreibung": "Wir führen ein neues CRM im Vertrieb ein und lösen die alten Excel-Listen ab.",
				"ansprechpartner": "Maria Muster",
				"zielsetzung": "Alle Kundenkontakte liegen zentral vor und sind für das ganze Team auffindbar.",
				"startdatum": "2026-11-01",
				"zeithorizont": "2 Monate",
				"betroffene_bereiche": "Vertrieb Nord",
				"erwartungen": "Begleitung der Schulungen und Kommunikation"
			}`,
			wantBlocking: false,
			wantErrors:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "values.json", tt.values)

			out, err := execute(t, "validate", "--tier", "mini", "--values", path)
			if tt.wantBlocking {
				assert.ErrorIs(t, err, errBlocking)
			} else {
				assert.NoError(t, err)
			}

			var resp dto.ValidationResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, tt.wantBlocking, resp.Blocking)
			assert.Equal(t, tt.wantErrors, resp.ErrorCount)
		})
	}
}

func TestValidateCmd_BadValuesFile(t *testing.T) {
	_, err := execute(t, "validate", "--tier", "mini", "--values", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, errBlocking)

	path := writeFile(t, "values.json", `["not", "an", "object"]`)
	_, err = execute(t, "validate", "--tier", "mini", "--values", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode values")
}

func TestValidateCmd_RuleTableOverride(t *testing.T) {
	rules := writeFile(t, "rules.yaml", `
mini:
  required: [titel]
  optional: [beschreibung, ansprechpartner, zielsetzung, was_passiert_misserfolg, startdatum,
    zeithorizont, betroffene_bereiche, anzahl_ma_fk, erwartungen, changebedarf, von_zu,
    hindernisse, erfolgsfaktoren, vereinbarungen, sonstiges]
  hidden: [heisse_phasen, strategische_ziele, beitrag_konzernstrategie]
`)
	values := writeFile(t, "values.json", `{"titel": "CRM-Einführung"}`)

	out, err := execute(t, "--rules", rules, "validate", "--tier", "mini", "--values", values)
	require.NoError(t, err)

	var resp dto.ValidationResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.Blocking)
	assert.Equal(t, formrules.Progress{RequiredTotal: 1, RequiredFilled: 1, Percent: 100}, resp.Progress)
}

func TestRulesFlag_RejectsOverlappingTable(t *testing.T) {
	rules := writeFile(t, "rules.yaml", `
mini:
  required: [titel]
  optional: [titel]
`)

	_, err := execute(t, "--rules", rules, "questionnaire")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rule table")
}

func TestPayloadCmd(t *testing.T) {
	values := writeFile(t, "values.json", `{"titel": "CRM-Einführung", "von_zu": "Excel → CRM"}`)

	t.Run("tier flag", func(t *testing.T) {
		out, err := execute(t, "payload", "--tier", "mini", "--values", values)
		require.NoError(t, err)

		var payload map[string]string
		require.NoError(t, json.Unmarshal([]byte(out), &payload))
		assert.Equal(t, "CRM-Einführung", payload["beschreibung_vorhaben"])
		assert.Equal(t, "Excel", payload["ziel_change_begleitung_von"])
		assert.Equal(t, "CRM", payload["ziel_change_begleitung_zu"])
		assert.Equal(t, "mini", payload[formrules.KeyProjektklasse])
		assert.Contains(t, payload, "sonstiges")
		assert.Empty(t, payload["sonstiges"])
	})

	t.Run("answers decide tier", func(t *testing.T) {
		out, err := execute(t, "payload", "--tier", "mini", "--values", values,
			"--duration", formrules.Duration1To3Months,
			"--scope", formrules.ScopeCompanyWide,
			"--relevance", formrules.LevelLow,
			"--risk", formrules.LevelLow,
		)
		require.NoError(t, err)

		var payload map[string]string
		require.NoError(t, json.Unmarshal([]byte(out), &payload))
		assert.Equal(t, "strategic", payload[formrules.KeyProjektklasse])
		assert.Contains(t, payload[formrules.KeyKlassifizierung], `"projectClass":"strategic"`)
	})

	t.Run("unknown tier", func(t *testing.T) {
		_, err := execute(t, "payload", "--tier", "huge", "--values", values)
		require.Error(t, err)
	})
}
