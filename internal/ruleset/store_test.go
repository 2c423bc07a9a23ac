package ruleset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"change-intake-service/internal/formrules"
)

func writeRules(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestStore_Replace(t *testing.T) {
	first := formrules.DefaultEngine()
	store := NewStore(first)
	assert.Same(t, first, store.Engine())

	second := formrules.DefaultEngine()
	store.Replace(second)
	assert.Same(t, second, store.Engine())
}

func TestLoadEngine(t *testing.T) {
	engine, err := LoadEngine("")
	require.NoError(t, err)
	assert.Equal(t, formrules.DefaultRuleTable()[formrules.TierMini], engine.DeriveFieldRules(formrules.TierMini))

	dir := t.TempDir()
	overlapping := filepath.Join(dir, "rules.yaml")
	writeRules(t, overlapping, "mini:\n  required: [titel]\n  optional: [titel]\n")

	_, err = LoadEngine(overlapping)
	require.Error(t, err)
	var report formrules.TableReport
	assert.ErrorAs(t, err, &report)
	assert.True(t, report.HasOverlaps())
}
