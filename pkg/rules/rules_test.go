package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAllFlagCombinations(t *testing.T) {
	for _, create := range []bool{true, false} {
		for _, update := range []bool{true, false} {
			for _, del := range []bool{true, false} {
				flags := Flags{CreateMissing: create, UpdateExisting: update, DeleteMissing: del}
				rs := Build(flags)

				assert.Len(t, rs, 15)
				for _, entity := range EntityTypes() {
					rule, ok := rs[entity]
					require.True(t, ok, entity)
					assert.ElementsMatch(t, Applicable(entity), keys(rule), entity)
					for k, v := range rule {
						switch k {
						case CreateMissing:
							assert.Equal(t, create, v)
						case UpdateExisting:
							assert.Equal(t, update, v)
						case DeleteMissing:
							assert.Equal(t, del, v)
						}
					}
				}
				assert.NotContains(t, rs["template_groups"], DeleteMissing)
				assert.NotContains(t, rs["templates"], DeleteMissing)
				assert.NotContains(t, rs["templateLinkage"], UpdateExisting)
			}
		}
	}
}

func TestBuildIsFresh(t *testing.T) {
	a := Build(DefaultFlags())
	b := Build(DefaultFlags())
	a["items"][CreateMissing] = false
	assert.True(t, b["items"][CreateMissing])
}

func TestApplicableUnknown(t *testing.T) {
	assert.Nil(t, Applicable("dashboards"))
}

func TestRender(t *testing.T) {
	out, err := Render(RuleSet{
		"triggers":  {DeleteMissing: true, CreateMissing: true, UpdateExisting: false},
		"templates": {CreateMissing: true, UpdateExisting: true},
	})
	require.NoError(t, err)

	text := string(out)
	assert.Less(t, strings.Index(text, "templates:"), strings.Index(text, "triggers:"))
	assert.Less(t, strings.Index(text, "createMissing"), strings.Index(text, "deleteMissing"))

	var back RuleSet
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, RuleSet{
		"triggers":  {DeleteMissing: true, CreateMissing: true, UpdateExisting: false},
		"templates": {CreateMissing: true, UpdateExisting: true},
	}, back)
}

func TestParseAndMerge(t *testing.T) {
	base := Build(DefaultFlags())

	t.Run("yaml", func(t *testing.T) {
		overrides, err := Parse([]byte("items:\n  updateExisting: false\n  deleteMissing: true\n"), ".yaml")
		require.NoError(t, err)

		merged, err := Merge(base, overrides)
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{CreateMissing: true, UpdateExisting: false, DeleteMissing: true}, merged["items"])
		assert.Equal(t, base["graphs"], merged["graphs"])
		assert.True(t, base["items"][UpdateExisting], "base must not be modified")
	})

	t.Run("json", func(t *testing.T) {
		overrides, err := Parse([]byte(`{"templates": {"createMissing": false}}`), ".json")
		require.NoError(t, err)

		merged, err := Merge(base, overrides)
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{CreateMissing: false, UpdateExisting: true}, merged["templates"])
	})

	t.Run("toml", func(t *testing.T) {
		overrides, err := Parse([]byte("[valueMaps]\ndeleteMissing = true\n"), ".toml")
		require.NoError(t, err)

		merged, err := Merge(base, overrides)
		require.NoError(t, err)
		assert.True(t, merged["valueMaps"][DeleteMissing])
	})

	t.Run("empty", func(t *testing.T) {
		overrides, err := Parse([]byte(""), ".yaml")
		require.NoError(t, err)
		assert.Empty(t, overrides)
	})
}

func TestParseRejectsInapplicable(t *testing.T) {
	_, err := Parse([]byte("templates:\n  deleteMissing: true\n"), ".yaml")
	assert.ErrorContains(t, err, "invalid rules")

	_, err = Parse([]byte("dashboards:\n  createMissing: true\n"), ".yaml")
	assert.ErrorContains(t, err, "invalid rules")

	_, err = Parse([]byte("items:\n  createMissing: maybe\n"), ".yaml")
	assert.ErrorContains(t, err, "invalid rules")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yml")
	require.NoError(t, os.WriteFile(path, []byte("hosts:\n  createMissing: false\n"), 0o644))

	rs, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, RuleSet{"hosts": {CreateMissing: false}}, rs)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "unable to read rules file")
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
