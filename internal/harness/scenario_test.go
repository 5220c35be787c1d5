package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/resolvecheck/internal/recipe"
	"github.com/roach88/resolvecheck/internal/verify"
)

func expectConflict() verify.Expected {
	return verify.Expected{Conflict: true}
}

const diamondYAML = `name: diamond-from-file
description: diamond loaded from YAML
root: app
recipes:
  - name: util
    version: "1.9"
  - name: lib_a
    version: 0.1.0
    requires:
      - dep: util
        range: "[>=1.0 <2.0]"
  - name: app
    version: 0.1.0
    requires:
      - dep: lib_a
        range: "[>=0.1.0]"
expect:
  versions:
    util: "1.9"
`

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, diamondYAML))
	require.NoError(t, err)

	assert.Equal(t, "diamond-from-file", sc.Name)
	assert.Equal(t, "app", sc.Root)
	require.Len(t, sc.Recipes, 3)
	assert.Equal(t, "[>=1.0 <2.0]", sc.Recipes[1].Requires[0].Range)
	assert.Equal(t, "1.9", sc.Expect.Versions["util"])
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	// "expects" instead of "expect" must fail loudly, not silently
	// assert nothing.
	bad := `name: typo
description: d
root: app
recipes:
  - name: app
    version: 0.1.0
expects:
  conflict: true
`
	_, err := LoadScenario(writeScenario(t, bad))
	require.Error(t, err)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidateScenario_RequiredFields(t *testing.T) {
	base := func() *Scenario {
		return &Scenario{
			Name:        "s",
			Description: "d",
			Root:        "app",
			Recipes:     []RecipeSpec{{Name: "app", Version: "0.1.0"}},
			Expect:      expectConflict(),
		}
	}

	ok := base()
	require.NoError(t, validateScenario(ok))

	noName := base()
	noName.Name = ""
	require.Error(t, validateScenario(noName))

	noRecipes := base()
	noRecipes.Recipes = nil
	require.Error(t, validateScenario(noRecipes))

	noExpect := base()
	noExpect.Expect.Conflict = false
	require.Error(t, validateScenario(noExpect))

	bothExpect := base()
	bothExpect.Expect.Versions = map[string]string{"util": "1.9"}
	require.Error(t, validateScenario(bothExpect))

	badRequire := base()
	badRequire.Recipes[0].Requires = []RequireSpec{{Dep: "util"}}
	require.Error(t, validateScenario(badRequire))

	negativeRepeat := base()
	negativeRepeat.Repeat = -1
	require.Error(t, validateScenario(negativeRepeat))
}

func TestFixtureSet_CompilesAndValidates(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, diamondYAML))
	require.NoError(t, err)

	set, err := sc.FixtureSet()
	require.NoError(t, err)
	assert.Len(t, set.Recipes, 3)
	assert.Equal(t, "app", set.Root)
}

func TestFixtureSet_BadRange(t *testing.T) {
	sc := &Scenario{
		Name: "s", Description: "d", Root: "app",
		Recipes: []RecipeSpec{
			{Name: "app", Version: "0.1.0", Requires: []RequireSpec{
				{Dep: "util", Range: "[>=broken"},
			}},
			{Name: "util", Version: "1.9"},
		},
		Expect: expectConflict(),
	}

	_, err := sc.FixtureSet()
	require.Error(t, err)
	assert.True(t, recipe.IsFixtureError(err))
}

func TestFixtureSet_DuplicateIdentity(t *testing.T) {
	sc := &Scenario{
		Name: "s", Description: "d", Root: "app",
		Recipes: []RecipeSpec{
			{Name: "app", Version: "0.1.0"},
			{Name: "util", Version: "1.9"},
			{Name: "util", Version: "1.9"},
		},
		Expect: expectConflict(),
	}

	_, err := sc.FixtureSet()
	require.Error(t, err)
	assert.True(t, recipe.IsFixtureError(err))
}
