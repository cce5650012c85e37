package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes content and an empty fixture into dir.
func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contacts.yaml"), []byte("contacts: []\n"), 0644))
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, `
name: test_scenario
description: "Test scenario for validation"
fixture: contacts.yaml
steps:
  - query: contacts.count()
    expect:
      result: 0
  - query: contacts.where(c => c.Id == "1")
    raw: true
    expect:
      ids: ["1"]
      fallback: false
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, filepath.Join(dir, "contacts.yaml"), scenario.Fixture)
	require.Len(t, scenario.Steps, 2)
	assert.Equal(t, 0, scenario.Steps[0].Expect.Result)
	assert.True(t, scenario.Steps[1].Raw)
	assert.Equal(t, []string{"1"}, scenario.Steps[1].Expect.IDs)
	require.NotNil(t, scenario.Steps[1].Expect.Fallback)
	assert.False(t, *scenario.Steps[1].Expect.Fallback)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MissingFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: test
description: "Fixture does not exist"
fixture: missing.yaml
steps:
  - query: contacts
`), 0644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixture not found")
}

func TestParseScenario_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nfixture: f.yaml\nsteps:\n  - query: contacts\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nfixture: f.yaml\nsteps:\n  - query: contacts\n",
			wantErr: "description is required",
		},
		{
			name:    "missing fixture",
			content: "name: n\ndescription: d\nsteps:\n  - query: contacts\n",
			wantErr: "fixture is required",
		},
		{
			name:    "no steps",
			content: "name: n\ndescription: d\nfixture: f.yaml\nsteps: []\n",
			wantErr: "steps list is required",
		},
		{
			name:    "missing query",
			content: "name: n\ndescription: d\nfixture: f.yaml\nsteps:\n  - raw: true\n",
			wantErr: "steps[0]: query is required",
		},
		{
			name:    "unknown field",
			content: "name: n\ndescription: d\nfixture: f.yaml\nsteps:\n  - query: contacts\n    expects:\n      count: 1\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "error with result expectation",
			content: "name: n\ndescription: d\nfixture: f.yaml\nsteps:\n  - query: contacts\n    expect:\n      error: NO_ELEMENTS\n      count: 0\n",
			wantErr: "error excludes result expectations",
		},
		{
			name:    "negative count",
			content: "name: n\ndescription: d\nfixture: f.yaml\nsteps:\n  - query: contacts\n    expect:\n      count: -1\n",
			wantErr: "count must be non-negative",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
