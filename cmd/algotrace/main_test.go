package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awmpietro/algotrace/internal/replay"
	"github.com/awmpietro/algotrace/internal/trace"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ALGOTRACE_CONFIG", "")
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAlgorithmsCmd(t *testing.T) {
	out, err := run(t, "algorithms")
	require.NoError(t, err)
	assert.Contains(t, out, "ALGORITHM")
	assert.Regexp(t, `knapsack\s+dp\s+dp \(table\), greedy \(greedy\)`, out)
	assert.Contains(t, out, "huffman")
}

func TestPresetsCmd(t *testing.T) {
	out, err := run(t, "presets", "lcs")
	require.NoError(t, err)
	assert.Contains(t, out, "dna-sequence")

	out, err = run(t, "presets")
	require.NoError(t, err)
	assert.Contains(t, out, "kruskals\n")

	_, err = run(t, "presets", "bogosort")
	assert.Error(t, err)
}

func TestSolveCmd_PresetSummary(t *testing.T) {
	out, err := run(t, "solve", "knapsack", "dp", "--preset", "textbook-example")
	require.NoError(t, err)
	assert.Regexp(t, `result\s+220`, out)
	assert.Regexp(t, `found\s+true`, out)
	assert.Regexp(t, `selected\s+\[2 3\]`, out)
}

func TestSolveCmd_InputFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lis.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sequence":[10,9,2,5,3,7,101,18]}`), 0o600))

	out, err := run(t, "solve", "lis", "-i", path, "-f", "json")
	require.NoError(t, err)

	var tr trace.Trace
	require.NoError(t, json.Unmarshal([]byte(out), &tr))
	assert.Equal(t, 4, tr.ResultValue)
	require.NoError(t, tr.Validate())
}

func TestSolveCmd_InputFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rod.yaml")
	require.NoError(t, os.WriteFile(path, []byte("length: 4\nprices: [1, 5, 8, 9]\n"), 0o600))

	out, err := run(t, "solve", "rod-cutting", "-i", path)
	require.NoError(t, err)
	assert.Regexp(t, `result\s+10`, out)
}

func TestSolveCmd_WhereDotAndTable(t *testing.T) {
	out, err := run(t, "solve", "knapsack", "greedy", "-p", "textbook-example", "--where", `kind == "REJECT"`)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1, out)
	assert.Regexp(t, regexp.MustCompile(`^#\d+ REJECT `), lines[0])

	out, err = run(t, "solve", "dijkstra", "-p", "simple-grid", "--dot")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "digraph"), out)

	out, err = run(t, "solve", "lcs", "-p", "dna-sequence", "-f", "table", "--index", "0")
	require.NoError(t, err)
	// Header plus one row per prefix of "AGGTAB".
	assert.Equal(t, 8, strings.Count(out, "\n"), out)

	_, err = run(t, "solve", "lcs", "-p", "dna-sequence", "-f", "xml")
	assert.Error(t, err)
}

func TestSolveCmd_RequiresInput(t *testing.T) {
	_, err := run(t, "solve", "lcs")
	assert.ErrorIs(t, err, errNeedInput)

	_, err = run(t, "solve", "lcs", "-i", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestReplayCmd(t *testing.T) {
	out, err := run(t, "replay", "huffman", "-p", "standard-text", "--index", "0")
	require.NoError(t, err)

	var st replay.State
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, 0, st.Index)
	require.NotNil(t, st.Forest)
	assert.NotEmpty(t, st.Forest.Roots)
}

func TestPlotCmd(t *testing.T) {
	out, err := run(t, "plot", "edit-distance", "-p", "short-change")
	require.NoError(t, err)
	assert.Contains(t, out, "comparisons")

	out, err = run(t, "plot", "dijkstra", "-p", "complex-network", "--series", "result")
	require.NoError(t, err)
	assert.Contains(t, out, "distances")

	_, err = run(t, "plot", "lcs", "-p", "dna-sequence", "--series", "nope")
	assert.Error(t, err)
}

func TestTracesCmd_Lifecycle(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "traces", "list")
	assert.Error(t, err, "listing without a store fails")

	out, err := run(t, "--store", dir, "solve", "coin-change", "-p", "us-coins")
	require.NoError(t, err)
	m := regexp.MustCompile(`id\s+(\S+)`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	id := m[1]

	out, err = run(t, "--store", dir, "traces", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "coin-change")

	out, err = run(t, "--store", dir, "traces", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, `"algorithm": "coin-change"`)

	out, err = run(t, "--store", dir, "traces", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted "+id)

	_, err = run(t, "--store", dir, "traces", "show", id)
	assert.Error(t, err)
}

func TestCompareCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coins.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"amount":6,"coins":[1,3,4]}`), 0o600))

	out, err := run(t, "compare", "coin-change", "-i", path)
	require.NoError(t, err)
	assert.Regexp(t, `result\s+3\s+2\s+\+1`, out)
	assert.Contains(t, out, "greedy differs from dp by +1")

	out, err = run(t, "compare", "knapsack", "-p", "textbook-example", "-f", "json")
	require.NoError(t, err)
	var sum struct {
		GreedyResult  int  `json:"greedy_result"`
		DPResult      int  `json:"dp_result"`
		GreedyOptimal bool `json:"greedy_optimal"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, 160, sum.GreedyResult)
	assert.Equal(t, 220, sum.DPResult)
	assert.False(t, sum.GreedyOptimal)

	yamlPath := filepath.Join(t.TempDir(), "meetings.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("intervals:\n  - {id: 1, start: 0, end: 3}\n  - {id: 2, start: 3, end: 5}\n"), 0o600))
	out, err = run(t, "compare", "interval-scheduling", "-i", yamlPath)
	require.NoError(t, err)
	assert.Contains(t, out, "greedy is optimal")

	_, err = run(t, "compare", "lcs", "-p", "dna-sequence")
	assert.Error(t, err)
	_, err = run(t, "compare", "coin-change")
	assert.Error(t, err)
}
