package main

import (
	"bytes"
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/geofuzz"
	"github.com/gogpu/geofuzz/internal/ledger"
)

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	t.Cleanup(func() { geofuzz.SetLogger(nil) })

	var out, errOut bytes.Buffer
	code = execute(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeCorpus(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for i, name := range names {
		b, err := geofuzz.NewBitmap(12+i, 10)
		require.NoError(t, err)
		b.Fill(color.NRGBA{R: uint8(40 * i), G: 120, B: 200, A: 255})
		b.SetRGBA(3, 3, color.NRGBA{A: 255})
		require.NoError(t, geofuzz.SavePNG(filepath.Join(dir, name), b))
	}
}

func TestShapesCommand(t *testing.T) {
	code, out, _ := runCLI(t, "shapes")
	assert.Equal(t, geofuzz.ExitOK, code)
	for _, k := range geofuzz.ShapeKinds() {
		assert.Contains(t, out, k.String())
	}
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	in, out := filepath.Join(dir, "in"), filepath.Join(dir, "out")
	db := filepath.Join(dir, "ledger.db")
	writeCorpus(t, in, "a.png", "b.png")

	code, stdout, stderr := runCLI(t, "run",
		"--input-dir", in,
		"--output-dir", out,
		"--shapes", "circle,line",
		"--composite-runs", "2",
		"--min-steps", "3",
		"--max-steps", "6",
		"--batch-seed", "99",
		"--jobs", "2",
		"--ledger", db,
		"--log-level", "warn",
	)
	require.Equal(t, geofuzz.ExitOK, code, "stdout:\n%s\nstderr:\n%s", stdout, stderr)

	assert.Contains(t, stdout, "batch seed 99: 8 runs")
	assert.Contains(t, stdout, "passed 8, failed 0, canceled 0")

	for _, name := range []string{
		"a_result_circle.png", "a_result_line.png", "a_result.png",
		"b_result_circle.png", "b_result_line.png", "b_result.png",
	} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}
	merged, err := filepath.Glob(filepath.Join(out, "*_merged_result_*.png"))
	require.NoError(t, err)
	assert.Len(t, merged, 2)

	l, err := ledger.Open(db)
	require.NoError(t, err)
	defer l.Close()
	batches, err := l.Batches(context.Background())
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, uint32(99), batches[0].Seed)
	assert.Equal(t, 8, batches[0].Passed)

	code, stdout, _ = runCLI(t, "ledger", "--ledger", db, batches[0].ID)
	assert.Equal(t, geofuzz.ExitOK, code)
	assert.Equal(t, 9, strings.Count(stdout, "\n"), stdout)
}

func TestDefaultCommandRuns(t *testing.T) {
	dir := t.TempDir()
	in, out := filepath.Join(dir, "in"), filepath.Join(dir, "out")
	writeCorpus(t, in, "a.png")

	code, stdout, stderr := runCLI(t,
		"--input-dir", in, "--output-dir", out,
		"--shapes", "triangle", "--composite-runs", "0",
		"--min-steps", "2", "--max-steps", "2", "--batch-seed", "1")
	require.Equal(t, geofuzz.ExitOK, code, stderr)
	assert.Contains(t, stdout, "2 runs")
}

func TestRunEmptyCorpus(t *testing.T) {
	dir := t.TempDir()
	code, _, stderr := runCLI(t, "run", "--input-dir", filepath.Join(dir, "in"), "--output-dir", filepath.Join(dir, "out"))
	assert.Equal(t, geofuzz.ExitSetup, code)
	assert.Contains(t, stderr, "no assets")

	// The directories are created on first use.
	_, err := os.Stat(filepath.Join(dir, "in"))
	assert.NoError(t, err)
}

func TestRunInvalidFlags(t *testing.T) {
	dir := t.TempDir()
	writeCorpus(t, filepath.Join(dir, "in"), "a.png")
	base := []string{"--input-dir", filepath.Join(dir, "in"), "--output-dir", filepath.Join(dir, "out")}

	tests := []struct {
		name string
		args []string
	}{
		{"unknown shape", []string{"--shapes", "hexagon"}},
		{"bad combine", []string{"--combine", "screen"}},
		{"inverted steps", []string{"--min-steps", "10", "--max-steps", "5"}},
		{"zero jobs", []string{"--jobs", "0"}},
		{"missing config", []string{"--config", filepath.Join(dir, "nope.yaml")}},
		{"unknown flag", []string{"--frobnicate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(append([]string{"run"}, base...), tt.args...)
			code, _, stderr := runCLI(t, args...)
			assert.Equal(t, geofuzz.ExitSetup, code, stderr)
		})
	}
}

func TestPlanCommand(t *testing.T) {
	dir := t.TempDir()
	in, out := filepath.Join(dir, "in"), filepath.Join(dir, "out")
	writeCorpus(t, in, "a.png", "b.png", "c.png")

	code, stdout, stderr := runCLI(t, "plan", "--input-dir", in, "--output-dir", out, "--batch-seed", "5")
	require.Equal(t, geofuzz.ExitOK, code, stderr)

	assert.Contains(t, stdout, "3 assets, 130 runs (30 sweep, 100 composite)")
	assert.Contains(t, stdout, "a_result_quadratic_bezier.png")
	assert.Contains(t, stdout, "_merged_result_99.png")

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries, "plan must not write outputs")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	in, out := filepath.Join(dir, "in"), filepath.Join(dir, "out")
	writeCorpus(t, in, "a.png")

	cfgPath := filepath.Join(dir, "geofuzz.yaml")
	cfg := "input_dir: " + in + "\noutput_dir: " + out + "\nbatch:\n  seed: 4\n  composite_runs: 1\n  shapes: [ellipse]\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	code, stdout, stderr := runCLI(t, "plan", "--config", cfgPath, "--composite-runs", "3")
	require.Equal(t, geofuzz.ExitOK, code, stderr)
	assert.Contains(t, stdout, "batch seed 4: 1 assets, 5 runs (2 sweep, 3 composite)")
}

func TestLedgerRequiresPath(t *testing.T) {
	code, _, stderr := runCLI(t, "ledger")
	assert.Equal(t, geofuzz.ExitSetup, code)
	assert.Contains(t, stderr, "no ledger")
}
