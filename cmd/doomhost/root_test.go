package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--no-banner"}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.lua")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "doomhost", cmd.Use)

	for _, name := range []string{"run", "check"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	run, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	for flag, def := range map[string]string{
		"display": "window",
		"input":   "ebiten",
		"frames":  "0",
		"scale":   "2",
		"gamma":   "1",
	} {
		f := run.Flags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, def, f.DefValue, flag)
	}
	assert.Equal(t, "c", cmd.PersistentFlags().Lookup("config").Shorthand)
}

func TestCheckAppliesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doomhost.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: FREEDOOM\nmax_events: 32\n"), 0o644))

	out, _, err := execute(t, "check", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "FREEDOOM 320x200, 32 events")
}

func TestCheckDefaultsGolden(t *testing.T) {
	out, _, err := execute(t, "check")
	require.NoError(t, err)
	g := goldie.New(t)
	g.Assert(t, "check_defaults", []byte(out))
}

func TestRunRejectsInvalidFlags(t *testing.T) {
	_, _, err := execute(t, "run", "--display", "headless", "--input", "none", "--gamma", "7")
	assert.ErrorContains(t, err, "gamma out of range")
}

func TestRunHeadlessFrameLimit(t *testing.T) {
	_, _, err := execute(t, "run", "--display", "headless", "--input", "none",
		"--frames", "3", "--log-level", "error")
	assert.NoError(t, err)
}

func TestRunHeadlessScriptedEscape(t *testing.T) {
	script := writeScript(t, `frame(2) press(SCAN.ESCAPE)`)
	_, _, err := execute(t, "run", "--display", "headless", "--input", "script",
		"--script", script, "--log-level", "error")
	assert.NoError(t, err)
}

func TestRunScriptEndsRun(t *testing.T) {
	script := writeScript(t, `press("w") frame(3)`)
	_, errOut, err := execute(t, "run", "--display", "headless", "--input", "script",
		"--script", script, "--log-level", "info", "--log-format", "json")
	assert.NoError(t, err)
	assert.Contains(t, errOut, "run complete")
	assert.Contains(t, errOut, `"run":"`)
}

func TestRunBadScript(t *testing.T) {
	script := writeScript(t, `press(`)
	_, _, err := execute(t, "run", "--display", "headless", "--input", "script", "--script", script)
	assert.ErrorContains(t, err, "input script")
}
