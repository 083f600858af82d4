package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/tmpfiles/internal/action"
	"github.com/bamsammich/tmpfiles/internal/config"
	"github.com/bamsammich/tmpfiles/internal/event"
	"github.com/bamsammich/tmpfiles/internal/filter"
	"github.com/bamsammich/tmpfiles/internal/stats"
)

func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvPath, filepath.Join(t.TempDir(), "none.toml"))
}

func writeConf(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunPlan(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/tmpfiles.d/a.conf", []byte(
		"d /run/foo 0755 root root 10d -\n"+
			"d! /run/boot - - - - -\n"+
			"bogus line\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/usr/lib/tmpfiles.d/b.conf", []byte(
		"d /run/foo 0700 - - - -\n"+
			"r /tmp/x - - - - -\n"), 0o644))

	events := make(chan event.Event, 64)
	collector := stats.NewCollector()
	result := runPlan(context.Background(), planConfig{
		Fs:          fs,
		Paths:       []string{"/etc/tmpfiles.d/a.conf", "/usr/lib/tmpfiles.d/b.conf"},
		Concurrency: 2,
		Chain:       filter.NewChain(),
		Events:      events,
		Stats:       collector,
	})
	close(events)
	require.NoError(t, result.Err)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, 2, result.Selected)

	var types []event.Type
	var selected []string
	for ev := range events {
		types = append(types, ev.Type)
		if ev.Type == event.ActionSelected {
			selected = append(selected, ev.Action.String())
		}
		if ev.Type == event.DuplicateLine {
			assert.Equal(t, "/usr/lib/tmpfiles.d/b.conf", ev.File)
			assert.Equal(t, "/etc/tmpfiles.d/a.conf:1", ev.Detail)
		}
		if ev.Type == event.ActionSkipped {
			assert.Equal(t, "/run/boot", ev.Action.Path)
			assert.Equal(t, "boot-only", ev.Detail)
		}
		assert.False(t, ev.Timestamp.IsZero())
	}
	assert.Equal(t, []event.Type{
		event.FileLoaded, event.FileLoaded,
		event.LineRejected,
		event.DuplicateLine,
		event.ActionSelected, event.ActionSkipped, event.ActionSelected,
	}, types)
	assert.Equal(t, []string{
		"d /run/foo 0755 root root 1w3d -",
		"r /tmp/x - - - - -",
	}, selected)

	snap := collector.Snapshot()
	assert.Equal(t, int64(2), snap.FilesLoaded)
	assert.Equal(t, int64(3), snap.LinesParsed)
	assert.Equal(t, int64(1), snap.LinesRejected)
	assert.Equal(t, int64(1), snap.Duplicates)
	assert.Equal(t, int64(2), snap.ActionsSelected)
	assert.Equal(t, int64(1), snap.ActionsSkipped)
}

func TestRunPlanMissingFile(t *testing.T) {
	events := make(chan event.Event, 4)
	result := runPlan(context.Background(), planConfig{
		Fs:     afero.NewMemMapFs(),
		Paths:  []string{"/nope.conf"},
		Events: events,
		Stats:  stats.NewCollector(),
	})
	close(events)
	assert.Error(t, result.Err)
	assert.Empty(t, events)
}

func TestRunQuietPrintsSelected(t *testing.T) {
	isolateConfig(t)
	p := writeConf(t, t.TempDir(), "x.conf",
		"# comment\n\nd /run/foo 0755 root root - -\nd! /run/boot - - - - -\nL+ /etc/localtime - - - - ../usr/share/zoneinfo/UTC\n")

	code, out, _ := runCLI(t, "-q", p)
	assert.Equal(t, 0, code)
	assert.Equal(t,
		"d /run/foo 0755 root root - -\nL+ /etc/localtime - - - - ../usr/share/zoneinfo/UTC\n", out)

	code, out, _ = runCLI(t, "-q", "--boot", p)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "d! /run/boot - - - - -")
}

func TestRunPhasesAndPrefixes(t *testing.T) {
	isolateConfig(t)
	p := writeConf(t, t.TempDir(), "x.conf",
		"d /var/tmp/a - - - 1d -\nr /var/tmp/b - - - - -\nR /run/c - - - - -\n")

	code, out, _ := runCLI(t, "-q", "--remove", p)
	assert.Equal(t, 0, code)
	assert.Equal(t, "r /var/tmp/b - - - - -\nR /run/c - - - - -\n", out)

	code, out, _ = runCLI(t, "-q", "--prefix", "/var", "--exclude-prefix", "/var/tmp/b", p)
	assert.Equal(t, 0, code)
	assert.Equal(t, "d /var/tmp/a - - - 1d -\n", out)

	code, _, errOut := runCLI(t, "--prefix", "relative", p)
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "not an absolute path")
}

func TestRunRejectedLinesExitOne(t *testing.T) {
	isolateConfig(t)
	p := writeConf(t, t.TempDir(), "bad.conf", "d /run/foo 0999 - - - -\nd /run/ok - - - - -\n")

	code, out, errOut := runCLI(t, p)
	assert.Equal(t, 1, code)
	assert.Equal(t, "d /run/ok - - - - -\n", out)
	assert.Contains(t, errOut, "bad.conf:1:")
	assert.Contains(t, errOut, "malformed mode")
	assert.Contains(t, errOut, "done ✗")
}

func TestRunAllowOmittedFields(t *testing.T) {
	isolateConfig(t)
	p := writeConf(t, t.TempDir(), "short.conf", "d /run/foo 0755\n")

	code, _, _ := runCLI(t, "-q", p)
	assert.Equal(t, 1, code)

	code, out, _ := runCLI(t, "-q", "--allow-omitted-fields", p)
	assert.Equal(t, 0, code)
	assert.Equal(t, "d /run/foo 0755 - - - -\n", out)
}

func TestRunDiscoversConfigDirs(t *testing.T) {
	isolateConfig(t)
	etc := t.TempDir()
	lib := t.TempDir()
	writeConf(t, etc, "a.conf", "d /run/etc-a - - - - -\n")
	writeConf(t, lib, "a.conf", "d /run/lib-a - - - - -\n")
	writeConf(t, lib, "b.conf", "d /run/lib-b - - - - -\n")

	code, out, _ := runCLI(t, "-q", "--config-dir", etc, "--config-dir", lib)
	assert.Equal(t, 0, code)
	assert.Equal(t, "d /run/etc-a - - - - -\nd /run/lib-b - - - - -\n", out)
}

func TestRunMissingFileIsFatal(t *testing.T) {
	isolateConfig(t)
	code, _, errOut := runCLI(t, filepath.Join(t.TempDir(), "missing.conf"))
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "Error:")
}

func TestRunConfigDefaults(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"[defaults]\nboot = true\nallow_omitted_fields = true\n\n[search]\nexclude_prefixes = [\"/dev\"]\n"), 0o644))
	t.Setenv(config.EnvPath, cfgPath)

	p := writeConf(t, t.TempDir(), "x.conf", "d! /run/boot\nc /dev/null - - - - 1:3\n")

	code, out, _ := runCLI(t, "-q", p)
	assert.Equal(t, 0, code)
	assert.Equal(t, "d! /run/boot - - - - -\n", out)

	code, out, _ = runCLI(t, "-q", "--boot=false", p)
	assert.Equal(t, 0, code)
	assert.Empty(t, out)
}

func TestRunVerboseAndQuietConflict(t *testing.T) {
	isolateConfig(t)
	code, _, errOut := runCLI(t, "-v", "-q", "--version")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "mutually exclusive")
}

func TestRunVersion(t *testing.T) {
	isolateConfig(t)
	code, out, _ := runCLI(t, "--version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "tmpfiles dev\n", out)
}

func TestRunLogFile(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	p := writeConf(t, dir, "x.conf", "d /run/foo - - - - -\n")
	logPath := filepath.Join(dir, "run.json")

	code, _, _ := runCLI(t, "-q", "--log", logPath, p)
	assert.Equal(t, 0, code)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"tmpfiles.event"`)
	assert.Contains(t, string(data), `"type":"ActionSelected"`)
	assert.Contains(t, string(data), `"mode":"-rwxr-xr-x"`)
	assert.Contains(t, string(data), `"recursive":false`)
}

func TestCatConfig(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	a := writeConf(t, dir, "a.conf", "d   /run/foo  755 root  root 1h30m\n")
	b := writeConf(t, dir, "b.conf", "d /run/foo - - - - -\nw /proc/sys/x - - - - 1\n")

	code, out, errOut := runCLI(t, "cat-config", "--allow-omitted-fields", a, b)
	assert.Equal(t, 0, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{
		"# " + a,
		"d /run/foo 0755 root root 1h30m -",
		"",
		"# " + b,
		"w /proc/sys/x - - - - 1",
	}, lines)
	assert.Contains(t, errOut, "duplicate line for /run/foo")
}

func TestCheck(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	good := writeConf(t, dir, "good.conf", "d /run/foo - - - - -\n")
	bad := writeConf(t, dir, "bad.conf", "Y /run/foo - - - - -\n")

	code, out, _ := runCLI(t, "check", good)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "files=1 parsed=1 rejected=0")

	code, _, errOut := runCLI(t, "check", good, bad)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "bad.conf:1:")
	assert.Contains(t, errOut, "invalid item type")
}

func TestSelectedOps(t *testing.T) {
	assert.Equal(t, action.OpAll, selectedOps(false, false, false))
	assert.Equal(t, action.OpCreate, selectedOps(true, false, false))
	assert.Equal(t, action.OpClean|action.OpRemove, selectedOps(false, true, true))
}

func TestPrefixFlag(t *testing.T) {
	chain := filter.NewChain()
	f := &prefixFlag{chain: chain, include: true}
	require.NoError(t, f.Set("/var"))
	assert.Error(t, f.Set("var"))
	assert.Equal(t, "path", f.Type())
	ok, reason := chain.Match(action.Action{Type: action.CreateDirectory, Path: "/run/x"})
	assert.False(t, ok)
	assert.Equal(t, filter.SkippedNoPrefixMatch, reason)
}

func TestGenDocs(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()

	code, _, errOut := runCLI(t, "gen-docs", "--format", "markdown", "--dir", dir)
	require.Equal(t, 0, code, errOut)
	for _, name := range []string{"tmpfiles.md", "tmpfiles_check.md", "tmpfiles_cat-config.md"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.NotContains(t, string(data), "Auto generated by spf13/cobra")
	}

	code, _, errOut = runCLI(t, "gen-docs", "--format", "html", "--dir", dir)
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `unknown format "html"`)
}
