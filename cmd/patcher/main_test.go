package main

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jsxpatch/internal/config"
	"jsxpatch/pkg/digest"
)

const dashboardJSX = `export default function ReceptionistDashboard() {
  return (
    <main>
      {showBookings ? (
        <BookingList />
      ) : (
        <Overview />
      )}
    </main>
  );
}
`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	// A nil slice makes cobra fall back to os.Args.
	if args == nil {
		args = []string{}
	}

	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func TestRoot_BuiltInRecipeInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(config.RoomManagementTarget, []byte(dashboardJSX), 0644))

	stdout, stderr, err := execute(t)
	require.NoError(t, err)

	assert.Contains(t, stdout, config.RoomManagementMessage)
	assert.Contains(t, stdout, "| room-management | ReceptionistDashboard.jsx | 1       | patched |")
	assert.Contains(t, stdout, "Patched: 1")
	assert.Contains(t, stderr, "run_id=")

	got := readFile(t, config.RoomManagementTarget)
	assert.Equal(t, 1, strings.Count(got, config.RoomManagementBranch))

	// Second run: the sentinel is present, so nothing is duplicated.
	stdout, _, err = execute(t)
	require.NoError(t, err)
	assert.Contains(t, stdout, "skipped")
	assert.NotContains(t, stdout, config.RoomManagementMessage)
	assert.Equal(t, got, readFile(t, config.RoomManagementTarget))
}

func TestRoot_MissingTarget(t *testing.T) {
	chdir(t, t.TempDir())

	stdout, _, err := execute(t)

	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.NotContains(t, stdout, config.RoomManagementMessage)

	_, statErr := os.Stat(config.RoomManagementTarget)
	assert.True(t, errors.Is(statErr, fs.ErrNotExist))
}

func TestRoot_InvalidLogLevel(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(config.RoomManagementTarget, []byte(dashboardJSX), 0644))

	stdout, _, err := execute(t, "--log-level", "bogus")

	require.ErrorIs(t, err, config.ErrInvalidLogLevel)
	assert.Contains(t, err.Error(), "bogus")
	assert.Empty(t, stdout)
	assert.Equal(t, dashboardJSX, readFile(t, config.RoomManagementTarget))

	_, stderr, err := execute(t, "--log-level", "debug", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, stderr, "level=DEBUG")
}

func TestRoot_CRLFDashboard(t *testing.T) {
	chdir(t, t.TempDir())

	crlf := strings.ReplaceAll(dashboardJSX, "\n", "\r\n")
	require.NoError(t, os.WriteFile(config.RoomManagementTarget, []byte(crlf), 0644))

	stdout, _, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, stdout, config.RoomManagementMessage)

	got := readFile(t, config.RoomManagementTarget)
	assert.Contains(t, got, config.RoomManagementSentinel)
	assert.Equal(t, strings.Count(got, "\n"), strings.Count(got, "\r\n"))
}

func TestRoot_DryRunWithTargetOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Dashboard.jsx")
	require.NoError(t, os.WriteFile(path, []byte(dashboardJSX), 0644))

	stdout, _, err := execute(t, "--target", path, "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, stdout, "would-patch")
	assert.Equal(t, dashboardJSX, readFile(t, path))
}

func TestRoot_ConfigFileAndRecipeSelection(t *testing.T) {
	dir := t.TempDir()
	dashboard := filepath.Join(dir, "Dashboard.jsx")
	app := filepath.Join(dir, "App.jsx")

	require.NoError(t, os.WriteFile(dashboard, []byte(dashboardJSX), 0644))
	require.NoError(t, os.WriteFile(app, []byte("const title = 'Hotel';\n"), 0644))

	cfgPath := filepath.Join(dir, "patcher.yaml")
	cfgYAML := `
patcher:
  recipes:
    - name: "title"
      target: "` + app + `"
      pattern: "'Hotel'"
      replacement: "'Hotel Front Desk'"
      success_message: "Title updated"
    - name: "strict"
      target: "` + dashboard + `"
      pattern: "NeverPresent"
      replacement: "x"
      on_no_match: "error"
      enabled: false
  logging:
    level: "error"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0644))

	stdout, stderr, err := execute(t, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Title updated")
	assert.Empty(t, stderr)
	assert.Equal(t, "const title = 'Hotel Front Desk';\n", readFile(t, app))

	// A disabled recipe still runs when named, and its no-match policy applies.
	_, _, err = execute(t, "--config", cfgPath, "--recipe", "strict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pattern not found")
	assert.Equal(t, dashboardJSX, readFile(t, dashboard))

	_, _, err = execute(t, "--config", cfgPath, "--recipe", "nope")
	require.ErrorIs(t, err, config.ErrRecipeNotFound)
}

func TestRoot_DefaultConfigPathIsUsed(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	require.NoError(t, os.MkdirAll("configs", 0755))
	require.NoError(t, os.WriteFile(config.DefaultConfigPath, []byte(`
patcher:
  recipes:
    - name: "from-disk"
      target: "a.jsx"
      pattern: "a"
      replacement: "b"
`), 0644))

	stdout, _, err := execute(t, "recipes")
	require.NoError(t, err)
	assert.Contains(t, stdout, "from-disk")
	assert.NotContains(t, stdout, config.RoomManagementRecipe)
}

func TestRecipesCmd_BuiltIn(t *testing.T) {
	chdir(t, t.TempDir())

	stdout, _, err := execute(t, "recipes")
	require.NoError(t, err)

	assert.Contains(t, stdout, "| room-management | ReceptionistDashboard.jsx | first | warn")
}

func TestHashCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Dashboard.jsx")
	require.NoError(t, os.WriteFile(path, []byte(dashboardJSX), 0644))

	stdout, _, err := execute(t, "hash", path)
	require.NoError(t, err)
	assert.Equal(t, digest.Sum(dashboardJSX)+"  "+path+"\n", stdout)

	_, _, err = execute(t, "hash")
	require.Error(t, err)
}

func TestInitCmd(t *testing.T) {
	chdir(t, t.TempDir())

	stdout, _, err := execute(t, "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote "+config.DefaultConfigPath)

	cfg, err := config.LoadConfig(config.DefaultConfigPath)
	require.NoError(t, err)
	assert.Equal(t, config.RoomManagementBlock, cfg.Patcher.Recipes[0].Replacement)
	assert.True(t, cfg.Patcher.Recipes[0].Expand)

	// The written config is picked up by a plain run.
	require.NoError(t, os.WriteFile(config.RoomManagementTarget, []byte(dashboardJSX), 0644))
	stdout, _, err = execute(t)
	require.NoError(t, err)
	assert.Contains(t, stdout, config.RoomManagementMessage)
	assert.Equal(t, 1, strings.Count(readFile(t, config.RoomManagementTarget), config.RoomManagementBranch))

	_, _, err = execute(t, "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to overwrite")

	_, _, err = execute(t, "init", "patcher.toml")
	require.NoError(t, err)

	stdout, _, err = execute(t, "recipes", "--config", "patcher.toml")
	require.NoError(t, err)
	assert.Contains(t, stdout, config.RoomManagementRecipe)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()

	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(old))
	})
}
