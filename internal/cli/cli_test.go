package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/profilefields/internal/paths"
	"github.com/mesh-intelligence/profilefields/internal/profile"
	"github.com/mesh-intelligence/profilefields/pkg/types"
)

// testEnv points the CLI at temporary config and data directories.
type testEnv struct {
	ConfigDir string
	DataDir   string
}

type result struct {
	Stdout string
	Err    error
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	t.Setenv(paths.EnvConfigDir, "")
	t.Setenv(paths.EnvDataDir, "")
	return &testEnv{
		ConfigDir: filepath.Join(root, "config"),
		DataDir:   filepath.Join(root, "data"),
	}
}

func (e *testEnv) run(t *testing.T, args ...string) result {
	t.Helper()
	flags = rootFlags{}
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config-dir", e.ConfigDir, "--data-dir", e.DataDir}, args...))
	err := cmd.Execute()
	return result{Stdout: out.String(), Err: err}
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	res := e.run(t, args...)
	require.NoError(t, res.Err, "profilefields %v", args)
	return res.Stdout
}

func parseJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), s)
	return v
}

func TestInit(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, "init")
	assert.Contains(t, out, "profilefields initialized")

	raw, err := os.ReadFile(filepath.Join(env.ConfigDir, configFileExt))
	require.NoError(t, err)
	var s settings
	require.NoError(t, yaml.Unmarshal(raw, &s))
	assert.Equal(t, types.BackendSQLite, s.Backend)
	assert.Equal(t, env.DataDir, s.DataDir)
	assert.Contains(t, s.Roles, "admin")

	_, err = os.Stat(filepath.Join(env.DataDir, "profilefields.db"))
	assert.NoError(t, err)

	out = env.mustRun(t, "init")
	assert.NotContains(t, out, "wrote", "existing config.yaml is kept")
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()

	s, err := loadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, types.BackendSQLite, s.Backend)
	assert.Equal(t, "en-US", s.Locale)
	assert.NotEmpty(t, s.Roles)

	cfg := `backend: sqlite
locale: pt-BR
log:
  level: debug
roles:
  editor: ["user:update"]
assignments:
  - user: 4
    role: editor
  - user: 2
    role: editor
    scope: 7
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), []byte(cfg), 0o644))
	s, err = loadSettings(dir)
	require.NoError(t, err)
	assert.Equal(t, "pt-BR", s.Locale)
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, []string{"user:update"}, s.Roles["editor"])
	require.Len(t, s.Assignments, 2)
	assert.Equal(t, int64(7), s.Assignments[1].Scope)

	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), []byte("backend: postgres\n"), 0o644))
	_, err = loadSettings(dir)
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestCategoryCommands(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "init")

	env.mustRun(t, "category", "add", "Contact")
	res := env.run(t, "category", "add", "Contact")
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, errRejected)
	assert.Equal(t, exitUserError, exitCode(res.Err))

	cats := parseJSON[[]types.Category](t, env.mustRun(t, "--json", "category", "list"))
	require.Len(t, cats, 2)
	assert.Equal(t, "Other fields", cats[0].Name)
	assert.Equal(t, "Contact", cats[1].Name)
	contact := itoa(cats[1].ID)

	env.mustRun(t, "category", "rename", contact, "Contact details")
	env.mustRun(t, "category", "move", contact, "up")
	cats = parseJSON[[]types.Category](t, env.mustRun(t, "--json", "category", "list"))
	assert.Equal(t, "Contact details", cats[0].Name)

	out := env.mustRun(t, "category", "list")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Contact details")

	res = env.run(t, "category", "move", contact, "sideways")
	assert.Error(t, res.Err)

	env.mustRun(t, "category", "delete", contact)
	res = env.run(t, "category", "delete", itoa(cats[1].ID))
	assert.ErrorIs(t, res.Err, types.ErrLastCategory)

	res = env.run(t, "category", "rename", "999", "Ghost")
	assert.ErrorIs(t, res.Err, types.ErrNotFound)
	res = env.run(t, "category", "rename", "abc", "Ghost")
	assert.ErrorIs(t, res.Err, types.ErrInvalidID)
}

func TestFieldAndDataCommands(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "init")

	env.mustRun(t, "field", "add", "nick", "Nickname", "--unique", "--signup")
	env.mustRun(t, "field", "add", "colour", "Colour", "--datatype", "menu", "--param1", "red\ngreen")
	env.mustRun(t, "field", "add", "birthday", "Birthday", "--datatype", "datetime", "--param1", "1950", "--param2", "2030")
	env.mustRun(t, "field", "add", "bio", "Biography", "--datatype", "textarea", "--visible", "private")

	res := env.run(t, "field", "add", "nick", "Again")
	assert.ErrorIs(t, res.Err, types.ErrDuplicateShortName)
	res = env.run(t, "field", "add", "x", "X", "--datatype", "colorpicker")
	assert.ErrorIs(t, res.Err, types.ErrUnknownDatatype)

	fields := parseJSON[[]types.Field](t, env.mustRun(t, "--json", "field", "list"))
	require.Len(t, fields, 4)
	assert.Equal(t, "nick", fields[0].ShortName)
	assert.True(t, fields[0].Unique)
	assert.Equal(t, types.VisiblePrivate, fields[3].Visible)
	assert.Contains(t, env.mustRun(t, "field", "list"), "unique,signup")

	env.mustRun(t, "data", "set", "5", "nick=neo", "colour=green", "birthday=1999-03-31", "bio=hello")
	res = env.run(t, "data", "set", "6", "nick=neo")
	assert.ErrorIs(t, res.Err, errRejected)
	assert.Contains(t, res.Err.Error(), "already been used")
	res = env.run(t, "data", "set", "6", "colour=blue")
	assert.ErrorIs(t, res.Err, types.ErrInvalidData)
	res = env.run(t, "data", "set", "6", "ghost=1")
	assert.ErrorIs(t, res.Err, types.ErrNotFound)

	user := parseJSON[profile.User](t, env.mustRun(t, "--json", "data", "get", "5"))
	assert.Equal(t, "neo", user.Profile["nick"])
	assert.Equal(t, "green", user.Profile["colour"])
	assert.Equal(t, "922838400", user.Profile["birthday"])
	assert.NotContains(t, user.Profile, "bio")

	out := env.mustRun(t, "show", "5")
	assert.Contains(t, out, "Nickname:")
	assert.Contains(t, out, "31 March 1999")
	assert.Contains(t, out, "hello")

	env.mustRun(t, "field", "move", itoa(fields[0].ID), "down")
	fields = parseJSON[[]types.Field](t, env.mustRun(t, "--json", "field", "list"))
	assert.Equal(t, "colour", fields[0].ShortName)

	env.mustRun(t, "field", "delete", itoa(fields[1].ID))
	user = parseJSON[profile.User](t, env.mustRun(t, "--json", "data", "get", "5"))
	assert.NotContains(t, user.Profile, "nick")
}

func TestExportImportCommands(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, "init")
	env.mustRun(t, "field", "add", "nick", "Nickname")
	env.mustRun(t, "data", "set", "5", "nick=neo")

	dump := filepath.Join(t.TempDir(), "dump")
	env.mustRun(t, "export", dump)
	for _, f := range []string{"categories.jsonl", "fields.jsonl", "field_data.jsonl"} {
		_, err := os.Stat(filepath.Join(dump, f))
		assert.NoError(t, err, f)
	}

	other := newTestEnv(t)
	other.mustRun(t, "init")
	other.mustRun(t, "import", dump)
	user := parseJSON[profile.User](t, other.mustRun(t, "--json", "data", "get", "5"))
	assert.Equal(t, "neo", user.Profile["nick"])
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, "version")
	assert.Contains(t, out, "profilefields v"+Version)
	assert.Contains(t, out, modulePath)

	v := parseJSON[map[string]string](t, env.mustRun(t, "--json", "version"))
	assert.Equal(t, Version, v["version"])
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitUserError, exitCode(types.ErrNotFound))
	assert.Equal(t, exitSysError, exitCode(sysError("disk: %w", os.ErrPermission)))
	assert.Equal(t, exitSysError, exitCode(types.ErrCupboardDetached))
}
