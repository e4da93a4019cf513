package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SCHEMAS_DIR", filepath.Join(dir, "schemas"))
	t.Setenv("DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("MEMORY_BACKEND", "file")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("TODOIST_API_TOKEN", "")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		logLevel, logFormat = "", ""
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "tietaja version dev")
}

func TestSchemas_InitAndList(t *testing.T) {
	dir := setTestEnv(t)

	out, err := execute(t, "schemas", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Schemas written to")
	assert.FileExists(t, filepath.Join(dir, "schemas", "todoist.json"))
	assert.FileExists(t, filepath.Join(dir, "schemas", "memory.json"))

	out, err = execute(t, "schemas", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "add_task")
	assert.Contains(t, out, "update_preference")
	assert.Contains(t, out, "(required: content)")
}

func TestMemory_Lifecycle(t *testing.T) {
	setTestEnv(t)

	out, err := execute(t, "memory", "set-pref", "alice", "theme=dark", "reminders=true")
	require.NoError(t, err)
	assert.Contains(t, out, `"theme": "dark"`)
	assert.Contains(t, out, `"reminders": true`)
	assert.Contains(t, out, `"timezone": "UTC"`)

	out, err = execute(t, "memory", "stats", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, `"exists": true`)

	out, err = execute(t, "memory", "show", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, `"user_id": "alice"`)
	assert.Contains(t, out, `"theme": "dark"`)

	out, err = execute(t, "memory", "delete", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted memory for alice")

	out, err = execute(t, "memory", "delete", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "No memory stored for alice")
}

func TestMemory_SetPrefRejectsBadPair(t *testing.T) {
	setTestEnv(t)

	_, err := execute(t, "memory", "set-pref", "alice", "nonsense")

	assert.ErrorContains(t, err, "expected key=value")
}

func TestAsk_RequiresAPIKey(t *testing.T) {
	setTestEnv(t)

	_, err := execute(t, "ask", "hello")

	assert.ErrorContains(t, err, "missing LLM API key")
}

func TestTodoistCheck_NoToken(t *testing.T) {
	setTestEnv(t)

	_, err := execute(t, "todoist", "check")

	assert.ErrorContains(t, err, "No Todoist API token configured")
}

func TestLogLevelFlagOverridesInvalidEnv(t *testing.T) {
	setTestEnv(t)
	t.Setenv("LOG_LEVEL", "loud")

	_, err := execute(t, "schemas", "list")
	require.ErrorContains(t, err, `unknown log level "loud"`)

	out, err := execute(t, "--log-level", "error", "schemas", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "add_task")
}

func TestLogLevelFlagIsValidated(t *testing.T) {
	setTestEnv(t)

	_, err := execute(t, "--log-level", "chatty", "memory", "stats", "alice")

	assert.ErrorContains(t, err, `unknown log level "chatty"`)
}
