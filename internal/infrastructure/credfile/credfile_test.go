package credfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vivekkundariya/opskit/internal/domain/environment"
)

func TestParse(t *testing.T) {
	content := `# comment
export REDIS_DEV_HOST="redis.dev.internal"
export REDIS_DEV_PASSWORD=""
REDIS_DEV_PORT="6380"
export REDIS_DEV_DB=3
  export REDIS_DEV_SSL="true"
export REDIS_PROD_HOST="a b c" # trailing comment
# export REDIS_QA_HOST="qa"
export REDIS_DEV_HOST="override"
`
	values, err := Parse(strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"REDIS_DEV_HOST":     "override",
		"REDIS_DEV_PASSWORD": "",
		"REDIS_PROD_HOST":    "a b c",
	}, values)
}

func TestReader_Read(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".credentials")
	require.NoError(t, os.WriteFile(path, []byte("export DD_API_KEY=\"abc\"\n"), 0o600))

	f, err := NewReader().Read(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path)
	assert.Equal(t, "abc", f.Values["DD_API_KEY"])

	_, err = NewReader().Read(filepath.Join(dir, "missing"))
	assert.True(t, os.IsNotExist(err))
}

func TestCandidates(t *testing.T) {
	got := Candidates(Search{
		Explicit: "/tmp/creds",
		Home:     "/home/u/.opskit",
		WorkDir:  "/work",
		Backend:  "redis",
		Profile:  environment.Dev,
	})

	assert.Equal(t, []string{
		"/tmp/creds",
		"/home/u/.opskit/redis/references/.credentials.dev",
		"/home/u/.opskit/redis/references/.credentials",
		"/work/references/.credentials.dev",
		"/work/references/.credentials",
		"/work/.credentials.dev",
		"/work/.credentials",
	}, got)

	single := Candidates(Search{Home: "/h", WorkDir: "/w", Backend: "datadog"})
	assert.Equal(t, []string{
		"/h/datadog/references/.credentials",
		"/w/references/.credentials",
		"/w/.credentials",
	}, single)
}

func TestLocalPath(t *testing.T) {
	assert.Equal(t, "/h/vault/references/.credentials.prod", LocalPath("/h", "vault", environment.Prod, true))
	assert.Equal(t, "/h/mysql/references/.credentials", LocalPath("/h", "mysql", environment.Prod, false))
}

func TestAppendPlaceholders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mysql", "references", ".credentials")

	n, err := AppendPlaceholders(path, []Placeholder{
		{Name: "MYSQL_DEV_HOST", Description: "Database host"},
		{Name: "MYSQL_DEV_DATABASE", Optional: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	mode, err := Permissions(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), mode)

	require.NoError(t, os.WriteFile(path, []byte("export MYSQL_DEV_HOST=\"db\""), 0o600))
	n, err = AppendPlaceholders(path, []Placeholder{
		{Name: "MYSQL_DEV_HOST"},
		{Name: "MYSQL_DEV_USER"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "export MYSQL_DEV_HOST=\"db\"\nexport MYSQL_DEV_USER=\"\"\n", string(data))

	n, err = AppendPlaceholders(path, []Placeholder{{Name: "MYSQL_DEV_USER"}})
	require.NoError(t, err)
	assert.Zero(t, n)
}

const exampleTemplate = `# SECURITY: never commit real values
# Copy this file to .credentials

# Option 1: App Password (Recommended)
export BITBUCKET_USERNAME="your-username-here"
export BITBUCKET_APP_PASSWORD=""

# Optional workspace
# export BITBUCKET_WORKSPACE="acme"
`

func TestParseTemplate(t *testing.T) {
	tmpl, err := ParseTemplate(strings.NewReader(exampleTemplate))
	require.NoError(t, err)

	require.Len(t, tmpl.Required(), 2)
	user := tmpl.Required()[0]
	assert.Equal(t, "BITBUCKET_USERNAME", user.Variable)
	assert.Equal(t, "your-username-here", user.Placeholder)
	assert.Equal(t, "Option 1: App Password (Recommended)", user.Context)
	assert.False(t, user.Sensitive())
	assert.True(t, tmpl.Required()[1].Sensitive())

	require.Len(t, tmpl.Optional(), 1)
	assert.Equal(t, "BITBUCKET_WORKSPACE", tmpl.Optional()[0].Variable)
	assert.Equal(t, "Optional workspace", tmpl.Optional()[0].Context)
}

func TestTemplate_Render(t *testing.T) {
	tmpl, err := ParseTemplate(strings.NewReader(exampleTemplate))
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	out := tmpl.Render(map[string]string{
		"BITBUCKET_USERNAME":     "alice",
		"BITBUCKET_APP_PASSWORD": "pw",
	}, now)

	assert.True(t, strings.HasPrefix(out, "# Credentials File\n# Created: 2026-03-01 09:30:00\n"))
	assert.NotContains(t, out, "SECURITY")
	assert.Contains(t, out, "export BITBUCKET_USERNAME=\"alice\"\n")
	assert.Contains(t, out, "export BITBUCKET_APP_PASSWORD=\"pw\"\n")
	assert.Contains(t, out, "# export BITBUCKET_WORKSPACE=\"acme\"\n")

	values, err := Parse(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", values["BITBUCKET_USERNAME"])
	assert.NotContains(t, values, "BITBUCKET_WORKSPACE")
}

func TestValidateValue(t *testing.T) {
	assert.NoError(t, ValidateValue("p@ss w0rd!$'"))
	assert.NoError(t, ValidateValue(""))
	assert.ErrorIs(t, ValidateValue(`pa"ss`), ErrUnsafeValue)
	assert.ErrorIs(t, ValidateValue("line1\nline2"), ErrUnsafeValue)
}

func TestTemplate_RenderReadsBack(t *testing.T) {
	tmpl, err := ParseTemplate(strings.NewReader("export MYSQL_QA_PASSWORD=\"\"\n"))
	require.NoError(t, err)

	value := "p@ss w0rd!$'"
	require.NoError(t, ValidateValue(value))
	values, err := Parse(strings.NewReader(tmpl.Render(map[string]string{"MYSQL_QA_PASSWORD": value}, time.Now())))
	require.NoError(t, err)
	assert.Equal(t, value, values["MYSQL_QA_PASSWORD"])
}

func TestBackupAndWriteSecure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".credentials")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	backup, err := Backup(path, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".credentials.backup.20260102_030405"), backup)

	require.NoError(t, WriteSecure(path, "new"))
	mode, err := Permissions(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), mode)

	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestCheckGitignore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	sub := filepath.Join(root, "skill", "references")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	status, err := CheckGitignore(filepath.Join(sub, ".credentials"))
	require.NoError(t, err)
	assert.Equal(t, root, status.RepoRoot)
	assert.False(t, status.Ignored)

	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.log\n.credentials*\n"), 0o644))
	status, err = CheckGitignore(filepath.Join(sub, ".credentials"))
	require.NoError(t, err)
	assert.True(t, status.Ignored)
}

func TestProcessEnv(t *testing.T) {
	t.Setenv("OPSKIT_TEST_VALUE", "x")
	v, ok := ProcessEnv{}.Lookup("OPSKIT_TEST_VALUE")
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = ProcessEnv{}.Lookup("OPSKIT_TEST_UNSET_VALUE")
	assert.False(t, ok)
}
