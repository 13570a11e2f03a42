package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivekkundariya/opskit/internal/cli/shared"
	"github.com/vivekkundariya/opskit/internal/cli/skills"
	"github.com/vivekkundariya/opskit/internal/config"
	errUtils "github.com/vivekkundariya/opskit/internal/errors"
	"github.com/vivekkundariya/opskit/internal/output"
	"github.com/vivekkundariya/opskit/test/helpers"
)

func useResolver(t *testing.T) {
	t.Helper()
	helpers.IsolateHome(t)
	r, err := config.NewConfigResolver()
	require.NoError(t, err)
	shared.ConfigResolver = r

	saved := flags
	t.Cleanup(func() {
		flags = saved
		shared.ConfigResolver = nil
	})
}

func TestOutputFormat(t *testing.T) {
	useResolver(t)

	f, err := outputFormat(output.Markdown, output.Markdown, output.CSV)
	require.NoError(t, err)
	assert.Equal(t, output.Markdown, f)

	flags.format = "csv"
	f, err = outputFormat(output.Markdown, output.Markdown, output.CSV)
	require.NoError(t, err)
	assert.Equal(t, output.CSV, f)

	flags.format = "raw"
	_, err = outputFormat(output.Markdown, output.Markdown, output.CSV)
	assert.Error(t, err)
}

func TestOutputFormat_UnsupportedDefaultFallsBack(t *testing.T) {
	useResolver(t)
	t.Setenv(config.EnvDefaultFormat, "csv")

	f, err := outputFormat(output.Text, output.Text, output.JSON)
	require.NoError(t, err)
	assert.Equal(t, output.Text, f)

	f, err = outputFormat(output.Markdown, output.Markdown, output.CSV)
	require.NoError(t, err)
	assert.Equal(t, output.CSV, f)
}

func TestLookupBackend(t *testing.T) {
	b, err := lookupBackend("MySQL")
	require.NoError(t, err)
	assert.Equal(t, "mysql", b.Name)

	_, err = lookupBackend("postgres")
	require.Error(t, err)
	assert.True(t, errUtils.Is(err, errUtils.ErrUnknownBackend))
}

func TestFirstWord(t *testing.T) {
	assert.Equal(t, "get", firstWord("get <key>"))
	assert.Equal(t, "ping", firstWord("ping"))
	assert.Equal(t, "", firstWord(""))
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, unique([]string{"A", "B", "A"}))
}

func TestSelectAssistants_FromArgs(t *testing.T) {
	got, err := selectAssistants([]string{"cursor", "claude"}, "install")
	require.NoError(t, err)
	assert.Equal(t, []skills.AIAssistant{skills.Cursor, skills.Claude}, got)

	_, err = selectAssistants([]string{"vim"}, "install")
	assert.True(t, errUtils.Is(err, errUtils.ErrInvalidArgument))
}
