package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestSkillPaths(t *testing.T) {
	home := fakeHome(t)

	tests := []struct {
		assistant AIAssistant
		want      string
	}{
		{Claude, filepath.Join(home, ".claude", "skills", "using-opskit")},
		{Cursor, filepath.Join(home, ".cursor", "skills-cursor", "using-opskit")},
	}
	for _, tt := range tests {
		got, err := SkillPaths(tt.assistant)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := SkillPaths(AIAssistant(999))
	assert.ErrorContains(t, err, "unknown assistant type")
}

func TestAssistantNames(t *testing.T) {
	assert.Equal(t, "Claude Code", AssistantName(Claude))
	assert.Equal(t, "Cursor", AssistantName(Cursor))
	assert.Equal(t, "Unknown", AssistantName(AIAssistant(999)))
	assert.Equal(t, []AIAssistant{Claude, Cursor}, AllAssistants())
}

func TestParseAssistant(t *testing.T) {
	for name, want := range map[string]AIAssistant{"claude": Claude, " Cursor ": Cursor} {
		got, err := ParseAssistant(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got)
	}

	_, err := ParseAssistant("vim")
	assert.ErrorContains(t, err, "available: claude, cursor")
}

func TestInstallUninstall(t *testing.T) {
	home := fakeHome(t)
	skill := filepath.Join(home, ".claude", "skills", "using-opskit", "SKILL.md")

	assert.False(t, IsInstalled(Claude))
	require.NoError(t, Install(Claude))
	require.NoError(t, Install(Claude), "installing twice replaces the file")

	content, err := os.ReadFile(skill)
	require.NoError(t, err)
	assert.Equal(t, OpskitSkillContent, string(content))
	assert.True(t, IsInstalled(Claude))
	assert.False(t, IsInstalled(Cursor))

	entries, err := os.ReadDir(filepath.Dir(skill))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")

	require.NoError(t, Uninstall(Claude))
	assert.NoFileExists(t, skill)
	assert.False(t, IsInstalled(Claude))

	require.NoError(t, Uninstall(Cursor), "removing a missing skill is not an error")
}

func TestSkillContent(t *testing.T) {
	for _, want := range []string{
		"name: using-opskit",
		"allowed-tools:",
		"Bash(opskit *)",
		"opskit credentials check",
		"opskit vpn check",
		"opskit aws kubectl",
		"--dry-run",
	} {
		assert.Contains(t, OpskitSkillContent, want)
	}
}
