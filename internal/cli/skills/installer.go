package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AIAssistant is an editor assistant that can load the opskit skill.
type AIAssistant int

const (
	Claude AIAssistant = iota
	Cursor
)

// skillFile is the file every assistant reads from the skill directory.
const skillFile = "SKILL.md"

type assistantInfo struct {
	id   string
	name string
	dir  []string
}

var assistants = map[AIAssistant]assistantInfo{
	Claude: {id: "claude", name: "Claude Code", dir: []string{".claude", "skills"}},
	Cursor: {id: "cursor", name: "Cursor", dir: []string{".cursor", "skills-cursor"}},
}

// AllAssistants returns all supported AI assistants
func AllAssistants() []AIAssistant {
	return []AIAssistant{Claude, Cursor}
}

// AssistantName returns human-readable name for the assistant
func AssistantName(a AIAssistant) string {
	if info, ok := assistants[a]; ok {
		return info.name
	}
	return "Unknown"
}

// ParseAssistant maps a name given on the command line to an assistant.
func ParseAssistant(name string) (AIAssistant, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, a := range AllAssistants() {
		if assistants[a].id == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown assistant %q (available: claude, cursor)", name)
}

// SkillPaths returns the skill directory for the assistant under the
// user's home directory.
func SkillPaths(a AIAssistant) (string, error) {
	info, ok := assistants[a]
	if !ok {
		return "", fmt.Errorf("unknown assistant type: %d", a)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	parts := append([]string{home}, info.dir...)
	return filepath.Join(append(parts, SkillName)...), nil
}

// IsInstalled reports whether SKILL.md exists for the assistant.
func IsInstalled(a AIAssistant) bool {
	dir, err := SkillPaths(a)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, skillFile))
	return err == nil
}

// Install writes SKILL.md, replacing an older copy.
func Install(a AIAssistant) error {
	dir, err := SkillPaths(a)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create skill directory: %w", err)
	}

	tmp := filepath.Join(dir, "."+skillFile+".tmp")
	if err := os.WriteFile(tmp, []byte(OpskitSkillContent), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", skillFile, err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, skillFile)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to install %s: %w", skillFile, err)
	}
	return nil
}

// Uninstall removes the skill directory. A missing skill is not an error.
func Uninstall(a AIAssistant) error {
	dir, err := SkillPaths(a)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove skill directory: %w", err)
	}
	return nil
}
