package ui

import (
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpinnerModel(t *testing.T) {
	m := newSpinnerModel("Checking AWS environments")
	assert.NotNil(t, m.Init())
	assert.Contains(t, m.View(), "Checking AWS environments")

	next, cmd := m.Update(spinner.TickMsg{})
	assert.NotNil(t, cmd)
	assert.False(t, next.(spinnerModel).done)

	next, cmd = m.Update(spinDoneMsg{})
	require.NotNil(t, cmd)
	assert.True(t, next.(spinnerModel).done)
	assert.Empty(t, next.View())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.NotNil(t, cmd)
}

func TestSpin_PlainWhenNotTerminal(t *testing.T) {
	buf := captureOutput(t)

	ran := false
	Spin("Checking AWS environments", func() { ran = true })

	assert.True(t, ran)
	assert.Equal(t, "Checking AWS environments...\n", buf.String())
}
