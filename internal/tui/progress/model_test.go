package progress

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/runoshun/review-bridge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	result, ok := next.(Model)
	require.True(t, ok, "Update should return Model")
	return result, cmd
}

func TestUpdate_LineMsg(t *testing.T) {
	m := New("review report.md", nil)

	m, _ = update(t, m, lineMsg{line: "loading model"})
	m, _ = update(t, m, lineMsg{line: "scoring"})

	assert.Equal(t, []string{"loading model", "scoring"}, m.Lines())
	assert.Contains(t, m.viewport.View(), "scoring")
}

func TestUpdate_LineMsg_KeepsTail(t *testing.T) {
	m := New("review", nil)
	for i := 0; i < maxLines+10; i++ {
		m, _ = update(t, m, lineMsg{line: fmt.Sprintf("line %d", i)})
	}

	require.Len(t, m.Lines(), maxLines)
	assert.Equal(t, "line 10", m.Lines()[0])
	assert.Equal(t, fmt.Sprintf("line %d", maxLines+9), m.Lines()[maxLines-1])
}

func TestUpdate_DoneMsg(t *testing.T) {
	m := New("review", nil)
	_, _, ok := m.Result()
	assert.False(t, ok)

	m, cmd := update(t, m, doneMsg{
		id:     "0000abcd",
		result: domain.InvocationResult{Output: "{}", State: domain.StateSucceeded},
	})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	id, res, ok := m.Result()
	assert.True(t, ok)
	assert.Equal(t, "0000abcd", id)
	assert.Equal(t, "{}", res.Output)
	assert.Empty(t, m.View())
}

func TestHandleKey_CtrlC(t *testing.T) {
	cancelled := 0
	m := New("review", func() { cancelled++ })

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Nil(t, cmd, "first ctrl+c waits for the worker")
	assert.Equal(t, 1, cancelled)
	assert.Contains(t, m.View(), "cancelling")

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, 1, cancelled)
	_, _, ok := m.Result()
	assert.False(t, ok)
}

func TestUpdate_WindowSize(t *testing.T) {
	m := New("review", nil)
	m, _ = update(t, m, lineMsg{line: strings.Repeat("x", 200)})

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 42, Height: 20})

	assert.Equal(t, 40, m.viewport.Width)
	assert.Equal(t, 16, m.viewport.Height)
	assert.NotContains(t, m.viewport.View(), strings.Repeat("x", 41))
	assert.Contains(t, m.viewport.View(), "…")
}

func TestUpdate_WindowSize_Minimum(t *testing.T) {
	m := New("review", nil)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 5, Height: 2})

	assert.Equal(t, 20, m.viewport.Width)
	assert.Equal(t, 3, m.viewport.Height)
}

func TestView(t *testing.T) {
	m := New("review report.md", nil)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.started = start
	m.now = func() time.Time { return start.Add(1500 * time.Millisecond) }

	view := m.View()

	assert.Contains(t, view, "review report.md")
	assert.Contains(t, view, "1.5s")
	assert.Contains(t, view, "ctrl+c: cancel")
}

func TestRun(t *testing.T) {
	run := func(ctx context.Context, diag domain.DiagnosticFunc) (string, domain.InvocationResult) {
		diag("step 1")
		diag("step 2")
		return "1234abcd", domain.InvocationResult{Output: "ok", State: domain.StateSucceeded}
	}

	id, res, err := Run(context.Background(), "review", run,
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutRenderer(),
		tea.WithoutSignalHandler(),
	)

	require.NoError(t, err)
	assert.Equal(t, "1234abcd", id)
	assert.Equal(t, "ok", res.Output)
}
