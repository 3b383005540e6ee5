// Package progress shows a running worker invocation: a spinner, the elapsed
// time and a scrolling tail of the worker's diagnostic lines.
package progress

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/runoshun/review-bridge/internal/domain"
)

// maxLines bounds the diagnostic lines kept in memory.
const maxLines = 500

// RunFunc performs the invocation, reporting each stderr line to diag.
type RunFunc func(ctx context.Context, diag domain.DiagnosticFunc) (id string, res domain.InvocationResult)

// Model is the bubbletea model for the progress view.
type Model struct {
	started    time.Time
	now        func() time.Time
	cancel     context.CancelFunc
	result     *domain.InvocationResult
	styles     Styles
	title      string
	id         string
	lines      []string
	spinner    spinner.Model
	viewport   viewport.Model
	width      int
	height     int
	cancelling bool
	quitting   bool
}

// Messages
type lineMsg struct {
	line string
}

type doneMsg struct {
	id     string
	result domain.InvocationResult
}

// New creates a progress model. cancel is called on the first ctrl+c.
func New(title string, cancel context.CancelFunc) Model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	styles := DefaultStyles()
	sp.Style = styles.Spinner

	vp := viewport.New(80, 10)
	vp.SetContent("")

	return Model{
		started:  time.Now(),
		now:      time.Now,
		cancel:   cancel,
		styles:   styles,
		title:    title,
		spinner:  sp,
		viewport: vp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.updateViewportContent()
		return m, nil

	case lineMsg:
		m.lines = append(m.lines, msg.line)
		if len(m.lines) > maxLines {
			m.lines = m.lines[len(m.lines)-maxLines:]
		}
		m.updateViewportContent()
		return m, nil

	case doneMsg:
		res := msg.result
		m.id = msg.id
		m.result = &res
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	//nolint:exhaustive // Only handling specific keys, rest forwarded to viewport
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.cancelling {
			// Second ctrl+c leaves without waiting for the worker.
			m.quitting = true
			return m, tea.Quit
		}
		m.cancelling = true
		if m.cancel != nil {
			m.cancel()
		}
		return m, nil
	default:
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) updateLayout() {
	// Layout:
	// - Header: 1 line
	// - Viewport: remaining, inside a border
	// - Help: 1 line
	vpHeight := m.height - 1 - 1 - 2
	if vpHeight < 3 {
		vpHeight = 3
	}
	vpWidth := m.width - 2
	if vpWidth < 20 {
		vpWidth = 20
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight
}

func (m *Model) updateViewportContent() {
	width := m.viewport.Width
	lines := make([]string, len(m.lines))
	for i, l := range m.lines {
		lines[i] = runewidth.Truncate(l, width, "…")
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	elapsed := m.now().Sub(m.started).Round(100 * time.Millisecond)
	header := fmt.Sprintf("%s %s %s",
		m.spinner.View(),
		m.styles.Title.Render(m.title),
		m.styles.Elapsed.Render(elapsed.String()),
	)

	help := m.styles.Help.Render("ctrl+c: cancel")
	if m.cancelling {
		help = m.styles.Warning.Render("cancelling... (ctrl+c again to quit)")
	}

	return strings.Join([]string{
		header,
		m.styles.Log.Render(m.viewport.View()),
		help,
	}, "\n")
}

// Result returns the invocation outcome once the worker has finished.
func (m Model) Result() (string, domain.InvocationResult, bool) {
	if m.result == nil {
		return "", domain.InvocationResult{}, false
	}
	return m.id, *m.result, true
}

// Lines returns the diagnostic lines currently kept.
func (m Model) Lines() []string {
	return m.lines
}

// Run drives run under a progress view on stderr and returns its outcome.
// The worker is cancelled when the view exits early.
func Run(ctx context.Context, title string, run RunFunc, opts ...tea.ProgramOption) (string, domain.InvocationResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append([]tea.ProgramOption{tea.WithOutput(os.Stderr)}, opts...)
	p := tea.NewProgram(New(title, cancel), opts...)

	var (
		id  string
		res domain.InvocationResult
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		id, res = run(ctx, func(line string) {
			p.Send(lineMsg{line: line})
		})
		p.Send(doneMsg{id: id, result: res})
	}()

	_, err := p.Run()
	cancel()
	<-done
	if err != nil {
		return id, res, fmt.Errorf("progress view: %w", err)
	}
	return id, res, nil
}
