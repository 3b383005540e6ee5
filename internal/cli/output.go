package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/runoshun/review-bridge/internal/domain"
	"gopkg.in/yaml.v3"
)

// ErrReported is returned when the command already wrote its failure to
// stdout (for example as a JSON envelope). The caller exits non-zero
// without printing it again.
var ErrReported = errors.New("failure already reported")

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
	formatTOML = "toml"
)

func validateFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q (allowed: %s)", format, strings.Join(allowed, ", "))
}

// resultEnvelope is the machine-readable result of review and invoke.
type resultEnvelope struct {
	ID     string           `json:"id"`
	Output *string          `json:"output,omitempty"`
	Kind   domain.ErrorKind `json:"kind,omitempty"`
	Error  string           `json:"error,omitempty"`
	OK     bool             `json:"ok"`
}

// writeEnvelope writes res as a single JSON object.
func writeEnvelope(w io.Writer, id string, res domain.InvocationResult) error {
	env := resultEnvelope{ID: id, OK: res.Succeeded()}
	if env.OK {
		output := res.Output
		env.Output = &output
	} else {
		env.Kind = res.Kind()
		env.Error = res.Message()
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(env)
}

// recordView is the json/yaml rendering of an invocation record.
type recordView struct {
	Started    time.Time `json:"started" yaml:"started"`
	Finished   time.Time `json:"finished,omitempty" yaml:"finished,omitempty"`
	ID         string    `json:"id" yaml:"id"`
	Command    string    `json:"command" yaml:"command"`
	Executable string    `json:"executable" yaml:"executable"`
	Entry      string    `json:"entry,omitempty" yaml:"entry,omitempty"`
	File       string    `json:"file,omitempty" yaml:"file,omitempty"`
	Model      string    `json:"model,omitempty" yaml:"model,omitempty"`
	State      string    `json:"state" yaml:"state"`
	ErrorKind  string    `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Message    string    `json:"message,omitempty" yaml:"message,omitempty"`
	Duration   string    `json:"duration" yaml:"duration"`
	Args       int       `json:"args" yaml:"args"`
	ExitCode   int       `json:"exit_code" yaml:"exit_code"`
	OutputSize int       `json:"output_bytes" yaml:"output_bytes"`
}

func newRecordView(r *domain.InvocationRecord) recordView {
	return recordView{
		Started:    r.StartedAt,
		Finished:   r.FinishedAt,
		ID:         r.ID,
		Command:    r.Command,
		Executable: r.Executable,
		Entry:      r.Entry,
		File:       r.File,
		Model:      r.Model,
		State:      string(r.State),
		ErrorKind:  string(r.ErrorKind),
		Message:    r.Message,
		Duration:   r.Duration().Round(time.Millisecond).String(),
		Args:       r.ArgCount,
		ExitCode:   r.ExitCode,
		OutputSize: r.OutputBytes,
	}
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

var (
	stateSucceededStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	stateFailedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	stateCancelledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	labelStyle          = lipgloss.NewStyle().Bold(true)
)

// styledState renders a state with its color.
func styledState(s domain.InvocationState) string {
	switch s {
	case domain.StateSucceeded:
		return stateSucceededStyle.Render(string(s))
	case domain.StateFailed, domain.StateSpawnError:
		return stateFailedStyle.Render(string(s))
	case domain.StateCancelled:
		return stateCancelledStyle.Render(string(s))
	default:
		return string(s)
	}
}

// printHistoryList prints records in TSV format.
func printHistoryList(w io.Writer, recs []*domain.InvocationRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	defer func() { _ = tw.Flush() }()

	_, _ = fmt.Fprintln(tw, "ID\tSTARTED\tCOMMAND\tSTATE\tEXIT\tDURATION\tTARGET")

	for _, r := range recs {
		target := r.File
		if target == "" {
			target = strings.TrimSpace(r.Executable + " " + r.Entry)
		}
		if target == "" {
			target = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			domain.ShortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Command,
			r.State,
			r.ExitCode,
			formatDuration(r.Duration()),
			target,
		)
	}
}

// printRecord prints one record as labelled lines.
func printRecord(w io.Writer, r *domain.InvocationRecord) {
	field := func(label, value string) {
		if value == "" {
			return
		}
		_, _ = fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-11s", label+":")), value)
	}

	field("ID", r.ID)
	field("Command", r.Command)
	field("Executable", r.Executable)
	field("Entry", r.Entry)
	field("File", r.File)
	field("Model", r.Model)
	field("State", styledState(r.State))
	field("Exit code", fmt.Sprintf("%d", r.ExitCode))
	field("Started", r.StartedAt.Local().Format(time.RFC3339))
	if !r.FinishedAt.IsZero() {
		field("Duration", formatDuration(r.Duration()))
	}
	field("Output", fmt.Sprintf("%d bytes", r.OutputBytes))
	field("Error kind", string(r.ErrorKind))
	field("Message", r.Message)
}

// formatDuration formats a duration in a human-readable format.
func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
