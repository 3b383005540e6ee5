package domain

import "time"

// InvocationRecord is the persisted summary of one invocation.
// Credentials are never part of a record.
// Fields are ordered to minimize memory padding.
type InvocationRecord struct {
	StartedAt   time.Time       `json:"startedAt"`
	FinishedAt  time.Time       `json:"finishedAt,omitempty"`
	ID          string          `json:"id"`
	Command     string          `json:"command"` // "review" or "invoke"
	Executable  string          `json:"executable"`
	Entry       string          `json:"entry,omitempty"`
	File        string          `json:"file,omitempty"`
	Model       string          `json:"model,omitempty"`
	State       InvocationState `json:"state"`
	ErrorKind   ErrorKind       `json:"errorKind,omitempty"`
	Message     string          `json:"message,omitempty"`
	ArgCount    int             `json:"argCount"`
	ExitCode    int             `json:"exitCode"`
	OutputBytes int             `json:"outputBytes"`
}

// MaxRecordMessage bounds the failure message kept in a record.
const MaxRecordMessage = 2048

// Duration returns how long the invocation ran, or 0 if it has not finished.
func (r *InvocationRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Finish copies the outcome of res into the record.
func (r *InvocationRecord) Finish(res InvocationResult, finishedAt time.Time) {
	r.FinishedAt = finishedAt
	r.State = res.State
	r.ExitCode = res.ExitCode
	r.ErrorKind = res.Kind()
	r.OutputBytes = len(res.Output)
	r.Message = truncateMessage(res.Message(), MaxRecordMessage)
}

func truncateMessage(msg string, limit int) string {
	if len(msg) <= limit {
		return msg
	}
	// Back up to a rune boundary.
	cut := limit
	for cut > 0 && msg[cut]&0xC0 == 0x80 {
		cut--
	}
	return msg[:cut] + "…"
}
