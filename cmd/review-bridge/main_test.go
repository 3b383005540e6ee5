package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/runoshun/review-bridge/internal/cli"
	"github.com/runoshun/review-bridge/internal/domain"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err     error
		name    string
		wantOut string
		want    int
	}{
		{
			name: "success",
			err:  nil,
			want: 0,
		},
		{
			name:    "worker failure printed verbatim",
			err:     domain.NewInvocationError(domain.KindWorkerFailure, "Worker script failed: boom", 1, nil),
			wantOut: "Worker script failed: boom\n",
			want:    1,
		},
		{
			name:    "plain error",
			err:     fmt.Errorf("load config: %w", errors.New("bad")),
			wantOut: "load config: bad\n",
			want:    1,
		},
		{
			name: "already reported",
			err:  cli.ErrReported,
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if got := exitCode(tt.err, &buf); got != tt.want {
				t.Fatalf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
			if buf.String() != tt.wantOut {
				t.Fatalf("output = %q, want %q", buf.String(), tt.wantOut)
			}
		})
	}
}
