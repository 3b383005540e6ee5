package cli

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/runoshun/review-bridge/internal/app"
	"github.com/runoshun/review-bridge/internal/domain"
	"github.com/runoshun/review-bridge/internal/testutil"
)

// testEnv bundles a container built from mocks with the buffers a command writes to.
type testEnv struct {
	container *app.Container
	invoker   *testutil.MockInvoker
	history   *testutil.MockHistoryRepository
	loader    *testutil.MockConfigLoader
	manager   *testutil.MockConfigManager
	env       map[string]string
	logs      *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	te := &testEnv{
		invoker: &testutil.MockInvoker{Result: testutil.SuccessResult("")},
		history: testutil.NewMockHistoryRepository(),
		loader:  &testutil.MockConfigLoader{Config: domain.NewDefaultConfig()},
		manager: &testutil.MockConfigManager{},
		env:     map[string]string{},
		logs:    &bytes.Buffer{},
	}

	stateDir := t.TempDir()
	te.container = app.NewWithDeps(
		app.Config{
			WorkDir:   t.TempDir(),
			StateDir:  stateDir,
			StorePath: domain.HistoryStorePath(stateDir),
		},
		te.invoker,
		te.history,
		te.loader,
		te.manager,
		&testutil.MockClock{NowTime: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), Step: time.Second},
		slog.New(slog.NewTextHandler(te.logs, nil)),
	)
	te.container.NewID = testutil.SequentialIDs()
	te.container.Getenv = func(key string) string { return te.env[key] }

	return te
}

// run executes the root command with args and returns stdout, stderr and the error.
func (te *testEnv) run(args ...string) (string, string, error) {
	root := NewRootCommand(te.container, "test")
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(io.NopCloser(&bytes.Buffer{}))
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}
