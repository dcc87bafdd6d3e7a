package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vk/framewire/internal/app"
	"github.com/vk/framewire/internal/clock"
	"github.com/vk/framewire/internal/ctxlog"
	"github.com/vk/framewire/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test setup.
type HarnessResult struct {
	Logs  *SafeBuffer
	Err   error
	App   *app.App
	Clock *clock.FakeClock
	Ctx   context.Context
	Dir   string
}

// LogOutput returns everything the app has logged so far.
func (r *HarnessResult) LogOutput() string {
	return r.Logs.String()
}

// Tick advances the pump n times. Tests drive ticks explicitly instead
// of running the app's real-time loop.
func (r *HarnessResult) Tick(n int) {
	for i := 0; i < n; i++ {
		r.App.Pump().Tick(r.Ctx)
	}
}

// RunIntegrationTest provides a standardized harness for building an app
// from fixture files with the default configuration.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithConfig(t, files, nil, modules...)
}

// RepoModulesPath returns the repository's own modules directory so tests
// can run against the shipped manifests.
func RepoModulesPath(t *testing.T) string {
	t.Helper()

	path, err := filepath.Abs(filepath.Join("..", "..", "..", "modules"))
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err, "repo modules directory not found at %s", path)
	require.True(t, info.IsDir())
	return path
}

// RunIntegrationTestWithConfig builds an app from fixture files, letting
// the caller adjust the configuration before startup. The app runs on a
// fake clock; startup panics are captured into HarnessResult.Err.
func RunIntegrationTestWithConfig(t *testing.T, files map[string]string, mutate func(dir string, cfg *app.Config), modules ...registry.Module) *HarnessResult {
	t.Helper()

	// 1. Create a temporary root directory for the test.
	tmpDir := t.TempDir()

	modulesDir := filepath.Join(tmpDir, "modules")
	require.NoError(t, os.MkdirAll(modulesDir, 0755))

	// 2. Write all fixture files to the temporary directory.
	//    The test provides relative paths (e.g. "modules/x/manifest.hcl"),
	//    which naturally creates the subdirectory structure within tmpDir.
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	// 3. Configure the app against the temporary directory.
	cfg := &app.Config{
		ModulesPath: modulesDir,
		OptionsPath: filepath.Join(tmpDir, "options.ini"),
		FPS:         60,
		LogFormat:   "text",
		LogLevel:    "debug",
	}
	if mutate != nil {
		mutate(tmpDir, cfg)
	}

	logBuffer := &SafeBuffer{}
	clk := clock.Fake(time.Unix(1700000000, 0))

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.New(logBuffer, cfg, clk, modules...)
	}()

	if os.Getenv("FW_TEST_LOGS") == "true" {
		t.Cleanup(func() {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		})
	}

	if panicErr != nil {
		return &HarnessResult{
			Logs:  logBuffer,
			Err:   fmt.Errorf("application startup panicked | %v", panicErr),
			Clock: clk,
			Ctx:   context.Background(),
			Dir:   tmpDir,
		}
	}

	t.Cleanup(func() {
		if testApp.Journal() != nil {
			testApp.Journal().Close()
		}
	})

	return &HarnessResult{
		Logs:  logBuffer,
		App:   testApp,
		Clock: clk,
		Ctx:   ctxlog.WithLogger(context.Background(), testApp.Logger()),
		Dir:   tmpDir,
	}
}
