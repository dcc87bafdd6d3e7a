package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertCommandExecuted checks the log output within a HarnessResult to
// confirm that a command of the given variant has executed. It leans on
// the pump's execution log line, making tests resilient to internal
// refactoring of the queues themselves.
func AssertCommandExecuted(t *testing.T, result *HarnessResult, variant string) {
	t.Helper()

	logs := result.LogOutput()
	expected := fmt.Sprintf("variant=%s", variant)

	require.True(t,
		strings.Contains(logs, "Executing command.") && strings.Contains(logs, expected),
		"expected an execution log line for variant '%s' was not found in logs", variant,
	)
}
