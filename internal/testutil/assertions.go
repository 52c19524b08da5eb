package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertExecuted checks the log output within a HarnessResult to confirm that
// the named procedure completed at least once.
func AssertExecuted(t *testing.T, result *HarnessResult, schema string) {
	t.Helper()

	want := fmt.Sprintf("procedure=%s", schema)
	for _, line := range strings.Split(result.LogOutput, "\n") {
		if strings.Contains(line, "Execution finished.") && strings.Contains(line, want) {
			return
		}
	}
	require.Fail(t, "execution not logged", "no finished execution of %q in logs", schema)
}
