package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub-academy/learnhub/internal/rbac"
)

func TestRBACCommandPrintsTable(t *testing.T) {
	var out, errOut bytes.Buffer
	code := RBACCommand(RBACOptions{Stdout: &out, Stderr: &errOut})
	require.Equal(t, 0, code, errOut.String())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1+len(rbac.Roles()))
	assert.True(t, strings.HasPrefix(lines[0], "ROLE"))
	assert.Contains(t, out.String(), "MANAGE_ADMINS")
}

func TestRBACCommandJSONForSingleRole(t *testing.T) {
	var out bytes.Buffer
	code := RBACCommand(RBACOptions{Role: "admin", JSONOutput: true, Stdout: &out})
	require.Equal(t, 0, code)

	var entries []roleEntry
	require.NoError(t, json.Unmarshal(out.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, rbac.RoleAdmin, entries[0].Role)
	assert.Contains(t, entries[0].Permissions, rbac.PermExportReports)
	assert.NotContains(t, entries[0].Permissions, rbac.PermManageSettings)
}

func TestRBACCommandUnknownRole(t *testing.T) {
	var errOut bytes.Buffer
	assert.Equal(t, 1, RBACCommand(RBACOptions{Role: "janitor", Stderr: &errOut}))
	assert.Contains(t, errOut.String(), "unknown role")
}

func TestTriggerRejectsUnsupportedJob(t *testing.T) {
	var c *JobsCLI
	_, err := c.Trigger(t.Context(), "reports:export")
	assert.Error(t, err)
}
