package auth

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// CreateSession inserts ip and user_agent, so the sessions table must
// carry both columns or every login audit row fails.
func TestSessionsMigrationHasAuditColumns(t *testing.T) {
	schema, err := os.ReadFile("../../db/migrations/0001_users.sql")
	require.NoError(t, err)

	require.Regexp(t, `(?m)^\s*ip\s+TEXT`, string(schema))
	require.Regexp(t, `(?m)^\s*user_agent\s+TEXT`, string(schema))
}
