package analytics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// The ledger writer stamps occurred_at on every movement row; the report
// windows must filter on the same column.
func TestMovementWindowsUseLedgerTimestamp(t *testing.T) {
	for name, query := range map[string]string{
		"partUsage":   partUsageQuery,
		"stockHealth": stockHealthQuery,
	} {
		require.Contains(t, query, "m.occurred_at", name)
		require.NotContains(t, query, "m.created_at", name)
	}
}
