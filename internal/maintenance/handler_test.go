package maintenance

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plantops/plantops/internal/inventory"
)

func TestRespondMaintenanceErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ErrLogNotFound, 404},
		{ErrPartNotFound, 404},
		{ErrMissingFields, 400},
		{ErrInvalidAction, 400},
		{ErrStockFieldEdit, 409},
		// An overdrawn deduction is an operator error, not an internal
		// failure; the client gets the reason back.
		{inventory.ErrNegativeStock, 409},
		{inventory.ErrInvalidQuantity, 400},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		respondMaintenanceError(rec, fmt.Errorf("deduct part: %w", tc.err))
		require.Equal(t, tc.status, rec.Code, tc.err.Error())
		require.Contains(t, rec.Body.String(), tc.err.Error())
	}
}
