package inventory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImportCSVCreatesItemsAndLedger(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	csvBody := strings.Join([]string{
		"product_name,qty,reorder_point,unit_cost,supplier_name",
		"Bearing 6204,25,10,4.50,Acme Industrial",
		"Drive Belt A38,0,5,12.00,",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csvBody), 7)
	require.NoError(t, err)
	require.NotEmpty(t, result.BatchID)
	require.Equal(t, 2, result.Imported)
	require.Equal(t, 0, result.Skipped)
	require.Empty(t, result.Errors)

	items, err := svc.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Only the row with opening stock posts an INITIAL movement.
	require.Len(t, repo.movements, 1)
	require.Equal(t, MovementIn, repo.movements[0].Type)
	require.Equal(t, 25, repo.movements[0].Quantity)
	require.Equal(t, RefInitial, repo.movements[0].Reference)
}

func TestImportCSVSkipsBadRowsAndContinues(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	csvBody := strings.Join([]string{
		"product_name,qty",
		"Hydraulic Seal,not-a-number",
		",5",
		"Coupling Insert,3",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csvBody), 1)
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)
	require.Equal(t, 2, result.Skipped)
	require.Len(t, result.Errors, 2)
	require.Equal(t, 2, result.Errors[0].Line)
	require.Equal(t, 3, result.Errors[1].Line)

	items, err := svc.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Coupling Insert", items[0].ProductName)
}

func TestImportCSVRejectsHeaderWithoutName(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	_, err := svc.ImportCSV(context.Background(), strings.NewReader("qty,unit_cost\n5,1.00\n"), 1)
	require.ErrorIs(t, err, ErrImportHeader)
}

func TestImportCSVIgnoresUnknownColumns(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	csvBody := "sku,product_name,qty\nX-100,Gearbox Oil,4\n"
	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csvBody), 1)
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)

	items, err := svc.ListItems(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Gearbox Oil", items[0].ProductName)
	require.Equal(t, 4, items[0].Qty)
}
