package notify

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/plantops/plantops/internal/inventory"
	"github.com/plantops/plantops/internal/procurement"
)

type fakeQueue struct {
	sent []struct{ to, subject, body string }
	err  error
}

func (q *fakeQueue) EnqueueEmail(ctx context.Context, to, subject, body string) error {
	if q.err != nil {
		return q.err
	}
	q.sent = append(q.sent, struct{ to, subject, body string }{to, subject, body})
	return nil
}

func TestSendLowStockAlert(t *testing.T) {
	queue := &fakeQueue{}
	mailer := NewMailer(slog.New(slog.DiscardHandler), queue)

	err := mailer.SendLowStockAlert(context.Background(), []inventory.Item{
		{ProductName: "Bearing", Qty: 2, ReorderPoint: 5, SupplierName: "Acme"},
		{ProductName: "Fuse", Qty: 0, ReorderPoint: 3},
	}, "ops@plant.example")
	require.NoError(t, err)

	require.Len(t, queue.sent, 1)
	mail := queue.sent[0]
	require.Equal(t, "ops@plant.example", mail.to)
	require.Contains(t, mail.subject, "2 part(s)")
	require.Contains(t, mail.body, "Bearing: 2 on hand (reorder point 5, supplier Acme)")
	require.Contains(t, mail.body, "Fuse: 0 on hand (reorder point 3)")
}

func TestSendLowStockAlertSkipsEmptyInput(t *testing.T) {
	queue := &fakeQueue{}
	mailer := NewMailer(slog.New(slog.DiscardHandler), queue)

	require.NoError(t, mailer.SendLowStockAlert(context.Background(), nil, "ops@plant.example"))
	require.NoError(t, mailer.SendLowStockAlert(context.Background(), []inventory.Item{{ProductName: "X"}}, ""))
	require.Empty(t, queue.sent)
}

func TestSendPOConfirmation(t *testing.T) {
	queue := &fakeQueue{}
	mailer := NewMailer(slog.New(slog.DiscardHandler), queue)

	po := procurement.PurchaseOrder{
		PONumber:     "PO-20240315-042",
		SupplierName: "Acme",
		Status:       procurement.StatusDraft,
		TotalCost:    300,
		OrderDate:    time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Items: []procurement.POItem{
			{ProductID: 1, Quantity: 50, UnitCost: 2},
			{ProductID: 2, Quantity: 20, UnitCost: 10},
		},
	}
	require.NoError(t, mailer.SendPOConfirmation(context.Background(), po, "ops@plant.example"))

	require.Len(t, queue.sent, 1)
	mail := queue.sent[0]
	require.Contains(t, mail.subject, "PO-20240315-042")
	require.Contains(t, mail.body, "Supplier: Acme")
	require.Contains(t, mail.body, "product #1 x50 @ 2.00")
	require.Contains(t, mail.body, "Total: 300.00")
}

func TestEnqueueFailureSurfacesError(t *testing.T) {
	boom := errors.New("queue down")
	mailer := NewMailer(slog.New(slog.DiscardHandler), &fakeQueue{err: boom})

	err := mailer.SendPOConfirmation(context.Background(), procurement.PurchaseOrder{PONumber: "PO-1"}, "ops@plant.example")
	require.ErrorIs(t, err, boom)
}
