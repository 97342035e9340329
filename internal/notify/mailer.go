// Package notify delivers the operational emails the storeroom workflows
// emit: low-stock alerts and purchase order confirmations. Delivery is
// queued; callers never block on SMTP and a failed send never affects the
// operation that triggered it.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/plantops/plantops/internal/inventory"
	"github.com/plantops/plantops/internal/procurement"
)

// Enqueuer hands a composed email to the background queue.
type Enqueuer interface {
	EnqueueEmail(ctx context.Context, to, subject, body string) error
}

// Mailer composes notification emails and enqueues them for delivery. It
// satisfies the notifier ports of the modules that send mail.
type Mailer struct {
	logger *slog.Logger
	queue  Enqueuer
}

// NewMailer constructs Mailer.
func NewMailer(logger *slog.Logger, queue Enqueuer) *Mailer {
	return &Mailer{logger: logger, queue: queue}
}

// SendLowStockAlert mails the low-stock snapshot to the recipient.
func (m *Mailer) SendLowStockAlert(ctx context.Context, items []inventory.Item, recipient string) error {
	if m.queue == nil || recipient == "" || len(items) == 0 {
		return nil
	}
	subject := fmt.Sprintf("Low stock alert: %d part(s) at or below reorder point", len(items))
	return m.enqueue(ctx, recipient, subject, lowStockBody(items))
}

// SendPOConfirmation mails a summary of a freshly created purchase order.
func (m *Mailer) SendPOConfirmation(ctx context.Context, po procurement.PurchaseOrder, recipient string) error {
	if m.queue == nil || recipient == "" {
		return nil
	}
	subject := fmt.Sprintf("Purchase order %s created for %s", po.PONumber, po.SupplierName)
	return m.enqueue(ctx, recipient, subject, poBody(po))
}

func (m *Mailer) enqueue(ctx context.Context, to, subject, body string) error {
	if err := m.queue.EnqueueEmail(ctx, to, subject, body); err != nil {
		m.logger.Warn("enqueue mail", slog.String("subject", subject), slog.Any("error", err))
		return err
	}
	return nil
}

func lowStockBody(items []inventory.Item) string {
	var b strings.Builder
	b.WriteString("The following parts are at or below their reorder point:\n\n")
	for _, item := range items {
		fmt.Fprintf(&b, "- %s: %d on hand (reorder point %d", item.ProductName, item.Qty, item.ReorderPoint)
		if item.SupplierName != "" {
			fmt.Fprintf(&b, ", supplier %s", item.SupplierName)
		}
		b.WriteString(")\n")
	}
	b.WriteString("\nTrigger a reorder run from the procurement screen to generate draft purchase orders.\n")
	return b.String()
}

func poBody(po procurement.PurchaseOrder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Purchase order %s (%s)\n", po.PONumber, po.Status)
	fmt.Fprintf(&b, "Supplier: %s\n", po.SupplierName)
	fmt.Fprintf(&b, "Order date: %s\n\n", po.OrderDate.Format("2006-01-02"))
	for _, line := range po.Items {
		fmt.Fprintf(&b, "- product #%d x%d @ %.2f\n", line.ProductID, line.Quantity, line.UnitCost)
	}
	fmt.Fprintf(&b, "\nTotal: %.2f\n", po.TotalCost)
	return b.String()
}
