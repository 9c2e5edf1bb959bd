package printer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"loyalty-service/internal/models"
)

// NetworkPrinter sends ESC/POS jobs to a thermal printer over raw TCP
// (the standard JetDirect port 9100).
type NetworkPrinter struct {
	address string
	timeout time.Duration
}

func NewNetworkPrinter(host string, port string) *NetworkPrinter {
	return &NetworkPrinter{
		address: net.JoinHostPort(host, port),
		timeout: 5 * time.Second,
	}
}

func (p *NetworkPrinter) PrintReceipt(ctx context.Context, receipt *models.Receipt, opts Options) error {
	payload := FormatReceipt(receipt, opts)

	dialer := net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.address)
	if err != nil {
		return fmt.Errorf("failed to reach printer at %s: %w", p.address, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
	} else {
		conn.SetWriteDeadline(time.Now().Add(p.timeout))
	}
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("failed to send print job to %s: %w", p.address, err)
	}
	return nil
}

// PreviewPrinter logs the receipt instead of printing it. Used when the
// shop's print mode is Preview or no printer is configured.
type PreviewPrinter struct{}

func (PreviewPrinter) PrintReceipt(_ context.Context, receipt *models.Receipt, _ Options) error {
	slog.Info("receipt preview",
		"receipt_no", receipt.ReceiptNo,
		"card_no", receipt.CardNo,
		"coupons", receipt.TotalCouponsRedeemed,
		"value", receipt.TotalValueRedeemed)
	return nil
}
