package printer

import (
	"context"

	"loyalty-service/internal/models"
)

// Options carries the per-shop presentation settings for a print job.
type Options struct {
	Title           string
	PrintShopHeader bool
	ShopName        string
	ShopAddress     string
	ShopContact     string
}

// Printer sends a redemption receipt to an output device.
type Printer interface {
	PrintReceipt(ctx context.Context, receipt *models.Receipt, opts Options) error
}
