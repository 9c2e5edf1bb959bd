package printer

import (
	"bytes"
	"fmt"
	"strings"

	"loyalty-service/internal/models"
)

// ESC/POS control sequences understood by the 80mm thermal printers the
// shops run. 48 columns at the default font.
var (
	escInit       = []byte{0x1b, 0x40}
	escAlignLeft  = []byte{0x1b, 0x61, 0x00}
	escAlignMid   = []byte{0x1b, 0x61, 0x01}
	escBoldOn     = []byte{0x1b, 0x45, 0x01}
	escBoldOff    = []byte{0x1b, 0x45, 0x00}
	escDoubleOn   = []byte{0x1d, 0x21, 0x11}
	escDoubleOff  = []byte{0x1d, 0x21, 0x00}
	escCutPartial = []byte{0x1d, 0x56, 0x42, 0x00}
	escFeed       = []byte{0x1b, 0x64, 0x04}
)

const receiptWidth = 48

// FormatReceipt renders a redemption receipt as an ESC/POS byte stream.
func FormatReceipt(receipt *models.Receipt, opts Options) []byte {
	var buf bytes.Buffer
	buf.Write(escInit)

	if opts.PrintShopHeader {
		buf.Write(escAlignMid)
		buf.Write(escDoubleOn)
		writeLine(&buf, opts.ShopName)
		buf.Write(escDoubleOff)
		writeLine(&buf, opts.ShopAddress)
		writeLine(&buf, opts.ShopContact)
		writeLine(&buf, "")
	}

	buf.Write(escAlignMid)
	buf.Write(escBoldOn)
	writeLine(&buf, opts.Title)
	buf.Write(escBoldOff)
	buf.Write(escAlignLeft)
	writeLine(&buf, strings.Repeat("-", receiptWidth))

	writeKV(&buf, "Receipt", receipt.ReceiptNo)
	writeKV(&buf, "Date", receipt.RedemptionDate.Format("2006-01-02 15:04"))
	writeKV(&buf, "Customer", receipt.CustomerName)
	writeKV(&buf, "Card", receipt.CardNo)
	writeKV(&buf, "Served by", receipt.HandledBy)
	writeLine(&buf, strings.Repeat("-", receiptWidth))

	for _, item := range receipt.Items {
		writeKV(&buf, item.ClaimType, fmt.Sprintf("x%d", item.Count))
	}
	writeLine(&buf, strings.Repeat("-", receiptWidth))

	buf.Write(escBoldOn)
	writeKV(&buf, "Coupons redeemed", fmt.Sprintf("%d", receipt.TotalCouponsRedeemed))
	writeKV(&buf, "Total value", fmt.Sprintf("%.2f", receipt.TotalValueRedeemed))
	buf.Write(escBoldOff)

	buf.Write(escAlignMid)
	writeLine(&buf, "")
	writeLine(&buf, "Thank you!")

	buf.Write(escFeed)
	buf.Write(escCutPartial)
	return buf.Bytes()
}

func writeLine(buf *bytes.Buffer, s string) {
	buf.WriteString(s)
	buf.WriteByte('\n')
}

// writeKV prints a left label and right-aligned value on one 48-column row.
func writeKV(buf *bytes.Buffer, key, value string) {
	pad := receiptWidth - len(key) - len(value)
	if pad < 1 {
		pad = 1
	}
	buf.WriteString(key)
	buf.WriteString(strings.Repeat(" ", pad))
	buf.WriteString(value)
	buf.WriteByte('\n')
}
