package printer

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"loyalty-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func sampleReceipt() *models.Receipt {
	return &models.Receipt{
		ReceiptNo:    "6f1a2b3c",
		CustomerName: "Aruna Perera",
		CardNo:       "C-1001",
		Items: []models.RedemptionItem{
			{Count: 2, ClaimType: "Groceries"},
			{Count: 1, ClaimType: "Fuel"},
		},
		HandledBy:            "nimal",
		TotalValueRedeemed:   750,
		TotalCouponsRedeemed: 3,
		RedemptionDate:       time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC),
	}
}

func TestFormatReceipt_ContainsReceiptFields(t *testing.T) {
	payload := string(FormatReceipt(sampleReceipt(), Options{Title: "COUPON REDEMPTION"}))

	assert.Contains(t, payload, "COUPON REDEMPTION")
	assert.Contains(t, payload, "6f1a2b3c")
	assert.Contains(t, payload, "Aruna Perera")
	assert.Contains(t, payload, "C-1001")
	assert.Contains(t, payload, "nimal")
	assert.Contains(t, payload, "Groceries")
	assert.Contains(t, payload, "x2")
	assert.Contains(t, payload, "750.00")
	assert.Contains(t, payload, "2025-06-02 14:30")
}

func TestFormatReceipt_ShopHeaderToggle(t *testing.T) {
	opts := Options{
		Title:           "COUPON REDEMPTION",
		PrintShopHeader: true,
		ShopName:        "City Mart",
		ShopAddress:     "12 Main St",
		ShopContact:     "011-5551234",
	}

	withHeader := string(FormatReceipt(sampleReceipt(), opts))
	assert.Contains(t, withHeader, "City Mart")
	assert.Contains(t, withHeader, "12 Main St")

	opts.PrintShopHeader = false
	withoutHeader := string(FormatReceipt(sampleReceipt(), opts))
	assert.NotContains(t, withoutHeader, "City Mart")
}

func TestFormatReceipt_StartsWithInitAndEndsWithCut(t *testing.T) {
	payload := FormatReceipt(sampleReceipt(), Options{Title: "COUPON REDEMPTION"})

	assert.True(t, strings.HasPrefix(string(payload), string(escInit)), "job must reset the printer first")
	assert.True(t, strings.HasSuffix(string(payload), string(escCutPartial)), "job must end with a paper cut")
}

func TestWriteKV_RightAlignsValue(t *testing.T) {
	var buf bytes.Buffer
	writeKV(&buf, "Total", "300.00")

	line := strings.TrimSuffix(buf.String(), "\n")
	assert.Len(t, line, receiptWidth, "label and value must pad to the full column width")
	assert.True(t, strings.HasPrefix(line, "Total"))
	assert.True(t, strings.HasSuffix(line, "300.00"))
}
