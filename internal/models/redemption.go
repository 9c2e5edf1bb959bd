package models

import "time"

// RedemptionItem is one line of the redemption cart.
type RedemptionItem struct {
	Count     int    `json:"count" binding:"required"`
	ClaimType string `json:"claim_type" binding:"required"`
}

// RedeemRequest is the ephemeral cart submitted by a staff terminal. Only
// its effects (coupon status changes) are persisted.
type RedeemRequest struct {
	Items     []RedemptionItem `json:"items" binding:"required"`
	HandledBy string           `json:"handled_by" binding:"required"`
}

// Receipt summarizes one committed redemption.
type Receipt struct {
	ReceiptNo            string           `json:"receipt_no"`
	CustomerName         string           `json:"customer_name"`
	CardNo               string           `json:"card_no"`
	Items                []RedemptionItem `json:"items"`
	HandledBy            string           `json:"handled_by"`
	TotalValueRedeemed   float64          `json:"total_value_redeemed"`
	TotalCouponsRedeemed int              `json:"total_coupons_redeemed"`
	RedemptionDate       time.Time        `json:"redemption_date"`

	// PrintWarning is set when the redemption committed but the receipt
	// could not be printed. It never fails the redemption itself.
	PrintWarning string `json:"print_warning,omitempty"`
}

// VoidResult reports a void operation and any tier downgrade it caused.
type VoidResult struct {
	CouponID    int    `json:"coupon_id"`
	CardNo      string `json:"card_no"`
	OldTier     Tier   `json:"old_tier"`
	NewTier     Tier   `json:"new_tier"`
	TierWarning string `json:"tier_warning,omitempty"`
}
