package models

import "time"

type CouponStatus string

const (
	CouponPending  CouponStatus = "Pending"
	CouponRedeemed CouponStatus = "Redeemed"
	CouponExpired  CouponStatus = "Expired"
)

// Claim types recorded on a coupon. Free text in storage; these are the
// values the system itself writes.
const (
	ClaimTypeManualAdd = "Manual Add"
	ClaimTypeVoided    = "Voided"
)

// Coupon is one unit of redeemable value. Value is immutable after
// creation; only status, redemption stamp, claim type and handler change.
type Coupon struct {
	CouponID     int          `json:"coupon_id" db:"coupon_id"`
	CardNo       string       `json:"card_no" db:"card_no"`
	Value        float64      `json:"value" db:"value"`
	Status       CouponStatus `json:"status" db:"status"`
	DateCreated  time.Time    `json:"date_created" db:"date_created"`
	ExpiryDate   *time.Time   `json:"expiry_date,omitempty" db:"expiry_date"`
	DateRedeemed *time.Time   `json:"date_redeemed,omitempty" db:"date_redeemed"`
	ClaimType    *string      `json:"claim_type,omitempty" db:"claim_type"`
	HandledBy    *string      `json:"handled_by,omitempty" db:"handled_by"`
}

// PendingCoupon is the slim shape shown on the customer detail screen.
type PendingCoupon struct {
	CouponID   int        `json:"coupon_id" db:"coupon_id"`
	Value      float64    `json:"value" db:"value"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty" db:"expiry_date"`
}
