package models

import "time"

// DashboardSummary is the precomputed aggregate cached in redis and served
// to the dashboard. Recomputed after every state change and on a timer.
type DashboardSummary struct {
	TotalCustomers       int           `json:"total_customers" db:"total_customers"`
	PendingCoupons       int           `json:"pending_coupons" db:"pending_coupons"`
	PendingValue         float64       `json:"pending_value" db:"pending_value"`
	RedeemedCoupons      int           `json:"redeemed_coupons" db:"redeemed_coupons"`
	RedeemedValue        float64       `json:"redeemed_value" db:"redeemed_value"`
	ExpiredCoupons       int           `json:"expired_coupons" db:"expired_coupons"`
	RedemptionsToday     int           `json:"redemptions_today" db:"redemptions_today"`
	RedemptionValueToday float64       `json:"redemption_value_today" db:"redemption_value_today"`
	TopRedeemers         []TopRedeemer `json:"top_redeemers"`
	GeneratedAt          time.Time     `json:"generated_at"`
}

type TopRedeemer struct {
	CardNo        string  `json:"card_no" db:"card_no"`
	Name          string  `json:"c_name" db:"c_name"`
	RedeemedCount int     `json:"redeemed_count" db:"redeemed_count"`
	RedeemedValue float64 `json:"redeemed_value" db:"redeemed_value"`
}
