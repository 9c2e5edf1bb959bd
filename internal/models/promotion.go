package models

import "time"

// Promotion is a time-boxed override of the tier coupon value. The window
// is inclusive on both ends.
type Promotion struct {
	PromotionID int       `json:"promotion_id" db:"promotion_id"`
	Name        string    `json:"name" db:"name"`
	StartDate   time.Time `json:"start_date" db:"start_date"`
	EndDate     time.Time `json:"end_date" db:"end_date"`
	CouponValue float64   `json:"coupon_value" db:"coupon_value"`
	IsEnabled   bool      `json:"is_enabled" db:"is_enabled"`
}

// ActiveAt reports whether the promotion applies at the given instant.
func (p Promotion) ActiveAt(now time.Time) bool {
	return p.IsEnabled && !now.Before(p.StartDate) && !now.After(p.EndDate)
}
