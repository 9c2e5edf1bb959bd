package models

// Customer is the loyalty-store mirror of a billing customer. It is written
// only by the sync job; the core reads it for receipts and customer detail.
type Customer struct {
	CardNo          string  `json:"card_no" db:"card_no"`
	Name            string  `json:"c_name" db:"c_name"`
	Contact         *string `json:"c_contact,omitempty" db:"c_contact"`
	CreatedByUserID *string `json:"created_by_user_id,omitempty" db:"created_by_user_id"`
}

// BillingCustomer is the billing-store record that owns the point balance.
type BillingCustomer struct {
	CardNo  string  `json:"card_no" db:"card_no"`
	Name    *string `json:"c_name,omitempty" db:"c_name"`
	Contact *string `json:"c_contact,omitempty" db:"c_contact"`
	Points  float64 `json:"points" db:"points"`
}
