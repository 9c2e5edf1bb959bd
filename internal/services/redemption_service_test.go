package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"loyalty-service/internal/models"
	"loyalty-service/internal/repository"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

// The transactional tests need a throwaway loyalty database with schema.sql
// applied. Set LOYALTY_TEST_DSN to run them; without it only the validation
// tests run.

func serviceTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("LOYALTY_TEST_DSN")
	if dsn == "" {
		t.Skip("LOYALTY_TEST_DSN not set, skipping database tests")
	}
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func redemptionFixture(t *testing.T) (*RedemptionService, *sqlx.DB, string) {
	t.Helper()
	db := serviceTestDB(t)

	cardNo := fmt.Sprintf("TEST-%d", time.Now().UnixNano())
	_, err := db.Exec(`INSERT INTO customers (card_no, c_name) VALUES ($1, 'Test Customer')`, cardNo)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Exec(`DELETE FROM coupons WHERE card_no = $1`, cardNo)
		db.Exec(`DELETE FROM customer_blacklist WHERE card_no = $1`, cardNo)
		db.Exec(`DELETE FROM customers WHERE card_no = $1`, cardNo)
	})

	service := NewRedemptionService(
		repository.NewCouponRepository(db),
		repository.NewCustomerRepository(db),
		repository.NewBlacklistRepository(db),
		nil,
		nil,
		NewDashboardService(repository.NewDashboardRepository(db), nil, nil),
		nil,
	)
	return service, db, cardNo
}

func seedPendingCoupons(t *testing.T, db *sqlx.DB, cardNo string, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		_, err := db.Exec(`
			INSERT INTO coupons (card_no, value, status, date_created)
			VALUES ($1, 250, $2, NOW())`, cardNo, models.CouponPending)
		require.NoError(t, err)
	}
}

func statusCount(t *testing.T, db *sqlx.DB, cardNo string, status models.CouponStatus) int {
	t.Helper()
	var count int
	require.NoError(t, db.Get(&count,
		`SELECT COUNT(coupon_id) FROM coupons WHERE card_no = $1 AND status = $2`, cardNo, status))
	return count
}

// ============================================================================
// TEST SUITE 1: CART VALIDATION
// ============================================================================

func TestRedeem_RejectsEmptyCart(t *testing.T) {
	service := NewRedemptionService(nil, nil, nil, nil, nil, nil, nil)

	_, err := service.Redeem(context.Background(), "C-1001", models.RedeemRequest{HandledBy: "cashier"})

	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr), "an empty cart is a validation failure, not a server error")
}

func TestRedeem_RejectsNonPositiveCount(t *testing.T) {
	service := NewRedemptionService(nil, nil, nil, nil, nil, nil, nil)
	request := models.RedeemRequest{
		Items:     []models.RedemptionItem{{Count: 0, ClaimType: "Groceries"}},
		HandledBy: "cashier",
	}

	_, err := service.Redeem(context.Background(), "C-1001", request)

	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
	assert.Contains(t, err.Error(), "Groceries", "the offending line item must be named")
}

func TestRedeem_RequiresHandler(t *testing.T) {
	service := NewRedemptionService(nil, nil, nil, nil, nil, nil, nil)
	request := models.RedeemRequest{
		Items: []models.RedemptionItem{{Count: 1, ClaimType: "Groceries"}},
	}

	_, err := service.Redeem(context.Background(), "C-1001", request)

	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

// ============================================================================
// TEST SUITE 2: ALL-OR-NOTHING REDEMPTION
// ============================================================================

func TestRedeem_InsufficientRollsBackCart(t *testing.T) {
	service, db, cardNo := redemptionFixture(t)
	seedPendingCoupons(t, db, cardNo, 3)

	request := models.RedeemRequest{
		Items: []models.RedemptionItem{
			{Count: 3, ClaimType: "Groceries"},
			{Count: 2, ClaimType: "Fuel"},
		},
		HandledBy: "cashier",
	}

	_, err := service.Redeem(context.Background(), cardNo, request)

	var insufficientErr *InsufficientCouponsError
	require.True(t, errors.As(err, &insufficientErr))
	assert.Equal(t, 5, insufficientErr.Requested, "the error reports the whole cart, not one line")
	assert.Equal(t, 3, insufficientErr.Available)

	assert.Equal(t, 3, statusCount(t, db, cardNo, models.CouponPending), "no line item may survive a short cart")
	assert.Equal(t, 0, statusCount(t, db, cardNo, models.CouponRedeemed))
}

func TestRedeem_BlacklistedCustomerKeepsPool(t *testing.T) {
	service, db, cardNo := redemptionFixture(t)
	seedPendingCoupons(t, db, cardNo, 3)
	_, err := db.Exec(`
		INSERT INTO customer_blacklist (card_no, reason, added_by)
		VALUES ($1, 'chargeback dispute', 'manager')`, cardNo)
	require.NoError(t, err)

	request := models.RedeemRequest{
		Items:     []models.RedemptionItem{{Count: 1, ClaimType: "Groceries"}},
		HandledBy: "cashier",
	}

	_, err = service.Redeem(context.Background(), cardNo, request)

	assert.ErrorIs(t, err, ErrBlacklisted)
	assert.Equal(t, 3, statusCount(t, db, cardNo, models.CouponPending), "a blocked redemption must not touch the pool")
}

func TestRedeem_CommitsCartAndBuildsReceipt(t *testing.T) {
	service, db, cardNo := redemptionFixture(t)
	seedPendingCoupons(t, db, cardNo, 3)

	request := models.RedeemRequest{
		Items:     []models.RedemptionItem{{Count: 2, ClaimType: "Groceries"}},
		HandledBy: "cashier",
	}

	receipt, err := service.Redeem(context.Background(), cardNo, request)
	require.NoError(t, err)

	assert.Equal(t, 2, receipt.TotalCouponsRedeemed)
	assert.Equal(t, 500.0, receipt.TotalValueRedeemed)
	assert.Equal(t, cardNo, receipt.CardNo)
	assert.Equal(t, "Test Customer", receipt.CustomerName)
	assert.NotEmpty(t, receipt.ReceiptNo)

	assert.Equal(t, 1, statusCount(t, db, cardNo, models.CouponPending))
	assert.Equal(t, 2, statusCount(t, db, cardNo, models.CouponRedeemed))
}
