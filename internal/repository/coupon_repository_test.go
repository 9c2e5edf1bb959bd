package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"loyalty-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need a throwaway loyalty database with schema.sql applied.
// Set LOYALTY_TEST_DSN to run them, e.g.
//
//	LOYALTY_TEST_DSN="host=localhost user=postgres password=postgres dbname=loyalty_test sslmode=disable" go test ./internal/repository/

func testDB(t *testing.T) *sqlx.DB {
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

func testCard(t *testing.T, db *sqlx.DB) string {
	t.Helper()
	cardNo := fmt.Sprintf("TEST-%d", time.Now().UnixNano())
	_, err := db.Exec(`INSERT INTO customers (card_no, c_name) VALUES ($1, 'Test Customer')`, cardNo)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Exec(`DELETE FROM coupons WHERE card_no = $1`, cardNo)
		db.Exec(`DELETE FROM customers WHERE card_no = $1`, cardNo)
	})
	return cardNo
}

func seedPending(t *testing.T, db *sqlx.DB, cardNo string, values []float64, expiries []*time.Time) {
	t.Helper()
	for i, value := range values {
		_, err := db.Exec(`
			INSERT INTO coupons (card_no, value, status, date_created, expiry_date)
			VALUES ($1, $2, $3, NOW(), $4)`, cardNo, value, models.CouponPending, expiries[i])
		require.NoError(t, err)
	}
}

func countByStatus(t *testing.T, db *sqlx.DB, cardNo string, status models.CouponStatus) int {
	t.Helper()
	var count int
	require.NoError(t, db.Get(&count,
		`SELECT COUNT(coupon_id) FROM coupons WHERE card_no = $1 AND status = $2`, cardNo, status))
	return count
}

func TestRedeemBatchTx_InsufficientLeavesPoolUntouched(t *testing.T) {
	db := testDB(t)
	repo := NewCouponRepository(db)
	ctx := context.Background()
	cardNo := testCard(t, db)
	seedPending(t, db, cardNo, []float64{250, 250, 250}, []*time.Time{nil, nil, nil})

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	available, err := repo.LockPendingTx(ctx, tx, cardNo)
	require.NoError(t, err)
	assert.Equal(t, 3, available)

	// Ask for five against three pending. The batch comes back short, which
	// is the caller's signal to roll the whole cart back.
	values, err := repo.RedeemBatchTx(ctx, tx, cardNo, 5, "Groceries", "tester", time.Now())
	require.NoError(t, err)
	assert.Len(t, values, 3, "the flip cannot exceed the pool size")
	require.NoError(t, tx.Rollback())

	assert.Equal(t, 3, countByStatus(t, db, cardNo, models.CouponPending), "all coupons must still be pending after rollback")
	assert.Equal(t, 0, countByStatus(t, db, cardNo, models.CouponRedeemed))
}

func TestRedeemBatchTx_RedeemsClosestToExpiryFirst(t *testing.T) {
	db := testDB(t)
	repo := NewCouponRepository(db)
	ctx := context.Background()
	cardNo := testCard(t, db)

	soon := time.Now().AddDate(0, 0, 7)
	later := time.Now().AddDate(0, 0, 60)
	// One never-expiring coupon, one far out, one about to lapse.
	seedPending(t, db, cardNo, []float64{100, 150, 200}, []*time.Time{nil, &later, &soon})

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	values, err := repo.RedeemBatchTx(ctx, tx, cardNo, 2, "Groceries", "tester", time.Now())
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	total := 0.0
	for _, v := range values {
		total += v
	}
	assert.Equal(t, 350.0, total, "the soon-to-expire and the dated coupon go first, never-expiring last")
	assert.Equal(t, 1, countByStatus(t, db, cardNo, models.CouponPending))

	var remaining float64
	require.NoError(t, db.Get(&remaining,
		`SELECT value FROM coupons WHERE card_no = $1 AND status = $2`, cardNo, models.CouponPending))
	assert.Equal(t, 100.0, remaining, "the never-expiring coupon must be the survivor")
}

func TestVoidTx_ReversesRedemption(t *testing.T) {
	db := testDB(t)
	repo := NewCouponRepository(db)
	ctx := context.Background()
	cardNo := testCard(t, db)
	seedPending(t, db, cardNo, []float64{250}, []*time.Time{nil})

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	_, err = repo.RedeemBatchTx(ctx, tx, cardNo, 1, "Groceries", "tester", time.Now())
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	var couponID int
	require.NoError(t, db.Get(&couponID,
		`SELECT coupon_id FROM coupons WHERE card_no = $1 AND status = $2`, cardNo, models.CouponRedeemed))

	tx, err = db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	foundCard, err := repo.FindRedeemedCardTx(ctx, tx, couponID)
	require.NoError(t, err)
	assert.Equal(t, cardNo, foundCard)

	affected, err := repo.VoidTx(ctx, tx, couponID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, tx.Commit())

	var status models.CouponStatus
	var claimType string
	require.NoError(t, db.Get(&status, `SELECT status FROM coupons WHERE coupon_id = $1`, couponID))
	require.NoError(t, db.Get(&claimType, `SELECT claim_type FROM coupons WHERE coupon_id = $1`, couponID))
	assert.Equal(t, models.CouponPending, status, "a voided coupon returns to the pool")
	assert.Equal(t, models.ClaimTypeVoided, claimType, "the void leaves an audit marker")
}

func TestVoidTx_RejectsPendingCoupon(t *testing.T) {
	db := testDB(t)
	repo := NewCouponRepository(db)
	ctx := context.Background()
	cardNo := testCard(t, db)
	seedPending(t, db, cardNo, []float64{250}, []*time.Time{nil})

	var couponID int
	require.NoError(t, db.Get(&couponID,
		`SELECT coupon_id FROM coupons WHERE card_no = $1`, cardNo))

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	foundCard, err := repo.FindRedeemedCardTx(ctx, tx, couponID)
	require.NoError(t, err)
	assert.Empty(t, foundCard, "a pending coupon has no redemption to void")
}

func TestExpirePastDue(t *testing.T) {
	db := testDB(t)
	repo := NewCouponRepository(db)
	ctx := context.Background()
	cardNo := testCard(t, db)

	past := time.Now().AddDate(0, 0, -1)
	future := time.Now().AddDate(0, 0, 30)
	seedPending(t, db, cardNo, []float64{250, 250, 250}, []*time.Time{&past, &future, nil})

	_, err := repo.ExpirePastDue(ctx, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, countByStatus(t, db, cardNo, models.CouponExpired), "only the lapsed coupon expires")
	assert.Equal(t, 2, countByStatus(t, db, cardNo, models.CouponPending), "dated-future and never-expiring stay pending")
}
