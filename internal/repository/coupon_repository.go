package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"loyalty-service/internal/models"

	"github.com/jmoiron/sqlx"
)

type CouponRepository struct {
	db *sqlx.DB
}

func NewCouponRepository(db *sqlx.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

func (r *CouponRepository) DB() *sqlx.DB {
	return r.db
}

// LockPendingTx locks every pending coupon of a card inside the current
// transaction and returns how many there are. Taking the row locks before
// counting is what keeps the availability check and the subsequent redeem
// updates serializable against a concurrent redemption on the same card.
func (r *CouponRepository) LockPendingTx(ctx context.Context, tx *sqlx.Tx, cardNo string) (int, error) {
	var ids []int
	query := `
		SELECT coupon_id FROM coupons
		WHERE card_no = $1 AND status = $2
		FOR UPDATE`
	if err := tx.SelectContext(ctx, &ids, query, cardNo, models.CouponPending); err != nil {
		return 0, fmt.Errorf("failed to lock pending coupons for %s: %w", cardNo, err)
	}
	return len(ids), nil
}

// RedeemBatchTx flips the card's oldest-expiring pending coupons to
// Redeemed and returns the value of each flipped coupon. Null expiry sorts
// last so the coupons closest to expiring are always consumed first.
func (r *CouponRepository) RedeemBatchTx(ctx context.Context, tx *sqlx.Tx, cardNo string, count int, claimType, handledBy string, now time.Time) ([]float64, error) {
	var values []float64
	query := `
		UPDATE coupons
		SET status = $6, date_redeemed = $3, claim_type = $4, handled_by = $5
		WHERE coupon_id IN (
			SELECT coupon_id FROM coupons
			WHERE card_no = $1 AND status = $7
			ORDER BY expiry_date ASC NULLS LAST, date_created ASC
			LIMIT $2
			FOR UPDATE
		) AND status = $7
		RETURNING value`
	err := tx.SelectContext(ctx, &values, query, cardNo, count, now, claimType, handledBy, models.CouponRedeemed, models.CouponPending)
	if err != nil {
		return nil, fmt.Errorf("failed to redeem coupons for %s: %w", cardNo, err)
	}
	return values, nil
}

// FindRedeemedCardTx returns the owning card of a coupon currently in the
// Redeemed state, locking the row. Empty string when no such coupon exists.
func (r *CouponRepository) FindRedeemedCardTx(ctx context.Context, tx *sqlx.Tx, couponID int) (string, error) {
	var cardNo string
	query := `
		SELECT card_no FROM coupons
		WHERE coupon_id = $1 AND status = $2
		FOR UPDATE`
	err := tx.GetContext(ctx, &cardNo, query, couponID, models.CouponRedeemed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up coupon %d: %w", couponID, err)
	}
	return cardNo, nil
}

// VoidTx sets a redeemed coupon back to pending, clearing the redemption
// stamp and overwriting claim type and handler with the void marker.
func (r *CouponRepository) VoidTx(ctx context.Context, tx *sqlx.Tx, couponID int) (int64, error) {
	query := `
		UPDATE coupons
		SET status = $2, date_redeemed = NULL, claim_type = $3, handled_by = $3
		WHERE coupon_id = $1 AND status = $4`
	res, err := tx.ExecContext(ctx, query, couponID, models.CouponPending, models.ClaimTypeVoided, models.CouponRedeemed)
	if err != nil {
		return 0, fmt.Errorf("failed to void coupon %d: %w", couponID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read void result for coupon %d: %w", couponID, err)
	}
	return rows, nil
}

// CountRedeemedTx counts a card's redeemed coupons inside the current
// transaction. The tier classifier uses this so the count cannot race a
// concurrent redemption or void on the same card.
func (r *CouponRepository) CountRedeemedTx(ctx context.Context, tx *sqlx.Tx, cardNo string) (int, error) {
	var count int
	query := `SELECT COUNT(coupon_id) FROM coupons WHERE status = $2 AND card_no = $1`
	if err := tx.GetContext(ctx, &count, query, cardNo, models.CouponRedeemed); err != nil {
		return 0, fmt.Errorf("failed to count redeemed coupons for %s: %w", cardNo, err)
	}
	return count, nil
}

// CountRedeemed is the out-of-transaction variant used for display paths.
func (r *CouponRepository) CountRedeemed(ctx context.Context, cardNo string) (int, error) {
	var count int
	query := `SELECT COUNT(coupon_id) FROM coupons WHERE status = $2 AND card_no = $1`
	if err := r.db.GetContext(ctx, &count, query, cardNo, models.CouponRedeemed); err != nil {
		return 0, fmt.Errorf("failed to count redeemed coupons for %s: %w", cardNo, err)
	}
	return count, nil
}

// CreatePendingBatchTx inserts count identical pending coupons for a card.
// Engine-created coupons carry no claim type until redemption stamps one.
func (r *CouponRepository) CreatePendingBatchTx(ctx context.Context, tx *sqlx.Tx, cardNo string, count int, value float64, dateCreated time.Time, expiryDate *time.Time, claimType, handledBy *string) error {
	query := `
		INSERT INTO coupons (card_no, value, status, date_created, expiry_date, claim_type, handled_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i := 0; i < count; i++ {
		if _, err := tx.ExecContext(ctx, query, cardNo, value, models.CouponPending, dateCreated, expiryDate, claimType, handledBy); err != nil {
			return fmt.Errorf("failed to create coupon %d of %d for %s: %w", i+1, count, cardNo, err)
		}
	}
	return nil
}

// PendingByCard lists a card's pending coupons in redemption order.
func (r *CouponRepository) PendingByCard(ctx context.Context, cardNo string) ([]models.PendingCoupon, error) {
	var coupons []models.PendingCoupon
	query := `
		SELECT coupon_id, value, expiry_date FROM coupons
		WHERE card_no = $1 AND status = $2
		ORDER BY expiry_date ASC NULLS LAST, date_created ASC`
	if err := r.db.SelectContext(ctx, &coupons, query, cardNo, models.CouponPending); err != nil {
		return nil, fmt.Errorf("failed to list pending coupons for %s: %w", cardNo, err)
	}
	return coupons, nil
}

// HistoryByCard lists a card's full coupon records, newest first.
func (r *CouponRepository) HistoryByCard(ctx context.Context, cardNo string, limit int) ([]models.Coupon, error) {
	var coupons []models.Coupon
	query := `
		SELECT coupon_id, card_no, value, status, date_created, expiry_date, date_redeemed, claim_type, handled_by
		FROM coupons
		WHERE card_no = $1
		ORDER BY date_created DESC, coupon_id DESC
		LIMIT $2`
	if err := r.db.SelectContext(ctx, &coupons, query, cardNo, limit); err != nil {
		return nil, fmt.Errorf("failed to list coupon history for %s: %w", cardNo, err)
	}
	return coupons, nil
}

func (r *CouponRepository) CountPending(ctx context.Context, cardNo string) (int, error) {
	var count int
	query := `SELECT COUNT(coupon_id) FROM coupons WHERE card_no = $1 AND status = $2`
	if err := r.db.GetContext(ctx, &count, query, cardNo, models.CouponPending); err != nil {
		return 0, fmt.Errorf("failed to count pending coupons for %s: %w", cardNo, err)
	}
	return count, nil
}

// ExpirePastDue flips pending coupons whose expiry has passed. The
// transition is irreversible.
func (r *CouponRepository) ExpirePastDue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE coupons SET status = $2
		WHERE status = $3 AND expiry_date IS NOT NULL AND expiry_date < $1`
	res, err := r.db.ExecContext(ctx, query, now, models.CouponExpired, models.CouponPending)
	if err != nil {
		return 0, fmt.Errorf("failed to expire coupons: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read expiry sweep result: %w", err)
	}
	return rows, nil
}

// MoveAllTx reassigns every coupon of the source card to the target card,
// annotating the handler with who performed the merge.
func (r *CouponRepository) MoveAllTx(ctx context.Context, tx *sqlx.Tx, sourceCardNo, targetCardNo, mergedBy string) (int64, error) {
	query := `
		UPDATE coupons
		SET card_no = $2,
		    claim_type = COALESCE(claim_type, 'System Merge'),
		    handled_by = COALESCE(handled_by, 'System Merge') || ' (Merged by ' || $3 || ')'
		WHERE card_no = $1`
	res, err := tx.ExecContext(ctx, query, sourceCardNo, targetCardNo, mergedBy)
	if err != nil {
		return 0, fmt.Errorf("failed to move coupons from %s to %s: %w", sourceCardNo, targetCardNo, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read merge result: %w", err)
	}
	return rows, nil
}
