package repository

import (
	"context"
	"fmt"
	"time"

	"loyalty-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// DashboardRepository computes the aggregates behind the dashboard summary.
// Read paths only; the service layer caches the result in redis.
type DashboardRepository struct {
	db *sqlx.DB
}

func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func (r *DashboardRepository) ComputeSummary(ctx context.Context, now time.Time) (*models.DashboardSummary, error) {
	var summary models.DashboardSummary
	query := `
		SELECT
			(SELECT COUNT(card_no) FROM customers) AS total_customers,
			COUNT(coupon_id) FILTER (WHERE status = $2) AS pending_coupons,
			COALESCE(SUM(value) FILTER (WHERE status = $2), 0) AS pending_value,
			COUNT(coupon_id) FILTER (WHERE status = $3) AS redeemed_coupons,
			COALESCE(SUM(value) FILTER (WHERE status = $3), 0) AS redeemed_value,
			COUNT(coupon_id) FILTER (WHERE status = $4) AS expired_coupons,
			COUNT(coupon_id) FILTER (WHERE status = $3 AND date_redeemed >= $1) AS redemptions_today,
			COALESCE(SUM(value) FILTER (WHERE status = $3 AND date_redeemed >= $1), 0) AS redemption_value_today
		FROM coupons`
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := r.db.GetContext(ctx, &summary, query, startOfDay, models.CouponPending, models.CouponRedeemed, models.CouponExpired); err != nil {
		return nil, fmt.Errorf("failed to compute dashboard summary: %w", err)
	}

	topRedeemers, err := r.topRedeemers(ctx, 5)
	if err != nil {
		return nil, err
	}
	summary.TopRedeemers = topRedeemers
	summary.GeneratedAt = now

	return &summary, nil
}

func (r *DashboardRepository) topRedeemers(ctx context.Context, limit int) ([]models.TopRedeemer, error) {
	var redeemers []models.TopRedeemer
	query := `
		SELECT c.card_no, c.c_name,
		       COUNT(cp.coupon_id) AS redeemed_count,
		       COALESCE(SUM(cp.value), 0) AS redeemed_value
		FROM coupons cp
		JOIN customers c ON c.card_no = cp.card_no
		WHERE cp.status = $2
		GROUP BY c.card_no, c.c_name
		ORDER BY redeemed_count DESC, redeemed_value DESC
		LIMIT $1`
	if err := r.db.SelectContext(ctx, &redeemers, query, limit, models.CouponRedeemed); err != nil {
		return nil, fmt.Errorf("failed to compute top redeemers: %w", err)
	}
	return redeemers, nil
}
