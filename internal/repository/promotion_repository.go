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

type PromotionRepository struct {
	db *sqlx.DB
}

func NewPromotionRepository(db *sqlx.DB) *PromotionRepository {
	return &PromotionRepository{db: db}
}

// GetActive returns the promotion in effect at the given instant, or nil
// when none applies. Highest coupon value wins; equal values break by
// lowest promotion id so the result is deterministic.
func (r *PromotionRepository) GetActive(ctx context.Context, now time.Time) (*models.Promotion, error) {
	var promo models.Promotion
	query := `
		SELECT promotion_id, name, start_date, end_date, coupon_value, is_enabled
		FROM promotions
		WHERE is_enabled = true AND $1 BETWEEN start_date AND end_date
		ORDER BY coupon_value DESC, promotion_id ASC
		LIMIT 1`
	err := r.db.GetContext(ctx, &promo, query, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active promotion: %w", err)
	}
	return &promo, nil
}

func (r *PromotionRepository) List(ctx context.Context) ([]models.Promotion, error) {
	var promos []models.Promotion
	query := `
		SELECT promotion_id, name, start_date, end_date, coupon_value, is_enabled
		FROM promotions
		ORDER BY start_date DESC`
	if err := r.db.SelectContext(ctx, &promos, query); err != nil {
		return nil, fmt.Errorf("failed to list promotions: %w", err)
	}
	return promos, nil
}
