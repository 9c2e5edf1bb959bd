package services

import (
	"context"
	"fmt"

	"loyalty-service/internal/models"
	"loyalty-service/internal/repository"

	"github.com/jmoiron/sqlx"
)

// TierService derives a customer's loyalty tier from their redeemed-coupon
// history. The tier is never stored; it is recomputed on every use.
type TierService struct {
	couponRepo *repository.CouponRepository
}

func NewTierService(couponRepo *repository.CouponRepository) *TierService {
	return &TierService{couponRepo: couponRepo}
}

// ClassifyTier maps a redeemed-coupon count onto a tier. Non-decreasing in
// the count; Gold requires the gold threshold, Silver the silver one.
func ClassifyTier(redeemedCount int, settings models.TierSettings) models.Tier {
	if redeemedCount >= settings.TierThresholdGold {
		return models.TierGold
	}
	if redeemedCount >= settings.TierThresholdSilver {
		return models.TierSilver
	}
	return models.TierBronze
}

func (s *TierService) GetTier(ctx context.Context, cardNo string, settings models.TierSettings) (models.Tier, error) {
	count, err := s.couponRepo.CountRedeemed(ctx, cardNo)
	if err != nil {
		return models.TierBronze, fmt.Errorf("failed to classify tier for %s: %w", cardNo, err)
	}
	return ClassifyTier(count, settings), nil
}

// GetTierTx computes the tier inside a caller-owned transaction so the
// count cannot race a concurrent coupon mutation on the same card.
func (s *TierService) GetTierTx(ctx context.Context, tx *sqlx.Tx, cardNo string, settings models.TierSettings) (models.Tier, error) {
	count, err := s.couponRepo.CountRedeemedTx(ctx, tx, cardNo)
	if err != nil {
		return models.TierBronze, fmt.Errorf("failed to classify tier for %s: %w", cardNo, err)
	}
	return ClassifyTier(count, settings), nil
}
