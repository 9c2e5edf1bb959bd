package services

import (
	"context"
	"fmt"
	"log/slog"

	"loyalty-service/internal/models"
	"loyalty-service/internal/repository"
)

// VoidService reverses a redeemed coupon back to pending. Because the tier
// is derived from the redeemed count, a void can demote the cardholder, so
// the tier is sampled inside the same transaction on both sides of the flip.
type VoidService struct {
	couponRepo       *repository.CouponRepository
	tierService      *TierService
	settingsService  *SettingsService
	dashboardService *DashboardService
}

func NewVoidService(couponRepo *repository.CouponRepository, tierService *TierService, settingsService *SettingsService, dashboardService *DashboardService) *VoidService {
	return &VoidService{
		couponRepo:       couponRepo,
		tierService:      tierService,
		settingsService:  settingsService,
		dashboardService: dashboardService,
	}
}

// Void flips a single redeemed coupon back to Pending and reports any tier
// change the reversal caused.
func (s *VoidService) Void(ctx context.Context, couponID int) (*models.VoidResult, error) {
	settings := s.settingsService.GetTierSettings(ctx)

	tx, err := s.couponRepo.DB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin void transaction: %w", err)
	}
	defer tx.Rollback()

	cardNo, err := s.couponRepo.FindRedeemedCardTx(ctx, tx, couponID)
	if err != nil {
		return nil, err
	}
	if cardNo == "" {
		return nil, ErrCouponNotRedeemed
	}

	oldTier, err := s.tierService.GetTierTx(ctx, tx, cardNo, settings)
	if err != nil {
		return nil, err
	}

	affected, err := s.couponRepo.VoidTx(ctx, tx, couponID)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// The row flipped state between the lookup and the update.
		return nil, ErrCouponNotRedeemed
	}

	newTier, err := s.tierService.GetTierTx(ctx, tx, cardNo, settings)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit void for coupon %d: %w", couponID, err)
	}

	slog.Info("coupon voided", "coupon_id", couponID, "card_no", cardNo, "old_tier", oldTier, "new_tier", newTier)
	s.dashboardService.RecomputeAndBroadcast(ctx, "coupon voided")

	result := &models.VoidResult{
		CouponID: couponID,
		CardNo:   cardNo,
		OldTier:  oldTier,
		NewTier:  newTier,
	}
	if oldTier != newTier {
		result.TierWarning = fmt.Sprintf("Coupon voided. Be aware: This customer has been downgraded from %s to %s tier.", oldTier, newTier)
	}
	return result, nil
}
