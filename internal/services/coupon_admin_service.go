package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"loyalty-service/internal/models"
	"loyalty-service/internal/repository"
)

// CouponAdminService covers the back-office coupon operations: manual
// grants for service recovery, bulk campaign grants, and card merges.
type CouponAdminService struct {
	couponRepo       *repository.CouponRepository
	customerRepo     *repository.CustomerRepository
	notificationRepo *repository.NotificationRepository
	settingsService  *SettingsService
	dashboardService *DashboardService
}

func NewCouponAdminService(
	couponRepo *repository.CouponRepository,
	customerRepo *repository.CustomerRepository,
	notificationRepo *repository.NotificationRepository,
	settingsService *SettingsService,
	dashboardService *DashboardService,
) *CouponAdminService {
	return &CouponAdminService{
		couponRepo:       couponRepo,
		customerRepo:     customerRepo,
		notificationRepo: notificationRepo,
		settingsService:  settingsService,
		dashboardService: dashboardService,
	}
}

// ManualAdd grants count pending coupons to one card outside the points
// engine. Manual grants carry the Bronze coupon value regardless of the
// customer's current tier and record who authorised them and why.
func (s *CouponAdminService) ManualAdd(ctx context.Context, cardNo string, count int, reason, handledBy string) error {
	if count <= 0 {
		return validationErrorf("coupon count must be positive, got %d", count)
	}
	if reason == "" {
		return validationErrorf("a reason is required for manual coupon grants")
	}
	if handledBy == "" {
		return validationErrorf("handled_by is required")
	}

	name, err := s.customerRepo.NameByCard(ctx, cardNo)
	if err != nil {
		return fmt.Errorf("failed to look up customer %s: %w", cardNo, err)
	}
	if name == "" {
		return ErrCustomerNotFound
	}

	settings := s.settingsService.GetTierSettings(ctx)
	value := settings.CouponValue(models.TierBronze)
	now := time.Now()
	expiry := now.AddDate(0, 0, settings.DefaultExpiryDays)
	claimType := models.ClaimTypeManualAdd
	handler := fmt.Sprintf("%s (%s)", handledBy, reason)

	tx, err := s.couponRepo.DB().BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin manual add transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.couponRepo.CreatePendingBatchTx(ctx, tx, cardNo, count, value, now, &expiry, &claimType, &handler); err != nil {
		return err
	}
	message := fmt.Sprintf("%s (%s) was manually granted %d coupon(s). Reason: %s. Handled by: %s.", name, cardNo, count, reason, handledBy)
	if err := s.notificationRepo.InsertTx(ctx, tx, message); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit manual add for %s: %w", cardNo, err)
	}

	slog.Info("manual coupon grant", "card_no", cardNo, "count", count, "handled_by", handledBy, "reason", reason)
	s.dashboardService.RecomputeAndBroadcast(ctx, "coupons granted")
	return nil
}

// BulkAdd grants count coupons to every listed card in a single
// transaction. Unknown cards fail the whole batch before anything is
// written, matching how campaign uploads are reviewed.
func (s *CouponAdminService) BulkAdd(ctx context.Context, cardNos []string, count int, reason, handledBy string) (int, error) {
	if len(cardNos) == 0 {
		return 0, validationErrorf("card list is empty")
	}
	if count <= 0 {
		return 0, validationErrorf("coupon count must be positive, got %d", count)
	}
	if reason == "" {
		return 0, validationErrorf("a reason is required for bulk coupon grants")
	}
	if handledBy == "" {
		return 0, validationErrorf("handled_by is required")
	}

	settings := s.settingsService.GetTierSettings(ctx)
	value := settings.CouponValue(models.TierBronze)
	now := time.Now()
	expiry := now.AddDate(0, 0, settings.DefaultExpiryDays)
	claimType := models.ClaimTypeManualAdd
	handler := fmt.Sprintf("%s (%s)", handledBy, reason)

	tx, err := s.couponRepo.DB().BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin bulk add transaction: %w", err)
	}
	defer tx.Rollback()

	known, err := s.customerRepo.CardsExistTx(ctx, tx, cardNos)
	if err != nil {
		return 0, err
	}
	if known != len(cardNos) {
		return 0, validationErrorf("%d of %d cards are unknown, fix the list and retry", len(cardNos)-known, len(cardNos))
	}

	for _, cardNo := range cardNos {
		if err := s.couponRepo.CreatePendingBatchTx(ctx, tx, cardNo, count, value, now, &expiry, &claimType, &handler); err != nil {
			return 0, err
		}
	}
	message := fmt.Sprintf("Bulk grant: %d coupon(s) each for %d customers. Reason: %s. Handled by: %s.", count, len(cardNos), reason, handledBy)
	if err := s.notificationRepo.InsertTx(ctx, tx, message); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit bulk add: %w", err)
	}

	granted := count * len(cardNos)
	slog.Info("bulk coupon grant", "cards", len(cardNos), "coupons", granted, "handled_by", handledBy)
	s.dashboardService.RecomputeAndBroadcast(ctx, "coupons granted")
	return granted, nil
}

// BulkAddAll grants count coupons to every known customer.
func (s *CouponAdminService) BulkAddAll(ctx context.Context, count int, reason, handledBy string) (int, error) {
	cardNos, err := s.customerRepo.AllCardNumbers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list customers for bulk grant: %w", err)
	}
	if len(cardNos) == 0 {
		return 0, validationErrorf("no customers to grant coupons to")
	}
	return s.BulkAdd(ctx, cardNos, count, reason, handledBy)
}

// Merge moves every coupon from the source card onto the target card and
// deletes the source customer record. Used when a cardholder is issued a
// replacement card.
func (s *CouponAdminService) Merge(ctx context.Context, sourceCardNo, targetCardNo, handledBy string) (int64, error) {
	if sourceCardNo == targetCardNo {
		return 0, validationErrorf("source and target card are the same")
	}
	if handledBy == "" {
		return 0, validationErrorf("handled_by is required")
	}

	tx, err := s.couponRepo.DB().BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin merge transaction: %w", err)
	}
	defer tx.Rollback()

	known, err := s.customerRepo.CardsExistTx(ctx, tx, []string{sourceCardNo, targetCardNo})
	if err != nil {
		return 0, err
	}
	if known != 2 {
		return 0, ErrCustomerNotFound
	}

	moved, err := s.couponRepo.MoveAllTx(ctx, tx, sourceCardNo, targetCardNo, handledBy)
	if err != nil {
		return 0, err
	}
	if err := s.customerRepo.DeleteTx(ctx, tx, sourceCardNo); err != nil {
		return 0, err
	}
	message := fmt.Sprintf("Card %s was merged into %s (%d coupon(s) moved). Handled by: %s.", sourceCardNo, targetCardNo, moved, handledBy)
	if err := s.notificationRepo.InsertTx(ctx, tx, message); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit merge of %s into %s: %w", sourceCardNo, targetCardNo, err)
	}

	slog.Info("cards merged", "source", sourceCardNo, "target", targetCardNo, "coupons_moved", moved, "handled_by", handledBy)
	s.dashboardService.RecomputeAndBroadcast(ctx, "cards merged")
	return moved, nil
}
