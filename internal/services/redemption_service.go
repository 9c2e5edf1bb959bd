package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"loyalty-service/internal/models"
	"loyalty-service/internal/printer"
	"loyalty-service/internal/repository"

	"github.com/google/uuid"
)

// RedemptionService exchanges a customer's pending coupons for value at the
// point of sale. The availability check and the status flips run inside one
// locking transaction, so two terminals redeeming against the same card can
// never both succeed past the pool size.
type RedemptionService struct {
	couponRepo       *repository.CouponRepository
	customerRepo     *repository.CustomerRepository
	blacklistRepo    *repository.BlacklistRepository
	billingRepo      *repository.BillingRepository
	settingsService  *SettingsService
	dashboardService *DashboardService
	receiptPrinter   printer.Printer
}

func NewRedemptionService(
	couponRepo *repository.CouponRepository,
	customerRepo *repository.CustomerRepository,
	blacklistRepo *repository.BlacklistRepository,
	billingRepo *repository.BillingRepository,
	settingsService *SettingsService,
	dashboardService *DashboardService,
	receiptPrinter printer.Printer,
) *RedemptionService {
	return &RedemptionService{
		couponRepo:       couponRepo,
		customerRepo:     customerRepo,
		blacklistRepo:    blacklistRepo,
		billingRepo:      billingRepo,
		settingsService:  settingsService,
		dashboardService: dashboardService,
		receiptPrinter:   receiptPrinter,
	}
}

// Redeem processes one redemption cart. All-or-nothing: either every line
// item is satisfied and committed, or the pool is left untouched.
func (s *RedemptionService) Redeem(ctx context.Context, cardNo string, request models.RedeemRequest) (*models.Receipt, error) {
	if len(request.Items) == 0 {
		return nil, validationErrorf("redemption list is empty, add items")
	}
	for _, item := range request.Items {
		if item.Count <= 0 {
			return nil, validationErrorf("item %q has a non-positive count", item.ClaimType)
		}
	}
	if request.HandledBy == "" {
		return nil, validationErrorf("handled_by is required")
	}

	banned, err := s.blacklistRepo.IsBlacklisted(ctx, cardNo)
	if err != nil {
		return nil, fmt.Errorf("failed to check blacklist: %w", err)
	}
	if banned {
		slog.Warn("blocked redemption attempt for blacklisted customer", "card_no", cardNo)
		return nil, ErrBlacklisted
	}

	totalRequested := 0
	for _, item := range request.Items {
		totalRequested += item.Count
	}

	now := time.Now()
	tx, err := s.couponRepo.DB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin redemption transaction: %w", err)
	}
	defer tx.Rollback()

	// Locks every pending coupon of the card before counting, making the
	// count and the flips below one serializable unit.
	availableCount, err := s.couponRepo.LockPendingTx(ctx, tx, cardNo)
	if err != nil {
		return nil, err
	}
	if totalRequested > availableCount {
		return nil, &InsufficientCouponsError{Requested: totalRequested, Available: availableCount}
	}

	totalCoupons := 0
	totalValue := 0.0
	for _, item := range request.Items {
		values, err := s.couponRepo.RedeemBatchTx(ctx, tx, cardNo, item.Count, item.ClaimType, request.HandledBy, now)
		if err != nil {
			return nil, err
		}
		if len(values) < item.Count {
			// Raced out despite the lock, or the pool shrank between
			// items. Roll the whole cart back.
			return nil, &InsufficientCouponsError{Requested: item.Count, Available: len(values), ClaimType: item.ClaimType}
		}
		totalCoupons += len(values)
		for _, v := range values {
			totalValue += v
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit redemption for %s: %w", cardNo, err)
	}

	slog.Info("redemption successful",
		"card_no", cardNo,
		"coupons", totalCoupons,
		"value", totalValue,
		"handled_by", request.HandledBy)

	s.dashboardService.RecomputeAndBroadcast(ctx, "redemption processed")

	receipt := &models.Receipt{
		ReceiptNo:            uuid.NewString(),
		CustomerName:         s.customerName(ctx, cardNo),
		CardNo:               cardNo,
		Items:                request.Items,
		HandledBy:            request.HandledBy,
		TotalValueRedeemed:   totalValue,
		TotalCouponsRedeemed: totalCoupons,
		RedemptionDate:       now,
	}

	s.printReceipt(ctx, receipt)
	return receipt, nil
}

// customerName resolves the receipt display name: loyalty mirror first,
// billing store as fallback. Failures degrade to "N/A", never to an error,
// because by this point the redemption is already committed.
func (s *RedemptionService) customerName(ctx context.Context, cardNo string) string {
	name, err := s.customerRepo.NameByCard(ctx, cardNo)
	if err != nil {
		slog.Error("redemption saved but customer lookup failed", "card_no", cardNo, "error", err)
		return "N/A"
	}
	if name != "" {
		return name
	}
	name, err = s.billingRepo.CustomerName(ctx, cardNo)
	if err != nil {
		slog.Error("redemption saved but billing name lookup failed", "card_no", cardNo, "error", err)
		return "N/A"
	}
	if name == "" {
		return "N/A"
	}
	return name
}

// printReceipt hands the receipt to the printing collaborator. A print
// failure is recorded on the receipt as a warning; the redemption stands.
func (s *RedemptionService) printReceipt(ctx context.Context, receipt *models.Receipt) {
	if s.receiptPrinter == nil {
		return
	}
	shopSettings := s.settingsService.GetShopSettings(ctx)
	if shopSettings["PrintMode"] != "Raw" {
		return
	}

	opts := printer.Options{
		Title:           "COUPON REDEMPTION",
		PrintShopHeader: shopSettings["Feature_PrintShopHeader"] == "True",
		ShopName:        shopSettings["Shop_Name"],
		ShopAddress:     shopSettings["Shop_Address"],
		ShopContact:     shopSettings["Shop_Contact"],
	}
	if err := s.receiptPrinter.PrintReceipt(ctx, receipt, opts); err != nil {
		slog.Error("redemption saved but receipt printing failed", "card_no", receipt.CardNo, "error", err)
		receipt.PrintWarning = "Redemption saved, but the receipt could not be printed."
		return
	}
	slog.Info("receipt print job sent", "card_no", receipt.CardNo)
}
