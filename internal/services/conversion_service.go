package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"loyalty-service/internal/models"
	"loyalty-service/internal/repository"
)

// ConversionService is the scheduled points-to-coupons engine. It converts
// accumulated billing points into pending coupons, exactly once per
// accumulated chunk, across the two stores. The billing write-back is not
// atomic with the coupon insert; see ConversionPlan and ProcessCustomerPoints.
type ConversionService struct {
	settingsService  *SettingsService
	tierService      *TierService
	couponRepo       *repository.CouponRepository
	notificationRepo *repository.NotificationRepository
	blacklistRepo    *repository.BlacklistRepository
	promotionRepo    *repository.PromotionRepository
	billingRepo      *repository.BillingRepository
	dashboardService *DashboardService
	broadcaster      *Broadcaster
}

func NewConversionService(
	settingsService *SettingsService,
	tierService *TierService,
	couponRepo *repository.CouponRepository,
	notificationRepo *repository.NotificationRepository,
	blacklistRepo *repository.BlacklistRepository,
	promotionRepo *repository.PromotionRepository,
	billingRepo *repository.BillingRepository,
	dashboardService *DashboardService,
	broadcaster *Broadcaster,
) *ConversionService {
	return &ConversionService{
		settingsService:  settingsService,
		tierService:      tierService,
		couponRepo:       couponRepo,
		notificationRepo: notificationRepo,
		blacklistRepo:    blacklistRepo,
		promotionRepo:    promotionRepo,
		billingRepo:      billingRepo,
		dashboardService: dashboardService,
		broadcaster:      broadcaster,
	}
}

// ConversionPlan is the per-customer outcome of the conversion arithmetic.
// Invariant: NewCoupons*PointsPerCoupon + Remainder == the points the plan
// was computed from.
type ConversionPlan struct {
	Tier            models.Tier
	PointsPerCoupon float64
	CouponValue     float64
	NewCoupons      int
	Remainder       float64
}

// PlanConversion computes how many coupons a point balance yields at the
// customer's tier. An active promotion overrides the coupon value only,
// never the conversion rate.
func PlanConversion(totalPoints float64, tier models.Tier, settings models.TierSettings, promo *models.Promotion) ConversionPlan {
	plan := ConversionPlan{
		Tier:            tier,
		PointsPerCoupon: settings.PointsPerCoupon(tier),
		CouponValue:     settings.CouponValue(tier),
	}
	if promo != nil {
		plan.CouponValue = promo.CouponValue
	}
	if totalPoints < plan.PointsPerCoupon {
		plan.Remainder = totalPoints
		return plan
	}
	plan.NewCoupons = int(math.Floor(totalPoints / plan.PointsPerCoupon))
	plan.Remainder = math.Mod(totalPoints, plan.PointsPerCoupon)
	return plan
}

// ProcessCustomerPoints runs one conversion pass. Each customer is an
// isolated unit of work: a failure is logged and the customer keeps their
// balance for the next pass, which recomputes from scratch.
func (s *ConversionService) ProcessCustomerPoints(ctx context.Context) error {
	settings := s.settingsService.GetTierSettings(ctx)

	promo, err := s.promotionRepo.GetActive(ctx, time.Now())
	if err != nil {
		slog.Error("failed to look up active promotion, continuing without one", "error", err)
		promo = nil
	}
	if promo != nil {
		slog.Info("active promotion in effect", "name", promo.Name, "coupon_value", promo.CouponValue)
	}

	customers, err := s.billingRepo.CustomersWithPoints(ctx, settings.MinPointsRequired())
	if err != nil {
		return fmt.Errorf("failed to find eligible customers: %w", err)
	}

	blacklist, err := s.blacklistRepo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load blacklist: %w", err)
	}
	slog.Info("conversion pass starting", "eligible", len(customers), "blacklisted", len(blacklist))

	dataChanged := false
	for _, customer := range eligibleCustomers(customers, blacklist) {
		// Honor cancellation between customers, never inside a
		// customer's unit of work.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		converted, err := s.convertCustomer(ctx, customer, settings, promo)
		if err != nil {
			slog.Error("conversion failed, customer will be retried next pass", "card_no", customer.CardNo, "error", err)
			continue
		}
		if converted {
			dataChanged = true
		}
	}

	if dataChanged {
		s.dashboardService.RecomputeAndBroadcast(ctx, "points converted")
	}
	return nil
}

// eligibleCustomers drops blacklisted cards from a conversion candidate
// list. The blacklist set is keyed by lowercased card number, so the
// match is case-insensitive. A dropped customer gets no coupons and
// their balance stays untouched.
func eligibleCustomers(customers []models.BillingCustomer, blacklist map[string]struct{}) []models.BillingCustomer {
	eligible := make([]models.BillingCustomer, 0, len(customers))
	for _, customer := range customers {
		if _, banned := blacklist[strings.ToLower(customer.CardNo)]; banned {
			slog.Warn("skipping blacklisted customer", "card_no", customer.CardNo)
			continue
		}
		eligible = append(eligible, customer)
	}
	return eligible
}

// convertCustomer converts one customer's balance. Returns true when
// coupons were created.
func (s *ConversionService) convertCustomer(ctx context.Context, customer models.BillingCustomer, settings models.TierSettings, promo *models.Promotion) (bool, error) {
	tier, err := s.tierService.GetTier(ctx, customer.CardNo, settings)
	if err != nil {
		return false, err
	}

	plan := PlanConversion(customer.Points, tier, settings, promo)
	if plan.NewCoupons < 1 {
		return false, nil
	}

	handledBy, attributedAt := s.attribution(ctx, customer.CardNo)
	expiry := attributedAt.AddDate(0, 0, settings.DefaultExpiryDays)

	name := stringOr(customer.Name, customer.CardNo)
	message := fmt.Sprintf("%s (%s) created %d coupon(s). Handled by: %s.",
		name, customer.CardNo, plan.NewCoupons, handledBy)

	slog.Info("converting points",
		"card_no", customer.CardNo,
		"tier", plan.Tier,
		"points", customer.Points,
		"new_coupons", plan.NewCoupons,
		"remainder", plan.Remainder)

	// Atomic unit against the loyalty store: the coupon batch and its
	// notification commit or roll back together.
	tx, err := s.couponRepo.DB().BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin conversion transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.couponRepo.CreatePendingBatchTx(ctx, tx, customer.CardNo, plan.NewCoupons, plan.CouponValue, attributedAt, &expiry, nil, &handledBy); err != nil {
		return false, err
	}
	if err := s.notificationRepo.InsertTx(ctx, tx, message); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit conversion for %s: %w", customer.CardNo, err)
	}

	// Best-effort remainder write-back to the billing store. Not atomic
	// with the commit above: a failure here leaves coupons created with
	// points not yet deducted, an accepted inconsistency of the
	// two-store design surfaced by the audit pass.
	if err := s.billingRepo.UpdatePoints(ctx, customer.CardNo, plan.Remainder); err != nil {
		slog.Error("coupons committed but point write-back failed", "card_no", customer.CardNo, "remainder", plan.Remainder, "error", err)
	}

	s.broadcaster.PointsConverted(customer.CardNo, message)
	return true, nil
}

// attribution resolves who to credit the conversion to. Any lookup failure
// falls back to ("System", now); it must never abort the conversion.
func (s *ConversionService) attribution(ctx context.Context, cardNo string) (string, time.Time) {
	last, err := s.billingRepo.GetLastTransaction(ctx, cardNo)
	if err != nil {
		slog.Error("failed to fetch attribution, falling back to System", "card_no", cardNo, "error", err)
		return "System", time.Now()
	}
	if last == nil || last.CreatedByUserID == "" {
		return "System", time.Now()
	}
	return last.CreatedByUserID, last.BDate
}

func stringOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}
