package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"loyalty-service/internal/repository"
)

// SyncService keeps the loyalty store's reference data aligned with the
// billing store and ages out expired coupons.
type SyncService struct {
	billingRepo      *repository.BillingRepository
	couponRepo       *repository.CouponRepository
	notificationRepo *repository.NotificationRepository
	dashboardService *DashboardService
}

func NewSyncService(
	billingRepo *repository.BillingRepository,
	couponRepo *repository.CouponRepository,
	notificationRepo *repository.NotificationRepository,
	dashboardService *DashboardService,
) *SyncService {
	return &SyncService{
		billingRepo:      billingRepo,
		couponRepo:       couponRepo,
		notificationRepo: notificationRepo,
		dashboardService: dashboardService,
	}
}

// SyncCustomers mirrors billing customers into the loyalty store, pruning
// cards that no longer exist upstream.
func (s *SyncService) SyncCustomers(ctx context.Context) error {
	changed, err := s.billingRepo.SyncCustomersInto(ctx, s.couponRepo.DB())
	if err != nil {
		return err
	}
	slog.Info("customer sync completed", "rows_changed", changed)
	return nil
}

// SyncStaff mirrors the distinct billing handlers into the staff table.
func (s *SyncService) SyncStaff(ctx context.Context) error {
	changed, err := s.billingRepo.SyncStaffInto(ctx, s.couponRepo.DB())
	if err != nil {
		return err
	}
	slog.Info("staff sync completed", "rows_changed", changed)
	return nil
}

// ExpireCoupons flips pending coupons whose expiry date has passed to
// Expired and logs a notification when any were aged out.
func (s *SyncService) ExpireCoupons(ctx context.Context) error {
	expired, err := s.couponRepo.ExpirePastDue(ctx, time.Now())
	if err != nil {
		return err
	}
	if expired == 0 {
		return nil
	}
	slog.Info("expired past-due coupons", "count", expired)
	message := fmt.Sprintf("%d coupon(s) passed their expiry date and were marked Expired.", expired)
	if err := s.notificationRepo.Insert(ctx, message); err != nil {
		slog.Error("coupons expired but notification insert failed", "error", err)
	}
	s.dashboardService.RecomputeAndBroadcast(ctx, "coupons expired")
	return nil
}
