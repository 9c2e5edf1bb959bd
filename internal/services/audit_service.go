package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"loyalty-service/internal/repository"
)

// AuditService watches for customers whose billing balance stays above the
// conversion threshold across consecutive engine passes. A customer still
// eligible on the second look means the previous conversion never landed,
// usually a failed billing write-back, so the balance was never reduced.
// The audit only raises the alarm; reconciliation stays a manual step.
type AuditService struct {
	billingRepo      *repository.BillingRepository
	blacklistRepo    *repository.BlacklistRepository
	notificationRepo *repository.NotificationRepository
	settingsService  *SettingsService

	mu           sync.Mutex
	previousPass map[string]float64
}

func NewAuditService(billingRepo *repository.BillingRepository, blacklistRepo *repository.BlacklistRepository, notificationRepo *repository.NotificationRepository, settingsService *SettingsService) *AuditService {
	return &AuditService{
		billingRepo:      billingRepo,
		blacklistRepo:    blacklistRepo,
		notificationRepo: notificationRepo,
		settingsService:  settingsService,
		previousPass:     make(map[string]float64),
	}
}

// CheckStalePoints samples the set of conversion-eligible customers and
// flags anyone who was already eligible with the same balance last pass.
// Must run after the conversion pass so a freshly converted customer's
// reduced balance clears them from the watch set.
func (s *AuditService) CheckStalePoints(ctx context.Context) error {
	settings := s.settingsService.GetTierSettings(ctx)
	customers, err := s.billingRepo.CustomersWithPoints(ctx, settings.MinPointsRequired())
	if err != nil {
		return fmt.Errorf("failed to sample eligible customers: %w", err)
	}

	// Blacklisted customers keep their frozen balance, so they are not a
	// sign of a lost write-back.
	blacklist, err := s.blacklistRepo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load blacklist: %w", err)
	}

	current := make(map[string]float64, len(customers))
	for _, c := range eligibleCustomers(customers, blacklist) {
		current[c.CardNo] = c.Points
	}

	s.mu.Lock()
	previous := s.previousPass
	s.previousPass = current
	s.mu.Unlock()

	var stale []string
	for cardNo, points := range current {
		if prev, ok := previous[cardNo]; ok && prev == points {
			stale = append(stale, cardNo)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	slog.Warn("customers with point balances stuck above the conversion threshold", "count", len(stale), "cards", stale)
	message := fmt.Sprintf("Audit: %d customer(s) kept an unconverted point balance across two conversion passes. Check billing write-backs.", len(stale))
	if err := s.notificationRepo.Insert(ctx, message); err != nil {
		slog.Error("audit finding recorded in logs only, notification insert failed", "error", err)
	}
	return nil
}
