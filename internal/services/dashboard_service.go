package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"loyalty-service/internal/models"
	"loyalty-service/internal/repository"

	"github.com/redis/go-redis/v9"
)

const (
	summaryCacheKey = "dashboard:summary"
	summaryCacheTTL = 24 * time.Hour
)

// DashboardService maintains the precomputed dashboard summary in redis.
// The core triggers a recompute after every state change; the API serves
// the cached snapshot.
type DashboardService struct {
	dashboardRepo *repository.DashboardRepository
	redisClient   *redis.Client
	broadcaster   *Broadcaster
}

func NewDashboardService(dashboardRepo *repository.DashboardRepository, redisClient *redis.Client, broadcaster *Broadcaster) *DashboardService {
	return &DashboardService{
		dashboardRepo: dashboardRepo,
		redisClient:   redisClient,
		broadcaster:   broadcaster,
	}
}

// RecomputeSummary rebuilds the aggregate snapshot and caches it.
func (s *DashboardService) RecomputeSummary(ctx context.Context) (*models.DashboardSummary, error) {
	summary, err := s.dashboardRepo.ComputeSummary(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to recompute dashboard summary: %w", err)
	}

	if s.redisClient != nil {
		data, err := json.Marshal(summary)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal dashboard summary: %w", err)
		}
		if err := s.redisClient.Set(ctx, summaryCacheKey, data, summaryCacheTTL).Err(); err != nil {
			// Cache miss on the next read falls back to a live compute.
			slog.Error("failed to cache dashboard summary", "error", err)
		}
	}

	return summary, nil
}

// RecomputeAndBroadcast is the fire-and-forget variant used after state
// changes. Failures are logged, never propagated to the operation that
// triggered it.
func (s *DashboardService) RecomputeAndBroadcast(ctx context.Context, reason string) {
	if _, err := s.RecomputeSummary(ctx); err != nil {
		slog.Error("dashboard refresh failed", "reason", reason, "error", err)
		return
	}
	s.broadcaster.DashboardUpdated(reason)
	slog.Info("dashboard refresh signal sent", "reason", reason)
}

// GetSummary serves the cached snapshot, computing live on a cache miss.
func (s *DashboardService) GetSummary(ctx context.Context) (*models.DashboardSummary, error) {
	if s.redisClient != nil {
		data, err := s.redisClient.Get(ctx, summaryCacheKey).Bytes()
		if err == nil {
			var summary models.DashboardSummary
			if err := json.Unmarshal(data, &summary); err == nil {
				return &summary, nil
			}
			slog.Warn("corrupt dashboard summary cache entry, recomputing")
		} else if err != redis.Nil {
			slog.Error("failed to read dashboard summary cache", "error", err)
		}
	}
	return s.RecomputeSummary(ctx)
}
