package services

import (
	"context"
	"log/slog"

	"loyalty-service/internal/models"
	"loyalty-service/internal/repository"
)

// SettingsService supplies typed, defaulted configuration snapshots. It
// never fails upward: the conversion engine must still run with best-effort
// values when the settings store is unreachable.
type SettingsService struct {
	settingsRepo *repository.SettingsRepository
}

func NewSettingsService(settingsRepo *repository.SettingsRepository) *SettingsService {
	return &SettingsService{settingsRepo: settingsRepo}
}

func (s *SettingsService) GetTierSettings(ctx context.Context) models.TierSettings {
	raw, err := s.settingsRepo.GetAll(ctx)
	if err != nil {
		slog.Error("failed to read tier settings, using defaults", "error", err)
		return models.DefaultTierSettings()
	}
	return models.ParseTierSettings(raw)
}

func (s *SettingsService) GetWorkerSettings(ctx context.Context) models.WorkerSettings {
	raw, err := s.settingsRepo.GetByPrefix(ctx, "Worker_")
	if err != nil {
		slog.Error("failed to read worker settings, using defaults", "error", err)
		return models.DefaultWorkerSettings()
	}
	return models.ParseWorkerSettings(raw)
}

// GetShopSettings returns the raw shop/printing settings map. Empty on
// failure; receipt printing degrades to preview mode.
func (s *SettingsService) GetShopSettings(ctx context.Context) map[string]string {
	raw, err := s.settingsRepo.GetByPrefix(ctx, "Shop_")
	if err != nil {
		slog.Error("failed to read shop settings", "error", err)
		return map[string]string{}
	}
	printing, err := s.settingsRepo.GetByPrefix(ctx, "Print")
	if err != nil {
		slog.Error("failed to read print settings", "error", err)
		return raw
	}
	for k, v := range printing {
		raw[k] = v
	}
	features, err := s.settingsRepo.GetByPrefix(ctx, "Feature_")
	if err == nil {
		for k, v := range features {
			raw[k] = v
		}
	}
	return raw
}
