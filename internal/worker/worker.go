package worker

import (
	"context"
	"log/slog"
	"time"

	"loyalty-service/internal/models"
	"loyalty-service/internal/services"
)

// Worker drives the background jobs on a single loop: reference-data sync
// and coupon expiry on the sync interval, dashboard summary refresh on the
// summary interval, and the points conversion pass every tick. Scheduling
// settings are re-read from the database each pass so operators can change
// intervals and the run window without a restart.
type Worker struct {
	settingsService   *services.SettingsService
	conversionService *services.ConversionService
	syncService       *services.SyncService
	auditService      *services.AuditService
	dashboardService  *services.DashboardService

	lastSync    time.Time
	lastSummary time.Time
}

func New(
	settingsService *services.SettingsService,
	conversionService *services.ConversionService,
	syncService *services.SyncService,
	auditService *services.AuditService,
	dashboardService *services.DashboardService,
) *Worker {
	return &Worker{
		settingsService:   settingsService,
		conversionService: conversionService,
		syncService:       syncService,
		auditService:      auditService,
		dashboardService:  dashboardService,
	}
}

// outsideWindowDelay is how long the worker sleeps while business-hours
// mode keeps it idle.
const outsideWindowDelay = 15 * time.Minute

// Run loops until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	slog.Info("loyalty worker started")
	for {
		delay := w.runPass(ctx)
		select {
		case <-ctx.Done():
			slog.Info("loyalty worker stopping")
			return
		case <-time.After(delay):
		}
	}
}

// runPass executes one scheduling pass and returns how long to sleep
// before the next one.
func (w *Worker) runPass(ctx context.Context) time.Duration {
	settings := w.settingsService.GetWorkerSettings(ctx)
	now := time.Now()

	if !withinRunWindow(settings, now) {
		slog.Info("outside business hours, worker idle",
			"start", clockString(settings.StartTime),
			"end", clockString(settings.EndTime))
		return outsideWindowDelay
	}

	if now.Sub(w.lastSync) >= settings.SyncInterval {
		w.runJobWithAlert(ctx, "customer sync", w.syncService.SyncCustomers)
		w.runJobWithAlert(ctx, "staff sync", w.syncService.SyncStaff)
		w.runJobWithAlert(ctx, "coupon expiry", w.syncService.ExpireCoupons)
		w.lastSync = now
	}

	if now.Sub(w.lastSummary) >= settings.SummaryInterval {
		w.runJobWithAlert(ctx, "dashboard summary", func(ctx context.Context) error {
			_, err := w.dashboardService.RecomputeSummary(ctx)
			return err
		})
		w.lastSummary = now
	}

	w.runJobWithAlert(ctx, "points conversion", w.conversionService.ProcessCustomerPoints)
	w.runJobWithAlert(ctx, "stale points audit", w.auditService.CheckStalePoints)

	return settings.PointCheckInterval
}

// runJobWithAlert runs one job with start/outcome logging so a stuck or
// failing job is visible in the logs without crashing the loop.
func (w *Worker) runJobWithAlert(ctx context.Context, name string, job func(context.Context) error) {
	if ctx.Err() != nil {
		return
	}
	started := time.Now()
	slog.Info("JOB START", "job", name)
	if err := job(ctx); err != nil {
		slog.Error("JOB FAILURE", "job", name, "duration", time.Since(started), "error", err)
		return
	}
	slog.Info("JOB SUCCESS", "job", name, "duration", time.Since(started))
}

// withinRunWindow reports whether the worker may run at t. In 24/7 mode it
// always may; in business-hours mode only inside the configured window.
// A window whose end is at or before its start spans midnight.
func withinRunWindow(settings models.WorkerSettings, t time.Time) bool {
	if settings.RunMode != models.RunModeBusinessHours {
		return true
	}
	minute := t.Hour()*60 + t.Minute()
	start := settings.StartTime.Minutes()
	end := settings.EndTime.Minutes()
	if start < end {
		return minute >= start && minute < end
	}
	return minute >= start || minute < end
}

func clockString(d models.DayTime) string {
	return time.Date(0, 1, 1, d.Hour, d.Minute, 0, 0, time.UTC).Format("15:04")
}
