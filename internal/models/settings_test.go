package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTierSettings_EmptyUsesDefaults(t *testing.T) {
	settings := ParseTierSettings(map[string]string{})

	assert.Equal(t, DefaultTierSettings(), settings)
}

func TestParseTierSettings_Overrides(t *testing.T) {
	settings := ParseTierSettings(map[string]string{
		KeyPointsPerCouponGold: "80",
		KeyCouponValueGold:     "350",
		KeyDefaultExpiryDays:   "30",
		KeyTierThresholdGold:   "100",
	})

	assert.Equal(t, 80.0, settings.PointsPerCouponGold)
	assert.Equal(t, 350.0, settings.CouponValueGold)
	assert.Equal(t, 30, settings.DefaultExpiryDays)
	assert.Equal(t, 100, settings.TierThresholdGold)
	assert.Equal(t, 100.0, settings.PointsPerCouponBronze, "untouched keys keep their defaults")
}

func TestParseTierSettings_RejectsBadValues(t *testing.T) {
	settings := ParseTierSettings(map[string]string{
		KeyPointsPerCouponBronze: "not-a-number",
		KeyCouponValueSilver:     "-5",
		KeyDefaultExpiryDays:     "0",
	})

	assert.Equal(t, 100.0, settings.PointsPerCouponBronze, "non-numeric value falls back")
	assert.Equal(t, 275.0, settings.CouponValueSilver, "negative value falls back")
	assert.Equal(t, 90, settings.DefaultExpiryDays, "zero falls back")
}

func TestTierSettings_MinPointsRequired(t *testing.T) {
	settings := DefaultTierSettings()
	settings.PointsPerCouponGold = 80

	assert.Equal(t, 80.0, settings.MinPointsRequired(), "the cheapest rate across tiers wins")
}

func TestParseWorkerSettings_Defaults(t *testing.T) {
	settings := ParseWorkerSettings(map[string]string{})

	assert.Equal(t, 60*time.Minute, settings.SyncInterval)
	assert.Equal(t, 2*time.Minute, settings.SummaryInterval)
	assert.Equal(t, time.Minute, settings.PointCheckInterval)
	assert.Equal(t, RunModeAlways, settings.RunMode)
}

func TestParseWorkerSettings_BusinessHours(t *testing.T) {
	settings := ParseWorkerSettings(map[string]string{
		KeyWorkerRunMode:   "BusinessHours",
		KeyWorkerStartTime: "08:30",
		KeyWorkerEndTime:   "21:00",
	})

	assert.Equal(t, RunModeBusinessHours, settings.RunMode)
	assert.Equal(t, DayTime{Hour: 8, Minute: 30}, settings.StartTime)
	assert.Equal(t, DayTime{Hour: 21}, settings.EndTime)
}

func TestParseWorkerSettings_UnknownRunMode(t *testing.T) {
	settings := ParseWorkerSettings(map[string]string{KeyWorkerRunMode: "Weekends"})

	assert.Equal(t, RunModeAlways, settings.RunMode, "unknown run modes fall back to 24/7")
}

func TestParseDayTime(t *testing.T) {
	parsed, ok := ParseDayTime("07:45")
	assert.True(t, ok)
	assert.Equal(t, DayTime{Hour: 7, Minute: 45}, parsed)
	assert.Equal(t, 7*60+45, parsed.Minutes())

	_, ok = ParseDayTime("7am")
	assert.False(t, ok)

	_, ok = ParseDayTime("")
	assert.False(t, ok)
}

func TestPromotion_ActiveAt(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC)
	promo := Promotion{StartDate: start, EndDate: end, IsEnabled: true}

	assert.True(t, promo.ActiveAt(start), "window start is inclusive")
	assert.True(t, promo.ActiveAt(end), "window end is inclusive")
	assert.True(t, promo.ActiveAt(start.AddDate(0, 0, 15)))
	assert.False(t, promo.ActiveAt(start.Add(-time.Second)))
	assert.False(t, promo.ActiveAt(end.Add(time.Second)))

	promo.IsEnabled = false
	assert.False(t, promo.ActiveAt(start.AddDate(0, 0, 15)), "disabled promotion never applies")
}
