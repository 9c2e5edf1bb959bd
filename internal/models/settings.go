package models

import (
	"strconv"
	"time"
)

type Tier string

const (
	TierBronze Tier = "Bronze"
	TierSilver Tier = "Silver"
	TierGold   Tier = "Gold"
)

// Settings keys as stored in the settings table.
const (
	KeyPointsPerCouponBronze = "PointsPerCoupon_Bronze"
	KeyPointsPerCouponSilver = "PointsPerCoupon_Silver"
	KeyPointsPerCouponGold   = "PointsPerCoupon_Gold"
	KeyCouponValueBronze     = "CouponValue_Bronze"
	KeyCouponValueSilver     = "CouponValue_Silver"
	KeyCouponValueGold       = "CouponValue_Gold"
	KeyDefaultExpiryDays     = "DefaultExpiryDays"
	KeyTierThresholdSilver   = "TierThreshold_Silver"
	KeyTierThresholdGold     = "TierThreshold_Gold"

	KeyWorkerSyncInterval       = "Worker_SyncIntervalMinutes"
	KeyWorkerSummaryInterval    = "Worker_SummaryIntervalMinutes"
	KeyWorkerPointCheckInterval = "Worker_PointCheckIntervalMinutes"
	KeyWorkerRunMode            = "Worker_RunMode"
	KeyWorkerStartTime          = "Worker_StartTime"
	KeyWorkerEndTime            = "Worker_EndTime"
)

// TierSettings is the configuration snapshot one conversion run operates on.
type TierSettings struct {
	PointsPerCouponBronze float64
	PointsPerCouponSilver float64
	PointsPerCouponGold   float64
	CouponValueBronze     float64
	CouponValueSilver     float64
	CouponValueGold       float64
	DefaultExpiryDays     int
	TierThresholdSilver   int
	TierThresholdGold     int
}

// DefaultTierSettings are the hardcoded fallbacks used when the settings
// store is unreadable or a value is missing or non-positive.
func DefaultTierSettings() TierSettings {
	return TierSettings{
		PointsPerCouponBronze: 100,
		PointsPerCouponSilver: 100,
		PointsPerCouponGold:   100,
		CouponValueBronze:     250,
		CouponValueSilver:     275,
		CouponValueGold:       300,
		DefaultExpiryDays:     90,
		TierThresholdSilver:   10,
		TierThresholdGold:     50,
	}
}

// ParseTierSettings builds a TierSettings from raw settings rows. Every
// field falls back to its default when absent, non-numeric or non-positive.
func ParseTierSettings(raw map[string]string) TierSettings {
	s := DefaultTierSettings()
	s.PointsPerCouponBronze = positiveFloatOr(raw[KeyPointsPerCouponBronze], s.PointsPerCouponBronze)
	s.PointsPerCouponSilver = positiveFloatOr(raw[KeyPointsPerCouponSilver], s.PointsPerCouponSilver)
	s.PointsPerCouponGold = positiveFloatOr(raw[KeyPointsPerCouponGold], s.PointsPerCouponGold)
	s.CouponValueBronze = positiveFloatOr(raw[KeyCouponValueBronze], s.CouponValueBronze)
	s.CouponValueSilver = positiveFloatOr(raw[KeyCouponValueSilver], s.CouponValueSilver)
	s.CouponValueGold = positiveFloatOr(raw[KeyCouponValueGold], s.CouponValueGold)
	s.DefaultExpiryDays = positiveIntOr(raw[KeyDefaultExpiryDays], s.DefaultExpiryDays)
	s.TierThresholdSilver = positiveIntOr(raw[KeyTierThresholdSilver], s.TierThresholdSilver)
	s.TierThresholdGold = positiveIntOr(raw[KeyTierThresholdGold], s.TierThresholdGold)
	return s
}

// PointsPerCoupon returns the conversion rate for a tier.
func (s TierSettings) PointsPerCoupon(tier Tier) float64 {
	switch tier {
	case TierGold:
		return s.PointsPerCouponGold
	case TierSilver:
		return s.PointsPerCouponSilver
	default:
		return s.PointsPerCouponBronze
	}
}

// CouponValue returns the tier coupon value, before any promotion override.
func (s TierSettings) CouponValue(tier Tier) float64 {
	switch tier {
	case TierGold:
		return s.CouponValueGold
	case TierSilver:
		return s.CouponValueSilver
	default:
		return s.CouponValueBronze
	}
}

// MinPointsRequired is the coarse prefilter threshold: the cheapest
// conversion rate across all tiers.
func (s TierSettings) MinPointsRequired() float64 {
	m := s.PointsPerCouponBronze
	if s.PointsPerCouponSilver < m {
		m = s.PointsPerCouponSilver
	}
	if s.PointsPerCouponGold < m {
		m = s.PointsPerCouponGold
	}
	if m <= 0 {
		m = 100
	}
	return m
}

type RunMode string

const (
	RunModeAlways        RunMode = "24/7"
	RunModeBusinessHours RunMode = "BusinessHours"
)

// WorkerSettings controls the scheduling of the background worker.
type WorkerSettings struct {
	SyncInterval       time.Duration
	SummaryInterval    time.Duration
	PointCheckInterval time.Duration
	RunMode            RunMode
	StartTime          DayTime
	EndTime            DayTime
}

func DefaultWorkerSettings() WorkerSettings {
	return WorkerSettings{
		SyncInterval:       60 * time.Minute,
		SummaryInterval:    2 * time.Minute,
		PointCheckInterval: 1 * time.Minute,
		RunMode:            RunModeAlways,
		StartTime:          DayTime{Hour: 7},
		EndTime:            DayTime{Hour: 22},
	}
}

func ParseWorkerSettings(raw map[string]string) WorkerSettings {
	s := DefaultWorkerSettings()
	if m := positiveIntOr(raw[KeyWorkerSyncInterval], 0); m > 0 {
		s.SyncInterval = time.Duration(m) * time.Minute
	}
	if m := positiveIntOr(raw[KeyWorkerSummaryInterval], 0); m > 0 {
		s.SummaryInterval = time.Duration(m) * time.Minute
	}
	if m := positiveIntOr(raw[KeyWorkerPointCheckInterval], 0); m > 0 {
		s.PointCheckInterval = time.Duration(m) * time.Minute
	}
	if mode := raw[KeyWorkerRunMode]; mode == string(RunModeBusinessHours) {
		s.RunMode = RunModeBusinessHours
	}
	if t, ok := ParseDayTime(raw[KeyWorkerStartTime]); ok {
		s.StartTime = t
	}
	if t, ok := ParseDayTime(raw[KeyWorkerEndTime]); ok {
		s.EndTime = t
	}
	return s
}

// DayTime is a clock time within a day, for the business-hours window.
type DayTime struct {
	Hour   int
	Minute int
}

func ParseDayTime(v string) (DayTime, bool) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return DayTime{}, false
	}
	return DayTime{Hour: t.Hour(), Minute: t.Minute()}, true
}

func (d DayTime) Minutes() int {
	return d.Hour*60 + d.Minute
}

func positiveFloatOr(v string, fallback float64) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func positiveIntOr(v string, fallback int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
