package services

import (
	"testing"
	"time"

	"loyalty-service/internal/models"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func testSettings() models.TierSettings {
	return models.DefaultTierSettings()
}

func testPromotion(value float64) *models.Promotion {
	now := time.Now()
	return &models.Promotion{
		PromotionID: 1,
		Name:        "Summer Festival",
		StartDate:   now.Add(-time.Hour),
		EndDate:     now.Add(time.Hour),
		CouponValue: value,
		IsEnabled:   true,
	}
}

// ============================================================================
// TEST SUITE 1: CONVERSION ARITHMETIC
// ============================================================================

func TestPlanConversion_WholeAndRemainder(t *testing.T) {
	plan := PlanConversion(250, models.TierBronze, testSettings(), nil)

	assert.Equal(t, 2, plan.NewCoupons, "250 points at 100/coupon should yield 2 coupons")
	assert.Equal(t, 50.0, plan.Remainder, "leftover after whole coupons should be 50")
	assert.Equal(t, 250.0, plan.CouponValue, "Bronze coupon value applies without a promotion")
}

func TestPlanConversion_ExactMultiple(t *testing.T) {
	plan := PlanConversion(300, models.TierBronze, testSettings(), nil)

	assert.Equal(t, 3, plan.NewCoupons)
	assert.Equal(t, 0.0, plan.Remainder)
}

func TestPlanConversion_BelowThreshold(t *testing.T) {
	plan := PlanConversion(99.5, models.TierBronze, testSettings(), nil)

	assert.Equal(t, 0, plan.NewCoupons, "a balance below one coupon yields nothing")
	assert.Equal(t, 99.5, plan.Remainder, "the whole balance stays as remainder")
}

func TestPlanConversion_ConservesPoints(t *testing.T) {
	settings := testSettings()
	balances := []float64{0, 1, 99.99, 100, 101, 250, 999.5, 1000, 12345.67}

	for _, points := range balances {
		for _, tier := range []models.Tier{models.TierBronze, models.TierSilver, models.TierGold} {
			plan := PlanConversion(points, tier, settings, nil)
			reconstructed := float64(plan.NewCoupons)*plan.PointsPerCoupon + plan.Remainder
			assert.InDelta(t, points, reconstructed, 1e-9,
				"coupons*rate+remainder must equal the input balance for %v points at %s", points, tier)
			assert.Less(t, plan.Remainder, plan.PointsPerCoupon,
				"remainder must be below the conversion rate for %v points at %s", points, tier)
		}
	}
}

func TestPlanConversion_RemainderNeverReconverts(t *testing.T) {
	settings := testSettings()

	first := PlanConversion(250, models.TierBronze, settings, nil)
	second := PlanConversion(first.Remainder, models.TierBronze, settings, nil)

	assert.Equal(t, 0, second.NewCoupons, "re-running on the remainder alone must mint nothing")
	assert.Equal(t, first.Remainder, second.Remainder)
}

func TestPlanConversion_TierRates(t *testing.T) {
	settings := testSettings()
	settings.PointsPerCouponGold = 80

	plan := PlanConversion(250, models.TierGold, settings, nil)

	assert.Equal(t, 3, plan.NewCoupons, "Gold rate of 80 turns 250 points into 3 coupons")
	assert.Equal(t, 10.0, plan.Remainder)
	assert.Equal(t, 300.0, plan.CouponValue)
}

// ============================================================================
// TEST SUITE 2: PROMOTION OVERRIDES
// ============================================================================

func TestPlanConversion_PromotionOverridesValue(t *testing.T) {
	plan := PlanConversion(250, models.TierGold, testSettings(), testPromotion(500))

	assert.Equal(t, 500.0, plan.CouponValue, "promotion value replaces the Gold tier value")
	assert.Equal(t, 2, plan.NewCoupons, "promotion must not change the conversion rate")
	assert.Equal(t, 50.0, plan.Remainder)
}

func TestPlanConversion_PromotionBelowTierValue(t *testing.T) {
	plan := PlanConversion(100, models.TierGold, testSettings(), testPromotion(200))

	assert.Equal(t, 200.0, plan.CouponValue,
		"a promotion value lower than the tier value still wins while active")
}

// ============================================================================
// TEST SUITE 3: BLACKLIST ELIGIBILITY FILTER
// ============================================================================

func TestEligibleCustomers_ExcludesBlacklisted(t *testing.T) {
	customers := []models.BillingCustomer{
		{CardNo: "C-1001", Points: 500},
		{CardNo: "C-2002", Points: 1200},
		{CardNo: "C-3003", Points: 150},
	}
	blacklist := map[string]struct{}{"c-2002": {}}

	eligible := eligibleCustomers(customers, blacklist)

	assert.Len(t, eligible, 2, "a blacklisted card gets no coupons even above the threshold")
	for _, c := range eligible {
		assert.NotEqual(t, "C-2002", c.CardNo)
	}
	assert.Equal(t, 500.0, eligible[0].Points, "remaining balances pass through untouched")
	assert.Equal(t, 150.0, eligible[1].Points)
}

func TestEligibleCustomers_CaseInsensitiveMatch(t *testing.T) {
	customers := []models.BillingCustomer{{CardNo: "ABC-77", Points: 900}}
	blacklist := map[string]struct{}{"abc-77": {}}

	assert.Empty(t, eligibleCustomers(customers, blacklist),
		"blacklist matching must ignore card number casing")
}

func TestEligibleCustomers_EmptyBlacklist(t *testing.T) {
	customers := []models.BillingCustomer{
		{CardNo: "C-1001", Points: 500},
		{CardNo: "C-2002", Points: 1200},
	}

	assert.Equal(t, customers, eligibleCustomers(customers, map[string]struct{}{}))
}
