package services

import (
	"testing"

	"loyalty-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTier_Thresholds(t *testing.T) {
	settings := models.DefaultTierSettings()

	assert.Equal(t, models.TierBronze, ClassifyTier(0, settings))
	assert.Equal(t, models.TierBronze, ClassifyTier(9, settings))
	assert.Equal(t, models.TierSilver, ClassifyTier(10, settings), "Silver threshold is inclusive")
	assert.Equal(t, models.TierSilver, ClassifyTier(49, settings))
	assert.Equal(t, models.TierGold, ClassifyTier(50, settings), "Gold threshold is inclusive")
	assert.Equal(t, models.TierGold, ClassifyTier(500, settings))
}

func TestClassifyTier_NonDecreasing(t *testing.T) {
	settings := models.DefaultTierSettings()
	rank := map[models.Tier]int{models.TierBronze: 0, models.TierSilver: 1, models.TierGold: 2}

	previous := ClassifyTier(0, settings)
	for count := 1; count <= 60; count++ {
		current := ClassifyTier(count, settings)
		assert.GreaterOrEqual(t, rank[current], rank[previous],
			"tier must never drop as the redeemed count grows (count=%d)", count)
		previous = current
	}
}

func TestClassifyTier_CustomThresholds(t *testing.T) {
	settings := models.DefaultTierSettings()
	settings.TierThresholdSilver = 3
	settings.TierThresholdGold = 5

	assert.Equal(t, models.TierBronze, ClassifyTier(2, settings))
	assert.Equal(t, models.TierSilver, ClassifyTier(3, settings))
	assert.Equal(t, models.TierGold, ClassifyTier(5, settings))
}
