package worker

import (
	"testing"
	"time"

	"loyalty-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func businessHoursSettings(start, end models.DayTime) models.WorkerSettings {
	settings := models.DefaultWorkerSettings()
	settings.RunMode = models.RunModeBusinessHours
	settings.StartTime = start
	settings.EndTime = end
	return settings
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 6, 2, hour, minute, 0, 0, time.Local)
}

func TestWithinRunWindow_AlwaysMode(t *testing.T) {
	settings := models.DefaultWorkerSettings()

	assert.True(t, withinRunWindow(settings, at(3, 0)), "24/7 mode runs at any hour")
	assert.True(t, withinRunWindow(settings, at(12, 0)))
}

func TestWithinRunWindow_BusinessHours(t *testing.T) {
	settings := businessHoursSettings(models.DayTime{Hour: 7}, models.DayTime{Hour: 22})

	assert.False(t, withinRunWindow(settings, at(6, 59)))
	assert.True(t, withinRunWindow(settings, at(7, 0)), "window start is inclusive")
	assert.True(t, withinRunWindow(settings, at(15, 30)))
	assert.False(t, withinRunWindow(settings, at(22, 0)), "window end is exclusive")
	assert.False(t, withinRunWindow(settings, at(23, 30)))
}

func TestWithinRunWindow_OvernightWindow(t *testing.T) {
	settings := businessHoursSettings(models.DayTime{Hour: 22}, models.DayTime{Hour: 6})

	assert.True(t, withinRunWindow(settings, at(23, 0)))
	assert.True(t, withinRunWindow(settings, at(2, 0)), "a window past midnight spans both days")
	assert.False(t, withinRunWindow(settings, at(12, 0)))
	assert.True(t, withinRunWindow(settings, at(22, 0)))
	assert.False(t, withinRunWindow(settings, at(6, 0)))
}
