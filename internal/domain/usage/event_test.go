package usage

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screentime/backend/internal/domain/shared"
)

func TestNewUsageEvent(t *testing.T) {
	deviceID := uuid.New()
	appID := uuid.New()
	occurred := time.Date(2024, 3, 1, 20, 0, 0, 0, CalendarZone())

	event, clamped, err := NewUsageEvent(deviceID, appID, 120.4, occurred, "evt-1")
	require.NoError(t, err)
	assert.False(t, clamped)
	assert.Equal(t, 120, event.DurationSeconds)
	assert.Equal(t, "evt-1", event.ClientEventID)

	start, end := event.Interval()
	assert.Equal(t, occurred, end)
	assert.Equal(t, occurred.Add(-120*time.Second), start)
}

func TestNewUsageEventRejectsNonPositiveDuration(t *testing.T) {
	deviceID := uuid.New()
	appID := uuid.New()

	for _, duration := range []float64{0, -10, 0.4} {
		_, _, err := NewUsageEvent(deviceID, appID, duration, time.Now(), "")
		assert.ErrorIs(t, err, shared.ErrInvalidDuration)
	}
}

func TestNewUsageEventClampsImplausibleDuration(t *testing.T) {
	event, clamped, err := NewUsageEvent(uuid.New(), uuid.New(), 100_000, time.Now(), "")
	require.NoError(t, err)
	assert.True(t, clamped)
	assert.Equal(t, MaxEventDurationSeconds, event.DurationSeconds)
}

func TestIsNearDuplicateOf(t *testing.T) {
	deviceID := uuid.New()
	appID := uuid.New()
	occurred := time.Date(2024, 3, 1, 20, 0, 0, 0, CalendarZone())

	base, _, err := NewUsageEvent(deviceID, appID, 60, occurred, "")
	require.NoError(t, err)

	within, _, _ := NewUsageEvent(deviceID, appID, 60, occurred.Add(1*time.Second), "")
	assert.True(t, within.IsNearDuplicateOf(base))

	outside, _, _ := NewUsageEvent(deviceID, appID, 60, occurred.Add(5*time.Second), "")
	assert.False(t, outside.IsNearDuplicateOf(base))

	otherApp, _, _ := NewUsageEvent(deviceID, uuid.New(), 60, occurred.Add(1*time.Second), "")
	assert.False(t, otherApp.IsNearDuplicateOf(base))

	otherDuration, _, _ := NewUsageEvent(deviceID, appID, 61, occurred.Add(1*time.Second), "")
	assert.False(t, otherDuration.IsNearDuplicateOf(base))
}

func TestNewDailySnapshotClamps(t *testing.T) {
	deviceID := uuid.New()
	appID := uuid.New()
	syncedAt := time.Now()

	over, err := NewDailySnapshot(deviceID, appID, "2024-03-01", 2000, syncedAt)
	require.NoError(t, err)
	assert.Equal(t, MaxSnapshotMinutes, over.TotalMinutes)

	under, err := NewDailySnapshot(deviceID, appID, "2024-03-01", -5, syncedAt)
	require.NoError(t, err)
	assert.True(t, under.IsEmpty())

	_, err = NewDailySnapshot(deviceID, appID, "not-a-date", 30, syncedAt)
	assert.ErrorIs(t, err, shared.ErrInvalidDate)
}

func TestMinutesFromSeconds(t *testing.T) {
	assert.Equal(t, 1.0, MinutesFromSeconds(60))
	assert.Equal(t, 0.5, MinutesFromSeconds(30))
	assert.Equal(t, 1.67, MinutesFromSeconds(100))
	assert.Zero(t, MinutesFromSeconds(0))
}

func TestSortRowsStable(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()
	rows := []AggregateRow{
		{AppID: a, TotalSeconds: 100},
		{AppID: b, TotalSeconds: 300},
		{AppID: c, TotalSeconds: 100},
	}

	SortRows(rows)

	assert.Equal(t, b, rows[0].AppID)
	// Tied rows keep discovery order.
	assert.Equal(t, a, rows[1].AppID)
	assert.Equal(t, c, rows[2].AppID)
}
