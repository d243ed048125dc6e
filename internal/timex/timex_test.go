package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	var v struct {
		A Duration `json:"a"`
		B Duration `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"3s","b":1000000000}`), &v))
	assert.Equal(t, 3*time.Second, v.A.Duration)
	assert.Equal(t, time.Second, v.B.Duration)

	require.Error(t, json.Unmarshal([]byte(`{"a":"soon"}`), &v))
	require.Error(t, json.Unmarshal([]byte(`{"a":true}`), &v))
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Duration{Duration: 90 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(b))
}

func TestParseZone(t *testing.T) {
	for in, want := range map[string]Zone{"": ZoneLocal, "LOCAL": ZoneLocal, "wib": ZoneWIB, "WITA": ZoneWITA, "wit": ZoneWIT} {
		z, err := ParseZone(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, z)
	}
	_, err := ParseZone("UTC+3")
	require.Error(t, err)
}

func TestClock_PresetsShiftWallClock(t *testing.T) {
	fixed := time.Date(2025, 3, 9, 20, 30, 0, 0, time.UTC)
	now := func() time.Time { return fixed }

	tests := []struct {
		zone      Zone
		today     string
		timeOfDay string
	}{
		{ZoneWIB, "2025-03-10", "03:30:00"},
		{ZoneWITA, "2025-03-10", "04:30:00"},
		{ZoneWIT, "2025-03-10", "05:30:00"},
	}
	for _, tt := range tests {
		c := Clock{Zone: tt.zone, Now: now}
		assert.Equal(t, tt.today, c.Today(), tt.zone)
		assert.Equal(t, tt.timeOfDay, c.TimeOfDay(), tt.zone)
		assert.Equal(t, "2025-03-09T20:30:00.000Z", c.Stamp())
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "13:05:00", FormatClock("13:05:00", "24h"))
	assert.Equal(t, "01:05:00 PM", FormatClock("13:05:00", "12h"))
	assert.Equal(t, "garbage", FormatClock("garbage", "12h"))
}

func TestInstantMillis(t *testing.T) {
	assert.Equal(t, int64(0), InstantMillis(""))
	assert.Equal(t, int64(0), InstantMillis("not a date"))
	assert.Equal(t, int64(1700000000000), InstantMillis("2023-11-14T22:13:20Z"))
	assert.Equal(t, int64(1700000000123), InstantMillis("2023-11-14T22:13:20.123Z"))
	assert.Equal(t, InstantMillis("2023-11-14T22:13:20Z"), InstantMillis("2023-11-15T05:13:20+07:00"))
	assert.Greater(t, InstantMillis("2024-01-02"), InstantMillis("2024-01-01"))
}

func TestDateRange(t *testing.T) {
	days, err := DateRange("2024-02-27", "2024-03-01", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01"}, days)

	days, err = DateRange("2024-03-02", "2024-03-01", 0)
	require.NoError(t, err)
	assert.Empty(t, days)

	_, err = DateRange("bad", "2024-03-01", 0)
	require.Error(t, err)
}

func TestDateRange_Limit(t *testing.T) {
	days, err := DateRange("2024-01-01", "2024-01-07", 7)
	require.NoError(t, err)
	assert.Len(t, days, 7)

	_, err = DateRange("2024-01-01", "2024-01-08", 7)
	assert.ErrorIs(t, err, ErrRangeTooLong)

	days, err = DateRange("0001-01-01", "9999-12-31", 366)
	assert.ErrorIs(t, err, ErrRangeTooLong)
	assert.Nil(t, days)
}

func TestValidDate(t *testing.T) {
	assert.True(t, ValidDate("2024-12-31"))
	assert.False(t, ValidDate("2024-13-01"))
	assert.False(t, ValidDate("31/12/2024"))
}
