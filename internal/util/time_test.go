package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		want     string
		wantErr  bool
	}{
		{name: "empty defaults to local", timezone: "", want: time.Local.String()},
		{name: "local timezone", timezone: "Local", want: time.Local.String()},
		{name: "UTC timezone", timezone: "UTC", want: "UTC"},
		{name: "valid timezone Asia/Shanghai", timezone: "Asia/Shanghai", want: "Asia/Shanghai"},
		{name: "invalid timezone", timezone: "Invalid/Timezone", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid timezone")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, loc.String())
		})
	}
}

func TestClockUsesZone(t *testing.T) {
	fixed := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	clock, err := NewClock("Asia/Shanghai", func() time.Time { return fixed })
	require.NoError(t, err)

	now := clock.Now()
	assert.True(t, now.Equal(fixed))
	assert.Equal(t, "Asia/Shanghai", clock.Location().String())
	assert.Equal(t, "2024-01-15T18:00:00+08:00", FormatISO(now))
}

func TestNewClockDefaults(t *testing.T) {
	clock, err := NewClock("", nil)
	require.NoError(t, err)

	before := time.Now()
	now := clock.Now()
	assert.False(t, now.Before(before.Add(-time.Second)))

	_, err = NewClock("Mars/Olympus", nil)
	assert.Error(t, err)
}

func TestFormatISO(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 0, 0, 500000000, time.UTC)
	assert.Equal(t, "2024-01-15T10:00:00.5Z", FormatISO(ts))
}
