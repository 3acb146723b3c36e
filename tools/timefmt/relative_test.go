package timefmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRelativeBuckets(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{"zero", 0, "just now"},
		{"59s is still just now", 59 * time.Second, "just now"},
		{"60s crosses into minutes", 60 * time.Second, "1min"},
		{"59min59s stays minutes", 59*time.Minute + 59*time.Second, "59min"},
		{"60min crosses into hours", 60 * time.Minute, "1h"},
		{"23h59m stays hours", 23*time.Hour + 59*time.Minute, "23h"},
		{"24h crosses into days", 24 * time.Hour, "1d"},
		{"30d stays days", 30 * 24 * time.Hour, "30d"},
		{"31d crosses into months", 31 * 24 * time.Hour, "1mth"},
		{"11 months", 340 * 24 * time.Hour, "11mth"},
		{"365d crosses into years", 365 * 24 * time.Hour, "1y"},
		{"two years", 2 * 365 * 24 * time.Hour, "2y"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Relative(now.Add(-tc.ago), now))
		})
	}
}

func TestSeen(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "Seen 2h", Seen(now.Add(-2*time.Hour), now))
	assert.Equal(t, "Seen just now", Seen(now, now))
}
