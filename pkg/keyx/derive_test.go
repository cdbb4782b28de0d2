package keyx_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/aussiebroadwan/chatgate/pkg/keyx"
	"github.com/stretchr/testify/require"
)

var keyFormat = regexp.MustCompile(`^sk-[0-9a-f]{16}$`)

func TestDerive_KnownValue(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	rec := keyx.Derive(now, testSecret)

	// sha256("2024-10s3cr3t") = 4edbaceaf79443dc...
	require.Equal(t, "sk-4edbaceaf79443dc", rec.Key)
	require.Equal(t, time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC), rec.Expiry)
	require.Regexp(t, keyFormat, rec.Key)
}

func TestDerive_SameWeekSameKey(t *testing.T) {
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC)

	a := keyx.Derive(monday, testSecret)
	b := keyx.Derive(sunday, testSecret)

	require.Equal(t, a.Key, b.Key)
	require.NotEqual(t, a.Expiry, b.Expiry)
}

func TestDerive_WeeklyChange(t *testing.T) {
	sunday := time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC)
	monday := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	a := keyx.Derive(sunday, testSecret)
	b := keyx.Derive(monday, testSecret)

	require.NotEqual(t, a.Key, b.Key)
	require.Equal(t, "sk-514fb80d13f10f58", b.Key)
}

func TestDerive_SecretMatters(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	require.NotEqual(t, keyx.Derive(now, testSecret).Key, keyx.Derive(now, "other").Key)
}

func TestDerive_ExpiryIsSevenDays(t *testing.T) {
	for _, now := range []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 13, 37, 42, 123456789, time.UTC),
		time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC),
	} {
		rec := keyx.Derive(now, testSecret)
		require.Equal(t, now.Add(7*24*time.Hour), rec.Expiry)
	}
}

func TestWeekOf_ISOEdges(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want keyx.Week
		str  string
		key  string
	}{
		{
			name: "2021-01-03 is in the last week of 2020",
			at:   time.Date(2021, 1, 3, 12, 0, 0, 0, time.UTC),
			want: keyx.Week{Year: 2020, Week: 53},
			str:  "2020-53",
			key:  "sk-bd0ea91d00710012",
		},
		{
			name: "2024-12-30 is in the first week of 2025",
			at:   time.Date(2024, 12, 30, 12, 0, 0, 0, time.UTC),
			want: keyx.Week{Year: 2025, Week: 1},
			str:  "2025-1",
			key:  "sk-c69004c065bd1c8a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := keyx.WeekOf(tt.at)
			require.Equal(t, tt.want, w)
			require.Equal(t, tt.str, w.String())
			require.Equal(t, tt.key, keyx.Derive(tt.at, testSecret).Key)
		})
	}
}
