package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocationIsFixedOffset(t *testing.T) {
	// Uruguay dropped DST in 2015, so the offset should be a constant -3h
	// year round. Guards against an accidental tzdata regression.
	cases := []time.Time{
		time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC),
		time.Date(2024, time.July, 15, 12, 0, 0, 0, time.UTC),
		time.Date(2024, time.December, 31, 23, 59, 0, 0, time.UTC),
	}

	for _, instant := range cases {
		_, offset := instant.In(Location).Zone()
		require.Equal(t, -3*60*60, offset)
	}
}

func TestNowUsesLocation(t *testing.T) {
	require.Equal(t, Location, Now().Location())
}
