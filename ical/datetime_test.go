package ical

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePartialDateTime(t *testing.T) {
	pdt, err := ParsePartialDateTime("19970902T090000Z")
	require.NoError(t, err)
	assert.True(t, pdt.HasTime)
	assert.True(t, pdt.UTC)
	assert.Equal(t, time.Date(1997, 9, 2, 9, 0, 0, 0, time.UTC), pdt.Time(nil))

	pdt, err = ParsePartialDateTime("20240229")
	require.NoError(t, err)
	assert.False(t, pdt.HasTime)
	assert.Equal(t, 2024, pdt.Year)
	assert.Equal(t, 2, pdt.Month)
	assert.Equal(t, 29, pdt.Day)

	// Floating times land in the requested location.
	nyc := time.FixedZone("EST", -5*3600)
	pdt, err = ParsePartialDateTime("20240301T083000")
	require.NoError(t, err)
	assert.False(t, pdt.UTC)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 30, 0, 0, nyc), pdt.Time(nyc))

	for _, bad := range []string{"", "2024", "20241301", "20240132",
		"20240301T25", "20240301T250000", "20240301X090000", "20240301T090000ZX"} {
		_, err := ParsePartialDateTime(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParseUTCOffset(t *testing.T) {
	off, err := ParseUTCOffset("-0500")
	require.NoError(t, err)
	assert.Equal(t, -5*3600, off)

	off, err = ParseUTCOffset("+0230")
	require.NoError(t, err)
	assert.Equal(t, 2*3600+30*60, off)

	off, err = ParseUTCOffset("+000030")
	require.NoError(t, err)
	assert.Equal(t, 30, off)

	for _, bad := range []string{"", "0500", "+05", "+0560", "-05000"} {
		_, err := ParseUTCOffset(bad)
		assert.Error(t, err, "input %q", bad)
	}
}
