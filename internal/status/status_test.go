package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeLabel_Debug(t *testing.T) {
	tests := []struct {
		name     string
		want     string
		counters Counters
		exp      int
	}{
		{name: "high kindness", counters: Counters{Kindness: 3}, exp: 0, want: "kindness_last"},
		{name: "experienced but no trait", counters: Counters{}, exp: 6, want: "neutral_last"},
		{name: "kindness reached", counters: Counters{Kindness: 1}, exp: 0, want: "kindness"},
		{name: "kindness with enough exp", counters: Counters{Kindness: 2}, exp: 5, want: "kindness_last"},
		{name: "fresh start", counters: Counters{}, exp: 0, want: "neutral"},
		{name: "exp just below", counters: Counters{}, exp: 4, want: "neutral"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeLabel(tt.counters, tt.exp, DebugThresholds))
		})
	}
}

func TestComputeLabel_Release(t *testing.T) {
	tests := []struct {
		name     string
		want     string
		counters Counters
		exp      int
	}{
		{name: "kindness above high", counters: Counters{Kindness: 31}, want: "kindness_last"},
		{name: "neutral last", counters: Counters{}, exp: 50, want: "neutral_last"},
		{name: "kindness reached with exp", counters: Counters{Kindness: 15}, exp: 50, want: "kindness_last"},
		{name: "kindness reached without exp", counters: Counters{Kindness: 15}, exp: 49, want: "kindness"},
		{name: "at high threshold is not above", counters: Counters{Smartness: 30}, exp: 0, want: "smartness"},
		{name: "curiosity wins", counters: Counters{Kindness: 16, Curiosity: 20}, exp: 0, want: "curiosity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeLabel(tt.counters, tt.exp, ReleaseThresholds))
		})
	}
}

func TestCounters_DominantTieBreak(t *testing.T) {
	tests := []struct {
		name     string
		want     string
		counters Counters
	}{
		{name: "all equal", counters: Counters{Kindness: 5, Coolness: 5, Smartness: 5, Curiosity: 5}, want: Kindness},
		{name: "coolness before smartness", counters: Counters{Coolness: 7, Smartness: 7}, want: Coolness},
		{name: "smartness before curiosity", counters: Counters{Smartness: 2, Curiosity: 2}, want: Smartness},
		{name: "zero", counters: Counters{}, want: Kindness},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.counters.Dominant())
		})
	}
}

func TestThresholdsForProfile(t *testing.T) {
	th, err := ThresholdsForProfile("debug")
	require.NoError(t, err)
	assert.Equal(t, DebugThresholds, th)

	th, err = ThresholdsForProfile("")
	require.NoError(t, err)
	assert.Equal(t, ReleaseThresholds, th)

	_, err = ThresholdsForProfile("staging")
	require.Error(t, err)
}

func TestIsCounter(t *testing.T) {
	for _, name := range []string{Kindness, Coolness, Smartness, Curiosity, Experience} {
		assert.True(t, IsCounter(name), name)
	}
	assert.False(t, IsCounter("charm"))
}
