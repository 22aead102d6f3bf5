package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRank(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"X", 5},
		{"F+", 4},
		{"F", 3},
		{"C", 2},
		{"E", 1},
		{" x ", 5},
		{"f+", 4},
		{"", 2},
		{"Z", 2},
	}
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			require.Equal(t, tc.want, Rank(tc.code))
		})
	}
}

func TestNormalizePriority(t *testing.T) {
	code, ok := NormalizePriority("f")
	require.True(t, ok)
	require.Equal(t, "F", code)

	code, ok = NormalizePriority("URGENT")
	require.False(t, ok)
	require.Equal(t, DefaultPriority, code)
}
