package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"workshop-planner/internal/domain"
)

func TestDuration(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, 30, cfg.Duration(domain.StageGrading, 10))
	require.Equal(t, 15, cfg.Duration(domain.StageCertification, 5))
	require.Equal(t, 3, cfg.Duration(domain.StagePreparation, 1))
	require.Equal(t, 5, cfg.Duration(domain.StageScanning, 200))
	require.Equal(t, 5, cfg.Duration(domain.StageScanning, 0))

	cfg.PerCardMinutes = 4
	cfg.FixedScanMinutes = 7
	require.Equal(t, 40, cfg.Duration(domain.StageGrading, 10))
	require.Equal(t, 7, cfg.Duration(domain.StageScanning, 10))
}

func TestHasWork(t *testing.T) {
	require.False(t, hasWork(domain.StageGrading, 0))
	require.False(t, hasWork(domain.StagePreparation, -1))
	require.True(t, hasWork(domain.StageCertification, 1))
	require.True(t, hasWork(domain.StageScanning, 0))
}
