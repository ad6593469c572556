package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthday/stationrank/internal/domain"
)

func TestNewRegistryRejectsDuplicateStation(t *testing.T) {
	_, err := NewRegistry(nil, NewGripScorer(), NewGripScorer())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate scorer")
}

func TestDefaultRegistryCoversAllStations(t *testing.T) {
	registry, err := DefaultRegistry(nil, nil)
	require.NoError(t, err)

	for _, station := range domain.AllStations {
		assert.Contains(t, registry.scorers, station)
	}
}

func TestRegistryScoreUnknownStation(t *testing.T) {
	registry, err := DefaultRegistry(nil, nil)
	require.NoError(t, err)

	score, err := registry.Score(context.Background(), domain.StationType("yoga"), domain.Measurements{}, domain.Demographics{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidStationType)
	assert.False(t, score.Valid)
}

func TestRegistryScoreStationMismatch(t *testing.T) {
	registry, err := DefaultRegistry(nil, nil)
	require.NoError(t, err)

	// A grip payload routed to the balance scorer must be rejected.
	score, err := registry.Score(context.Background(), domain.StationBalance, gripMeasurement(30, 32), domain.Demographics{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidMeasurement)
	assert.False(t, score.Valid)
}

func TestRegistryScoreDispatch(t *testing.T) {
	metrics := newFakeMetrics()
	registry, err := DefaultRegistry(nil, metrics)
	require.NoError(t, err)

	tests := []struct {
		name    string
		station domain.StationType
		m       domain.Measurements
		want    int
	}{
		{name: "balance", station: domain.StationBalance, m: balanceMeasurement(50), want: 3},
		{name: "breath", station: domain.StationBreath, m: breathMeasurement(20), want: 1},
		{name: "grip", station: domain.StationGrip, m: gripMeasurement(35, 38), want: 2},
		{
			name:    "health",
			station: domain.StationHealth,
			m:       healthMeasurement(domain.HealthMeasurement{SpO2: ptr(98), BMI: ptr(22)}),
			want:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := registry.Score(context.Background(), tt.station, tt.m, domain.Demographics{Gender: domain.GenderMale})
			require.NoError(t, err)
			require.True(t, score.Valid)
			assert.Equal(t, tt.want, score.Value)
		})
	}
}
