// Package scoring provides the per-station measurement scorers behind
// the ports.StationScorer interface. Scorers are deterministic,
// stateless, and safe for concurrent execution: identical inputs always
// produce identical scores, and threshold data is only reached through
// an injected read-only provider.
package scoring

import (
	"github.com/healthday/stationrank/internal/domain"
)

// MetricDuration is the threshold metric name for the single numeric
// duration metric of the balance and breath stations.
const MetricDuration = "duration_seconds"

// Built-in default bands, used whenever no admin-managed threshold row
// matches the (station, metric, gender, age group) key.
var (
	// defaultBalanceBands: >=45s scores 3, >=25s scores 2, else 1.
	defaultBalanceBands = domain.Bands{Low: 25, High: 45}

	// defaultBreathBands: >=60s scores 3, >=30s scores 2, else 1.
	defaultBreathBands = domain.Bands{Low: 30, High: 60}
)

// Metric label values for threshold-miss observability.
const (
	labelStation = "station"
	labelMetric  = "metric"
	labelStatus  = "status"
)
