package domain

import "fmt"

// Measurements is the raw payload recorded at a station. The valid
// fields depend on the station, so the payload is a tagged union: the
// Station tag selects exactly one of the typed sub-payloads. An
// unrecognized or incomplete shape is rejected by Validate before any
// scoring or persistence happens.
type Measurements struct {
	Station StationType `json:"station"`

	Balance *BalanceMeasurement `json:"balance,omitempty"`
	Breath  *BreathMeasurement  `json:"breath,omitempty"`
	Grip    *GripMeasurement    `json:"grip,omitempty"`
	Health  *HealthMeasurement  `json:"health,omitempty"`
}

// BalanceMeasurement is a single-leg stand duration.
type BalanceMeasurement struct {
	Seconds float64 `json:"balance_seconds"`
}

// BreathMeasurement is a breath-hold duration.
type BreathMeasurement struct {
	Seconds float64 `json:"breath_seconds"`
}

// GripMeasurement holds the grip dynamometer readings for both hands.
// The scorer uses the dominant (higher) value.
type GripMeasurement struct {
	LeftKg  float64 `json:"grip_left_kg"`
	RightKg float64 `json:"grip_right_kg"`
}

// HealthMeasurement is the composite health-check payload. Every metric
// is optional; a missing metric is excluded from the composite mean.
type HealthMeasurement struct {
	BPSystolic  *float64 `json:"bp_systolic,omitempty"`
	BPDiastolic *float64 `json:"bp_diastolic,omitempty"`
	Pulse       *float64 `json:"pulse,omitempty"`
	SpO2        *float64 `json:"spo2,omitempty"`
	BMI         *float64 `json:"bmi,omitempty"`
}

// Validate checks that the payload carries exactly the sub-payload its
// station tag requires and that required fields are present and sane.
// It returns a MeasurementError naming the missing fields on failure.
func (m Measurements) Validate() error {
	switch m.Station {
	case StationBalance:
		if m.Balance == nil {
			return NewMeasurementError(m.Station, "balance_seconds")
		}
		if m.Balance.Seconds < 0 {
			return NewMeasurementError(m.Station, "balance_seconds")
		}
	case StationBreath:
		if m.Breath == nil {
			return NewMeasurementError(m.Station, "breath_seconds")
		}
		if m.Breath.Seconds < 0 {
			return NewMeasurementError(m.Station, "breath_seconds")
		}
	case StationGrip:
		if m.Grip == nil {
			return NewMeasurementError(m.Station, "grip_left_kg", "grip_right_kg")
		}
		if m.Grip.LeftKg < 0 || m.Grip.RightKg < 0 {
			return NewMeasurementError(m.Station, "grip_left_kg", "grip_right_kg")
		}
	case StationHealth:
		// The health composite tolerates partial metrics; only the
		// payload envelope itself is required here.
		if m.Health == nil {
			return NewMeasurementError(m.Station, "bp_systolic", "bp_diastolic", "pulse", "spo2", "bmi")
		}
	default:
		return NewStationError(string(m.Station), fmt.Errorf("%w: %q", ErrInvalidStationType, m.Station))
	}
	return nil
}
