package application

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/healthday/stationrank/internal/domain"
	"github.com/healthday/stationrank/internal/ports"
)

var _ ports.ThresholdProvider = (*ThresholdTable)(nil)

// thresholdKey is the demographic lookup key for one band table.
type thresholdKey struct {
	station  domain.StationType
	metric   string
	gender   domain.Gender
	ageGroup domain.AgeGroup
}

// ThresholdRow is one admin-managed threshold definition: a band table
// keyed by station, metric, gender, and age group.
type ThresholdRow struct {
	Station  string  `yaml:"station" validate:"required,oneof=balance breath grip health"`
	Metric   string  `yaml:"metric" validate:"required,min=1"`
	Gender   string  `yaml:"gender" validate:"required,oneof=male female unspecified"`
	AgeGroup string  `yaml:"age_group" validate:"required,oneof=under_30 30_39 40_49 50_59 60_plus"`
	Low      float64 `yaml:"low" validate:"min=0"`
	High     float64 `yaml:"high" validate:"gtfield=Low"`
}

// thresholdFile is the on-disk shape of the threshold table.
type thresholdFile struct {
	Thresholds []ThresholdRow `yaml:"thresholds" validate:"dive"`
}

// ThresholdTable is an immutable, read-only threshold lookup built
// from admin-managed rows. It is safe for concurrent use.
type ThresholdTable struct {
	rows map[thresholdKey]domain.Bands
}

// NewThresholdTable builds a table from validated rows. Duplicate keys
// fail so an ambiguous table never silently picks a winner.
func NewThresholdTable(rows []ThresholdRow) (*ThresholdTable, error) {
	table := &ThresholdTable{rows: make(map[thresholdKey]domain.Bands, len(rows))}
	for i, r := range rows {
		if err := validate.Struct(r); err != nil {
			return nil, fmt.Errorf("threshold row %d: %w", i, err)
		}
		key := thresholdKey{
			station:  domain.StationType(r.Station),
			metric:   r.Metric,
			gender:   domain.Gender(r.Gender),
			ageGroup: domain.AgeGroup(r.AgeGroup),
		}
		if _, exists := table.rows[key]; exists {
			return nil, fmt.Errorf("threshold row %d: duplicate key (%s, %s, %s, %s)",
				i, r.Station, r.Metric, r.Gender, r.AgeGroup)
		}
		table.rows[key] = domain.Bands{Low: r.Low, High: r.High}
	}
	return table, nil
}

// LoadThresholdTable reads a YAML threshold file into a table.
func LoadThresholdTable(path string) (*ThresholdTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read thresholds %s: %w", path, err)
	}
	var file thresholdFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse thresholds %s: %w", path, err)
	}
	return NewThresholdTable(file.Thresholds)
}

// GetThreshold implements ports.ThresholdProvider.
func (t *ThresholdTable) GetThreshold(station domain.StationType, metric string, gender domain.Gender, ageGroup domain.AgeGroup) (domain.Bands, bool) {
	bands, ok := t.rows[thresholdKey{station: station, metric: metric, gender: gender, ageGroup: ageGroup}]
	return bands, ok
}

// Len reports how many threshold rows the table holds.
func (t *ThresholdTable) Len() int { return len(t.rows) }
