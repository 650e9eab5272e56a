// Package fitness holds the storage-independent rules for fitness test metrics:
// parsing and validating persisted metric sets, deriving body-mass-index and
// scaling comparison charts.
package fitness

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Metric names one persisted fitness measurement. The value doubles as the
// database column and JSON field name.
type Metric string

// Persisted metrics in column order.
const (
	MetricBMI         Metric = "bmi"
	MetricVO2Max      Metric = "vo2_max"
	MetricFlexibility Metric = "flexibility"
	MetricStrength    Metric = "strength"
	MetricAgility     Metric = "agility"
	MetricSpeed       Metric = "speed"
	MetricEndurance   Metric = "endurance"
)

// MetricCount is the number of metrics stored per test entry.
const MetricCount = 7

// AllMetrics lists every metric in column order; indexes match MetricSet and RawMetricSet.
var AllMetrics = [MetricCount]Metric{
	MetricBMI,
	MetricVO2Max,
	MetricFlexibility,
	MetricStrength,
	MetricAgility,
	MetricSpeed,
	MetricEndurance,
}

// Index returns the position of the metric inside a metric set, or -1.
func (m Metric) Index() int {
	for i, candidate := range AllMetrics {
		if candidate == m {
			return i
		}
	}
	return -1
}

// Label returns a human readable name used in exports.
func (m Metric) Label() string {
	switch m {
	case MetricBMI:
		return "BMI"
	case MetricVO2Max:
		return "VO2 Max"
	case MetricFlexibility:
		return "Flexibility"
	case MetricStrength:
		return "Strength"
	case MetricAgility:
		return "Agility"
	case MetricSpeed:
		return "Speed"
	case MetricEndurance:
		return "Endurance"
	default:
		return string(m)
	}
}

// RawMetricSet carries metric values exactly as read from storage. A nil
// element is a NULL column.
type RawMetricSet [MetricCount]*string

// MetricSet is a fully parsed set of metrics.
type MetricSet [MetricCount]decimal.Decimal

// Get returns the value of a single metric.
func (s MetricSet) Get(metric Metric) decimal.Decimal {
	idx := metric.Index()
	if idx < 0 {
		return decimal.Zero
	}
	return s[idx]
}

// ParseMetric parses one stored value. NULL, blank and non-numeric values
// (including NaN and infinities) are rejected.
func ParseMetric(raw *string) (decimal.Decimal, bool) {
	if raw == nil {
		return decimal.Zero, false
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return decimal.Zero, false
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, false
	}
	return parsed, true
}

// ParseMetricSet parses every metric and reports whether all of them were valid.
func ParseMetricSet(raw RawMetricSet) (MetricSet, bool) {
	var parsed MetricSet
	for i, value := range raw {
		d, ok := ParseMetric(value)
		if !ok {
			return MetricSet{}, false
		}
		parsed[i] = d
	}
	return parsed, true
}

// IsValidMetricSet reports whether every metric in the set parses as a finite decimal.
func IsValidMetricSet(raw RawMetricSet) bool {
	_, ok := ParseMetricSet(raw)
	return ok
}
