package types

// Metric is a float measurement that may be not applicable. Callers must
// check Valid before using Value; an invalid metric is missing data, not
// zero.
type Metric struct {
	Value float64
	Valid bool
}

// MetricOf returns a valid metric with the given value.
func MetricOf(v float64) Metric {
	return Metric{Value: v, Valid: true}
}

// NA returns a not-applicable metric.
func NA() Metric {
	return Metric{}
}

// Float64 returns the value and whether it is applicable.
func (m Metric) Float64() (float64, bool) {
	return m.Value, m.Valid
}
