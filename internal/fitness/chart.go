package fitness

import "github.com/shopspring/decimal"

// DefaultChartHeight is the pixel ceiling used for comparison bars.
const DefaultChartHeight = 160

// ChartMetrics are the metrics drawn on the pre/post comparison chart.
var ChartMetrics = []Metric{MetricBMI, MetricVO2Max, MetricStrength, MetricEndurance}

// Bar holds the scaled pre and post heights for one metric.
type Bar struct {
	Metric Metric
	Pre    int
	Post   int
	Max    decimal.Decimal
}

// ScaleMax returns the largest present value, or 1 when nothing positive was observed.
func ScaleMax(values ...*decimal.Decimal) decimal.Decimal {
	max := decimal.Zero
	for _, value := range values {
		if value != nil && value.GreaterThan(max) {
			max = *value
		}
	}
	if max.IsZero() {
		return decimal.NewFromInt(1)
	}
	return max
}

// BarHeight computes floor(value / max * chartHeight). Absent values scale to 0.
func BarHeight(value *decimal.Decimal, max decimal.Decimal, chartHeight int) int {
	if value == nil || !max.IsPositive() || chartHeight <= 0 {
		return 0
	}
	height := value.Mul(decimal.NewFromInt(int64(chartHeight))).Div(max).Floor().IntPart()
	if height < 0 {
		return 0
	}
	return int(height)
}

// ScalePair scales a pre/post pair against their shared maximum.
func ScalePair(metric Metric, pre, post *decimal.Decimal, chartHeight int) Bar {
	max := ScaleMax(pre, post)
	return Bar{
		Metric: metric,
		Pre:    BarHeight(pre, max, chartHeight),
		Post:   BarHeight(post, max, chartHeight),
		Max:    max,
	}
}

// ComparisonBars builds the chart bars for two optional metric sets.
func ComparisonBars(pre, post *MetricSet, chartHeight int) []Bar {
	if chartHeight <= 0 {
		chartHeight = DefaultChartHeight
	}

	bars := make([]Bar, 0, len(ChartMetrics))
	for _, metric := range ChartMetrics {
		bars = append(bars, ScalePair(metric, metricValue(pre, metric), metricValue(post, metric), chartHeight))
	}
	return bars
}

func metricValue(set *MetricSet, metric Metric) *decimal.Decimal {
	if set == nil {
		return nil
	}
	value := set.Get(metric)
	return &value
}
