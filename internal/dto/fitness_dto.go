package dto

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/fitness-tracker-api/internal/fitness"
	"github.com/noah-isme/fitness-tracker-api/internal/models"
)

// TestEntryRequest is the payload for a pre- or post-test submission. Height
// and weight are only used to derive the body-mass-index.
type TestEntryRequest struct {
	HeightCM    *decimal.Decimal `json:"height_cm" validate:"required,gte=1,lte=999.99"`
	WeightKG    *decimal.Decimal `json:"weight_kg" validate:"required,gte=1,lte=999.99"`
	VO2Max      *decimal.Decimal `json:"vo2_max" validate:"required,gte=0,lte=999.99"`
	Flexibility *decimal.Decimal `json:"flexibility" validate:"required,gte=0,lte=999.99"`
	Strength    *decimal.Decimal `json:"strength" validate:"required,gte=0,lte=999.99"`
	Agility     *decimal.Decimal `json:"agility" validate:"required,gte=0,lte=999.99"`
	Speed       *decimal.Decimal `json:"speed" validate:"required,gte=0,lte=999.99"`
	Endurance   *decimal.Decimal `json:"endurance" validate:"required,gte=0,lte=999.99"`

	// Malformed holds metrics whose raw value was not a number, keyed by JSON name.
	Malformed map[string]string `json:"-" validate:"-"`
}

// MessageNotANumber is reported for metric values that do not parse.
const MessageNotANumber = "Enter a number."

// UnmarshalJSON accepts metrics as JSON numbers or numeric strings. Values
// that do not parse are recorded in Malformed instead of failing the decode.
func (r *TestEntryRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = TestEntryRequest{}
	targets := []struct {
		name   string
		target **decimal.Decimal
	}{
		{"height_cm", &r.HeightCM},
		{"weight_kg", &r.WeightKG},
		{"vo2_max", &r.VO2Max},
		{"flexibility", &r.Flexibility},
		{"strength", &r.Strength},
		{"agility", &r.Agility},
		{"speed", &r.Speed},
		{"endurance", &r.Endurance},
	}
	for _, item := range targets {
		value, ok := raw[item.name]
		if !ok {
			continue
		}
		parsed, valid := decodeMetric(value)
		if !valid {
			if r.Malformed == nil {
				r.Malformed = map[string]string{}
			}
			r.Malformed[item.name] = MessageNotANumber
			continue
		}
		*item.target = parsed
	}
	return nil
}

// decodeMetric returns nil for null or blank values so required rules apply.
func decodeMetric(value json.RawMessage) (*decimal.Decimal, bool) {
	value = bytes.TrimSpace(value)
	if len(value) == 0 || bytes.Equal(value, []byte("null")) {
		return nil, true
	}

	text := string(value)
	if value[0] == '"' {
		if err := json.Unmarshal(value, &text); err != nil {
			return nil, false
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, true
		}
	}

	parsed, err := decimal.NewFromString(text)
	if err != nil {
		return nil, false
	}
	return &parsed, true
}

// FitnessEntryResponse serializes a stored test entry. Metrics are rendered
// with two decimal places.
type FitnessEntryResponse struct {
	ID            uint      `json:"id"`
	TestType      string    `json:"test_type"`
	TestTypeLabel string    `json:"test_type_label"`
	BMI           string    `json:"bmi"`
	VO2Max        string    `json:"vo2_max"`
	Flexibility   string    `json:"flexibility"`
	Strength      string    `json:"strength"`
	Agility       string    `json:"agility"`
	Speed         string    `json:"speed"`
	Endurance     string    `json:"endurance"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewFitnessEntryResponse converts an entry model into a DTO.
func NewFitnessEntryResponse(entry models.FitnessTestEntry) FitnessEntryResponse {
	return FitnessEntryResponse{
		ID:            entry.ID,
		TestType:      entry.TestType,
		TestTypeLabel: models.TestTypeLabel(entry.TestType),
		BMI:           FormatMetric(entry.BMI),
		VO2Max:        FormatMetric(entry.VO2Max),
		Flexibility:   FormatMetric(entry.Flexibility),
		Strength:      FormatMetric(entry.Strength),
		Agility:       FormatMetric(entry.Agility),
		Speed:         FormatMetric(entry.Speed),
		Endurance:     FormatMetric(entry.Endurance),
		CreatedAt:     entry.CreatedAt,
		UpdatedAt:     entry.UpdatedAt,
	}
}

// NewFitnessEntryResponsePtr converts an optional entry.
func NewFitnessEntryResponsePtr(entry *models.FitnessTestEntry) *FitnessEntryResponse {
	if entry == nil {
		return nil
	}
	response := NewFitnessEntryResponse(*entry)
	return &response
}

// NewFitnessEntryResponses converts a list of entries.
func NewFitnessEntryResponses(entries []models.FitnessTestEntry) []FitnessEntryResponse {
	responses := make([]FitnessEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, NewFitnessEntryResponse(entry))
	}
	return responses
}

// FormatMetric renders a metric with two decimal places.
func FormatMetric(value decimal.Decimal) string {
	return value.StringFixed(2)
}

// FormatOptionalMetric renders an optional metric, keeping nil for absent values.
func FormatOptionalMetric(value *decimal.Decimal) *string {
	if value == nil {
		return nil
	}
	formatted := FormatMetric(*value)
	return &formatted
}

// EntryInitialValues pre-fills the entry form. BMI is derived, so it is never pre-filled.
type EntryInitialValues struct {
	VO2Max      string `json:"vo2_max"`
	Flexibility string `json:"flexibility"`
	Strength    string `json:"strength"`
	Agility     string `json:"agility"`
	Speed       string `json:"speed"`
	Endurance   string `json:"endurance"`
}

// NewEntryInitialValues builds form initial values from an optional entry.
func NewEntryInitialValues(entry *models.FitnessTestEntry) *EntryInitialValues {
	if entry == nil {
		return nil
	}
	return &EntryInitialValues{
		VO2Max:      FormatMetric(entry.VO2Max),
		Flexibility: FormatMetric(entry.Flexibility),
		Strength:    FormatMetric(entry.Strength),
		Agility:     FormatMetric(entry.Agility),
		Speed:       FormatMetric(entry.Speed),
		Endurance:   FormatMetric(entry.Endurance),
	}
}

// EntryFormRequest selects the active tab of the combined entry form.
type EntryFormRequest struct {
	Tab string
	New string
}

// EntryFormResponse describes the state of the combined pre/post entry form.
type EntryFormResponse struct {
	ActiveTab   string              `json:"active_tab"`
	NewPost     bool                `json:"new_post"`
	PreInitial  *EntryInitialValues `json:"pre_initial"`
	PostInitial *EntryInitialValues `json:"post_initial"`
}

// ChartBar is one metric of the pre/post comparison chart.
type ChartBar struct {
	Metric     string  `json:"metric"`
	Label      string  `json:"label"`
	PreValue   *string `json:"pre_value"`
	PostValue  *string `json:"post_value"`
	PreHeight  int     `json:"pre_height"`
	PostHeight int     `json:"post_height"`
	Max        string  `json:"max"`
}

// ChartResponse carries bar heights already scaled to the chart height.
type ChartResponse struct {
	Height int        `json:"height"`
	Bars   []ChartBar `json:"bars"`
}

// NewChartResponse converts scaled bars into a DTO. pre and post supply the raw values.
func NewChartResponse(height int, bars []fitness.Bar, pre, post *fitness.MetricSet) ChartResponse {
	response := ChartResponse{Height: height, Bars: make([]ChartBar, 0, len(bars))}
	for _, bar := range bars {
		response.Bars = append(response.Bars, ChartBar{
			Metric:     string(bar.Metric),
			Label:      bar.Metric.Label(),
			PreValue:   MetricFromSet(pre, bar.Metric),
			PostValue:  MetricFromSet(post, bar.Metric),
			PreHeight:  bar.Pre,
			PostHeight: bar.Post,
			Max:        FormatMetric(bar.Max),
		})
	}
	return response
}

// MetricComparison reports pre, post and the change for one metric.
type MetricComparison struct {
	Metric string  `json:"metric"`
	Label  string  `json:"label"`
	Pre    *string `json:"pre"`
	Post   *string `json:"post"`
	Change *string `json:"change"`
}

// NewMetricComparisons compares every metric across two optional sets.
func NewMetricComparisons(pre, post *fitness.MetricSet) []MetricComparison {
	comparisons := make([]MetricComparison, 0, fitness.MetricCount)
	for _, metric := range fitness.AllMetrics {
		comparison := MetricComparison{
			Metric: string(metric),
			Label:  metric.Label(),
			Pre:    MetricFromSet(pre, metric),
			Post:   MetricFromSet(post, metric),
		}
		if pre != nil && post != nil {
			change := FormatMetric(post.Get(metric).Sub(pre.Get(metric)))
			comparison.Change = &change
		}
		comparisons = append(comparisons, comparison)
	}
	return comparisons
}

// MetricFromSet formats one metric of an optional set, nil when the set is absent.
func MetricFromSet(set *fitness.MetricSet, metric fitness.Metric) *string {
	if set == nil {
		return nil
	}
	value := set.Get(metric)
	return FormatOptionalMetric(&value)
}
