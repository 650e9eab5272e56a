package dto

import "time"

// MetricAverage is the class average of one metric for pre and post tests.
type MetricAverage struct {
	Metric string  `json:"metric"`
	Label  string  `json:"label"`
	Pre    *string `json:"pre"`
	Post   *string `json:"post"`
}

// ClassAnalyticsResponse summarises a section's latest valid test results.
type ClassAnalyticsResponse struct {
	Section          string          `json:"section"`
	StudentCount     int             `json:"student_count"`
	StudentsWithPre  int             `json:"students_with_pre"`
	StudentsWithPost int             `json:"students_with_post"`
	Averages         []MetricAverage `json:"averages"`
	Chart            ChartResponse   `json:"chart"`
	GeneratedAt      time.Time       `json:"generated_at"`
	CacheHit         bool            `json:"cache_hit"`
}
