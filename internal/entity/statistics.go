package entity

type WeeklyStatistics struct {
	Labels        []string  `json:"labels" yaml:"labels"`
	WithHelmet    []float64 `json:"with_helmet" yaml:"with_helmet"`
	WithoutHelmet []float64 `json:"without_helmet" yaml:"without_helmet"`
}

type StatisticsSummary struct {
	TotalDetections         int     `json:"total_detections" yaml:"total_detections"`
	TotalIncrease           float64 `json:"total_increase" yaml:"total_increase"`
	WithoutHelmet           int     `json:"without_helmet" yaml:"without_helmet"`
	WithoutHelmetPercentage float64 `json:"without_helmet_percentage" yaml:"without_helmet_percentage"`
	WithHelmet              int     `json:"with_helmet" yaml:"with_helmet"`
	WithHelmetPercentage    float64 `json:"with_helmet_percentage" yaml:"with_helmet_percentage"`
	Accuracy                float64 `json:"accuracy" yaml:"accuracy"`
	AccuracyIncrease        float64 `json:"accuracy_increase" yaml:"accuracy_increase"`
	FalsePositive           float64 `json:"false_positive" yaml:"false_positive"`
	FalseNegative           float64 `json:"false_negative" yaml:"false_negative"`
}
