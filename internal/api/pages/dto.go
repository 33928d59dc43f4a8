package pages

import (
	"HelmetGuard/internal/entity"
	"HelmetGuard/internal/views"
	"HelmetGuard/pkg/content"
)

const DefaultRange = "weekly"

type ChartQuery struct {
	Range  string `query:"range" validate:"omitempty,alphanum,max=32"`
	Width  int    `query:"width"`
	Height int    `query:"height"`
}

type StatisticsQuery struct {
	Range string `query:"range" validate:"omitempty,alphanum,max=32"`
}

type StatisticsResponse struct {
	Range   string                   `json:"range"`
	Weekly  entity.WeeklyStatistics  `json:"data"`
	Summary entity.StatisticsSummary `json:"summary"`
}

type RangeTab struct {
	Name  string
	Title string
}

type HomePage struct {
	views.Page
	Home content.Home
}

type AboutPage struct {
	views.Page
	About content.About
}

type StatisticsPage struct {
	views.Page
	Statistics content.Statistics
	Summary    entity.StatisticsSummary
	Range      string
	Ranges     []RangeTab
}
