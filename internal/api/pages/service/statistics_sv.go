package pagesService

import (
	"sort"

	"HelmetGuard/internal/api/pages"
	"HelmetGuard/internal/entity"
	"HelmetGuard/pkg/chart"

	"github.com/sirupsen/logrus"
)

const (
	helmetColor   = "#4CAF50"
	noHelmetColor = "#F44336"
)

func (s *pagesService) Summary() entity.StatisticsSummary {
	return s.content.Statistics.Summary
}

// Ranges lists the configured ranges with the default one first.
func (s *pagesService) Ranges() []pages.RangeTab {
	tabs := make([]pages.RangeTab, 0, len(s.content.Statistics.Ranges))
	for name, r := range s.content.Statistics.Ranges {
		tabs = append(tabs, pages.RangeTab{Name: name, Title: r.Title})
	}
	sort.Slice(tabs, func(i, j int) bool {
		if tabs[i].Name == pages.DefaultRange {
			return true
		}
		if tabs[j].Name == pages.DefaultRange {
			return false
		}
		return tabs[i].Name < tabs[j].Name
	})
	return tabs
}

func (s *pagesService) Statistics(rangeName string) (*pages.StatisticsResponse, error) {
	name, data, err := s.lookup(rangeName)
	if err != nil {
		return nil, err
	}

	return &pages.StatisticsResponse{
		Range:   name,
		Weekly:  data,
		Summary: s.content.Statistics.Summary,
	}, nil
}

// Chart draws the dataset for the requested size. Sizes are clamped and the
// layout is recomputed every call, so each size gets its own redraw.
func (s *pagesService) Chart(rangeName string, width, height int) ([]byte, error) {
	name, data, err := s.lookup(rangeName)
	if err != nil {
		return nil, err
	}

	width, height = chart.ClampSize(width, height)

	png, err := chart.Render(chart.LineChart{
		Labels: data.Labels,
		Series: []chart.Series{
			{Name: s.content.Statistics.HelmetSeries, Values: data.WithHelmet, Color: helmetColor, Fill: true},
			{Name: s.content.Statistics.NoHelmetSeries, Values: data.WithoutHelmet, Color: noHelmetColor, Fill: true},
		},
	}, width, height)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"range":  name,
			"width":  width,
			"height": height,
			"error":  err.Error(),
		}).Error("Failed to render statistics chart")
		return nil, pages.ErrChartFailed
	}

	s.metrics.ChartRendered()
	return png, nil
}

func (s *pagesService) lookup(rangeName string) (string, entity.WeeklyStatistics, error) {
	if rangeName == "" {
		rangeName = pages.DefaultRange
	}

	r, ok := s.content.Statistics.Ranges[rangeName]
	if !ok {
		return "", entity.WeeklyStatistics{}, pages.ErrUnknownRange
	}
	return rangeName, r.WeeklyStatistics, nil
}
