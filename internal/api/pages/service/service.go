package pagesService

import (
	"HelmetGuard/internal/api/pages"
	"HelmetGuard/internal/entity"
	"HelmetGuard/pkg/content"
	"HelmetGuard/pkg/metrics"

	"github.com/sirupsen/logrus"
)

type IPagesService interface {
	Content() *content.Content
	Ranges() []pages.RangeTab
	Statistics(rangeName string) (*pages.StatisticsResponse, error)
	Chart(rangeName string, width, height int) ([]byte, error)
	Summary() entity.StatisticsSummary
}

type pagesService struct {
	log     *logrus.Logger
	content *content.Content
	metrics *metrics.Metrics
}

func New(log *logrus.Logger, c *content.Content, m *metrics.Metrics) IPagesService {
	return &pagesService{
		log:     log,
		content: c,
		metrics: m,
	}
}

func (s *pagesService) Content() *content.Content {
	return s.content
}
