package demoService

import (
	"context"
	"mime/multipart"

	"HelmetGuard/internal/entity"
	"HelmetGuard/pkg/detector"
	"HelmetGuard/pkg/metrics"
	"HelmetGuard/pkg/redis"
	websocketPkg "HelmetGuard/pkg/websocket"

	"github.com/sirupsen/logrus"
)

type IDemoService interface {
	Detect(ctx context.Context, sessionID string, file *multipart.FileHeader) (*entity.DetectionResult, error)
	Latest(ctx context.Context, sessionID string) (*entity.DetectionResult, error)
	ProcessVideo(ctx context.Context, sessionID string, file *multipart.FileHeader) (*entity.VideoProcessingStatus, error)
	FetchResult(ctx context.Context, path string) (*detector.ResultFile, error)
	Endpoint(name string) (websocketPkg.Endpoint, bool)
	OpenStream(ctx context.Context, sessionID, name string, src websocketPkg.FrameSource) (*websocketPkg.Session, error)
	CloseStreams()
}

type StreamConfig struct {
	BaseURL   string
	Endpoints map[string]websocketPkg.Endpoint
	MaxFPS    int
}

type demoService struct {
	log      *logrus.Logger
	detector detector.IDetector
	store    redis.IResultStore
	metrics  *metrics.Metrics
	guard    *uploadGuard
	streams  StreamConfig
	registry *websocketPkg.Registry
}

func New(
	log *logrus.Logger,
	detector detector.IDetector,
	store redis.IResultStore,
	metrics *metrics.Metrics,
	streams StreamConfig,
) IDemoService {
	if streams.Endpoints == nil {
		streams.Endpoints = websocketPkg.DefaultEndpoints()
	}

	return &demoService{
		log:      log,
		detector: detector,
		store:    store,
		metrics:  metrics,
		guard:    newUploadGuard(),
		streams:  streams,
		registry: websocketPkg.NewRegistry(),
	}
}
