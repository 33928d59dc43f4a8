package demoService

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"HelmetGuard/internal/api/demo"
	"HelmetGuard/internal/entity"
	"HelmetGuard/pkg/detector"
	"HelmetGuard/pkg/redis"

	"github.com/sirupsen/logrus"
)

// Detect uploads one image. Only a successful detection replaces the stored
// result, so a failure leaves the previous one on the page.
func (s *demoService) Detect(ctx context.Context, sessionID string, file *multipart.FileHeader) (*entity.DetectionResult, error) {
	if sessionID == "" {
		return nil, demo.ErrNoSession
	}

	release, err := s.guard.acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	start := time.Now()
	result, err := s.detector.Detect(ctx, file.Filename, f)
	s.metrics.ObserveBackend("detect", start)
	s.metrics.Upload("image", err)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"file_name":  file.Filename,
			"error":      err.Error(),
		}).Warn("Detection request failed")
		return nil, err
	}

	if err := s.store.SetLatest(ctx, sessionID, result); err != nil {
		s.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Error("Failed to store detection result")
	}

	s.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"helmet":     result.CountStatus(entity.HelmetStatus),
		"no_helmet":  result.CountStatus(entity.NoHelmetStatus),
	}).Info("Detection completed")

	return result, nil
}

func (s *demoService) Latest(ctx context.Context, sessionID string) (*entity.DetectionResult, error) {
	if sessionID == "" {
		return nil, nil
	}

	result, err := s.store.GetLatest(ctx, sessionID)
	if errors.Is(err, redis.ErrResultNotFound) {
		return nil, nil
	}
	return result, err
}

func (s *demoService) FetchResult(ctx context.Context, path string) (*detector.ResultFile, error) {
	start := time.Now()
	file, err := s.detector.FetchResult(ctx, path)
	s.metrics.ObserveBackend("result", start)
	return file, err
}
