package demoService

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"HelmetGuard/internal/api/demo"
	"HelmetGuard/internal/entity"
	"HelmetGuard/pkg/render"

	"github.com/sirupsen/logrus"
)

const (
	thumbnailWidth  = 320
	thumbnailHeight = 180
)

func (s *demoService) ProcessVideo(ctx context.Context, sessionID string, file *multipart.FileHeader) (*entity.VideoProcessingStatus, error) {
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
	status, err := s.detector.ProcessVideo(ctx, file.Filename, f)
	s.metrics.ObserveBackend("process-video", start)
	s.metrics.Upload("video", err)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"file_name":  file.Filename,
			"error":      err.Error(),
		}).Warn("Video processing request failed")
		return nil, err
	}

	if status.Thumbnail != "" {
		thumb, err := render.Thumbnail(status.Thumbnail, thumbnailWidth, thumbnailHeight)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"session_id": sessionID,
				"error":      err.Error(),
			}).Warn("Failed to shrink video thumbnail")
		} else {
			status.Thumbnail = thumb
		}
	}

	s.log.WithFields(logrus.Fields{
		"session_id":      sessionID,
		"success":         status.Success,
		"detection_count": status.DetectionCount,
		"output_path":     status.OutputPath,
	}).Info("Video processed")

	return status, nil
}
