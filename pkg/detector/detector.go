package detector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"HelmetGuard/internal/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrInvalidResultPath = errors.New("invalid result path")
	ErrUnreachable       = errors.New("detection backend unreachable")
)

// BackendError is returned for any non-2xx answer. Its message is the raw
// response body so callers can show it unchanged.
type BackendError struct {
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	if e.Body == "" {
		return http.StatusText(e.StatusCode)
	}
	return e.Body
}

type IDetector interface {
	Detect(ctx context.Context, filename string, r io.Reader) (*entity.DetectionResult, error)
	ProcessVideo(ctx context.Context, filename string, r io.Reader) (*entity.VideoProcessingStatus, error)
	FetchResult(ctx context.Context, path string) (*ResultFile, error)
}

// ResultFile is a processed video streamed from the backend. Body must be closed.
type ResultFile struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type detectorClient struct {
	baseURL string
	client  *http.Client
	log     *logrus.Logger
}

func New(cfg Config, log *logrus.Logger) IDetector {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &detectorClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (d *detectorClient) Detect(ctx context.Context, filename string, r io.Reader) (*entity.DetectionResult, error) {
	resp, err := d.upload(ctx, "/detect", filename, r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result entity.DetectionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode detection result: %w", err)
	}
	result.Normalize()

	if result.Image == "" {
		d.log.WithField("file_name", filename).Warn("Detection result carries no annotated image")
	}

	return &result, nil
}

func (d *detectorClient) ProcessVideo(ctx context.Context, filename string, r io.Reader) (*entity.VideoProcessingStatus, error) {
	resp, err := d.upload(ctx, "/process-video", filename, r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var status entity.VideoProcessingStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode video status: %w", err)
	}

	return &status, nil
}

func (d *detectorClient) FetchResult(ctx context.Context, path string) (*ResultFile, error) {
	clean, err := cleanResultPath(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/result/"+clean, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build result request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return &ResultFile{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}

func (d *detectorClient) upload(ctx context.Context, endpoint, filename string, r io.Reader) (*http.Response, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	d.log.WithFields(logrus.Fields{
		"endpoint":  endpoint,
		"file_name": filename,
		"size":      body.Len(),
	}).Debug("Uploading file to detection backend")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	d.log.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"status":   resp.StatusCode,
	}).Debug("Detection backend responded")

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	text, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	return &BackendError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(text)),
	}
}

func cleanResultPath(p string) (string, error) {
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return "", ErrInvalidResultPath
	}

	segments := strings.Split(p, "/")
	for i, s := range segments {
		if s == ".." || s == "." || s == "" {
			return "", ErrInvalidResultPath
		}
		segments[i] = url.PathEscape(s)
	}

	return strings.Join(segments, "/"), nil
}
