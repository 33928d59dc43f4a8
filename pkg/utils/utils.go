package utils

import (
	"crypto/rand"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"HelmetGuard/pkg/response"

	"github.com/oklog/ulid/v2"
)

var (
	ErrNoFile          = response.NewError(http.StatusBadRequest, "no file uploaded")
	ErrFileTooLarge    = response.NewError(http.StatusRequestEntityTooLarge, "file size exceeds limit")
	ErrInvalidFileType = response.NewError(http.StatusUnsupportedMediaType, "unsupported file type")
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateImageFile(file *multipart.FileHeader) error
	ValidateVideoFile(file *multipart.FileHeader) error
}

type utils struct {
	maxImageSize int64
	maxVideoSize int64
}

func New() IUtils {
	return &utils{
		maxImageSize: 10 * 1024 * 1024,
		maxVideoSize: 200 * 1024 * 1024,
	}
}

func NewWithLimits(maxImageSize, maxVideoSize int64) IUtils {
	return &utils{
		maxImageSize: maxImageSize,
		maxVideoSize: maxVideoSize,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateImageFile(file *multipart.FileHeader) error {
	return validateUpload(file, u.maxImageSize, "image/")
}

func (u *utils) ValidateVideoFile(file *multipart.FileHeader) error {
	return validateUpload(file, u.maxVideoSize, "video/")
}

func validateUpload(file *multipart.FileHeader, limit int64, mediaPrefix string) error {
	if file == nil {
		return ErrNoFile
	}

	if file.Size == 0 {
		return ErrNoFile
	}

	if file.Size > limit {
		return ErrFileTooLarge
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, mediaPrefix) {
		return ErrInvalidFileType
	}

	return nil
}
