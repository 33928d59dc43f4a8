package pages

import (
	"net/http"

	"HelmetGuard/pkg/response"
)

var (
	ErrUnknownRange = response.NewError(http.StatusNotFound, "unknown statistics range")
	ErrChartFailed  = response.NewError(http.StatusInternalServerError, "failed to render chart")
)
