package demo

import (
	"net/http"

	"HelmetGuard/pkg/response"
)

var (
	ErrUploadInProgress = response.NewError(http.StatusConflict, "another upload is still in progress")
	ErrUnknownEndpoint  = response.NewError(http.StatusNotFound, "unknown stream endpoint")
	ErrStreamFailed     = response.NewError(http.StatusBadGateway, "failed to open stream")
	ErrNoSession        = response.NewError(http.StatusBadRequest, "missing browser session")
)
