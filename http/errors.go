package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"

	"ticketmarket/entity"
)

type errorResponse struct {
	Message string `json:"message"`
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{entity.ErrBadRequest, http.StatusBadRequest},
	{entity.ErrUnauthorized, http.StatusUnauthorized},
	{entity.ErrForbidden, http.StatusForbidden},
	{entity.ErrNotFound, http.StatusNotFound},
	{entity.ErrConflict, http.StatusConflict},
	{entity.ErrExpired, http.StatusGone},
	{entity.ErrUpstreamUnavailable, http.StatusServiceUnavailable},
}

func statusFromError(err error) int {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	for _, es := range errorStatuses {
		if errors.Is(err, es.err) {
			return es.status
		}
	}

	return http.StatusInternalServerError
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := statusFromError(err)
	message := err.Error()

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message = fmt.Sprint(httpErr.Message)
	}

	logger := log.FromContext(c.Request().Context()).
		WithError(err).
		WithField("status", status).
		WithField("path", c.Path())

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed")
		message = http.StatusText(status)
	} else {
		logger.Debug("Request rejected")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, errorResponse{Message: message})
	}
	if err != nil {
		logger.WithError(err).Error("Could not write error response")
	}
}
