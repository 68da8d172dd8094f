package handler

import (
	"context"
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/vehicle-tracker-go/internal/history"
	"github.com/jengzang/vehicle-tracker-go/internal/service"
	"github.com/jengzang/vehicle-tracker-go/internal/trace"
	"github.com/jengzang/vehicle-tracker-go/pkg/response"
)

// badRequest reports whether err was caused by the caller's parameters
func badRequest(err error) bool {
	return history.IsInvalidInput(err) ||
		errors.Is(err, service.ErrInvalidQuery) ||
		errors.Is(err, trace.ErrInvalidRadius) ||
		errors.Is(err, trace.ErrInvalidCenter) ||
		errors.Is(err, trace.ErrMatchOutOfRange)
}

// writeError maps service errors to the response envelope
func writeError(c *gin.Context, err error) {
	switch {
	case badRequest(err):
		response.BadRequest(c, err.Error())
	case errors.Is(err, history.ErrStorageUnavailable):
		log.Printf("[API] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		response.ServiceUnavailable(c, "storage unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.ServiceUnavailable(c, "request cancelled")
	default:
		log.Printf("[API] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		response.InternalError(c, err.Error())
	}
}
