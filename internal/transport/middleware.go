package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "go-exam-scanner/internal/errors"
	"go-exam-scanner/internal/logger"
	"go-exam-scanner/pkg/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Detector", "X-Region"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":             c.Request.Method,
			"path":               c.Request.URL.Path,
			"status_code":        c.Writer.Status(),
			"ip":                 c.ClientIP(),
			"processing_time_ms": time.Since(start).Milliseconds(),
		}
		if id := c.Param("id"); id != "" {
			fields["student_id"] = id
		}
		logger.WithFields(fields).Info("Request completed")
	}
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, err.Err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	if appErr, ok := apperrors.As(err); ok {
		return appErr.StatusCode
	}

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	code := determineStatusCode(err)
	resp := models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: err.Error(),
	}
	if appErr, ok := apperrors.As(err); ok {
		resp.Type = string(appErr.Type)
		resp.Message = appErr.Message
		resp.Details = appErr.Details
	}

	entry := logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, resp)
}

func badRequest(c *gin.Context, message string, err error) {
	respondError(c, apperrors.NewValidationError(message, err))
}

func contentDisposition(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}
