// Package backend talks to the remote student records API. Every failure
// is mapped to an application error so callers can branch on its type:
// transport failures are network errors, 404 is not_found, 5xx is server
// and any other non-2xx status is a validation error carrying the
// backend's message. Nothing is retried.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "go-exam-scanner/internal/errors"
	"go-exam-scanner/internal/logger"
	"go-exam-scanner/pkg/validation"

	"github.com/sirupsen/logrus"
)

const maxErrorBody = 64 << 10

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient validates baseURL (including any path prefix such as /api).
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := validation.NewURLValidator().ValidateEndpoint(baseURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build backend request", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doJSON sends payload (if any) as JSON and decodes a 2xx response into out
// (if non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return apperrors.NewInternalError("failed to encode backend request", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"method": req.Method,
			"path":   req.URL.Path,
		}).Warn("Backend request failed")
		return apperrors.NewNetworkError("backend unreachable", err)
	}
	defer resp.Body.Close()

	logger.WithFields(logrus.Fields{
		"method":             req.Method,
		"path":               req.URL.Path,
		"status_code":        resp.StatusCode,
		"processing_time_ms": time.Since(start).Milliseconds(),
	}).Debug("Backend request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewServerError("backend returned a malformed response", err)
	}
	return nil
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// responseError maps a non-2xx response to an AppError.
func responseError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var eb errorBody
	msg := ""
	if json.Unmarshal(raw, &eb) == nil {
		msg = eb.Message
		if msg == "" {
			msg = eb.Error
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	cause := fmt.Errorf("backend status %d", resp.StatusCode)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NewNotFoundError(msg, cause)
	case resp.StatusCode >= 500:
		return apperrors.NewServerError(msg, cause)
	default:
		return apperrors.NewValidationError(msg, cause)
	}
}
