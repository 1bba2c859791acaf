package capture

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "go-exam-scanner/internal/errors"
	"go-exam-scanner/pkg/validation"
)

// URLSource fetches a snapshot from a network camera or phone app exposing
// an HTTP still endpoint. Each Acquire is a single attempt; retrying is up
// to the operator.
type URLSource struct {
	url     string
	maxSize int64
	client  *http.Client
}

// URLSourceOptions tunes the HTTP client.
type URLSourceOptions struct {
	Timeout time.Duration
	MaxSize int64
	// Phone camera apps usually serve self-signed certificates.
	InsecureTLS bool
}

// NewURLSource validates rawURL and builds a source for it.
func NewURLSource(rawURL string, opts URLSourceOptions) (*URLSource, error) {
	u, err := validation.NewURLValidator().ValidateEndpoint(rawURL)
	if err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		MaxResponseHeaderBytes: 4096,
	}
	if opts.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &URLSource{
		url:     u.String(),
		maxSize: opts.MaxSize,
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
	}, nil
}

func (s *URLSource) Acquire(ctx context.Context) (Frame, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Frame{}, apperrors.NewValidationError("invalid camera URL", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, */*")
	req.Header.Set("User-Agent", "exam-scanner/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Frame{}, ctx.Err()
		}
		return Frame{}, apperrors.NewNetworkError("camera unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Frame{}, apperrors.NewNotFoundError("camera snapshot endpoint not found", nil)
	case resp.StatusCode >= 500:
		return Frame{}, apperrors.NewServerError(fmt.Sprintf("camera returned status %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return Frame{}, apperrors.NewValidationError(fmt.Sprintf("camera returned status %d", resp.StatusCode), nil)
	}

	limit := s.maxSize
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return Frame{}, apperrors.NewNetworkError("reading camera response", err)
	}
	return newFrame(data, s.url, limit)
}
