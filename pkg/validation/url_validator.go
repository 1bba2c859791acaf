package validation

import (
	"net/url"
	"strings"

	apperrors "go-exam-scanner/internal/errors"
)

// URLValidator checks endpoints the service talks to: camera snapshot URLs
// and the records backend.
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator creates a new URL validator with default settings
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{"http", "https"},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewURLValidatorWithOptions creates a URL validator with custom options
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateEndpoint parses rawURL and checks scheme and host. Credentials
// embedded in the URL are rejected so they never reach the logs.
func (v *URLValidator) ValidateEndpoint(rawURL string) (*url.URL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid URL format", err)
	}

	if !v.isSchemeAllowed(strings.ToLower(parsedURL.Scheme)) {
		return nil, apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	if parsedURL.Hostname() == "" {
		return nil, apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if parsedURL.User != nil {
		return nil, apperrors.NewValidationError("URL must not contain credentials", nil)
	}

	if !v.isHostAllowed(parsedURL.Hostname()) {
		return nil, apperrors.NewValidationError("URL host not allowed", nil)
	}

	return parsedURL, nil
}

func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isHostAllowed returns true if no host restrictions are set
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if strings.EqualFold(host, allowed) {
			return true
		}
	}
	return false
}
