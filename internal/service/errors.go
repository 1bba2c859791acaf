package service

import (
	"context"
	"errors"
	"fmt"

	"go-exam-scanner/internal/capture"
	"go-exam-scanner/internal/collector"
	apperrors "go-exam-scanner/internal/errors"
	"go-exam-scanner/internal/normalizer"
	"go-exam-scanner/internal/repository"
	"go-exam-scanner/internal/roster"
	"go-exam-scanner/internal/storage"
	"go-exam-scanner/internal/tracker"
	"go-exam-scanner/internal/verify"
)

// toAppError maps package errors onto the application taxonomy. AppErrors
// pass through unchanged.
func toAppError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}

	var decodeErr *normalizer.DecodeError
	var cropErr *normalizer.InvalidCropError
	var captureErr *capture.ValidationError
	var columnsErr *roster.MissingColumnsError

	switch {
	case errors.As(err, &decodeErr):
		return apperrors.NewDecodeError("image could not be decoded", err)
	case errors.As(err, &cropErr):
		return apperrors.NewInvalidCropError("crop region too small", err).WithDetails(fmt.Sprintf(
			"requested %dx%d at %d,%d, clamped to %dx%d at %d,%d, minimum %d",
			cropErr.Requested.Width, cropErr.Requested.Height, cropErr.Requested.X, cropErr.Requested.Y,
			cropErr.Clamped.Width, cropErr.Clamped.Height, cropErr.Clamped.X, cropErr.Clamped.Y,
			cropErr.Minimum))
	case errors.As(err, &captureErr):
		return apperrors.NewValidationError("invalid image upload", err)
	case errors.As(err, &columnsErr),
		errors.Is(err, roster.ErrNoDataRows),
		errors.Is(err, roster.ErrNoValidRows):
		return apperrors.NewValidationError("invalid roster", err)
	case errors.Is(err, tracker.ErrStudentNotFound),
		errors.Is(err, collector.ErrNoSession),
		errors.Is(err, collector.ErrPageNotFound),
		errors.Is(err, storage.ErrNotFound):
		return apperrors.NewNotFoundError(err.Error(), err)
	case errors.Is(err, tracker.ErrStudentAbsent),
		errors.Is(err, collector.ErrSessionFinalized):
		return apperrors.NewConflictError(err.Error(), err)
	case errors.Is(err, collector.ErrEmptySession),
		errors.Is(err, tracker.ErrInvalidStatus),
		errors.Is(err, tracker.ErrDuplicateID),
		errors.Is(err, verify.ErrNothingToVerify):
		return apperrors.NewValidationError(err.Error(), err)
	case errors.Is(err, repository.ErrRepositoryUnavailable):
		return apperrors.NewValidationError("no records backend configured", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("operation timed out", err)
	default:
		return apperrors.NewInternalError("unexpected failure", err)
	}
}
