package strategy

import (
	"go-exam-scanner/internal/normalizer"
)

// NormalizeStrategy turns a decoded capture into a page image
type NormalizeStrategy interface {
	Normalize(img normalizer.RawImage) (normalizer.NormalizedImage, error)
	GetStrategyName() string
}

// AutoStrategy corrects exposure and crops to the detected sheet
type AutoStrategy struct {
	normalizer *normalizer.Normalizer
}

// NewAutoStrategy creates a new automatic normalization strategy
func NewAutoStrategy(n *normalizer.Normalizer) NormalizeStrategy {
	return &AutoStrategy{normalizer: n}
}

func (s *AutoStrategy) Normalize(img normalizer.RawImage) (normalizer.NormalizedImage, error) {
	return s.normalizer.AutoNormalize(img)
}

// GetStrategyName returns the strategy name
func (s *AutoStrategy) GetStrategyName() string {
	return "auto"
}

// ManualCropStrategy cuts an operator-chosen rectangle without correction
type ManualCropStrategy struct {
	normalizer *normalizer.Normalizer
	request    normalizer.CropRequest
}

// NewManualCropStrategy creates a new manual crop strategy
func NewManualCropStrategy(n *normalizer.Normalizer, req normalizer.CropRequest) NormalizeStrategy {
	return &ManualCropStrategy{normalizer: n, request: req}
}

func (s *ManualCropStrategy) Normalize(img normalizer.RawImage) (normalizer.NormalizedImage, error) {
	return s.normalizer.ManualCrop(img, s.request)
}

// GetStrategyName returns the strategy name
func (s *ManualCropStrategy) GetStrategyName() string {
	return "manual"
}

// ForRequest picks the manual strategy when a crop is given.
func ForRequest(n *normalizer.Normalizer, crop *normalizer.CropRequest) NormalizeStrategy {
	if crop != nil {
		return NewManualCropStrategy(n, *crop)
	}
	return NewAutoStrategy(n)
}
