package models

import (
	"go-exam-scanner/internal/normalizer"
	"go-exam-scanner/internal/verify"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

// StatusUpdateRequest changes attendance and, when present, the remark
type StatusUpdateRequest struct {
	Status string  `json:"status" binding:"required"`
	Remark *string `json:"remark,omitempty"`
}

// CropFields binds the optional manual crop of a page upload
type CropFields struct {
	X      *int `form:"x" json:"x,omitempty"`
	Y      *int `form:"y" json:"y,omitempty"`
	Width  *int `form:"width" json:"width,omitempty"`
	Height *int `form:"height" json:"height,omitempty"`
}

// Request returns nil unless width and height are both given.
func (c CropFields) Request() *normalizer.CropRequest {
	if c.Width == nil || c.Height == nil {
		return nil
	}
	req := normalizer.CropRequest{Width: *c.Width, Height: *c.Height}
	if c.X != nil {
		req.X = *c.X
	}
	if c.Y != nil {
		req.Y = *c.Y
	}
	return &req
}

// VerifyRequest carries the expectation for a standalone OCR check
type VerifyRequest struct {
	RollNumber  string `form:"roll_number" json:"roll_number"`
	SubjectName string `form:"subject_name" json:"subject_name"`
}

func (v VerifyRequest) Expectation() verify.Expectation {
	return verify.Expectation{RollNumber: v.RollNumber, SubjectName: v.SubjectName}
}
