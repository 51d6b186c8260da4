package dto

import "time"

// ErrorResponse represents a standardized error response.
// Kind tells the caller whether retrying the same request may succeed.
type ErrorResponse struct {
	Error     string    `json:"error" example:"No GPU capacity"`
	Message   string    `json:"message" example:"create deployment: no GPU capacity available"`
	Kind      string    `json:"kind,omitempty" example:"resource"`
	Retryable bool      `json:"retryable" example:"false"`
	Timestamp time.Time `json:"timestamp" example:"2025-01-18T12:34:56Z"`
}
