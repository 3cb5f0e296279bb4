package models

// GenerateTextRequest is the body of POST /generate-text.
type GenerateTextRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateResponse is returned by both text and image generation.
type GenerateResponse struct {
	Result string `json:"result"`
}

type ModelListResponse struct {
	Models  map[string]string `json:"models"`
	Default string            `json:"default"`
}

// ErrorResponse is written for rejected client input (4xx).
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// FailureResponse is written when the provider call fails (5xx).
type FailureResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}
