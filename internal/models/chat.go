package models

// ChatMessage represents a single turn in a conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "model"
	Content string `json:"content"`
}

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	Persona  string        `json:"persona,omitempty"`
	Model    string        `json:"model,omitempty"`
}

// ChatResponse is the reply from the AI chat.
type ChatResponse struct {
	Reply string `json:"reply"`
}

type Persona struct {
	Key         string `json:"key"`
	Instruction string `json:"instruction"`
}

type PersonaListResponse struct {
	Personas []Persona `json:"personas"`
	Default  string    `json:"default"`
}
