package services

import (
	"encoding/base64"

	"gemini-relay/internal/models"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Payload is the provider-facing request: the model to call, the ordered
// conversation turns and an optional system instruction.
type Payload struct {
	Model             string     `json:"model"`
	Contents          []*Content `json:"contents"`
	SystemInstruction string     `json:"systemInstruction,omitempty"`
}

// Content is one role-tagged turn.
type Content struct {
	Role  string  `json:"role"`
	Parts []*Part `json:"parts"`
}

// Part holds either text or inline binary data, never both.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData carries base64 encoded bytes tagged with their media type.
type InlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// ImageAttachment is an uploaded image, held only for the duration of a request.
type ImageAttachment struct {
	MIMEType string
	Data     []byte
}

func textPart(s string) *Part {
	return &Part{Text: s}
}

// BuildTextPayload wraps a single prompt as one user turn.
func BuildTextPayload(model, prompt string) *Payload {
	return &Payload{
		Model: model,
		Contents: []*Content{
			{Role: RoleUser, Parts: []*Part{textPart(prompt)}},
		},
	}
}

// BuildChatPayload maps every message to a turn in the original order. The
// persona goes into SystemInstruction and never into a turn.
func BuildChatPayload(model string, conversation []models.ChatMessage, persona string) *Payload {
	contents := make([]*Content, 0, len(conversation))
	for _, msg := range conversation {
		contents = append(contents, &Content{
			Role:  msg.Role,
			Parts: []*Part{textPart(msg.Content)},
		})
	}

	return &Payload{
		Model:             model,
		Contents:          contents,
		SystemInstruction: persona,
	}
}

// BuildImagePayload emits the prompt text part followed by the image part.
// Providers associate a trailing image with the instruction before it, so the
// order is fixed.
func BuildImagePayload(model, prompt string, image ImageAttachment) *Payload {
	return &Payload{
		Model: model,
		Contents: []*Content{
			{
				Role: RoleUser,
				Parts: []*Part{
					textPart(prompt),
					{InlineData: &InlineData{
						MIMEType: image.MIMEType,
						Data:     base64.StdEncoding.EncodeToString(image.Data),
					}},
				},
			},
		},
	}
}
