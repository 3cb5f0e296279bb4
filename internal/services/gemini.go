package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/apex/log"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiService sends payloads to the Gemini API. One instance is created at
// startup and shared by all handlers; it holds no per-request state.
type GeminiService struct {
	client *genai.Client
}

func NewGeminiService(apiKey string, opts ...option.ClientOption) (*GeminiService, error) {
	ctx := context.Background()
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiService{client: client}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// Generate issues exactly one GenerateContent request for the payload and
// returns the response as a generic JSON-shaped document. A blocked prompt or
// candidate is not an error: the document carries the block details instead.
func (s *GeminiService) Generate(ctx context.Context, payload *Payload) (any, error) {
	if payload == nil || len(payload.Contents) == 0 {
		return nil, errors.New("payload has no contents")
	}

	model := s.client.GenerativeModel(payload.Model)
	if payload.SystemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(payload.SystemInstruction)},
		}
	}

	history, last, err := toGenaiContents(payload.Contents)
	if err != nil {
		return nil, err
	}

	var resp *genai.GenerateContentResponse
	if len(history) == 0 {
		resp, err = model.GenerateContent(ctx, last.Parts...)
	} else {
		// The SDK sends the trailing turn as the new user message.
		cs := model.StartChat()
		cs.History = history
		resp, err = cs.SendMessage(ctx, last.Parts...)
	}
	if err != nil {
		var blocked *genai.BlockedError
		if !errors.As(err, &blocked) {
			return nil, err
		}
		log.WithField("model", payload.Model).WithField("reason", blocked.Error()).Warn("Gemini blocked the request")
		return responseDocument(blockedResponse(blocked)), nil
	}

	for i, cand := range resp.Candidates {
		if cand != nil && cand.FinishReason != genai.FinishReasonStop {
			log.WithFields(log.Fields{
				"model":         payload.Model,
				"candidate":     i,
				"finish_reason": cand.FinishReason.String(),
			}).Warn("Gemini stopped before completing")
		}
	}

	return responseDocument(resp), nil
}

// blockedResponse rebuilds the response the SDK withheld when it raised BlockedError.
func blockedResponse(blocked *genai.BlockedError) *genai.GenerateContentResponse {
	resp := &genai.GenerateContentResponse{PromptFeedback: blocked.PromptFeedback}
	if blocked.Candidate != nil {
		resp.Candidates = []*genai.Candidate{blocked.Candidate}
	}
	return resp
}

// toGenaiContents splits the payload turns into chat history and the final turn.
func toGenaiContents(contents []*Content) ([]*genai.Content, *genai.Content, error) {
	out := make([]*genai.Content, 0, len(contents))
	for i, c := range contents {
		if c == nil {
			return nil, nil, fmt.Errorf("content %d is nil", i)
		}
		parts := make([]genai.Part, 0, len(c.Parts))
		for j, p := range c.Parts {
			part, err := toGenaiPart(p)
			if err != nil {
				return nil, nil, fmt.Errorf("content %d part %d: %w", i, j, err)
			}
			parts = append(parts, part)
		}
		out = append(out, &genai.Content{Role: c.Role, Parts: parts})
	}
	return out[:len(out)-1], out[len(out)-1], nil
}

func toGenaiPart(p *Part) (genai.Part, error) {
	switch {
	case p == nil:
		return nil, errors.New("part is nil")
	case p.InlineData != nil:
		data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 inline data: %w", err)
		}
		return genai.Blob{MIMEType: p.InlineData.MIMEType, Data: data}, nil
	default:
		return genai.Text(p.Text), nil
	}
}

// responseDocument renders the SDK response in the Gemini REST JSON shape
// (candidates[].content.parts[].text) so ExtractText can probe it.
func responseDocument(resp *genai.GenerateContentResponse) map[string]any {
	doc := map[string]any{}
	if resp == nil {
		return doc
	}

	candidates := make([]any, 0, len(resp.Candidates))
	for _, cand := range resp.Candidates {
		if cand == nil {
			continue
		}
		c := map[string]any{
			"index":        cand.Index,
			"finishReason": cand.FinishReason.String(),
		}
		if cand.TokenCount > 0 {
			c["tokenCount"] = cand.TokenCount
		}
		if cand.Content != nil {
			parts := make([]any, 0, len(cand.Content.Parts))
			for _, part := range cand.Content.Parts {
				parts = append(parts, partDocument(part))
			}
			c["content"] = map[string]any{
				"role":  cand.Content.Role,
				"parts": parts,
			}
		}
		candidates = append(candidates, c)
	}
	doc["candidates"] = candidates

	if pf := resp.PromptFeedback; pf != nil && pf.BlockReason != genai.BlockReasonUnspecified {
		doc["promptFeedback"] = map[string]any{"blockReason": pf.BlockReason.String()}
	}
	if um := resp.UsageMetadata; um != nil {
		doc["usageMetadata"] = map[string]any{
			"promptTokenCount":     um.PromptTokenCount,
			"candidatesTokenCount": um.CandidatesTokenCount,
			"totalTokenCount":      um.TotalTokenCount,
		}
	}
	return doc
}

func partDocument(part genai.Part) map[string]any {
	switch v := part.(type) {
	case genai.Text:
		return map[string]any{"text": string(v)}
	case genai.Blob:
		return map[string]any{"inlineData": map[string]any{
			"mimeType": v.MIMEType,
			"data":     base64.StdEncoding.EncodeToString(v.Data),
		}}
	case genai.FunctionCall:
		return map[string]any{"functionCall": map[string]any{"name": v.Name, "args": v.Args}}
	default:
		return map[string]any{"unsupportedPart": fmt.Sprintf("%T", part)}
	}
}
