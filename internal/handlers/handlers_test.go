package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemini-relay/internal/services"
)

type stubProvider struct {
	resp     any
	err      error
	calls    int
	payloads []*services.Payload
	ctxErr   error
}

func (s *stubProvider) Generate(ctx context.Context, payload *services.Payload) (any, error) {
	s.calls++
	s.payloads = append(s.payloads, payload)
	s.ctxErr = ctx.Err()
	return s.resp, s.err
}

func geminiReply(text string) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

// ─── Text generation ───

func TestGenerateText_Success(t *testing.T) {
	p := &stubProvider{resp: geminiReply("Once upon a time")}
	h := NewGenerateHandler(p, 10<<20)

	req := httptest.NewRequest(http.MethodPost, "/generate-text", strings.NewReader(`{"prompt":"Tell me a story"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.Text(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, map[string]any{"result": "Once upon a time"}, decodeBody(t, rr))

	require.Equal(t, 1, p.calls)
	assert.Equal(t, services.DefaultModel, p.payloads[0].Model)
	assert.Equal(t, "Tell me a story", p.payloads[0].Contents[0].Parts[0].Text)
}

func TestGenerateText_MissingPrompt(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"empty object", `{}`},
		{"empty prompt", `{"prompt":""}`},
		{"whitespace prompt", `{"prompt":"   "}`},
		{"null body", `null`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &stubProvider{resp: geminiReply("unused")}
			h := NewGenerateHandler(p, 10<<20)

			req := httptest.NewRequest(http.MethodPost, "/generate-text", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			h.Text(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, "Prompt is required", decodeBody(t, rr)["error"])
			assert.Zero(t, p.calls)
		})
	}
}

func TestGenerateText_InvalidJSON(t *testing.T) {
	p := &stubProvider{}
	h := NewGenerateHandler(p, 10<<20)

	req := httptest.NewRequest(http.MethodPost, "/generate-text", strings.NewReader(`{"prompt":`))
	rr := httptest.NewRecorder()
	h.Text(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeBody(t, rr), "error")
	assert.Zero(t, p.calls)
}

func TestGenerateText_ProviderFailure(t *testing.T) {
	p := &stubProvider{err: errors.New("googleapi: Error 429: Resource has been exhausted")}
	h := NewGenerateHandler(p, 10<<20)

	req := httptest.NewRequest(http.MethodPost, "/generate-text", strings.NewReader(`{"prompt":"hi"}`))
	req.Header.Set("X-Request-ID", "req-123")
	rr := httptest.NewRecorder()
	h.Text(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "googleapi: Error 429: Resource has been exhausted", body["message"])
	assert.Equal(t, "req-123", body["request_id"])
	assert.Equal(t, 1, p.calls)
}

func TestGenerateText_UnknownShapeFallsBackToJSON(t *testing.T) {
	resp := map[string]any{"promptFeedback": map[string]any{"blockReason": "SAFETY"}}
	p := &stubProvider{resp: resp}
	h := NewGenerateHandler(p, 10<<20)

	req := httptest.NewRequest(http.MethodPost, "/generate-text", strings.NewReader(`{"prompt":"hi"}`))
	rr := httptest.NewRecorder()
	h.Text(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	result, ok := decodeBody(t, rr)["result"].(string)
	require.True(t, ok)

	var back map[string]any
	require.NoError(t, json.Unmarshal([]byte(result), &back))
	assert.Equal(t, resp, back)
}

func TestGenerateText_ProviderCallIgnoresClientCancellation(t *testing.T) {
	p := &stubProvider{resp: geminiReply("ok")}
	h := NewGenerateHandler(p, 10<<20)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/generate-text", strings.NewReader(`{"prompt":"hi"}`)).WithContext(ctx)
	rr := httptest.NewRecorder()
	h.Text(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NoError(t, p.ctxErr)
}

// ─── Chat ───

func TestChat_TurnsPreservedWithPersona(t *testing.T) {
	p := &stubProvider{resp: geminiReply("Wkwk, siap!")}
	h := NewChatHandler(p)

	body := `{"messages":[
		{"role":"user","content":"Halo"},
		{"role":"model","content":"Halo juga!"},
		{"role":"user","content":"Ceritakan lelucon"}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Chat(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{"reply": "Wkwk, siap!"}, decodeBody(t, rr))

	require.Equal(t, 1, p.calls)
	payload := p.payloads[0]
	assert.Equal(t, services.ResolveModel("flash"), payload.Model)
	assert.Equal(t, services.ServerPersona, payload.SystemInstruction)

	wantRoles := []string{"user", "model", "user"}
	wantText := []string{"Halo", "Halo juga!", "Ceritakan lelucon"}
	require.Len(t, payload.Contents, 3)
	for i, c := range payload.Contents {
		assert.Equal(t, wantRoles[i], c.Role)
		require.Len(t, c.Parts, 1)
		assert.Equal(t, wantText[i], c.Parts[0].Text)
	}
}

func TestChat_PersonaAndModelKeys(t *testing.T) {
	p := &stubProvider{resp: geminiReply("```go\n```")}
	h := NewChatHandler(p)

	body := `{"persona":"code","model":"flash-lite","messages":[{"role":"user","content":"Write hello world"}]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Chat(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, p.calls)
	assert.Equal(t, "gemini-2.5-flash-lite", p.payloads[0].Model)
	assert.Equal(t, services.ResolvePersona("code"), p.payloads[0].SystemInstruction)
}

func TestChat_UnknownKeysFallBack(t *testing.T) {
	p := &stubProvider{resp: geminiReply("ok")}
	h := NewChatHandler(p)

	body := `{"persona":"pirate","model":"ultra","messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Chat(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, services.DefaultModel, p.payloads[0].Model)
	assert.Equal(t, services.ServerPersona, p.payloads[0].SystemInstruction)
}

func TestChat_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing body", "", "Request body is required"},
		{"invalid json", `{"messages":[`, "Invalid request body"},
		{"missing messages", `{}`, "Messages are required"},
		{"empty messages", `{"messages":[]}`, "Messages are required"},
		{"unknown role", `{"messages":[{"role":"system","content":"x"}]}`, "Each message requires a role of user or model and non-empty content"},
		{"missing role", `{"messages":[{"content":"x"}]}`, "Each message requires a role of user or model and non-empty content"},
		{"missing content", `{"messages":[{"role":"user"}]}`, "Each message requires a role of user or model and non-empty content"},
		{"ends with model turn", `{"messages":[{"role":"user","content":"a"},{"role":"model","content":"b"}]}`, "The last message must come from the user"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &stubProvider{resp: geminiReply("unused")}
			h := NewChatHandler(p)

			req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			h.Chat(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tc.wantErr, decodeBody(t, rr)["error"])
			assert.Zero(t, p.calls)
		})
	}
}

func TestChat_ProviderFailure(t *testing.T) {
	p := &stubProvider{err: errors.New("API key not valid")}
	h := NewChatHandler(p)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`))
	rr := httptest.NewRecorder()
	h.Chat(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "API key not valid", decodeBody(t, rr)["message"])
}

func TestCatalogueEndpoints(t *testing.T) {
	h := NewChatHandler(&stubProvider{})

	rr := httptest.NewRecorder()
	h.Personas(rr, httptest.NewRequest(http.MethodGet, "/personas", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	personas := decodeBody(t, rr)
	assert.Len(t, personas["personas"], 5)
	assert.Equal(t, services.ServerPersona, personas["default"])

	rr = httptest.NewRecorder()
	h.Models(rr, httptest.NewRequest(http.MethodGet, "/models", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{
		"models":  map[string]any{"flash": "gemini-2.5-flash", "flash-lite": "gemini-2.5-flash-lite"},
		"default": "gemini-2.5-flash",
	}, decodeBody(t, rr))
}

// ─── Image generation ───

type formFile struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, fields map[string]string, file *formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="`+file.field+`"; filename="`+file.filename+`"`)
		if file.contentType != "" {
			hdr.Set("Content-Type", file.contentType)
		}
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/generate-text-from-image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestGenerateFromImage_Success(t *testing.T) {
	p := &stubProvider{resp: geminiReply("A tiny PNG header")}
	h := NewGenerateHandler(p, 10<<20)

	req := multipartRequest(t,
		map[string]string{"prompt": "Describe this"},
		&formFile{field: "image", filename: "pic.png", contentType: "image/png", data: pngBytes},
	)
	rr := httptest.NewRecorder()
	h.Image(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{"result": "A tiny PNG header"}, decodeBody(t, rr))

	require.Equal(t, 1, p.calls)
	payload := p.payloads[0]
	assert.Equal(t, services.DefaultModel, payload.Model)
	require.Len(t, payload.Contents, 1)
	parts := payload.Contents[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, "Describe this", parts[0].Text)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/png", parts[1].InlineData.MIMEType)
	assert.Equal(t, base64.StdEncoding.EncodeToString(pngBytes), parts[1].InlineData.Data)
}

func TestGenerateFromImage_SniffsMissingContentType(t *testing.T) {
	p := &stubProvider{resp: geminiReply("ok")}
	h := NewGenerateHandler(p, 10<<20)

	req := multipartRequest(t,
		map[string]string{"prompt": "Describe this"},
		&formFile{field: "image", filename: "pic", contentType: "application/octet-stream", data: pngBytes},
	)
	rr := httptest.NewRecorder()
	h.Image(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", p.payloads[0].Contents[0].Parts[1].InlineData.MIMEType)
}

func TestGenerateFromImage_ValidationFailures(t *testing.T) {
	image := &formFile{field: "image", filename: "pic.png", contentType: "image/png", data: pngBytes}

	tests := []struct {
		name    string
		req     func(t *testing.T) *http.Request
		wantErr string
	}{
		{
			name:    "missing prompt",
			req:     func(t *testing.T) *http.Request { return multipartRequest(t, nil, image) },
			wantErr: "Prompt is required",
		},
		{
			name: "missing image",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, map[string]string{"prompt": "Describe this"}, nil)
			},
			wantErr: "Image file is required",
		},
		{
			name: "empty image",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, map[string]string{"prompt": "Describe this"},
					&formFile{field: "image", filename: "empty.png", contentType: "image/png"})
			},
			wantErr: "Image file is required",
		},
		{
			name: "image under wrong field",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, map[string]string{"prompt": "Describe this"},
					&formFile{field: "file", filename: "pic.png", contentType: "image/png", data: pngBytes})
			},
			wantErr: "Image file is required",
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/generate-text-from-image", strings.NewReader(`{"prompt":"x"}`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			wantErr: "Prompt is required",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &stubProvider{resp: geminiReply("unused")}
			h := NewGenerateHandler(p, 10<<20)

			rr := httptest.NewRecorder()
			h.Image(rr, tc.req(t))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tc.wantErr, decodeBody(t, rr)["error"])
			assert.Zero(t, p.calls)
		})
	}
}

func TestGenerateFromImage_TooLarge(t *testing.T) {
	p := &stubProvider{resp: geminiReply("unused")}
	h := NewGenerateHandler(p, 1<<20)

	big := bytes.Repeat([]byte{0xff}, 2<<20)
	req := multipartRequest(t,
		map[string]string{"prompt": "Describe this"},
		&formFile{field: "image", filename: "big.png", contentType: "image/png", data: big},
	)
	rr := httptest.NewRecorder()
	h.Image(rr, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Zero(t, p.calls)
}

func TestGenerateFromImage_ProviderFailure(t *testing.T) {
	p := &stubProvider{err: errors.New("unsupported MIME type: image/tiff")}
	h := NewGenerateHandler(p, 10<<20)

	req := multipartRequest(t,
		map[string]string{"prompt": "Describe this"},
		&formFile{field: "image", filename: "pic.tiff", contentType: "image/tiff", data: []byte("II*\x00")},
	)
	rr := httptest.NewRecorder()
	h.Image(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "unsupported MIME type: image/tiff", decodeBody(t, rr)["message"])
	assert.Equal(t, 1, p.calls)
}
