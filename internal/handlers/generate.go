package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"gemini-relay/internal/models"
	"gemini-relay/internal/services"
)

const multipartMemory = 8 << 20

type GenerateHandler struct {
	dispatcher
	maxUploadBytes int64
}

func NewGenerateHandler(p provider, maxUploadBytes int64) *GenerateHandler {
	return &GenerateHandler{
		dispatcher:     dispatcher{provider: p},
		maxUploadBytes: maxUploadBytes,
	}
}

// Text handles POST /generate-text.
func (h *GenerateHandler) Text(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body", r))
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		handleServiceError(w, r, &services.ValidationError{Message: "Prompt is required"})
		return
	}

	payload := services.BuildTextPayload(services.DefaultModel, req.Prompt)
	text, err := h.call(r, "generate-text", payload)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.GenerateResponse{Result: text})
}

// Image handles POST /generate-text-from-image: a multipart form with a
// "prompt" field and an "image" file.
func (h *GenerateHandler) Image(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge,
				errorResp(fmt.Sprintf("Image exceeds %dMB limit", h.maxUploadBytes>>20), r))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid multipart form", r))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	prompt := r.PostFormValue("prompt")
	if strings.TrimSpace(prompt) == "" {
		handleServiceError(w, r, &services.ValidationError{Message: "Prompt is required"})
		return
	}

	image, err := readImage(r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	payload := services.BuildImagePayload(services.DefaultModel, prompt, image)
	text, err := h.call(r, "generate-text-from-image", payload)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.GenerateResponse{Result: text})
}

func readImage(r *http.Request) (services.ImageAttachment, error) {
	missing := &services.ValidationError{Message: "Image file is required"}
	if r.MultipartForm == nil {
		return services.ImageAttachment{}, missing
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return services.ImageAttachment{}, missing
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return services.ImageAttachment{}, fmt.Errorf("failed to read uploaded image: %w", err)
	}
	if len(data) == 0 {
		return services.ImageAttachment{}, missing
	}

	// Fall back to magic byte sniffing when the client sent no usable type
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	return services.ImageAttachment{MIMEType: mimeType, Data: data}, nil
}
