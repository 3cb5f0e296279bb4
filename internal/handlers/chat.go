package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"gemini-relay/internal/models"
	"gemini-relay/internal/services"
)

type ChatHandler struct {
	dispatcher
}

func NewChatHandler(p provider) *ChatHandler {
	return &ChatHandler{dispatcher: dispatcher{provider: p}}
}

// Chat handles POST /chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, errorResp("Request body is required", r))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body", r))
		return
	}

	if err := validateConversation(req.Messages); err != nil {
		handleServiceError(w, r, err)
		return
	}

	model := req.Model
	if model == "" {
		model = services.DefaultChatModelKey
	}

	payload := services.BuildChatPayload(
		services.ResolveModel(model),
		req.Messages,
		services.ResolvePersona(req.Persona),
	)
	reply, err := h.call(r, "chat", payload)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{Reply: reply})
}

// Personas handles GET /personas.
func (h *ChatHandler) Personas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.PersonaListResponse{
		Personas: services.Personas(),
		Default:  services.ServerPersona,
	})
}

// Models handles GET /models.
func (h *ChatHandler) Models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.ModelListResponse{
		Models:  services.ModelTable(),
		Default: services.DefaultModel,
	})
}

func validateConversation(messages []models.ChatMessage) error {
	if len(messages) == 0 {
		return &services.ValidationError{Message: "Messages are required"}
	}
	for _, msg := range messages {
		if (msg.Role != services.RoleUser && msg.Role != services.RoleModel) || strings.TrimSpace(msg.Content) == "" {
			return &services.ValidationError{Message: "Each message requires a role of user or model and non-empty content"}
		}
	}
	// The provider always sends the newest turn as the user's.
	if messages[len(messages)-1].Role != services.RoleUser {
		return &services.ValidationError{Message: "The last message must come from the user"}
	}
	return nil
}
