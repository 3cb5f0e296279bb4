package services

import "gemini-relay/internal/models"

// ServerPersona is applied to chat requests that select no known persona.
const ServerPersona = "Anda adalah AI yang gaul dan suka bercanda. Anda akan menjawab pertanyaan dengan cara yang menyenangkan dan menghibur."

// personaCatalogue mirrors the selector offered by the bundled front-end.
var personaCatalogue = []models.Persona{
	{Key: "default", Instruction: "You are a helpful and friendly general-purpose assistant. Your name is Gemini."},
	{Key: "code", Instruction: "You are an expert programmer and code assistant. Provide clear, well-commented code examples. Explain complex concepts simply and concisely. Use markdown for all code blocks."},
	{Key: "design", Instruction: "You are a creative design assistant. Help brainstorm UI/UX ideas, color palettes, and layout concepts. Be visual and descriptive in your suggestions."},
	{Key: "research", Instruction: "You are a research assistant. Provide factual, well-sourced information. Summarize long texts, find data, and cite your sources when possible."},
	{Key: "creative", Instruction: "You are a creative writing partner. Help write stories, poems, and scripts. Be imaginative and inspiring."},
}

// ResolvePersona returns the instruction for a catalogue key, or ServerPersona.
func ResolvePersona(key string) string {
	for _, p := range personaCatalogue {
		if p.Key == key {
			return p.Instruction
		}
	}
	return ServerPersona
}

func Personas() []models.Persona {
	return append([]models.Persona(nil), personaCatalogue...)
}
