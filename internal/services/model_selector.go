package services

const (
	// DefaultModel is used for text and image generation and for unknown model keys.
	DefaultModel = "gemini-2.5-flash"

	// DefaultChatModelKey is the key chat requests resolve when they name none.
	DefaultChatModelKey = "flash"
)

var modelTable = map[string]string{
	"flash":      "gemini-2.5-flash",
	"flash-lite": "gemini-2.5-flash-lite",
}

// ResolveModel maps a short model key to a provider model identifier.
func ResolveModel(key string) string {
	if id, ok := modelTable[key]; ok {
		return id
	}
	return DefaultModel
}

// ModelTable returns a copy of the key → identifier table.
func ModelTable() map[string]string {
	out := make(map[string]string, len(modelTable))
	for k, v := range modelTable {
		out[k] = v
	}
	return out
}
