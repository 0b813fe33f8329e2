package models

// Modality tags the channel the analyzed content came from. Only text-bearing
// modalities are scored; transcripts of voice/video arrive as plain text.
type Modality string

const (
	ModalityText            Modality = "text"
	ModalityVoiceTranscript Modality = "voice-transcript"
	ModalityVideoTranscript Modality = "video-transcript"
)

// ParseModality maps a wire value to a Modality, defaulting to text.
func ParseModality(s string) Modality {
	switch Modality(s) {
	case ModalityVoiceTranscript, ModalityVideoTranscript:
		return Modality(s)
	default:
		return ModalityText
	}
}

// MessageSource describes how the content reached us.
type MessageSource string

const (
	SourceChatForward        MessageSource = "chat-forward"
	SourcePaste              MessageSource = "paste"
	SourceExtensionSelection MessageSource = "extension-selection"
)

// ParseMessageSource maps a wire value to a MessageSource, defaulting to paste.
func ParseMessageSource(s string) MessageSource {
	switch MessageSource(s) {
	case SourceChatForward, SourceExtensionSelection:
		return MessageSource(s)
	default:
		return SourcePaste
	}
}

// Locale scopes pattern weights. Empty fields mean "unknown"; such requests
// score against base weights only.
type Locale struct {
	Region   string `json:"region,omitempty"`
	Language string `json:"language,omitempty"`
}

// Message is the immutable per-request input. It is never persisted raw:
// only its hash survives the request, and only when the caller opts into
// feedback correlation.
type Message struct {
	Text        string        `json:"text"`
	Modality    Modality      `json:"modality"`
	Locale      Locale        `json:"locale"`
	Source      MessageSource `json:"source"`
	SubmittedBy string        `json:"submitted_by,omitempty"`
}
