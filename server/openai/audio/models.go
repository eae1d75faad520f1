package audio

// https://platform.openai.com/docs/api-reference/audio/createSpeech
type SpeechRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`

	Voice string `json:"voice,omitempty"`

	Instructions string `json:"instructions,omitempty"`

	ResponseFormat string `json:"response_format,omitempty"`

	Speed *float32 `json:"speed,omitempty"`

	// AutoCombine splits long input and joins the audio. Nil means true.
	AutoCombine *bool `json:"auto_combine,omitempty"`
	MaxLength   int   `json:"max_length,omitempty"`
}
