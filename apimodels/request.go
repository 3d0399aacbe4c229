package apimodels

type AnalysisRequest struct {
	// Text is the raw email content to analyze
	Text string `json:"text"`

	// SourceFilename is set when the text came from an uploaded file
	SourceFilename string `json:"sourceFilename,omitempty"`

	// Optional parameters to control analysis behavior
	Options AnalysisOptions `json:"options,omitempty"`
}

type AnalysisOptions struct {
	// Model specifies which LLM model to use (e.g. "gpt-4o")
	Model string `json:"model,omitempty"`

	// MaxTokens limits the LLM response length; nil keeps the default
	MaxTokens *int64 `json:"maxTokens,omitempty"`

	// Temperature controls randomness (0.0-1.0); nil keeps the
	// default, an explicit 0 requests deterministic sampling
	Temperature *float64 `json:"temperature,omitempty"`
}

type CredentialsRequest struct {
	// Endpoint overrides the configured completion endpoint for this session
	Endpoint string `json:"endpoint,omitempty"`

	// APIKey overrides the configured API key for this session
	APIKey string `json:"apiKey,omitempty"`

	// Model overrides the default model for this session
	Model string `json:"model,omitempty"`
}
