package apimodels

type AnalysisResponse struct {
	// The history entry recorded for this analysis
	Entry HistoryEntry `json:"entry"`

	// Metadata about the analysis
	Metadata AnalysisMetadata `json:"metadata"`
}

type AnalysisMetadata struct {
	// Time taken for analysis
	Duration string `json:"duration"`

	// Model used for analysis
	Model string `json:"model"`

	// Tokens used in analysis
	TokensUsed int64 `json:"tokensUsed"`
}

// IngestResponse carries the extracted body of an uploaded email file.
type IngestResponse struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

// CredentialsResponse reports whether the session can reach the
// completion endpoint. The API key itself is never echoed back.
type CredentialsResponse struct {
	Configured bool   `json:"configured"`
	Endpoint   string `json:"endpoint,omitempty"`
	Model      string `json:"model,omitempty"`
	Source     string `json:"source,omitempty"` // "environment" or "session"
}

// ErrorResponse is the JSON body for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}
