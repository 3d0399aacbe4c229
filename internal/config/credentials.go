package config

import "errors"

// ErrMissingCredentials indicates neither the environment nor the
// session supplied a completion endpoint and API key.
var ErrMissingCredentials = errors.New("completion endpoint credentials not configured")

// Credentials hold everything needed for one completion call. They
// live in process memory only and are never written to disk.
type Credentials struct {
	Provider       string
	Endpoint       string
	APIKey         string
	Model          string
	DeploymentName string
	APIVersion     string
}

// Override carries per-session credential values entered in the UI.
// Empty fields fall back to the environment defaults.
type Override struct {
	Endpoint string
	APIKey   string
	Model    string
}

// Resolve merges a session override over the environment-sourced
// defaults. It fails with ErrMissingCredentials before any network
// call can be attempted.
func (c OpenAIConfig) Resolve(ov Override) (Credentials, error) {
	creds := Credentials{
		Provider:       c.Provider,
		Endpoint:       c.APIEndpoint,
		APIKey:         c.APIKey,
		Model:          c.Model,
		DeploymentName: c.DeploymentName,
		APIVersion:     c.APIVersion,
	}
	if ov.Endpoint != "" {
		creds.Endpoint = ov.Endpoint
	}
	if ov.APIKey != "" {
		creds.APIKey = ov.APIKey
	}
	if ov.Model != "" {
		creds.Model = ov.Model
	}
	if creds.Endpoint == "" || creds.APIKey == "" {
		return Credentials{}, ErrMissingCredentials
	}
	return creds, nil
}

// Source reports where the effective API key came from.
func (c OpenAIConfig) Source(ov Override) string {
	if ov.APIKey != "" {
		return "session"
	}
	if c.APIKey != "" {
		return "environment"
	}
	return ""
}
