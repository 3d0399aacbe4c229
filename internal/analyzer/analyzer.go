package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sozercan/mail-ai-mole/apimodels"
	"github.com/sozercan/mail-ai-mole/internal/config"
	"github.com/sozercan/mail-ai-mole/internal/llm"
)

var systemPromptTemplate = `You are an expert assistant that analyzes work emails and extracts an actionable summary.
Analyze the email the user provides and respond with a single JSON object of exactly this shape:

{
    "summary": "2-3 sentence summary of the email",
    "key_points": ["key point 1", "key point 2"],
    "tasks": [
        {
            "task": "what needs to be done",
            "priority": "high|medium|low",
            "deadline": "due date in YYYY-MM-DD form, or a relative expression from the email, or null",
            "assignee": "person responsible, or null"
        }
    ],
    "action_items": ["items that need immediate attention"],
    "follow_up": ["matters that need follow-up later"],
    "sentiment": "positive|neutral|negative",
    "urgency_level": "high|medium|low"
}

Today's date is %s. Resolve deadlines to concrete YYYY-MM-DD dates where the email allows it.
Extract concrete tasks that would help someone act on this email. Use null for a deadline or
assignee that the email does not state; never invent one. Respond with the JSON object only.`

// Clock lets tests pin the reference time used for relative deadlines.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ProviderFactory builds an llm.Provider for one set of credentials.
type ProviderFactory func(config.Credentials) llm.Provider

type Analyzer struct {
	newProvider ProviderFactory
	clock       Clock
}

func New() *Analyzer {
	return &Analyzer{
		newProvider: func(creds config.Credentials) llm.Provider { return llm.NewOpenAI(creds) },
		clock:       systemClock{},
	}
}

// NewWithProvider is the test seam: it swaps the completion client and
// optionally the clock.
func NewWithProvider(factory ProviderFactory, clock Clock) *Analyzer {
	if clock == nil {
		clock = systemClock{}
	}
	return &Analyzer{newProvider: factory, clock: clock}
}

// Analyze sends the email body to the completion endpoint and parses
// the reply into a structured analysis. It refuses to make a network
// call without resolved credentials.
func (a *Analyzer) Analyze(ctx context.Context, req apimodels.AnalysisRequest, creds config.Credentials) (*apimodels.Analysis, llm.Usage, error) {
	if creds.Endpoint == "" || creds.APIKey == "" {
		return nil, llm.Usage{}, config.ErrMissingCredentials
	}
	body := strings.TrimSpace(req.Text)
	if body == "" {
		return nil, llm.Usage{}, fmt.Errorf("empty email body")
	}

	now := a.clock.Now()
	system := fmt.Sprintf(systemPromptTemplate, now.Format("Monday, 2006-01-02"))
	user := fmt.Sprintf("Analyze the following email:\n\n%s", body)

	slog.Info("starting analysis", "bytes", len(body), "model", effectiveModel(req, creds))

	resp, err := a.newProvider(creds).Complete(ctx, system, user, func(o *llm.Options) {
		if req.Options.Model != "" {
			o.Model = req.Options.Model
		}
		if req.Options.MaxTokens != nil {
			o.MaxTokens = *req.Options.MaxTokens
		}
		if req.Options.Temperature != nil {
			o.Temperature = *req.Options.Temperature
		}
	})
	if err != nil {
		slog.Error("completion call failed", "error", err)
		return nil, llm.Usage{}, err
	}

	analysis, err := parseResponse(resp.Content, now)
	if err != nil {
		slog.Error("could not parse model reply", "error", err)
		return nil, resp.Usage, err
	}

	slog.Debug("analysis completed", "tasks", len(analysis.Tasks), "tokens", resp.Usage.TotalTokens)
	return analysis, resp.Usage, nil
}

func effectiveModel(req apimodels.AnalysisRequest, creds config.Credentials) string {
	if req.Options.Model != "" {
		return req.Options.Model
	}
	return creds.Model
}
