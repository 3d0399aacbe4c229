package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sozercan/mail-ai-mole/apimodels"
	"github.com/sozercan/mail-ai-mole/internal/analyzer"
	"github.com/sozercan/mail-ai-mole/internal/config"
	"github.com/sozercan/mail-ai-mole/internal/llm"
	"github.com/sozercan/mail-ai-mole/internal/session"
)

const stubReply = `{
	"summary": "Q3 report needs to be sent by Friday.",
	"key_points": ["Q3 report due"],
	"tasks": [{"task": "Send the Q3 report", "priority": "high", "deadline": "2026-09-04", "assignee": "Alice"}],
	"action_items": ["send report"],
	"follow_up": [],
	"sentiment": "neutral",
	"urgency_level": "high"
}`

type stubProvider struct {
	content string
	err     error
	calls   int
}

func (p *stubProvider) Complete(ctx context.Context, system, user string, opts ...llm.Option) (*llm.Response, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &llm.Response{Content: p.content, Usage: llm.Usage{TotalTokens: 42}}, nil
}

func testConfig(apiKey string) config.Config {
	return config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: "0", StaticDir: "testdata"},
		OpenAI: config.OpenAIConfig{
			Provider:    "openai",
			APIKey:      apiKey,
			APIEndpoint: "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Timeout:     5 * time.Second,
		},
		History: config.HistoryConfig{MaxEntries: 50},
		Session: config.SessionConfig{IdleTimeout: time.Hour},
	}
}

func testServer(t *testing.T, cfg config.Config, provider llm.Provider) *httptest.Server {
	t.Helper()
	an := analyzer.NewWithProvider(func(config.Credentials) llm.Provider { return provider }, nil)
	srv := New(cfg, an, session.NewManager(cfg.Session, cfg.History))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// client keeps the session cookie across requests, like a browser.
func client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, c *http.Client, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := c.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	ts := testServer(t, testConfig("key"), &stubProvider{content: stubReply})

	resp, err := http.Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestAnalyzeWithoutCredentials(t *testing.T) {
	provider := &stubProvider{content: stubReply}
	ts := testServer(t, testConfig(""), provider)

	resp := postJSON(t, client(t), ts.URL+"/api/v1/analyze", apimodels.AnalysisRequest{Text: "hello"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, provider.calls, "missing credentials must block the completion call")
}

func TestAnalyzeRecordsHistory(t *testing.T) {
	ts := testServer(t, testConfig("key"), &stubProvider{content: stubReply})
	c := client(t)

	// Two sequential analyses in the same session.
	first := decodeBody[apimodels.AnalysisResponse](t,
		postJSON(t, c, ts.URL+"/api/v1/analyze", apimodels.AnalysisRequest{Text: "email one"}))
	second := decodeBody[apimodels.AnalysisResponse](t,
		postJSON(t, c, ts.URL+"/api/v1/analyze", apimodels.AnalysisRequest{Text: "email two"}))

	assert.NotEqual(t, first.Entry.ID, second.Entry.ID)
	assert.Equal(t, "gpt-4o-mini", first.Metadata.Model)
	assert.EqualValues(t, 42, first.Metadata.TokensUsed)

	require.Len(t, first.Entry.Analysis.Tasks, 1)
	task := first.Entry.Analysis.Tasks[0]
	assert.Contains(t, task.Description, "Q3 report")
	assert.Equal(t, "Alice", task.Assignee)

	resp, err := c.Get(ts.URL + "/api/v1/history")
	require.NoError(t, err)
	entries := decodeBody[[]apimodels.HistoryEntry](t, resp)
	require.Len(t, entries, 2)
	// Newest first.
	assert.Equal(t, second.Entry.ID, entries[0].ID)
	assert.Equal(t, first.Entry.ID, entries[1].ID)
}

func TestHistoryIsSessionScoped(t *testing.T) {
	ts := testServer(t, testConfig("key"), &stubProvider{content: stubReply})

	c1 := client(t)
	decodeBody[apimodels.AnalysisResponse](t,
		postJSON(t, c1, ts.URL+"/api/v1/analyze", apimodels.AnalysisRequest{Text: "mine"}))

	// A different browser session sees an empty history.
	c2 := client(t)
	resp, err := c2.Get(ts.URL + "/api/v1/history")
	require.NoError(t, err)
	entries := decodeBody[[]apimodels.HistoryEntry](t, resp)
	assert.Empty(t, entries)
}

func TestAnalyzeErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"authentication", llm.ErrAuthentication, http.StatusUnauthorized},
		{"unavailable", llm.ErrServiceUnavailable, http.StatusBadGateway},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := testServer(t, testConfig("key"), &stubProvider{err: tc.err})
			resp := postJSON(t, client(t), ts.URL+"/api/v1/analyze", apimodels.AnalysisRequest{Text: "x"})
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

// blockedProvider hangs until the request context is cancelled.
type blockedProvider struct{}

func (blockedProvider) Complete(ctx context.Context, system, user string, opts ...llm.Option) (*llm.Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestAnalyzeRequestTimeout(t *testing.T) {
	cfg := testConfig("key")
	cfg.Server.RequestTimeout = 50 * time.Millisecond
	ts := testServer(t, cfg, blockedProvider{})

	resp := postJSON(t, client(t), ts.URL+"/api/v1/analyze", apimodels.AnalysisRequest{Text: "slow"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}

func TestAnalyzeKeepsSourceFilename(t *testing.T) {
	ts := testServer(t, testConfig("key"), &stubProvider{content: stubReply})
	c := client(t)

	res := decodeBody[apimodels.AnalysisResponse](t,
		postJSON(t, c, ts.URL+"/api/v1/analyze", apimodels.AnalysisRequest{
			Text:           "email",
			SourceFilename: "budget.msg",
		}))
	assert.Equal(t, "budget.msg", res.Entry.Request.SourceFilename)

	// The provenance survives into the stored history entry.
	resp, err := c.Get(ts.URL + "/api/v1/history/" + res.Entry.ID)
	require.NoError(t, err)
	entry := decodeBody[apimodels.HistoryEntry](t, resp)
	assert.Equal(t, "budget.msg", entry.Request.SourceFilename)
}

func TestAnalyzeMalformedReply(t *testing.T) {
	ts := testServer(t, testConfig("key"), &stubProvider{content: "sorry, no JSON"})
	resp := postJSON(t, client(t), ts.URL+"/api/v1/analyze", apimodels.AnalysisRequest{Text: "x"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	body := decodeBody[apimodels.ErrorResponse](t, resp)
	assert.NotEmpty(t, body.Error)
}

func uploadFile(t *testing.T, c *http.Client, url, filename string, content []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := c.Post(url, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func TestIngestUpload(t *testing.T) {
	ts := testServer(t, testConfig("key"), &stubProvider{content: stubReply})
	c := client(t)

	eml := "From: a@example.com\r\nTo: b@example.com\r\nSubject: Hello\r\n" +
		"Date: Mon, 31 Aug 2026 09:00:00 +0000\r\n" +
		"Content-Type: text/plain\r\n\r\nSee you Friday.\r\n"
	resp := uploadFile(t, c, ts.URL+"/api/v1/ingest", "hello.eml", []byte(eml))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[apimodels.IngestResponse](t, resp)
	assert.Equal(t, "hello.eml", body.Filename)
	assert.Contains(t, body.Text, "See you Friday.")
}

func TestIngestMalformedContainer(t *testing.T) {
	ts := testServer(t, testConfig("key"), &stubProvider{content: stubReply})

	resp := uploadFile(t, client(t), ts.URL+"/api/v1/ingest", "broken.eml", []byte("no header line here"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestIngestUnsupportedFormat(t *testing.T) {
	ts := testServer(t, testConfig("key"), &stubProvider{content: stubReply})

	resp := uploadFile(t, client(t), ts.URL+"/api/v1/ingest", "email.docx", []byte("zzz"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCredentialsOverride(t *testing.T) {
	ts := testServer(t, testConfig(""), &stubProvider{content: stubReply})
	c := client(t)

	resp, err := c.Get(ts.URL + "/api/v1/credentials")
	require.NoError(t, err)
	status := decodeBody[apimodels.CredentialsResponse](t, resp)
	assert.False(t, status.Configured)

	resp = postJSON(t, c, ts.URL+"/api/v1/credentials", apimodels.CredentialsRequest{
		Endpoint: "https://proxy.internal/v1",
		APIKey:   "session-key",
	})
	status = decodeBody[apimodels.CredentialsResponse](t, resp)
	assert.True(t, status.Configured)
	assert.Equal(t, "session", status.Source)
	assert.Equal(t, "https://proxy.internal/v1", status.Endpoint)

	// The override now unblocks analysis for this session.
	resp = postJSON(t, c, ts.URL+"/api/v1/analyze", apimodels.AnalysisRequest{Text: "hello"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExportFormats(t *testing.T) {
	ts := testServer(t, testConfig("key"), &stubProvider{content: stubReply})
	c := client(t)

	res := decodeBody[apimodels.AnalysisResponse](t,
		postJSON(t, c, ts.URL+"/api/v1/analyze", apimodels.AnalysisRequest{Text: "email"}))

	tests := []struct {
		format      string
		contentType string
		sniff       func(t *testing.T, data []byte)
	}{
		{"ics", "text/calendar", func(t *testing.T, data []byte) {
			assert.Contains(t, string(data), "BEGIN:VCALENDAR")
			assert.Equal(t, 1, strings.Count(string(data), "BEGIN:VEVENT"))
		}},
		{"pdf", "application/pdf", func(t *testing.T, data []byte) {
			assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
		}},
		{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", func(t *testing.T, data []byte) {
			assert.True(t, bytes.HasPrefix(data, []byte("PK")), "xlsx is a zip container")
		}},
		{"zip", "application/zip", func(t *testing.T, data []byte) {
			assert.True(t, bytes.HasPrefix(data, []byte("PK")))
		}},
	}
	for _, tc := range tests {
		t.Run(tc.format, func(t *testing.T) {
			resp, err := c.Get(ts.URL + "/api/v1/history/" + res.Entry.ID + "/export/" + tc.format)
			require.NoError(t, err)
			defer resp.Body.Close()

			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tc.contentType, resp.Header.Get("Content-Type"))
			assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

			data := new(bytes.Buffer)
			_, err = data.ReadFrom(resp.Body)
			require.NoError(t, err)
			tc.sniff(t, data.Bytes())
		})
	}
}

func TestExportUnknownEntry(t *testing.T) {
	ts := testServer(t, testConfig("key"), &stubProvider{content: stubReply})

	resp, err := client(t).Get(ts.URL + "/api/v1/history/nope/export/pdf")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExportUnknownFormat(t *testing.T) {
	ts := testServer(t, testConfig("key"), &stubProvider{content: stubReply})
	c := client(t)

	res := decodeBody[apimodels.AnalysisResponse](t,
		postJSON(t, c, ts.URL+"/api/v1/analyze", apimodels.AnalysisRequest{Text: "email"}))

	resp, err := c.Get(ts.URL + "/api/v1/history/" + res.Entry.ID + "/export/docx")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
