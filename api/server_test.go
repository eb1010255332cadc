package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/finnews/internal/analysis"
	"github.com/seenimoa/finnews/internal/analysis/sentiment"
	"github.com/seenimoa/finnews/internal/config"
	"github.com/seenimoa/finnews/internal/logger"
	"github.com/seenimoa/finnews/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

type stubFetcher struct {
	articles []models.Article
	err      error
	queries  []string
}

func (f *stubFetcher) Name() string { return "stub" }

func (f *stubFetcher) GetFinancialNews(_ context.Context, query string) ([]models.Article, error) {
	f.queries = append(f.queries, query)
	return f.articles, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		LLM:  config.LLMConfig{OpenAIKey: "sk-test-very-long-key-value", Model: "gpt-3.5-turbo"},
		News: config.NewsConfig{APIKey: "news-secret-key-123"},
		Analysis: config.AnalysisConfig{
			Concurrency: 2,
			Thresholds: config.ThresholdsConfig{
				VeryPositive: 0.6, Positive: 0.2, Neutral: -0.2, Negative: -0.6,
			},
		},
	}
}

func testServer(t *testing.T, fetcher *stubFetcher) *Server {
	t.Helper()
	analyzer := sentiment.NewAnalyzer(nil, sentiment.WithLogger(logger.Discard()))
	svc := analysis.NewDefaultService(analyzer, analysis.WithLogger(logger.Discard()))
	if fetcher == nil {
		return NewServer(testConfig(), svc, nil, WithLogger(logger.Discard()), WithVersion("test"))
	}
	return NewServer(testConfig(), svc, fetcher, WithLogger(logger.Discard()), WithVersion("test"))
}

func sampleArticles() []models.Article {
	at := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	return []models.Article{
		{Title: "Acme profit rises", Content: "growth strong", Source: "Wire", URL: "https://example.com/1", PublishedAt: at},
		{Title: "Markets slip on rate fears", Content: "stocks down and weak", Source: "Wire", URL: "https://example.com/2", PublishedAt: at},
	}
}

func do(t *testing.T, srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// decodeData re-decodes resp.Data into out.
func decodeData(t *testing.T, resp APIResponse, out any) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

// ════════════════════════════════════════════════════════════════════
// Health
// ════════════════════════════════════════════════════════════════════

func TestHealth(t *testing.T) {
	srv := testServer(t, &stubFetcher{})

	for _, path := range []string{"/health", "/api/v1/health"} {
		rec := do(t, srv, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)

		resp := decodeResponse(t, rec)
		require.True(t, resp.Success)

		var data map[string]any
		decodeData(t, resp, &data)
		assert.Equal(t, "ok", data["status"])
		assert.Equal(t, "test", data["version"])
		assert.Equal(t, "stub", data["news_source"])
		assert.Equal(t, "keyword fallback", data["model"])
	}
}

func TestHealthWithoutFetcher(t *testing.T) {
	srv := testServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/health", nil)

	var data map[string]any
	decodeData(t, decodeResponse(t, rec), &data)
	assert.Equal(t, "none", data["news_source"])
}

// ════════════════════════════════════════════════════════════════════
// Analyze
// ════════════════════════════════════════════════════════════════════

func TestAnalyze(t *testing.T) {
	srv := testServer(t, nil)
	body, _ := json.Marshal(AnalyzeRequest{Title: "Acme profit rises", Content: "growth strong"})

	rec := do(t, srv, http.MethodPost, "/api/v1/analyze", body)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	require.True(t, resp.Success)

	var data AnalyzeResponse
	decodeData(t, resp, &data)
	require.NotNil(t, data.Analysis)
	assert.InDelta(t, 1.0, data.Analysis.SentimentScore, 1e-9)
	assert.Equal(t, models.ImpactBullish, data.Analysis.MarketImpact)
	assert.Equal(t, models.LabelVeryPositive, data.Label)
	assert.NotEmpty(t, data.Analysis.ID)
}

func TestAnalyzeValidation(t *testing.T) {
	srv := testServer(t, nil)

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"invalid json", "{not json", "invalid request body"},
		{"empty", `{}`, "title or content is required"},
		{"whitespace", `{"title":"  ","content":"\n"}`, "title or content is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/v1/analyze", []byte(tc.body))
			require.Equal(t, http.StatusBadRequest, rec.Code)

			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.wantErr, resp.Error)
		})
	}
}

// ════════════════════════════════════════════════════════════════════
// News & Report
// ════════════════════════════════════════════════════════════════════

func TestNews(t *testing.T) {
	fetcher := &stubFetcher{articles: sampleArticles()}
	srv := testServer(t, fetcher)

	rec := do(t, srv, http.MethodGet, "/api/v1/news?q=acme", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var data NewsResponse
	decodeData(t, decodeResponse(t, rec), &data)
	assert.Equal(t, "stub", data.Source)
	assert.Equal(t, "acme", data.Query)
	assert.Equal(t, 2, data.Count)
	assert.Zero(t, data.Failed)
	require.Len(t, data.Articles, 2)

	assert.Equal(t, "Acme profit rises", data.Articles[0].Article.Title)
	assert.Equal(t, models.LabelVeryPositive, data.Articles[0].Label)
	assert.Equal(t, "Markets slip on rate fears", data.Articles[1].Article.Title)
	assert.Equal(t, models.LabelVeryNegative, data.Articles[1].Label)

	assert.Equal(t, []string{"acme"}, fetcher.queries)
}

func TestNewsWithoutFetcher(t *testing.T) {
	srv := testServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/api/v1/news", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, decodeResponse(t, rec).Success)
}

func TestNewsFetchError(t *testing.T) {
	srv := testServer(t, &stubFetcher{err: errors.New("upstream exploded")})
	rec := do(t, srv, http.MethodGet, "/api/v1/news", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	resp := decodeResponse(t, rec)
	assert.Equal(t, "fetch news: upstream exploded", resp.Error)
}

func TestReportFormats(t *testing.T) {
	srv := testServer(t, &stubFetcher{articles: sampleArticles()})

	tests := []struct {
		query       string
		contentType string
		contains    string
	}{
		{"", "text/html; charset=utf-8", "<html"},
		{"?format=html", "text/html; charset=utf-8", "Acme profit rises"},
		{"?format=text", "text/plain; charset=utf-8", "Article: Acme profit rises"},
		{"?format=json", "application/json", `"title": "Acme profit rises"`},
		{"?format=yaml", "application/yaml", "title: Acme profit rises"},
	}
	for _, tc := range tests {
		t.Run("format"+tc.query, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, "/api/v1/report"+tc.query, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.contentType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tc.contains)
		})
	}
}

func TestReportBadFormat(t *testing.T) {
	srv := testServer(t, &stubFetcher{articles: sampleArticles()})
	rec := do(t, srv, http.MethodGet, "/api/v1/report?format=pdf", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decodeResponse(t, rec).Success)
}

// ════════════════════════════════════════════════════════════════════
// Config
// ════════════════════════════════════════════════════════════════════

func TestGetConfigMasksKeys(t *testing.T) {
	srv := testServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/api/v1/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.NotContains(t, body, "sk-test-very-long-key-value")
	assert.NotContains(t, body, "news-secret-key-123")
	assert.Contains(t, body, "sk-...lue")
	assert.Contains(t, body, "gpt-3.5-turbo")
}

func TestGetConfigUsesSnakeCaseKeys(t *testing.T) {
	srv := testServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/api/v1/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "OpenAIKey")
	assert.NotContains(t, body, "MaxTokens")

	var cfg map[string]map[string]any
	decodeData(t, decodeResponse(t, rec), &cfg)
	require.Contains(t, cfg, "llm")
	require.Contains(t, cfg, "news")
	require.Contains(t, cfg, "analysis")
	assert.Contains(t, cfg["llm"], "openai_key")
	assert.Contains(t, cfg["llm"], "max_tokens")
	assert.Contains(t, cfg["news"], "api_key")
	assert.Contains(t, cfg["analysis"], "thresholds")
	assert.Contains(t, cfg["api"], "cors_origins")
}

func TestGetConfigKeys(t *testing.T) {
	srv := testServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/api/v1/config/keys", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var keys []config.KeyStatus
	decodeData(t, decodeResponse(t, rec), &keys)
	require.Len(t, keys, 3)
	for _, k := range keys {
		assert.NotContains(t, k.Masked, "secret")
	}
	assert.True(t, keys[0].IsSet)
	assert.False(t, keys[1].IsSet)
}

// ════════════════════════════════════════════════════════════════════
// WebSocket
// ════════════════════════════════════════════════════════════════════

func TestWebSocketReceivesAnalysisEvents(t *testing.T) {
	srv := testServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Hub().Run(ctx)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	body, _ := json.Marshal(AnalyzeRequest{Title: "Acme profit rises", Content: "growth strong"})
	resp, err := http.Post(ts.URL+"/api/v1/analyze", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "analysis_complete", msg.Type)
	assert.Equal(t, "Acme profit rises", msg.Data["title"])
	assert.Equal(t, string(models.ImpactBullish), msg.Data["impact"])
}

func TestWebSocketPing(t *testing.T) {
	srv := testServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Hub().Run(ctx)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/v1/stream", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "ping"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "pong", msg.Type)
}

func TestHubStopsOnCancel(t *testing.T) {
	hub := NewWSHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := &WSClient{send: make(chan WSMessage, 1)}
	require.True(t, hub.Register(context.Background(), client))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	assert.Zero(t, hub.ClientCount())
	_, open := <-client.send
	assert.False(t, open, "client channel should be closed")
	assert.False(t, hub.Register(context.Background(), &WSClient{send: make(chan WSMessage)}))
	hub.Unregister(client) // must not block after stop
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewWSHub(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	slow := &WSClient{send: make(chan WSMessage)} // unbuffered, never read
	require.True(t, hub.Register(ctx, slow))

	hub.Broadcast(WSMessage{Type: "analysis_complete"})
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}
