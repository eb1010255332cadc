package datasource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seenimoa/finnews/internal/config"
	"github.com/seenimoa/finnews/internal/logger"
)

const businessFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Example Business</title>
  <link>https://biz.example</link>
  <description>Business news</description>
  <item>
    <title>Bank profits jump</title>
    <link>https://biz.example/bank</link>
    <description><![CDATA[<p>Lenders report <b>record</b> revenue.</p>]]></description>
    <pubDate>Fri, 15 Mar 2024 10:30:00 +0000</pubDate>
  </item>
  <item>
    <title>Chipmaker shares surge</title>
    <link>https://biz.example/chips</link>
    <description>Stock rallies on AI demand</description>
    <pubDate>Sat, 16 Mar 2024 08:00:00 +0000</pubDate>
  </item>
  <item>
    <title>Festival opens in the park</title>
    <link>https://biz.example/festival</link>
    <description>Crowds gather for music</description>
    <pubDate>Sat, 16 Mar 2024 09:00:00 +0000</pubDate>
  </item>
  <item>
    <title>Markets without a link</title>
    <description>Investors wait</description>
    <pubDate>Sat, 16 Mar 2024 09:00:00 +0000</pubDate>
  </item>
  <item>
    <title>Earnings preview</title>
    <link>https://biz.example/empty</link>
    <pubDate>Sat, 16 Mar 2024 09:00:00 +0000</pubDate>
  </item>
</channel>
</rss>`

func feedServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestRSS(feeds ...string) *RSS {
	return NewRSS(config.NewsConfig{Feeds: feeds, MaxArticles: 5, TimeoutSec: 5}, WithRSSLogger(logger.Discard()))
}

func TestRSSFetchesFinanceItemsNewestFirst(t *testing.T) {
	srv := feedServer(t, businessFeed, http.StatusOK)

	articles, err := newTestRSS(srv.URL).GetFinancialNews(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, articles, 2)

	require.Equal(t, "Chipmaker shares surge", articles[0].Title)
	require.Equal(t, "Bank profits jump", articles[1].Title)
	require.Equal(t, "Lenders report record revenue.", articles[1].Content)
	require.Equal(t, "Example Business", articles[1].Source)
	require.Equal(t, "https://biz.example/bank", articles[1].URL)
}

func TestRSSQueryFilter(t *testing.T) {
	srv := feedServer(t, businessFeed, http.StatusOK)

	articles, err := newTestRSS(srv.URL).GetFinancialNews(context.Background(), "AI demand")
	require.NoError(t, err)
	require.Len(t, articles, 1)
	require.Equal(t, "Chipmaker shares surge", articles[0].Title)
}

func TestRSSMaxArticles(t *testing.T) {
	srv := feedServer(t, businessFeed, http.StatusOK)
	r := NewRSS(config.NewsConfig{Feeds: []string{srv.URL}, MaxArticles: 1}, WithRSSLogger(logger.Discard()))

	articles, err := r.GetFinancialNews(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, articles, 1)
}

func TestRSSSkipsFailingFeed(t *testing.T) {
	good := feedServer(t, businessFeed, http.StatusOK)
	bad := feedServer(t, "", http.StatusInternalServerError)

	articles, err := newTestRSS(bad.URL, good.URL).GetFinancialNews(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, articles, 2)
}

func TestRSSAllFeedsFail(t *testing.T) {
	bad := feedServer(t, "", http.StatusBadGateway)

	_, err := newTestRSS(bad.URL).GetFinancialNews(context.Background(), "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "all 1 feeds failed")
}

func TestCleanHTML(t *testing.T) {
	require.Equal(t, "", cleanHTML(""))
	require.Equal(t, "plain text", cleanHTML("plain text"))
	require.Equal(t, "Hello world again", cleanHTML("<p>Hello <i>world</i></p>\n<div>again</div>"))
}
