package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSymbol(t *testing.T) {
	cases := map[string]string{
		"stock price of AAPL":   "AAPL",
		"stock price for tsla":  "TSLA",
		"stock quote for GOOG?": "GOOG",
		"stock MSFT":            "MSFT",
		"stock":                 "",
	}
	for input, want := range cases {
		assert.Equal(t, want, extractSymbol(input), "input %q", input)
	}
}

func TestStockQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/AAPL", r.URL.Path)
		w.Write([]byte(`{"chart":{"result":[{"meta":{
			"symbol":"AAPL","currency":"USD",
			"regularMarketPrice":200.0,"chartPreviousClose":190.0}}]}}`))
	}))
	defer srv.Close()

	p := New(nil, nil)
	p.quoteURL = srv.URL

	resp, err := p.HandleCommand(context.Background(), "stock price of AAPL")
	require.NoError(t, err)
	assert.Contains(t, resp, "AAPL is trading at 200.00 USD")
	assert.Contains(t, resp, "+5.26%")
}

func TestStockQuoteUnknownSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[]}}`))
	}))
	defer srv.Close()

	p := New(nil, nil)
	p.quoteURL = srv.URL

	resp, err := p.HandleCommand(context.Background(), "stock price of ZZZZ")
	require.NoError(t, err)
	assert.Contains(t, resp, "couldn't find a quote")
}

func TestRedditSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		w.Write([]byte(`{"data":{"children":[
			{"data":{"title":"Go 1.25 released","subreddit":"golang","score":900}},
			{"data":{"title":"Generics tips","subreddit":"golang","score":340}}]}}`))
	}))
	defer srv.Close()

	p := New(nil, nil)
	p.redditURL = srv.URL

	resp, err := p.HandleCommand(context.Background(), "search reddit for golang")
	require.NoError(t, err)
	assert.Contains(t, resp, "Go 1.25 released")
	assert.Contains(t, resp, "r/golang")
	assert.Contains(t, resp, "900 points")
}

func TestRedditTrending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/popular/hot.json", r.URL.Path)
		w.Write([]byte(`{"data":{"children":[
			{"data":{"title":"Front page post","subreddit":"pics","score":12000}}]}}`))
	}))
	defer srv.Close()

	p := New(nil, nil)
	p.redditURL = srv.URL

	resp, err := p.HandleCommand(context.Background(), "what's hot on reddit")
	require.NoError(t, err)
	assert.Contains(t, resp, "Trending on Reddit")
	assert.Contains(t, resp, "Front page post")
}

func TestRedditServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := New(nil, nil)
	p.redditURL = srv.URL

	_, err := p.HandleCommand(context.Background(), "reddit golang")
	assert.Error(t, err)
}
