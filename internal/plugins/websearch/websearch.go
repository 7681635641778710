// Package websearch implements the web search plugin: search results scraped
// from Google, news headlines from RSS feeds and a page reader.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/nimbus-ai/nimbus/internal/errors"
	"github.com/nimbus-ai/nimbus/internal/plugin"
)

const (
	defaultSearchURL = "https://www.google.com/search"
	requestTimeout   = 10 * time.Second
	maxResults       = 5

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Opener opens a URL in the user's browser.
type Opener func(ctx context.Context, target string) error

// Plugin answers search, news and page reading commands.
type Plugin struct {
	plugin.Base
	client    *http.Client
	searchURL string
	feedURL   string
	quoteURL  string
	redditURL string
	opener    Opener
	logger    *zap.SugaredLogger
}

// New creates the web search plugin. opener may be nil, disabling the
// browser-opening commands.
func New(opener Opener, logger *zap.SugaredLogger) *Plugin {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Plugin{
		Base: plugin.NewBase(
			"websearch",
			"Web search, news headlines, page reading, stock quotes and Reddit",
			[]string{"search for", "search", "google", "youtube", "news", "headlines", "read page", "stock", "reddit"},
		),
		client:    &http.Client{Timeout: requestTimeout},
		searchURL: defaultSearchURL,
		feedURL:   defaultFeedURL,
		quoteURL:  defaultQuoteURL,
		redditURL: defaultRedditURL,
		opener:    opener,
		logger:    logger,
	}
}

// SearchResult is one scraped search hit.
type SearchResult struct {
	Title string
	URL   string
}

// HandleCommand executes a search-family command.
func (p *Plugin) HandleCommand(ctx context.Context, input string) (string, error) {
	text := strings.ToLower(input)

	switch {
	case strings.Contains(text, "youtube"):
		return p.openYouTube(ctx, input)
	case strings.Contains(text, "news") || strings.Contains(text, "headlines"):
		return p.headlines(ctx)
	case strings.Contains(text, "read page"):
		return p.readPage(ctx, input)
	case strings.Contains(text, "stock"):
		return p.stockQuote(ctx, input)
	case strings.Contains(text, "reddit"):
		return p.redditSearch(ctx, input)
	default:
		return p.search(ctx, input)
	}
}

// extractQuery strips the command keyword and returns the query text.
func extractQuery(input string, keywords ...string) string {
	text := strings.TrimSpace(input)
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if idx := strings.Index(lower, kw); idx >= 0 {
			return strings.Trim(text[idx+len(kw):], "?!. ")
		}
	}
	return strings.Trim(text, "?!. ")
}

func (p *Plugin) search(ctx context.Context, input string) (string, error) {
	query := extractQuery(input, "search for", "search", "google")
	if query == "" {
		return "", errors.User(errors.CodeInvalidInput, "what should I search for?")
	}

	results, err := p.scrape(ctx, query)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return fmt.Sprintf("No results found for %q.", query), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Top results for %q:", query)
	for i, r := range results {
		fmt.Fprintf(&sb, "\n  %d. %s\n     %s", i+1, r.Title, r.URL)
	}
	return sb.String(), nil
}

// scrape pulls organic results from a Google results page. Result blocks are
// identified by an h3 inside an anchor; the layout changes now and then and
// this selector follows it.
func (p *Plugin) scrape(ctx context.Context, query string) ([]SearchResult, error) {
	endpoint := p.searchURL + "?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.NewBuilder(errors.CodeNetworkUnavailable, "could not reach the search engine").
			External().
			Wrap(err).
			WithSuggestion("Check your internet connection").
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.External(errors.CodeServiceBadPayload,
			fmt.Sprintf("search engine returned status %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeServiceBadPayload, "failed to parse search results", errors.CategoryExternal)
	}

	var results []SearchResult
	doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		h3 := sel.Find("h3")
		if h3.Length() == 0 {
			return true
		}
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		href = cleanHref(href)
		if href == "" {
			return true
		}
		results = append(results, SearchResult{
			Title: strings.TrimSpace(h3.First().Text()),
			URL:   href,
		})
		return len(results) < maxResults
	})

	return results, nil
}

// cleanHref unwraps Google's /url?q= redirect links and drops non-http ones.
func cleanHref(href string) string {
	if strings.HasPrefix(href, "/url?") {
		if u, err := url.Parse(href); err == nil {
			href = u.Query().Get("q")
		}
	}
	if !strings.HasPrefix(href, "http") {
		return ""
	}
	return href
}

func (p *Plugin) openYouTube(ctx context.Context, input string) (string, error) {
	if p.opener == nil {
		return "", errors.System(errors.CodeSystemCommandFailed, "no browser opener available")
	}

	query := extractQuery(input, "youtube")
	target := "https://www.youtube.com"
	if query != "" {
		target = "https://www.youtube.com/results?search_query=" + url.QueryEscape(query)
	}

	if err := p.opener(ctx, target); err != nil {
		return "", errors.Wrap(err, errors.CodeSystemCommandFailed, "could not open the browser", errors.CategorySystem)
	}
	if query == "" {
		return "Opening YouTube.", nil
	}
	return fmt.Sprintf("Searching YouTube for %q.", query), nil
}
