package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/nimbus-ai/nimbus/internal/errors"
)

const (
	defaultQuoteURL  = "https://query1.finance.yahoo.com/v8/finance/chart"
	defaultRedditURL = "https://www.reddit.com"

	maxRedditPosts = 5
)

// stockQuote fetches the current price for a ticker symbol.
func (p *Plugin) stockQuote(ctx context.Context, input string) (string, error) {
	symbol := extractSymbol(input)
	if symbol == "" {
		return "", errors.User(errors.CodeInvalidInput, "which stock symbol? Try \"stock price of AAPL\"")
	}

	var payload struct {
		Chart struct {
			Result []struct {
				Meta struct {
					Symbol             string  `json:"symbol"`
					Currency           string  `json:"currency"`
					RegularMarketPrice float64 `json:"regularMarketPrice"`
					PreviousClose      float64 `json:"chartPreviousClose"`
				} `json:"meta"`
			} `json:"result"`
		} `json:"chart"`
	}
	if err := p.getJSON(ctx, p.quoteURL+"/"+url.PathEscape(symbol), &payload); err != nil {
		return "", err
	}
	if len(payload.Chart.Result) == 0 {
		return fmt.Sprintf("I couldn't find a quote for %s.", symbol), nil
	}

	meta := payload.Chart.Result[0].Meta
	resp := fmt.Sprintf("%s is trading at %.2f %s", meta.Symbol, meta.RegularMarketPrice, meta.Currency)
	if meta.PreviousClose > 0 {
		change := (meta.RegularMarketPrice - meta.PreviousClose) / meta.PreviousClose * 100
		resp += fmt.Sprintf(" (%+.2f%% from previous close)", change)
	}
	return resp + ".", nil
}

// extractSymbol pulls the ticker out of a stock command. The first word after
// the keyword is the symbol.
func extractSymbol(input string) string {
	query := extractQuery(input,
		"stock price of", "stock price for", "stock quote for", "stock price", "stock quote", "stock")
	query = strings.TrimPrefix(strings.TrimSpace(query), "of ")
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(strings.Trim(fields[0], ".,?!"))
}

// redditSearch finds matching posts, or trending ones when no query is given.
func (p *Plugin) redditSearch(ctx context.Context, input string) (string, error) {
	query := extractQuery(input, "search reddit for", "reddit for", "on reddit", "reddit")

	endpoint := p.redditURL + "/r/popular/hot.json?limit=" + fmt.Sprint(maxRedditPosts)
	heading := "Trending on Reddit:"
	if query != "" {
		endpoint = p.redditURL + "/search.json?q=" + url.QueryEscape(query) +
			"&limit=" + fmt.Sprint(maxRedditPosts) + "&sort=relevance"
		heading = fmt.Sprintf("Reddit posts about %q:", query)
	}

	var payload struct {
		Data struct {
			Children []struct {
				Data struct {
					Title     string `json:"title"`
					Subreddit string `json:"subreddit"`
					Score     int    `json:"score"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := p.getJSON(ctx, endpoint, &payload); err != nil {
		return "", err
	}
	if len(payload.Data.Children) == 0 {
		return "No Reddit posts found.", nil
	}

	var sb strings.Builder
	sb.WriteString(heading)
	for i, child := range payload.Data.Children {
		post := child.Data
		fmt.Fprintf(&sb, "\n  %d. %s (r/%s, %d points)", i+1, strings.TrimSpace(post.Title), post.Subreddit, post.Score)
	}
	return sb.String(), nil
}

// getJSON fetches a URL and decodes its JSON body.
func (p *Plugin) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.NewBuilder(errors.CodeNetworkUnavailable, "could not reach the service").
			External().
			Wrap(err).
			WithSuggestion("Check your internet connection").
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.External(errors.CodeServiceBadPayload,
			fmt.Sprintf("service returned status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, errors.CodeServiceBadPayload, "failed to decode the response", errors.CategoryExternal)
	}
	return nil
}
