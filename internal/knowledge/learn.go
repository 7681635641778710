package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/nimbus-ai/nimbus/internal/errors"
)

// Source reliability ratings. A looked-up fact is stored with a fixed
// confidence regardless of which source answered; the rating picks the
// winner when both sources return something.
const (
	wikipediaReliability = 0.9
	webScrapeReliability = 0.7

	// autoLearnConfidence is the stored confidence for auto-learned facts.
	autoLearnConfidence = 0.8

	// manualLearnConfidence is the stored confidence for facts the user
	// taught explicitly.
	manualLearnConfidence = 1.0

	// responseConfidence is the stored confidence for summaries captured
	// from the model's own answers.
	responseConfidence = 0.6

	// maxSummaryLen caps summaries captured from model answers.
	maxSummaryLen = 500

	// minCaptureLen is the shortest model answer worth keeping; anything
	// under it is conversational filler, not a fact.
	minCaptureLen = 50

	lookupTimeout = 8 * time.Second
)

const (
	wikipediaSummaryURL = "https://en.wikipedia.org/api/rest_v1/page/summary/"
	googleSearchURL     = "https://www.google.com/search"
)

// userAgent keeps scraped endpoints from serving a bot page.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// lookupResult is one candidate answer from an external source.
type lookupResult struct {
	Summary     string
	Source      string
	Reliability float64
}

// Learner resolves unknown topics from external sources and feeds the store.
type Learner struct {
	store  *Store
	client *http.Client
	logger *zap.SugaredLogger

	wikiURL   string
	searchURL string
}

// NewLearner creates a learner writing into the given store.
func NewLearner(store *Store, logger *zap.SugaredLogger) *Learner {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Learner{
		store:     store,
		client:    &http.Client{Timeout: lookupTimeout},
		logger:    logger,
		wikiURL:   wikipediaSummaryURL,
		searchURL: googleSearchURL,
	}
}

// AutoLearn looks a topic up online, stores the best answer and returns its
// summary. Both sources failing is an error; the assistant falls through to
// other handlers in that case.
func (l *Learner) AutoLearn(ctx context.Context, topic string) (string, error) {
	var candidates []lookupResult

	if res, err := l.lookupWikipedia(ctx, topic); err == nil {
		candidates = append(candidates, *res)
	} else {
		l.logger.Debugw("wikipedia lookup failed", "topic", topic, "error", err)
	}

	if res, err := l.scrapeGoogle(ctx, topic); err == nil {
		candidates = append(candidates, *res)
	} else {
		l.logger.Debugw("google scrape failed", "topic", topic, "error", err)
	}

	if len(candidates) == 0 {
		return "", errors.NewBuilder(errors.CodeKnowledgeLearnFailed, fmt.Sprintf("could not find information about %q", topic)).
			External().
			WithSuggestion("Check your internet connection").
			Build()
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Reliability > best.Reliability {
			best = c
		}
	}

	// Losing sources survive as detail fragments on the stored entry.
	var details []string
	for _, c := range candidates {
		if c.Source != best.Source {
			details = append(details, c.Summary)
		}
	}

	if err := l.store.Store(topic, best.Summary, best.Source, autoLearnConfidence, details...); err != nil {
		return "", err
	}
	return best.Summary, nil
}

// LearnManual stores a fact the user taught explicitly, at full confidence.
func (l *Learner) LearnManual(topic, summary string) error {
	return l.store.Store(topic, summary, "user", manualLearnConfidence)
}

// CaptureResponse stores a summary of a model answer so repeated questions
// can be served from the knowledge base. Answers shorter than minCaptureLen
// are dropped.
func (l *Learner) CaptureResponse(topic, response string) error {
	if len(response) < minCaptureLen {
		return nil
	}
	summary := response
	if len(summary) > maxSummaryLen {
		summary = summary[:maxSummaryLen]
	}
	return l.store.Store(topic, summary, "assistant", responseConfidence)
}

// lookupWikipedia queries the Wikipedia REST summary endpoint.
func (l *Learner) lookupWikipedia(ctx context.Context, topic string) (*lookupResult, error) {
	endpoint := l.wikiURL + url.PathEscape(strings.ReplaceAll(strings.TrimSpace(topic), " ", "_"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNetworkUnavailable, "wikipedia request failed", errors.CategoryExternal)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.External(errors.CodeServiceBadPayload,
			fmt.Sprintf("wikipedia returned status %d", resp.StatusCode))
	}

	var payload struct {
		Extract string `json:"extract"`
		Type    string `json:"type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, errors.CodeServiceBadPayload, "failed to parse wikipedia response", errors.CategoryExternal)
	}

	if payload.Extract == "" || payload.Type == "disambiguation" {
		return nil, errors.External(errors.CodeKnowledgeNotFound, "no usable wikipedia summary")
	}

	return &lookupResult{
		Summary:     payload.Extract,
		Source:      "wikipedia",
		Reliability: wikipediaReliability,
	}, nil
}

// scrapeGoogle pulls the first snippet-looking block from a Google results
// page. Fragile by nature; any failure just means this source has no answer.
func (l *Learner) scrapeGoogle(ctx context.Context, topic string) (*lookupResult, error) {
	endpoint := l.searchURL + "?q=" + url.QueryEscape("what is "+topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeNetworkUnavailable, "google request failed", errors.CategoryExternal)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.External(errors.CodeServiceBadPayload,
			fmt.Sprintf("google returned status %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeServiceBadPayload, "failed to parse google response", errors.CategoryExternal)
	}

	var snippet string
	doc.Find("div").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if len(text) > 80 && len(text) < 600 && sel.Children().Length() == 0 {
			snippet = text
			return false
		}
		return true
	})

	if snippet == "" {
		return nil, errors.External(errors.CodeKnowledgeNotFound, "no usable snippet in search results")
	}

	return &lookupResult{
		Summary:     snippet,
		Source:      "web",
		Reliability: webScrapeReliability,
	}, nil
}
