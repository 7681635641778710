package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/nimbus-ai/nimbus/internal/errors"
)

// maxPageLen caps the rendered page text so a long article doesn't flood the
// terminal or the speech output.
const maxPageLen = 2000

// readPage fetches a URL and renders its content as plain markdown.
func (p *Plugin) readPage(ctx context.Context, input string) (string, error) {
	target := extractURL(input)
	if target == "" {
		return "", errors.User(errors.CodeInvalidInput, "which page should I read? Include a full URL.")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", errors.User(errors.CodeInvalidInput, fmt.Sprintf("%q is not a valid URL", target))
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", errors.NewBuilder(errors.CodeNetworkUnavailable, "could not fetch the page").
			External().
			Wrap(err).
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.External(errors.CodeServiceBadPayload,
			fmt.Sprintf("page returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeNetworkUnavailable, "failed to read the page", errors.CategoryExternal)
	}

	converter := md.NewConverter("", true, nil)
	text, err := converter.ConvertString(string(body))
	if err != nil {
		return "", errors.Wrap(err, errors.CodeServiceBadPayload, "failed to render the page", errors.CategoryExternal)
	}

	text = strings.TrimSpace(text)
	if len(text) > maxPageLen {
		text = text[:maxPageLen] + "\n[truncated]"
	}
	if text == "" {
		return "The page had no readable text.", nil
	}
	return text, nil
}

// extractURL finds the first http(s) token in the input.
func extractURL(input string) string {
	for _, field := range strings.Fields(input) {
		if strings.HasPrefix(field, "http://") || strings.HasPrefix(field, "https://") {
			return strings.Trim(field, ".,")
		}
	}
	return ""
}
