package router

import "strings"

// extractTopic pulls the subject out of a knowledge question: the text after
// the question phrase, with filler and punctuation trimmed.
func extractTopic(input, phrase string) string {
	text := strings.TrimSpace(input)
	lower := strings.ToLower(text)

	idx := strings.Index(lower, phrase)
	if idx < 0 {
		return strings.Trim(text, "?!. ")
	}

	topic := text[idx+len(phrase):]
	topic = strings.Trim(topic, "?!. ")
	topic = strings.TrimSpace(topic)

	for _, filler := range []string{"a ", "an ", "the "} {
		if strings.HasPrefix(strings.ToLower(topic), filler) {
			topic = topic[len(filler):]
			break
		}
	}

	return strings.TrimSpace(topic)
}

// extractApp pulls an application name from a launch command. A launch verb
// plus a known app name matches anywhere in the sentence; otherwise the
// command must start with a verb and the remainder is taken as the app.
func extractApp(text string) (string, bool) {
	hasVerb := false
	for _, verb := range launchVerbs {
		if strings.Contains(text, verb+" ") || text == verb {
			hasVerb = true
			break
		}
	}
	if !hasVerb {
		return "", false
	}

	for _, app := range appIndicators {
		if strings.Contains(text, app) {
			return app, true
		}
	}

	// Only "open" is trusted without a known app name; "start X" and
	// "run X" are too ambiguous (start listening, run a search).
	if strings.HasPrefix(text, "open ") {
		app := strings.Trim(strings.TrimPrefix(text, "open "), "?!. ")
		if app != "" {
			return app, true
		}
	}

	return "", false
}
