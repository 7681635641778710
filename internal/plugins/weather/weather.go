// Package weather implements the weather plugin on the OpenWeatherMap API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nimbus-ai/nimbus/internal/errors"
	"github.com/nimbus-ai/nimbus/internal/plugin"
)

const (
	defaultBaseURL = "https://api.openweathermap.org/data/2.5"
	requestTimeout = 8 * time.Second
)

// Plugin answers weather and forecast questions.
type Plugin struct {
	plugin.Base
	apiKey      string
	defaultCity string
	baseURL     string
	client      *http.Client
	logger      *zap.SugaredLogger
}

// New creates the weather plugin. An empty API key leaves the plugin
// registered but answering with setup instructions.
func New(apiKey, defaultCity string, logger *zap.SugaredLogger) *Plugin {
	if defaultCity == "" {
		defaultCity = "London"
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Plugin{
		Base: plugin.NewBase(
			"weather",
			"Current weather and forecasts via OpenWeatherMap",
			[]string{"weather", "temperature", "forecast"},
		),
		apiKey:      apiKey,
		defaultCity: defaultCity,
		baseURL:     defaultBaseURL,
		client:      &http.Client{Timeout: requestTimeout},
		logger:      logger,
	}
}

// HandleCommand answers a weather question.
func (p *Plugin) HandleCommand(ctx context.Context, input string) (string, error) {
	if p.apiKey == "" {
		return "Weather is not configured. Add your OpenWeatherMap API key to config.json under weather.api_key.", nil
	}

	city := ExtractCity(input, p.defaultCity)

	if strings.Contains(strings.ToLower(input), "forecast") {
		return p.forecast(ctx, city)
	}
	return p.current(ctx, city)
}

// ExtractCity pulls a city from a weather question, falling back to the
// default: the text after " in " or " for ".
func ExtractCity(input, defaultCity string) string {
	text := strings.ToLower(strings.TrimSpace(input))
	for _, sep := range []string{" in ", " for "} {
		if idx := strings.Index(text, sep); idx >= 0 {
			city := strings.Trim(text[idx+len(sep):], "?!. ")
			if city != "" {
				return city
			}
		}
	}
	return defaultCity
}

type currentResponse struct {
	Name    string `json:"name"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
}

func (p *Plugin) current(ctx context.Context, city string) (string, error) {
	var payload currentResponse
	if err := p.get(ctx, "/weather", city, &payload); err != nil {
		return "", err
	}

	description := "unknown conditions"
	if len(payload.Weather) > 0 {
		description = payload.Weather[0].Description
	}

	return fmt.Sprintf("Weather in %s: %s, %.1f°C (feels like %.1f°C), humidity %d%%.",
		payload.Name, description, payload.Main.Temp, payload.Main.FeelsLike, payload.Main.Humidity), nil
}

type forecastResponse struct {
	City struct {
		Name string `json:"name"`
	} `json:"city"`
	List []struct {
		DtTxt   string `json:"dt_txt"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
	} `json:"list"`
}

// forecast summarizes the next few 3-hour slots from the 5-day endpoint.
func (p *Plugin) forecast(ctx context.Context, city string) (string, error) {
	var payload forecastResponse
	if err := p.get(ctx, "/forecast", city, &payload); err != nil {
		return "", err
	}

	if len(payload.List) == 0 {
		return "", errors.External(errors.CodeServiceBadPayload, "forecast response contained no entries")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Forecast for %s:", payload.City.Name)
	limit := 4
	if len(payload.List) < limit {
		limit = len(payload.List)
	}
	for _, slot := range payload.List[:limit] {
		description := ""
		if len(slot.Weather) > 0 {
			description = slot.Weather[0].Description
		}
		fmt.Fprintf(&sb, "\n  %s: %s, %.1f°C", slot.DtTxt, description, slot.Main.Temp)
	}
	return sb.String(), nil
}

func (p *Plugin) get(ctx context.Context, path, city string, out any) error {
	endpoint := fmt.Sprintf("%s%s?q=%s&appid=%s&units=metric",
		p.baseURL, path, url.QueryEscape(city), url.QueryEscape(p.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.NewBuilder(errors.CodeWeatherUnavailable, "could not reach the weather service").
			External().
			Wrap(err).
			WithSuggestion("Check your internet connection").
			Build()
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errors.User(errors.CodeInvalidInput, fmt.Sprintf("I couldn't find a city called %q", city))
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return errors.NewBuilder(errors.CodeWeatherUnavailable, "the weather service rejected the API key").
			Permanent().
			WithSuggestion("Check weather.api_key in config.json").
			Build()
	}
	if resp.StatusCode != http.StatusOK {
		return errors.External(errors.CodeWeatherUnavailable,
			fmt.Sprintf("weather service returned status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, errors.CodeServiceBadPayload, "failed to parse weather response", errors.CategoryExternal)
	}
	return nil
}
