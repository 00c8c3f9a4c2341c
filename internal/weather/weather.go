package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

const openMeteoURL = "https://api.open-meteo.com/v1/forecast"

// Forecast covers the past three days plus today, most recent last.
type Forecast struct {
	MaxTemps      []float64 `json:"temperature_2m_max"`
	Precipitation []float64 `json:"precipitation_sum"`
}

// Context renders the forecast for the advisor prompt.
func (f *Forecast) Context() string {
	if f == nil {
		return "Unknown"
	}
	today := "N/A"
	if n := len(f.MaxTemps); n > 0 {
		today = fmt.Sprintf("%g°C", f.MaxTemps[n-1])
	}
	rain := 0.0
	if n := len(f.Precipitation); n > 0 {
		rain = f.Precipitation[n-1]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "- Recent temperatures (past 3 days + today): %v\n", f.MaxTemps)
	fmt.Fprintf(&b, "- Recent precipitation (mm): %v\n", f.Precipitation)
	fmt.Fprintf(&b, "- Today's max temp: %s\n", today)
	fmt.Fprintf(&b, "- Today's rain: %gmm", rain)
	return b.String()
}

type Client struct {
	baseURL   string
	latitude  float64
	longitude float64
	http      *http.Client
}

func NewClient(latitude, longitude float64) *Client {
	return &Client{
		baseURL:   openMeteoURL,
		latitude:  latitude,
		longitude: longitude,
		http:      &http.Client{},
	}
}

// WithBaseURL points the client at another Open-Meteo compatible endpoint.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// Forecast fetches daily max temperature and precipitation.
func (c *Client) Forecast(ctx context.Context) (*Forecast, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(c.latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(c.longitude, 'f', -1, 64))
	q.Set("daily", "temperature_2m_max,precipitation_sum")
	q.Set("past_days", "3")
	q.Set("forecast_days", "1")
	q.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("weather api: %s %s", resp.Status, string(body))
	}

	daily := gjson.GetBytes(body, "daily")
	if !daily.Exists() {
		return nil, fmt.Errorf("weather api: response has no daily block")
	}
	return &Forecast{
		MaxTemps:      floats(daily.Get("temperature_2m_max")),
		Precipitation: floats(daily.Get("precipitation_sum")),
	}, nil
}

// floats reads a JSON number array; nulls (missing readings) become 0.
func floats(r gjson.Result) []float64 {
	var out []float64
	for _, v := range r.Array() {
		out = append(out, v.Float())
	}
	return out
}
