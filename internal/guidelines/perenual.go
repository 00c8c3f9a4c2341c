// Package guidelines looks up per-species watering guidance from the
// Perenual plant API, backed by a JSON file cache.
package guidelines

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

const perenualAPI = "https://perenual.com/api/v2"

type Guideline struct {
	Watering        string   `json:"watering"`
	WateringPeriod  string   `json:"watering_period"`
	MinWateringDays int      `json:"min_watering_days"`
	MaxWateringDays int      `json:"max_watering_days"`
	Sunlight        []string `json:"sunlight"`
	CommonName      string   `json:"common_name,omitempty"`
}

// Default is used when the API is unavailable or does not know the plant.
var Default = Guideline{
	Watering:        "Average",
	WateringPeriod:  "weekly",
	MinWateringDays: 5,
	MaxWateringDays: 10,
	Sunlight:        []string{"Indirect"},
}

// Day ranges for Perenual's watering levels.
var wateringDays = map[string][2]int{
	"Frequent": {2, 4},
	"Average":  {5, 10},
	"Minimum":  {14, 21},
	"None":     {30, 60},
}

type Client struct {
	apiKey  string
	baseURL string
	cache   *Cache
	http    *http.Client
}

// NewClient returns a client; cache may be nil. With no API key every
// uncached lookup returns Default.
func NewClient(apiKey string, cache *Cache) *Client {
	return &Client{apiKey: apiKey, baseURL: perenualAPI, cache: cache, http: &http.Client{Timeout: 10 * time.Second}}
}

func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// Lookup returns watering guidance for a plant by common name. It never
// fails; problems are logged and Default is returned.
func (c *Client) Lookup(ctx context.Context, name string) Guideline {
	if c.cache != nil {
		if g, ok := c.cache.Get(name); ok {
			log.Printf("guidelines: %s: water every %d-%d days (cached)", name, g.MinWateringDays, g.MaxWateringDays)
			return g
		}
	}
	if c.apiKey == "" {
		return Default
	}

	id, err := c.search(ctx, cacheKey(name))
	if err != nil {
		log.Printf("guidelines: search %q: %v", name, err)
		return Default
	}
	if id == 0 {
		log.Printf("guidelines: no API data for %q, using defaults", name)
		return Default
	}
	g, err := c.details(ctx, id, name)
	if err != nil {
		log.Printf("guidelines: details for %q: %v", name, err)
		return Default
	}

	if c.cache != nil {
		c.cache.Put(name, g)
		if err := c.cache.Save(); err != nil {
			log.Printf("guidelines: %v", err)
		}
	}
	log.Printf("guidelines: %s: water every %d-%d days (%s)", name, g.MinWateringDays, g.MaxWateringDays, g.Watering)
	return g
}

// search returns the first species id matching q, or 0 when none does.
func (c *Client) search(ctx context.Context, q string) (int64, error) {
	body, err := c.get(ctx, "/species-list", url.Values{"q": {q}})
	if err != nil {
		return 0, err
	}
	return gjson.GetBytes(body, "data.0.id").Int(), nil
}

func (c *Client) details(ctx context.Context, id int64, name string) (Guideline, error) {
	body, err := c.get(ctx, "/species/details/"+strconv.FormatInt(id, 10), url.Values{})
	if err != nil {
		return Guideline{}, err
	}
	res := gjson.ParseBytes(body)

	watering := res.Get("watering").String()
	if watering == "" {
		watering = "Average"
	}
	days, ok := wateringDays[watering]
	if !ok {
		days = wateringDays["Average"]
	}
	period := res.Get("watering_general_benchmark.value").String()
	if period == "" {
		period = "weekly"
	}
	var sunlight []string
	for _, s := range res.Get("sunlight").Array() {
		sunlight = append(sunlight, s.String())
	}
	if len(sunlight) == 0 {
		sunlight = Default.Sunlight
	}
	common := res.Get("common_name").String()
	if common == "" {
		common = name
	}
	return Guideline{
		Watering:        watering,
		WateringPeriod:  period,
		MinWateringDays: days[0],
		MaxWateringDays: days[1],
		Sunlight:        sunlight,
		CommonName:      common,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	q.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perenual request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("perenual: %s", resp.Status)
	}
	return body, nil
}
