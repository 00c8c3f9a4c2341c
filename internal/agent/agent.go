// Package agent turns the plant inventory, weather and care history into a
// list of recommended care tasks.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chris/sprout/internal/care"
	"github.com/chris/sprout/internal/llm"
	"github.com/chris/sprout/internal/weather"
	"github.com/tidwall/gjson"
)

// ErrNoJSON is returned by ParseRecommendation when the model output holds
// no JSON object.
var ErrNoJSON = errors.New("no JSON in model output")

type Recommendation struct {
	Tasks   []care.Task
	Summary string
}

type Agent struct {
	client          llm.Client
	guidelines      GuidelineSource
	MaxPromptTokens int
	now             func() time.Time
}

// New returns an agent. guides may be nil, in which case every plant gets the
// default watering guideline.
func New(client llm.Client, guides GuidelineSource, maxPromptTokens int) *Agent {
	return &Agent{client: client, guidelines: guides, MaxPromptTokens: maxPromptTokens, now: time.Now}
}

// Recommend asks the model for care tasks. A transport error is returned; an
// unreadable answer is logged and yields no tasks.
func (a *Agent) Recommend(ctx context.Context, forecast *weather.Forecast, inventory []care.Plant, history map[string][]care.HistoryEntry) (Recommendation, error) {
	plants := BuildInventory(ctx, inventory, history, a.guidelines, a.now())

	prompt, err := a.fitPrompt(forecast.Context(), plants)
	if err != nil {
		return Recommendation{}, err
	}

	raw, err := a.client.Complete(ctx, SystemPrompt, prompt)
	if err != nil {
		return Recommendation{}, fmt.Errorf("llm complete: %w", err)
	}

	rec, err := ParseRecommendation(raw)
	if err != nil {
		log.Printf("agent: unparseable response (%v): %s", err, truncate(raw, 200))
		return Recommendation{}, nil
	}
	before := len(rec.Tasks)
	rec.Tasks = FilterTasks(rec.Tasks, plants)
	log.Printf("agent: %d task(s) recommended, %d after interval filter", before, len(rec.Tasks))
	return rec, nil
}

// fitPrompt renders the prompt, dropping the oldest history lines per plant
// until it fits within MaxPromptTokens.
func (a *Agent) fitPrompt(weatherContext string, plants []PlantContext) (string, error) {
	for n := maxHistory(plants); ; n-- {
		prompt, err := buildPrompt(weatherContext, withRecentCare(plants, n))
		if err != nil {
			return "", err
		}
		tokens := llm.EstimatePromptTokens(SystemPrompt, prompt)
		if a.MaxPromptTokens <= 0 || tokens <= a.MaxPromptTokens || n <= 0 {
			if n < maxHistory(plants) {
				log.Printf("agent: prompt trimmed to %d history entries per plant (~%d tokens)", n, tokens)
			}
			return prompt, nil
		}
	}
}

// ParseRecommendation reads the model's JSON answer. Markdown code fences are
// tolerated, actions and priorities are upper-cased, and tasks with unknown
// actions or no plant name are dropped.
func ParseRecommendation(raw string) (Recommendation, error) {
	body := stripFences(raw)
	if !gjson.Valid(body) {
		start, end := strings.Index(body, "{"), strings.LastIndex(body, "}")
		if start < 0 || end <= start || !gjson.Valid(body[start:end+1]) {
			return Recommendation{}, ErrNoJSON
		}
		body = body[start : end+1]
	}

	res := gjson.Parse(body)
	tasks := res.Get("tasks")
	if res.IsArray() {
		tasks = res
	} else if !res.IsObject() {
		return Recommendation{}, ErrNoJSON
	}

	rec := Recommendation{Summary: res.Get("summary").String()}
	for _, t := range tasks.Array() {
		name := strings.TrimSpace(t.Get("name").String())
		action, ok := care.ParseAction(t.Get("action").String())
		if !ok || name == "" {
			log.Printf("agent: dropping task %s", truncate(t.Raw, 120))
			continue
		}
		rec.Tasks = append(rec.Tasks, care.Task{
			Name:     name,
			Action:   action,
			Priority: care.ParsePriority(t.Get("priority").String()),
			Reason:   t.Get("reason").String(),
		})
	}
	return rec, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:] // language tag
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// truncate shortens s to at most n bytes without splitting a character.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
