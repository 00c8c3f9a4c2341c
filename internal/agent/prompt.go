package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chris/sprout/internal/care"
)

const SystemPrompt = `You are an expert botanist and plant care advisor. You have deep knowledge of:
- Tropical houseplants, succulents, cacti, herbs, and common garden plants
- Light requirements (direct sun, bright indirect, low light, shade)
- Watering needs based on season, temperature, humidity, and plant type
- Fertilization schedules (growing season vs dormancy)
- Common problems (overwatering, leggy growth, pests, root rot)
- Environmental adjustments (humidity, temperature, placement)

Your goal is to analyze a plant inventory with calculated days_since_action for ALL action types. BE CONSERVATIVE: only recommend actions when sufficient time has passed since the last occurrence. The days_since_action field shows exactly how many days ago each action was performed (null means never).`

func intervals() string {
	parts := make([]string, 0, len(care.Actions))
	for _, a := range care.Actions {
		parts = append(parts, fmt.Sprintf("%s: %dd", a, MinIntervals[a]))
	}
	return strings.Join(parts, ", ")
}

func buildPrompt(weatherContext string, inventory []PlantContext) (string, error) {
	inv, err := json.MarshalIndent(inventory, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding inventory: %w", err)
	}

	var b strings.Builder
	b.WriteString("Analyze this plant inventory and recommend care actions.\n\n")
	b.WriteString("## Weather Context\n")
	b.WriteString(weatherContext)
	b.WriteString("\n\n## Plant Inventory\n")
	b.WriteString("Each plant has days_since_action showing days since each action type was performed (null = never done). recent_care lists the latest logged actions, newest first.\n")
	b.Write(inv)
	b.WriteString("\n\n## Available Actions & Minimum Intervals\n")
	b.WriteString(intervals())
	b.WriteString(`

## CRITICAL Instructions
1. Check days_since_action for EACH action type before recommending:
   - WATER: Only if days_since >= max_days in watering_guidelines
   - FERTILIZE: Only during growing season AND if days_since >= 14
   - MIST: Only if days_since >= 2
   - ROTATE: Only if days_since >= 7
   - CHECK: Only if days_since >= 3
   - PRUNE/REPOT: Only if clearly needed AND sufficient time has passed
2. Consider weather (skip watering outdoor plants if it rained)
3. For null values: action has never been done, may be needed
4. Assign priority based on urgency
5. Skip plants that were recently cared for

## Output Format
Return valid JSON:
{
  "tasks": [
    {"name": "PlantName", "action": "ACTION_TYPE", "priority": "HIGH|MEDIUM|LOW", "reason": "Brief explanation including days since last action"}
  ],
  "summary": "One-line overall assessment"
}

If no actions needed, return {"tasks": [], "summary": "All plants look healthy!"}.
`)
	return b.String(), nil
}
