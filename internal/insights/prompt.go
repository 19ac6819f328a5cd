package insights

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/benvon/twin-insights/internal/models"
)

// maxFieldChars bounds each serialized profile attribute in the prompt
const maxFieldChars = 800

// SystemPrompt frames the model as an insights analyst briefing a brand team
const SystemPrompt = `You are an AI insights analyst for PAI (Personal AI), a platform that builds digital twin personas from in-depth conversational interviews.

You analyze several AI digital twin profiles and report aggregated consumer insights to brand researchers.

Guidelines:
1. Ground every claim in the supplied profile data; do not invent twins or behaviors.
2. Cite patterns with counts (for example "3 out of 5 twins mentioned...") and give percentage breakdowns where they apply.
3. Call out clear trends and anything surprising.
4. Write in a natural, professional register, as if briefing a brand manager.
5. Treat the twins as real people interviewed for 15 to 20 minutes, not hypothetical personas.`

// profileSections lists payload attributes rendered after demographics and summary, in order
var profileSections = []struct {
	field string
	label string
}{
	{"eating_habits", "Eating Habits"},
	{"purchase_behavior", "Purchase Behavior"},
	{"health_wellness", "Health & Wellness"},
	{"lifestyle", "Lifestyle"},
}

// BuildPrompt assembles the user prompt for one research question
func BuildPrompt(product models.Product, question string, profiles []*models.Profile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "PRODUCT CATEGORY: %s\n\n", product.DisplayName())
	fmt.Fprintf(&b, "BRAND RESEARCH QUESTION:\n%s\n\n", question)
	b.WriteString("AI DIGITAL TWIN PROFILES:\n")
	b.WriteString(FormatProfiles(profiles))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Analyze these %d digital twin profiles and answer the brand's question.\n\n", len(profiles))
	b.WriteString(`If the profile data supports it, respond with ONLY a JSON object of this shape (no markdown, no commentary):
{
  "total_twins_queried": <number of profiles analyzed>,
  "confidence": <overall confidence 0-100>,
  "key_insights": ["<short insight>", "..."],
  "survey_results": [
    {
      "question": "<sub-question you answered>",
      "insight_type": "<optional label, e.g. preference, price, frequency>",
      "top_insight": "<one-line takeaway>",
      "confidence": <0-100>,
      "data_points": [{"category": "<answer option>", "percentage": <0-100>}]
    }
  ]
}
Percentages in one question do not need to sum to 100.

If the profiles cannot support a structured breakdown, answer instead in 150-250 words of plain prose focused on patterns, counts and actionable findings.`)

	return b.String()
}

// FormatProfiles renders a bounded, numbered summary of each profile
func FormatProfiles(profiles []*models.Profile) string {
	blocks := make([]string, 0, len(profiles))
	for i, p := range profiles {
		blocks = append(blocks, formatProfile(i+1, p))
	}
	return strings.Join(blocks, "\n\n")
}

func formatProfile(n int, p *models.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Twin %d:", n)

	if demo, ok := p.Field("demographics"); ok {
		if m, ok := demo.(map[string]any); ok {
			if age, ok := m["age"]; ok && age != nil && age != "" {
				fmt.Fprintf(&b, "\n  Age: %v", age)
			}
			if loc, ok := m["location"]; ok && loc != nil && loc != "" {
				fmt.Fprintf(&b, "\n  Location: %v", loc)
			}
		}
	}

	if p.HasField("summary") {
		s, _ := p.Field("summary")
		fmt.Fprintf(&b, "\n  Summary: %s", truncate(fmt.Sprint(s)))
	}

	for _, section := range profileSections {
		if !p.HasField(section.field) {
			continue
		}
		v, _ := p.Field(section.field)
		fmt.Fprintf(&b, "\n  %s: %s", section.label, truncate(encodeValue(v)))
	}

	return b.String()
}

func encodeValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxFieldChars {
		return s
	}
	return string(r[:maxFieldChars]) + "..."
}
