package insights

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/benvon/twin-insights/internal/models"
)

// Bar is one proportional bar. Width is the percentage clamped to [0, 100];
// bars in a chart are independent and need not sum to 100.
type Bar struct {
	Label       string  `json:"label"`
	Percentage  float64 `json:"percentage"`
	Width       float64 `json:"width"`
	Description string  `json:"description,omitempty"`
}

// Chart is the renderable form of one survey question
type Chart struct {
	Question    string  `json:"question"`
	InsightType string  `json:"insight_type,omitempty"`
	TopInsight  string  `json:"top_insight"`
	Confidence  float64 `json:"confidence"`
	Bars        []Bar   `json:"bars"`
}

// Summary is the headline shown for a structured result
func Summary(survey models.SurveyResult) string {
	return fmt.Sprintf("Analyzed %d AI twins with %s confidence", survey.TotalTwinsQueried, FormatPercent(survey.Confidence))
}

// FormatPercent renders 82 as "82%" and 82.5 as "82.5%"
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// Charts builds one chart per survey question, preserving order
func Charts(survey models.SurveyResult) []Chart {
	charts := make([]Chart, 0, len(survey.SurveyResults))
	for _, q := range survey.SurveyResults {
		c := Chart{
			Question:    q.Question,
			InsightType: q.InsightType,
			TopInsight:  q.TopInsight,
			Confidence:  q.Confidence,
			Bars:        make([]Bar, 0, len(q.DataPoints)),
		}
		for _, dp := range q.DataPoints {
			c.Bars = append(c.Bars, Bar{
				Label:       dp.Category,
				Percentage:  dp.Percentage,
				Width:       clampPercent(dp.Percentage),
				Description: dp.Description,
			})
		}
		charts = append(charts, c)
	}
	return charts
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// RenderText writes a terminal rendering of a structured result with bars
// up to width cells wide
func RenderText(w io.Writer, survey models.SurveyResult, width int) error {
	if width <= 0 {
		width = 40
	}
	var b strings.Builder
	b.WriteString(Summary(survey))
	b.WriteString("\n")
	if len(survey.KeyInsights) > 0 {
		b.WriteString("\nKey insights:\n")
		for _, ki := range survey.KeyInsights {
			b.WriteString("  • ")
			b.WriteString(ki)
			b.WriteString("\n")
		}
	}

	for _, c := range Charts(survey) {
		fmt.Fprintf(&b, "\n%s (%s confidence)\n", c.Question, FormatPercent(c.Confidence))
		if c.TopInsight != "" {
			fmt.Fprintf(&b, "  %s\n", c.TopInsight)
		}
		labelWidth := 0
		for _, bar := range c.Bars {
			labelWidth = max(labelWidth, len(bar.Label))
		}
		for _, bar := range c.Bars {
			cells := int(bar.Width/100*float64(width) + 0.5)
			fmt.Fprintf(&b, "  %-*s %s%s %s\n",
				labelWidth, bar.Label,
				strings.Repeat("█", cells), strings.Repeat("░", width-cells),
				FormatPercent(bar.Percentage))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
