// Package insights turns a brand research question into aggregated consumer
// insights drawn from AI digital twin profiles.
package insights

import (
	"github.com/benvon/twin-insights/internal/models"
)

// Result is either Structured or PlainText
type Result interface {
	isResult()
}

// Structured is a survey-shaped answer suitable for charting
type Structured struct {
	Survey models.SurveyResult
}

// PlainText is a free-text answer displayed verbatim
type PlainText struct {
	Text string
}

func (Structured) isResult() {}
func (PlainText) isResult()  {}
