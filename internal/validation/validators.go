package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/benvon/twin-insights/internal/models"
)

// MaxQuestionLength is the longest research question accepted, in characters
const MaxQuestionLength = 1000

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("product", validateProduct); err != nil {
		panic(fmt.Sprintf("failed to register product validator: %v", err))
	}
}

// validateProduct accepts catalog product IDs and their aliases
func validateProduct(fl validator.FieldLevel) bool {
	_, err := models.ParseProduct(fl.Field().String())
	return err == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateQuestion sanitizes a research question and enforces its bounds
func ValidateQuestion(q string) (string, error) {
	q = SanitizeText(q)
	if q == "" {
		return "", fmt.Errorf("question is required")
	}
	if n := len([]rune(q)); n > MaxQuestionLength {
		return "", fmt.Errorf("question exceeds maximum length of %d characters", MaxQuestionLength)
	}
	return q, nil
}

// FirstError renders the first validator failure as a client-facing message
func FirstError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
		fe := validationErrors[0]
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("%s is required", strings.ToLower(fe.Field()))
		case "product":
			return fmt.Sprintf("invalid product %q", fe.Value())
		default:
			return fmt.Sprintf("Validation failed: %s", fe.Error())
		}
	}
	return "Validation failed"
}
