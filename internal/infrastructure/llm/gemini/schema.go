package gemini

import "github.com/kirillkom/documind-auditor/internal/core/domain"

var requiredResultFields = []string{
	"score", "subject", "overallVerdict", "summary", "pros", "cons", "contentFeedback", "designFeedback",
}

func verdictLabels() []any {
	out := make([]any, 0, len(domain.Verdicts()))
	for _, v := range domain.Verdicts() {
		out = append(out, string(v))
	}
	return out
}

func requiredFields() []any {
	out := make([]any, 0, len(requiredResultFields))
	for _, f := range requiredResultFields {
		out = append(out, f)
	}
	return out
}

// responseSchema is the generation constraint in the API's OpenAPI-subset dialect.
func responseSchema() map[string]any {
	stringList := map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}}
	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"score":           map[string]any{"type": "INTEGER"},
			"subject":         map[string]any{"type": "STRING"},
			"overallVerdict":  map[string]any{"type": "STRING", "enum": verdictLabels()},
			"summary":         map[string]any{"type": "STRING"},
			"pros":            stringList,
			"cons":            stringList,
			"contentFeedback": map[string]any{"type": "STRING"},
			"designFeedback":  map[string]any{"type": "STRING"},
		},
		"required":         requiredFields(),
		"propertyOrdering": requiredFields(),
	}
}

// validationSchema is the same contract as JSON Schema, checked locally on every response.
func validationSchema() map[string]any {
	nonEmpty := map[string]any{"type": "string", "minLength": 1}
	stringList := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":    "integer",
				"minimum": domain.MinScore,
				"maximum": domain.MaxScore,
			},
			"subject":         nonEmpty,
			"overallVerdict":  map[string]any{"type": "string", "enum": verdictLabels()},
			"summary":         nonEmpty,
			"pros":            stringList,
			"cons":            stringList,
			"contentFeedback": nonEmpty,
			"designFeedback":  nonEmpty,
		},
		"required": requiredFields(),
	}
}
