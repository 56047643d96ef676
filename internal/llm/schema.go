package llm

// BuildSectionJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass it to the model as a structured output constraint
// and also use it locally to flag drift; a schema miss is logged, not
// fatal, because the memo sanitizer is the real enforcement layer.
func BuildSectionJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"title":         map[string]any{"type": "string", "minLength": 1},
			"paragraphs":    paragraphsProp(),
			"highlights":    highlightsProp(),
			"key_points":    stringArrayProp(),
			"narrative":     subSectionProp(),
			"vc_reflection": subSectionProp(),
		},
		"required": []string{"title", "paragraphs"},
	}
}

// BuildQuickTakeJSONSchema constrains the closing verdict payload.
func BuildQuickTakeJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"verdict":   map[string]any{"type": "string", "minLength": 1},
			"concerns":  stringArrayProp(),
			"strengths": stringArrayProp(),
			"readiness_level": map[string]any{
				"type": "string",
				"enum": []string{"LOW", "MEDIUM", "HIGH"},
			},
			"readiness_rationale": map[string]any{"type": "string"},
		},
		"required": []string{"verdict", "readiness_level"},
	}
}

func paragraphsProp() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
				"emphasis": map[string]any{
					"type": "string",
					"enum": []string{"plain", "strong", "caution"},
				},
			},
			"required": []string{"text"},
		},
	}
}

func highlightsProp() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"metric": map[string]any{"type": "string"},
				"label":  map[string]any{"type": "string"},
			},
			"required": []string{"metric"},
		},
	}
}

func stringArrayProp() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
}

func subSectionProp() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"title":      map[string]any{"type": "string"},
			"paragraphs": paragraphsProp(),
			"highlights": highlightsProp(),
			"key_points": stringArrayProp(),
		},
		"required": []string{"title"},
	}
}
