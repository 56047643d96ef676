package constants

import (
	"strings"
)

// QuestionKey identifies one questionnaire question. Answers are stored
// against these canonical keys; the memo prompts and the quality checks
// look answers up by key.
type QuestionKey string

const (
	QuestionProblem       QuestionKey = "problem"
	QuestionSolution      QuestionKey = "solution"
	QuestionMarket        QuestionKey = "market"
	QuestionBusinessModel QuestionKey = "business_model"
	QuestionTraction      QuestionKey = "traction"
	QuestionTeam          QuestionKey = "team"
	QuestionCompetition   QuestionKey = "competition"
	QuestionFinancials    QuestionKey = "financials"
	QuestionFundraising   QuestionKey = "fundraising"
	QuestionVision        QuestionKey = "vision"
)

var allQuestions = []QuestionKey{
	QuestionProblem,
	QuestionSolution,
	QuestionMarket,
	QuestionBusinessModel,
	QuestionTraction,
	QuestionTeam,
	QuestionCompetition,
	QuestionFinancials,
	QuestionFundraising,
	QuestionVision,
}

func QuestionKeys() []string {
	result := make([]string, len(allQuestions))
	for i, q := range allQuestions {
		result[i] = string(q)
	}
	return result
}

// CanonicalizeQuestion maps loose client-supplied labels onto canonical keys.
func CanonicalizeQuestion(input string) (QuestionKey, bool) {
	if input == "" {
		return "", false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")

	// synonyms map
	synonyms := map[string]QuestionKey{
		"pain_point":    QuestionProblem,
		"product":       QuestionSolution,
		"tam":           QuestionMarket,
		"market_size":   QuestionMarket,
		"revenue_model": QuestionBusinessModel,
		"monetization":  QuestionBusinessModel,
		"metrics":       QuestionTraction,
		"growth":        QuestionTraction,
		"founders":      QuestionTeam,
		"competitors":   QuestionCompetition,
		"runway":        QuestionFinancials,
		"raise":         QuestionFundraising,
		"round":         QuestionFundraising,
	}

	if q, ok := synonyms[normalized]; ok {
		return q, true
	}

	for _, q := range allQuestions {
		if normalized == string(q) {
			return q, true
		}
	}

	return "", false
}
