package llm

import (
	"sort"
	"strings"
)

const maxAnswerChars = 2400

// BuildSectionSystemPrompt frames one memo-section call.
func BuildSectionSystemPrompt(req SectionRequest) string {
	parts := []string{
		"You are an investment analyst writing one section of an investment memorandum about a startup, based on the founder's questionnaire answers.",
		"Return ONLY JSON that matches the JSON Schema provided.",
		"Write in third person, measured and specific. Quote concrete numbers from the answers as highlights.",
		"Every paragraph is an object with 'text' and an optional 'emphasis' of plain, strong, or caution.",
		"Never output null. If a field has nothing useful, omit it.",
	}
	if req.Instructions != "" {
		parts = append(parts, req.Instructions)
	}
	ctxBits := companyBits(req.Company)
	if len(ctxBits) > 0 {
		parts = append(parts, "Company context: "+strings.Join(ctxBits, " "))
	}
	return strings.Join(parts, " ")
}

// BuildSectionUserPrompt lays out the answers this section should draw on,
// most relevant first, each clipped to keep the request bounded.
func BuildSectionUserPrompt(req SectionRequest) string {
	var b strings.Builder
	b.WriteString("Section to write: ")
	b.WriteString(req.SectionTitle)
	b.WriteString("\n\nFounder questionnaire answers:\n")
	writeAnswers(&b, req.AnswerKeys, req.Answers)
	return b.String()
}

// BuildQuickTakeSystemPrompt frames the closing verdict call.
func BuildQuickTakeSystemPrompt(req QuickTakeRequest) string {
	parts := []string{
		"You are a venture investor giving a quick take on a startup after reading the founder's questionnaire answers.",
		"Return ONLY JSON that matches the JSON Schema provided.",
		"Give a one-or-two sentence verdict, the main concerns, the main strengths, and an investment readiness level of LOW, MEDIUM, or HIGH with a short rationale.",
		"Never output null. If a field has nothing useful, omit it.",
	}
	ctxBits := companyBits(req.Company)
	if len(ctxBits) > 0 {
		parts = append(parts, "Company context: "+strings.Join(ctxBits, " "))
	}
	return strings.Join(parts, " ")
}

func BuildQuickTakeUserPrompt(req QuickTakeRequest) string {
	var b strings.Builder
	b.WriteString("Founder questionnaire answers:\n")
	keys := make([]string, 0, len(req.Answers))
	for k := range req.Answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	writeAnswers(&b, keys, req.Answers)
	return b.String()
}

func companyBits(c CompanyContext) []string {
	bits := []string{}
	if c.CompanyName != "" {
		bits = append(bits, "Company: "+c.CompanyName+".")
	}
	if c.Stage != "" {
		bits = append(bits, "Stage: "+c.Stage+".")
	}
	if c.Website != "" {
		bits = append(bits, "Website: "+c.Website+".")
	}
	return bits
}

func writeAnswers(b *strings.Builder, keys []string, answers map[string]string) {
	for _, key := range keys {
		content, ok := answers[key]
		if !ok || strings.TrimSpace(content) == "" {
			continue
		}
		b.WriteString("\n### ")
		b.WriteString(key)
		b.WriteString("\n")
		if len(content) > maxAnswerChars {
			b.WriteString(content[:maxAnswerChars])
			b.WriteString(" […]")
		} else {
			b.WriteString(content)
		}
		b.WriteString("\n")
	}
}
