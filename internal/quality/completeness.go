package quality

import (
	"regexp"
	"strings"

	"github.com/venturedraft/memopilot/constants"
)

// checklistItem is one element a good answer to a question should cover.
// Presence is detected by keyword, which is crude but cheap, deterministic,
// and good enough for a nudge in the UI.
type checklistItem struct {
	Name     string
	Required bool
	Prompt   string
	pattern  *regexp.Regexp
}

// Report scores one answer against its question's checklist.
type Report struct {
	QuestionKey string   `json:"question_key"`
	Score       int      `json:"score"` // 0..100
	Missing     []string `json:"missing"`
	Prompts     []string `json:"prompts"`
}

func item(name string, required bool, prompt, pattern string) checklistItem {
	return checklistItem{
		Name:     name,
		Required: required,
		Prompt:   prompt,
		pattern:  regexp.MustCompile(`(?i)` + pattern),
	}
}

var checklists = map[constants.QuestionKey][]checklistItem{
	constants.QuestionProblem: {
		item("affected customer", true, "Who exactly has this problem?", `\b(customers?|users?|founders?|teams?|companies|people|businesses)\b`),
		item("cost of the problem", true, "What does the problem cost in money or time?", `\b(costs?|hours?|waste[sd]?|los[ei]|spends?|\$)\b|%`),
		item("frequency", false, "How often does the problem occur?", `\b(every|daily|weekly|monthly|each|per)\b`),
	},
	constants.QuestionSolution: {
		item("what the product does", true, "Describe what the product actually does.", `\b(platform|tool|app|product|service|api|automates?|generates?|helps?)\b`),
		item("differentiation", false, "Why is this better than what exists today?", `\b(unlike|faster|cheaper|only|first|better|instead)\b`),
	},
	constants.QuestionMarket: {
		item("market size", true, "Quantify the market opportunity.", `\$|\b(billion|million|tam|sam|som)\b`),
		item("target segment", true, "Name the segment you enter first.", `\b(smb|enterprise|consumers?|startups?|mid-market|segment|niche)\b`),
	},
	constants.QuestionBusinessModel: {
		item("pricing", true, "How do you charge, and how much?", `\$|\b(subscription|pricing|price[sd]?|per seat|fee|freemium|tier)\b`),
		item("unit economics", false, "What are the margins or unit economics?", `\b(margin|cac|ltv|payback|unit econom)\b`),
	},
	constants.QuestionTraction: {
		item("hard numbers", true, "Give at least one concrete metric.", `\d`),
		item("growth trend", false, "How is the metric trending month over month?", `\b(grow(th|ing|n)?|mom|m/m|increase[sd]?|doubl)\b|%`),
	},
	constants.QuestionTeam: {
		item("founders and roles", true, "Who are the founders and what do they each own?", `\b(founders?|ceo|cto|co-founder)\b`),
		item("relevant experience", true, "Why is this team suited to this problem?", `\b(years?|previously|ex-|built|led|worked|experience)\b`),
	},
	constants.QuestionCompetition: {
		item("named competitors", true, "Name the closest competitors or the status quo.", `\b(competitors?|alternatives?|incumbents?|vs\.?|versus|spreadsheets?|manual)\b`),
		item("defensibility", false, "What keeps competitors from copying you?", `\b(moat|defensib|network effect|proprietary|switching cost|lock-in)\b`),
	},
	constants.QuestionFinancials: {
		item("current financial state", true, "State revenue, burn, or runway today.", `\$|\b(revenue|arr|mrr|burn|runway|cash)\b`),
		item("forward projection", false, "Where do the numbers go in the next 12-24 months?", `\b(project|forecast|plan|by 20\d\d|next year|months)\b`),
	},
	constants.QuestionFundraising: {
		item("round size", true, "How much are you raising?", `\$|\b(raise|raising|round|seed|series)\b`),
		item("use of funds", true, "What will the money be spent on?", `\b(hire[sd]?|hiring|spend|use of funds|invest|build|marketing|runway)\b`),
	},
	constants.QuestionVision: {
		item("long-term direction", true, "Where does this go in five to ten years?", `\b(years?|become|vision|eventually|long[- ]term|future)\b`),
	},
}

const (
	requiredShare = 70
	optionalShare = 30
	minUsefulLen  = 40 // answers shorter than this score 0 outright
)

// ScoreCompleteness compares one answer's content against the question's
// checklist and returns a 0-100 score plus prompts for what's missing.
// Unknown question keys score against an empty checklist and return 0.
func ScoreCompleteness(questionKey, content string) Report {
	report := Report{QuestionKey: questionKey, Missing: []string{}, Prompts: []string{}}

	key, ok := constants.CanonicalizeQuestion(questionKey)
	if ok {
		report.QuestionKey = string(key)
	}
	items := checklists[key]
	if len(items) == 0 {
		return report
	}

	content = strings.TrimSpace(content)
	if len(content) < minUsefulLen {
		for _, it := range items {
			if it.Required {
				report.Missing = append(report.Missing, it.Name)
				report.Prompts = append(report.Prompts, it.Prompt)
			}
		}
		return report
	}

	var requiredTotal, requiredHit, optionalTotal, optionalHit int
	for _, it := range items {
		hit := it.pattern.MatchString(content)
		if it.Required {
			requiredTotal++
			if hit {
				requiredHit++
			}
		} else {
			optionalTotal++
			if hit {
				optionalHit++
			}
		}
		if !hit {
			report.Missing = append(report.Missing, it.Name)
			report.Prompts = append(report.Prompts, it.Prompt)
		}
	}

	score := 0
	if requiredTotal > 0 {
		score += requiredShare * requiredHit / requiredTotal
	} else {
		score += requiredShare
	}
	if optionalTotal > 0 {
		score += optionalShare * optionalHit / optionalTotal
	} else {
		score += optionalShare
	}
	report.Score = score
	return report
}
