package quality

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/venturedraft/memopilot/constants"
	"github.com/venturedraft/memopilot/internal/entity"
)

// Severity of a consistency finding.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Finding flags a tension between two questionnaire answers. These are
// read-only observations: nothing in the generation pipeline gates on them.
type Finding struct {
	QuestionA  string   `json:"question_a"`
	QuestionB  string   `json:"question_b"`
	Severity   Severity `json:"severity"`
	Detail     string   `json:"detail"`
	Suggestion string   `json:"suggestion"`
}

var (
	reTeamSize   = regexp.MustCompile(`(?i)\b(\d+)\s*(?:people|person|founders?|engineers?|employees?|fte)\b`)
	reGrowthPct  = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*%`)
	reRunwayMo   = regexp.MustCompile(`(?i)\b(\d+)\s*month`)
	reMoney      = regexp.MustCompile(`(?i)\$\s*(\d+(?:\.\d+)?)\s*([bmk])\b`)
	reNoRevenue  = regexp.MustCompile(`(?i)\b(?:free|no revenue|pre[- ]revenue|not monetiz)`)
	reHasRevenue = regexp.MustCompile(`(?i)\b(?:revenue|arr|mrr|paying customers?)\b`)
)

// CheckConsistency runs every pairwise rule over the answers and returns
// the findings in rule order. Idempotent and side-effect free: the same
// answers always produce the same findings.
func CheckConsistency(answers []*entity.Answer) []Finding {
	byKey := make(map[string]string, len(answers))
	for _, a := range answers {
		byKey[a.QuestionKey] = a.Content
	}

	findings := []Finding{}
	for _, rule := range consistencyRules {
		contentA, okA := byKey[rule.questionA]
		contentB, okB := byKey[rule.questionB]
		if !okA || !okB {
			continue
		}
		if f := rule.check(contentA, contentB); f != nil {
			f.QuestionA = rule.questionA
			f.QuestionB = rule.questionB
			findings = append(findings, *f)
		}
	}
	return findings
}

type consistencyRule struct {
	questionA string
	questionB string
	check     func(a, b string) *Finding
}

var consistencyRules = []consistencyRule{
	{
		questionA: string(constants.QuestionTeam),
		questionB: string(constants.QuestionTraction),
		check:     checkTeamVsGrowth,
	},
	{
		questionA: string(constants.QuestionBusinessModel),
		questionB: string(constants.QuestionFinancials),
		check:     checkRevenueContradiction,
	},
	{
		questionA: string(constants.QuestionFundraising),
		questionB: string(constants.QuestionFinancials),
		check:     checkRaiseVsRunway,
	},
	{
		questionA: string(constants.QuestionMarket),
		questionB: string(constants.QuestionTraction),
		check:     checkMarketVsTraction,
	},
}

// A very small team claiming triple-digit monthly growth is worth a look.
func checkTeamVsGrowth(team, traction string) *Finding {
	size, ok := firstInt(reTeamSize, team)
	if !ok || size > 3 {
		return nil
	}
	growth, ok := firstFloat(reGrowthPct, traction)
	if !ok || growth < 100 {
		return nil
	}
	return &Finding{
		Severity:   SeverityWarning,
		Detail:     "claimed growth of " + strconv.FormatFloat(growth, 'f', -1, 64) + "% with a team of " + strconv.Itoa(size),
		Suggestion: "Explain how a team this small sustains that growth rate, or soften the claim.",
	}
}

func checkRevenueContradiction(model, financials string) *Finding {
	if !reNoRevenue.MatchString(model) || !reHasRevenue.MatchString(financials) {
		return nil
	}
	return &Finding{
		Severity:   SeverityCritical,
		Detail:     "business model describes the product as pre-revenue while financials reference revenue",
		Suggestion: "Reconcile the two answers: state when monetization started or will start.",
	}
}

func checkRaiseVsRunway(fundraising, financials string) *Finding {
	if _, ok := firstFloat(reMoney, fundraising); !ok {
		return nil
	}
	months, ok := firstInt(reRunwayMo, financials)
	if !ok || months >= 3 {
		return nil
	}
	return &Finding{
		Severity:   SeverityWarning,
		Detail:     "raising a round with under three months of runway (" + strconv.Itoa(months) + " months)",
		Suggestion: "Investors will flag the tight runway; address bridge options or cut plans explicitly.",
	}
}

func checkMarketVsTraction(market, traction string) *Finding {
	amount, ok := moneyInBillions(market)
	if !ok || amount < 1 {
		return nil
	}
	if reHasRevenue.MatchString(traction) {
		return nil
	}
	return &Finding{
		Severity:   SeverityInfo,
		Detail:     "a billion-dollar market claim without any revenue signal in traction",
		Suggestion: "Tie the market size to early commercial evidence, even small.",
	}
}

func firstInt(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func firstFloat(re *regexp.Regexp, s string) (float64, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func moneyInBillions(s string) (float64, bool) {
	m := reMoney.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(m[2]) {
	case "b":
		return f, true
	case "m":
		return f / 1000, true
	default:
		return f / 1000000, true
	}
}
