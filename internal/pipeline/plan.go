package pipeline

import (
	"github.com/venturedraft/memopilot/constants"
	"github.com/venturedraft/memopilot/internal/llm"
)

// SectionSpec is one step in the generation plan. Steps run sequentially,
// in order; later sections may lean on the tone set by earlier ones, so
// the calls are not pipelined.
type SectionSpec struct {
	Key          string
	Title        string
	Instructions string
	AnswerKeys   []string
}

// sectionPlan is the fixed ordered series of completion calls that build
// the memo, followed (in the generator) by the quick-take call.
var sectionPlan = []SectionSpec{
	{
		Key:          "overview",
		Title:        "Company Overview",
		Instructions: "Introduce the company, what it does, and why it exists. Two or three short paragraphs.",
		AnswerKeys: []string{
			string(constants.QuestionProblem),
			string(constants.QuestionSolution),
			string(constants.QuestionVision),
		},
	},
	{
		Key:          "problem_solution",
		Title:        "Problem & Solution",
		Instructions: "Describe the problem as the customer experiences it, then the product's answer to it. Add a 'narrative' sub-object telling the story of a typical customer.",
		AnswerKeys: []string{
			string(constants.QuestionProblem),
			string(constants.QuestionSolution),
		},
	},
	{
		Key:          "market",
		Title:        "Market Opportunity",
		Instructions: "Size the market from the answers without inventing figures, and position the company against the named competitors.",
		AnswerKeys: []string{
			string(constants.QuestionMarket),
			string(constants.QuestionCompetition),
		},
	},
	{
		Key:          "business",
		Title:        "Business Model & Traction",
		Instructions: "Explain how the company makes money and what the traction shows. Put concrete numbers into 'highlights'. Add a 'vc_reflection' sub-object with a skeptical investor's read of the numbers.",
		AnswerKeys: []string{
			string(constants.QuestionBusinessModel),
			string(constants.QuestionTraction),
			string(constants.QuestionFinancials),
		},
	},
	{
		Key:          "team",
		Title:        "Team",
		Instructions: "Assess founder-market fit from the team answer. Flag gaps with 'caution' emphasis rather than omitting them.",
		AnswerKeys: []string{
			string(constants.QuestionTeam),
		},
	},
	{
		Key:          "deal",
		Title:        "Fundraise & Use of Funds",
		Instructions: "Summarize the round being raised and what the money buys. Key milestones go in 'key_points'.",
		AnswerKeys: []string{
			string(constants.QuestionFundraising),
			string(constants.QuestionFinancials),
		},
	},
}

func (s SectionSpec) request(answers map[string]string, company llm.CompanyContext) llm.SectionRequest {
	return llm.SectionRequest{
		SectionKey:   s.Key,
		SectionTitle: s.Title,
		Instructions: s.Instructions,
		AnswerKeys:   s.AnswerKeys,
		Answers:      answers,
		Company:      company,
	}
}
