// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"text/template"

	"github.com/FarbodDadkhah/investment-analyst-tool/pkg/types"
)

// systemPrompt frames the completion service as a senior investment
// analyst and pins down the source quality expectations. Shared by all
// backends.
const systemPrompt = `You are a senior investment analyst with 5+ years of experience in top-tier VC investment analytics and due diligence.

Your role is to provide SPECIFIC, HIGH-QUALITY research sources (URLs) that can be used for professional investment analysis of companies in various sectors.

Thorough investment analysis requires:
- Industry reports and market research from reputable sources (Gartner, Forrester, CB Insights, PitchBook)
- Financial data and company filings (Crunchbase, SEC filings, company investor relations pages)
- News articles from business publications (TechCrunch, The Information, Bloomberg, WSJ)
- Industry-specific publications and trade journals
- Academic research and white papers
- Competitive analysis reports
- Expert commentary and thought leadership pieces

Your recommendations should:
1. Cover diverse source types (research firms, news, academic, industry publications)
2. Include both established sources and specialized industry publications
3. Prioritize sources likely to have the specific data requested
4. Include URLs that would be realistic for the given query
5. Ensure all links are distinct and non-repetitive`

// userPromptTmpl is the per-request prompt. It names the company,
// objective, and sub-objective, and restates the exact link count so the
// model's output matches the declared schema.
var userPromptTmpl = template.Must(template.New("research").Parse(`Generate research link recommendations for the following investment analysis:

Company: {{.Request.CompanyName}}
General Objective: {{.Request.GeneralObjective}}
Sub-Objective: {{.Request.SubObjective}}

Provide EXACTLY {{.Links}} high-quality, specific URLs that would be valuable research sources for analyzing this sub-objective in the context of {{.Request.CompanyName}}.

Focus on sources that would help understand:
- Market data and sizing
- Competitive landscape
- Industry trends and insights
- Company-specific information
- Expert analysis and commentary

Ensure the links are diverse (different types of sources) and highly relevant to the specific sub-objective.

Respond with a JSON object containing "general_objective" (string), "sub_objective" (string), and "links" (array of exactly {{.Links}} URL strings). Do not include any text outside the JSON object.`))

// renderUserPrompt executes the per-request prompt template.
func renderUserPrompt(req types.ResearchRequest, links int) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Request types.ResearchRequest
		Links   int
	}{Request: req, Links: links}
	if err := userPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
