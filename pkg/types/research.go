// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// GeneralObjective is a fixed top-level research category for an
// investment analysis. The set of values mirrors the analysis framework
// offered to the user.
type GeneralObjective string

const (
	ObjectiveMarketCompetition GeneralObjective = "Market & Competition"
	ObjectiveTechnologyProduct GeneralObjective = "Technology & Product"
	ObjectiveBusinessModel     GeneralObjective = "Business Model & Go-to-Market"
	ObjectiveFoundingTeam      GeneralObjective = "Founding Team & Talent"
	ObjectiveFunding           GeneralObjective = "Funding & Capital Structure"
)

// GeneralObjectives lists all recognized categories in display order.
var GeneralObjectives = []GeneralObjective{
	ObjectiveMarketCompetition,
	ObjectiveTechnologyProduct,
	ObjectiveBusinessModel,
	ObjectiveFoundingTeam,
	ObjectiveFunding,
}

// Valid reports whether o is one of the recognized categories.
func (o GeneralObjective) Valid() bool {
	for _, g := range GeneralObjectives {
		if o == g {
			return true
		}
	}
	return false
}

// ResearchRequest identifies one completion call: a company, the general
// analysis objective, and the specific sub-objective to source links for.
// Requests are immutable once constructed.
type ResearchRequest struct {
	// CompanyName is the company under analysis.
	CompanyName string `json:"company_name" yaml:"company_name"`

	// GeneralObjective is the top-level research category.
	GeneralObjective GeneralObjective `json:"general_objective" yaml:"general_objective"`

	// SubObjective is the specific research question within the category.
	SubObjective string `json:"sub_objective" yaml:"sub_objective"`
}

// ResearchResult is the validated outcome for one sub-objective: an
// ordered list of research source URLs. A ResearchResult exists only
// after schema validation; its Links slice always holds exactly the
// configured number of entries (20 by default), each a non-empty string
// with no embedded whitespace. Duplicate links are permitted.
type ResearchResult struct {
	// GeneralObjective echoes the research category, as returned by the
	// completion service.
	GeneralObjective string `json:"general_objective" yaml:"general_objective"`

	// SubObjective echoes the research question this result answers.
	SubObjective string `json:"sub_objective" yaml:"sub_objective"`

	// Links is the ordered list of recommended source URLs.
	Links []string `json:"links" yaml:"links"`
}

// Failure records one sub-objective that could not be completed after the
// retry policy was exhausted, with the last underlying error message.
type Failure struct {
	// SubObjective is the research question that failed.
	SubObjective string `json:"sub_objective" yaml:"sub_objective"`

	// Error is the message of the final underlying error.
	Error string `json:"error" yaml:"error"`
}

// ResearchBatch is the aggregate outcome of running all sub-objectives
// for one company and objective. Every input sub-objective appears in
// exactly one of ResearchResults or Failures, and both slices preserve
// the submission order of their sub-objectives. The JSON encoding of
// this struct is the persisted output contract and must stay stable for
// downstream tooling.
type ResearchBatch struct {
	// CompanyName is the company under analysis.
	CompanyName string `json:"company_name" yaml:"company_name"`

	// GeneralObjective is the top-level research category.
	GeneralObjective string `json:"general_objective" yaml:"general_objective"`

	// ResearchResults holds the validated result for each sub-objective
	// that succeeded, in submission order.
	ResearchResults []ResearchResult `json:"research_results" yaml:"research_results"`

	// Failures holds one entry per sub-objective that failed, in
	// submission order.
	Failures []Failure `json:"failures" yaml:"failures"`
}

// Total returns the number of sub-objectives the batch covers.
func (b ResearchBatch) Total() int {
	return len(b.ResearchResults) + len(b.Failures)
}

// HasFailures reports whether any sub-objective failed.
func (b ResearchBatch) HasFailures() bool {
	return len(b.Failures) > 0
}
