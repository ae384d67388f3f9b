package domain

// AssessmentAngle is one scored dimension of an oracle assessment.
type AssessmentAngle struct {
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// Assessment is the advisory fit analysis attached to a proposal by the
// scoring oracle. It carries no authority over evaluator score records.
type Assessment struct {
	RequirementMatch       AssessmentAngle `json:"requirement_match"`
	FinancialValue         AssessmentAngle `json:"financial_value"`
	Strengths              []string        `json:"strengths"`
	Weaknesses             []string        `json:"weaknesses"`
	OverallScore           float64         `json:"overall_score"`
	Recommendation         string          `json:"recommendation"`
	Summary                string          `json:"summary"`
	ImprovementSuggestions []string        `json:"improvement_suggestions"`
}
