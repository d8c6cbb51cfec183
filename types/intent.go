package types

// UserRole is the persona a turn is classified under. The engine knows two
// personas; every other signal degrades to the more permissive candidate.
type UserRole string

const (
	RoleCandidate UserRole = "candidate"
	RoleRecruiter UserRole = "recruiter"
)

// Candidate-facing intents.
const (
	IntentJobSearch         = "job_search"
	IntentJobMatch          = "job_match"
	IntentCareerPath        = "career_path"
	IntentSkillGap          = "skill_gap"
	IntentInterviewPrep     = "interview_prep"
	IntentCVReview          = "cv_review"
	IntentCompanyResearch   = "company_research"
	IntentApplicationStatus = "application_status"
	IntentLearningPath      = "learning_path"
	IntentComparison        = "comparison"
	IntentFAQ               = "faq"
)

// Recruiter-facing intents.
const (
	IntentCandidateSearch    = "candidate_search"
	IntentCandidateScreening = "candidate_screening"
	IntentJobPosting         = "job_posting"
	IntentInterviewQuestions = "interview_questions"
	IntentTalentAnalytics    = "talent_analytics"
)

// RoleResult is the output of role classification.
type RoleResult struct {
	Role       UserRole `json:"role"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning,omitempty"`
}

// AlternativeIntent is a lower-ranked intent candidate.
type AlternativeIntent struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// IntentResult is the output of intent classification.
//
// Invariant: Confidence < 0.7 forces RequiresClarification.
type IntentResult struct {
	Intent                string              `json:"intent"`
	Entities              map[string]any      `json:"entities"`
	Confidence            float64             `json:"confidence"`
	RequiresClarification bool                `json:"requiresClarification"`
	AlternativeIntents    []AlternativeIntent `json:"alternativeIntents,omitempty"`
}

// ClampClarification enforces the confidence/clarification invariant.
func (r *IntentResult) ClampClarification() {
	if r.Confidence < 0.7 {
		r.RequiresClarification = true
	}
}
