package ai

import (
	"context"

	"github.com/spigell/resume-matcher/internal/matching"
)

// Assistant is the generative side of the career tools. Every method talks to a
// hosted model and may fail with a provider or decoding error.
type Assistant interface {
	// AnalyzeMatch explains a match. The computed scores in result override
	// whatever scores the model reports.
	AnalyzeMatch(ctx context.Context, resume, job string, result *matching.Result) (*MatchAnalysis, error)
	SuggestEnhancements(ctx context.Context, resume string, analysis *MatchAnalysis) (*Enhancement, error)
	CoverLetter(ctx context.Context, resume, job string) (*CoverLetter, error)
	OptimizeLinkedIn(ctx context.Context, resume string) (*LinkedInProfile, error)
	InterviewTips(ctx context.Context, resume, job string) (*InterviewTips, error)
	CareerRoadmap(ctx context.Context, resume string) (*CareerRoadmap, error)
	RecommendJob(ctx context.Context, userInput string) (*JobRecommendation, error)
	ATSChecks(ctx context.Context, resume string) (*ATSChecks, error)
}
