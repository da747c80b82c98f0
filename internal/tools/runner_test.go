package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/ats"
	"github.com/spigell/resume-matcher/internal/embedding"
	"github.com/spigell/resume-matcher/internal/extract"
	"github.com/spigell/resume-matcher/internal/matching"
)

type fakeMatcher struct {
	result *matching.Result
	err    error
	calls  int
}

func (f *fakeMatcher) Match(context.Context, string, string) (*matching.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeAssistant struct {
	analysisErr error
	checksErr   error
	gotAnalysis *ai.MatchAnalysis
	query       string
}

func (f *fakeAssistant) AnalyzeMatch(_ context.Context, _, _ string, r *matching.Result) (*ai.MatchAnalysis, error) {
	if f.analysisErr != nil {
		return nil, f.analysisErr
	}
	combined, _, _ := r.Percentages()
	return &ai.MatchAnalysis{OverallMatch: ai.Percent(combined)}, nil
}

func (f *fakeAssistant) SuggestEnhancements(_ context.Context, _ string, a *ai.MatchAnalysis) (*ai.Enhancement, error) {
	f.gotAnalysis = a
	return &ai.Enhancement{}, nil
}

func (f *fakeAssistant) CoverLetter(context.Context, string, string) (*ai.CoverLetter, error) {
	return &ai.CoverLetter{Text: "Dear Hiring Manager"}, nil
}

func (f *fakeAssistant) OptimizeLinkedIn(context.Context, string) (*ai.LinkedInProfile, error) {
	return &ai.LinkedInProfile{}, nil
}

func (f *fakeAssistant) InterviewTips(context.Context, string, string) (*ai.InterviewTips, error) {
	return &ai.InterviewTips{}, nil
}

func (f *fakeAssistant) CareerRoadmap(context.Context, string) (*ai.CareerRoadmap, error) {
	return &ai.CareerRoadmap{}, nil
}

func (f *fakeAssistant) RecommendJob(_ context.Context, input string) (*ai.JobRecommendation, error) {
	f.query = input
	return &ai.JobRecommendation{}, nil
}

func (f *fakeAssistant) ATSChecks(context.Context, string) (*ai.ATSChecks, error) {
	if f.checksErr != nil {
		return nil, f.checksErr
	}
	return &ai.ATSChecks{Hobbies: ai.HobbiesCheck{Analysis: "fine"}}, nil
}

const resumeText = "Jane Doe\njane@example.com\n\nSkills\nGo, SQL, AWS\n\nExperience\nBuilt services in Go."

func doc() *extract.Document {
	return &extract.Document{Name: "resume.txt", MIME: extract.MIMEText, Text: resumeText}
}

func newRunner(t *testing.T, m *fakeMatcher, a *fakeAssistant) *Runner {
	t.Helper()
	r, err := NewRunner(m, a, nil)
	require.NoError(t, err)
	return r
}

func TestRunValidatesInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tool ai.Tool
		in   Input
	}{
		{name: "analysis without job", tool: ai.ToolAnalysis, in: Input{Resume: doc()}},
		{name: "analysis without resume", tool: ai.ToolAnalysis, in: Input{JobDescription: "Go developer"}},
		{name: "roadmap with blank resume", tool: ai.ToolRoadmap, in: Input{Resume: &extract.Document{Text: "  "}}},
		{name: "recommendation with nothing", tool: ai.ToolRecommendation, in: Input{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := &fakeMatcher{result: &matching.Result{}}
			_, err := newRunner(t, m, &fakeAssistant{}).Run(context.Background(), tt.tool, tt.in)
			require.ErrorIs(t, err, ai.ErrEmptyInput)
			assert.Zero(t, m.calls)
		})
	}
}

func TestMatchAcceptsEmptyInput(t *testing.T) {
	t.Parallel()

	lazy := embedding.NewLazy(t.Name(), func(context.Context) (embedding.Embedder, error) {
		return embedding.NewHashing(64), nil
	})
	matcher, err := matching.New(lazy, matching.WithTagger(nil))
	require.NoError(t, err)
	r := newRunner(t, &fakeMatcher{}, &fakeAssistant{})
	r.matcher = matcher

	tests := []struct {
		name string
		in   Input
	}{
		{name: "no resume", in: Input{JobDescription: "python sql aws engineer for data platform"}},
		{name: "blank resume", in: Input{Resume: &extract.Document{Text: " \n "}, JobDescription: "python sql aws engineer for data platform"}},
		{name: "no job description", in: Input{Resume: doc()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := r.Match(context.Background(), tt.in)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.True(t, result.LowConfidence)
			assert.Zero(t, result.CombinedScore)
		})
	}
}

func TestRunAnalysis(t *testing.T) {
	t.Parallel()

	m := &fakeMatcher{result: &matching.Result{CombinedScore: 0.69}}
	out, err := newRunner(t, m, &fakeAssistant{}).Run(context.Background(), ai.ToolAnalysis, Input{Resume: doc(), JobDescription: "Go developer"})
	require.NoError(t, err)

	analysis, ok := out.(*Analysis)
	require.True(t, ok)
	assert.Equal(t, ai.Percent(69), analysis.Analysis.OverallMatch)
	assert.InDelta(t, 0.69, analysis.Match.CombinedScore, 1e-9)
}

func TestRunAnalysisPropagatesModelErrors(t *testing.T) {
	t.Parallel()

	m := &fakeMatcher{err: matching.ErrModelUnavailable}
	_, err := newRunner(t, m, &fakeAssistant{}).Run(context.Background(), ai.ToolAnalysis, Input{Resume: doc(), JobDescription: "Go developer"})
	require.ErrorIs(t, err, matching.ErrModelUnavailable)
}

func TestRunEnhancementUsesOptionalAnalysis(t *testing.T) {
	t.Parallel()

	a := &fakeAssistant{}
	r := newRunner(t, &fakeMatcher{result: &matching.Result{CombinedScore: 0.5}}, a)

	_, err := r.Run(context.Background(), ai.ToolEnhancement, Input{Resume: doc()})
	require.NoError(t, err)
	assert.Nil(t, a.gotAnalysis)

	_, err = r.Run(context.Background(), ai.ToolEnhancement, Input{Resume: doc(), JobDescription: "Go developer"})
	require.NoError(t, err)
	require.NotNil(t, a.gotAnalysis)
	assert.Equal(t, ai.Percent(50), a.gotAnalysis.OverallMatch)

	a.analysisErr = errors.New("quota")
	_, err = r.Run(context.Background(), ai.ToolEnhancement, Input{Resume: doc(), JobDescription: "Go developer"})
	require.NoError(t, err)
	assert.Nil(t, a.gotAnalysis)
}

func TestRunATS(t *testing.T) {
	t.Parallel()

	out, err := newRunner(t, &fakeMatcher{result: &matching.Result{}}, &fakeAssistant{}).
		Run(context.Background(), ai.ToolATS, Input{Resume: doc()})
	require.NoError(t, err)

	report, ok := out.(*ats.Report)
	require.True(t, ok)
	assert.Equal(t, "fine", report.AIChecks.Hobbies.Analysis)
	assert.NotNil(t, report.Enhancement)
	assert.Nil(t, report.MatchAnalysis)
	assert.True(t, report.Layout.Estimated)
	assert.Equal(t, "jane@example.com", report.Standard.Contact.Email)
}

func TestRunATSWithoutModelChecks(t *testing.T) {
	t.Parallel()

	out, err := newRunner(t, &fakeMatcher{result: &matching.Result{}}, &fakeAssistant{checksErr: errors.New("503")}).
		Run(context.Background(), ai.ToolATS, Input{Resume: doc()})
	require.NoError(t, err)
	assert.Equal(t, "AI model unavailable.", out.(*ats.Report).AIChecks.SpellingGrammar.Message)
}

func TestRunRecommendationFallsBackToResume(t *testing.T) {
	t.Parallel()

	a := &fakeAssistant{}
	r := newRunner(t, &fakeMatcher{}, a)

	_, err := r.Run(context.Background(), ai.ToolRecommendation, Input{UserInput: "I like data"})
	require.NoError(t, err)
	assert.Equal(t, "I like data", a.query)

	_, err = r.Run(context.Background(), ai.ToolRecommendation, Input{Resume: doc()})
	require.NoError(t, err)
	assert.Equal(t, resumeText, a.query)
}

func TestRunUnknownTool(t *testing.T) {
	t.Parallel()

	_, err := newRunner(t, &fakeMatcher{}, &fakeAssistant{}).Run(context.Background(), ai.Tool("horoscope"), Input{Resume: doc(), JobDescription: "x"})
	require.ErrorContains(t, err, "unsupported tool")
}
