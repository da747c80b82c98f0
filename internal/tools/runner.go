// Package tools dispatches the career tools for the CLI and the HTTP API.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/ats"
	"github.com/spigell/resume-matcher/internal/extract"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/matching"
)

// Matcher scores a resume against a job description.
type Matcher interface {
	Match(ctx context.Context, resume, job string) (*matching.Result, error)
}

// Input carries everything a tool may read. Which fields are required depends on the tool.
type Input struct {
	Resume         *extract.Document
	JobDescription string
	// UserInput is free-form text for the recommendation tool. The resume is used when it is empty.
	UserInput string
}

func (in Input) resume() string {
	if in.Resume == nil {
		return ""
	}
	return in.Resume.Text
}

// Analysis is the output of the analysis tool.
type Analysis struct {
	Match    *matching.Result  `json:"match"`
	Analysis *ai.MatchAnalysis `json:"analysis"`
}

type Runner struct {
	matcher   Matcher
	assistant ai.Assistant
	logger    *zap.Logger
}

func NewRunner(matcher Matcher, assistant ai.Assistant, log *zap.Logger) (*Runner, error) {
	if matcher == nil {
		return nil, errors.New("matcher is required")
	}
	if assistant == nil {
		return nil, errors.New("assistant is required")
	}
	return &Runner{matcher: matcher, assistant: assistant, logger: logger.Named(log, "tools")}, nil
}

// Match runs only the local hybrid matcher. Empty input is not an error: the
// matcher flags the result as low confidence.
func (r *Runner) Match(ctx context.Context, in Input) (*matching.Result, error) {
	return r.matcher.Match(ctx, in.resume(), in.JobDescription)
}

// Run executes one tool and returns its JSON-serializable result.
func (r *Runner) Run(ctx context.Context, tool ai.Tool, in Input) (any, error) {
	if err := validate(tool, in); err != nil {
		return nil, err
	}

	log := logger.WithFields(r.logger, logger.RequestFields(logger.RequestID(ctx), string(tool))...)
	log.Info("running tool", zap.Bool("with_job", strings.TrimSpace(in.JobDescription) != ""))

	resume := in.resume()

	switch tool {
	case ai.ToolAnalysis:
		return r.analyze(ctx, resume, in.JobDescription)
	case ai.ToolEnhancement:
		analysis := r.optionalAnalysis(ctx, log, resume, in.JobDescription)
		return r.assistant.SuggestEnhancements(ctx, resume, analysis)
	case ai.ToolATS:
		return r.atsReport(ctx, log, in)
	case ai.ToolCoverLetter:
		return r.assistant.CoverLetter(ctx, resume, in.JobDescription)
	case ai.ToolLinkedIn:
		return r.assistant.OptimizeLinkedIn(ctx, resume)
	case ai.ToolInterview:
		return r.assistant.InterviewTips(ctx, resume, in.JobDescription)
	case ai.ToolRoadmap:
		return r.assistant.CareerRoadmap(ctx, resume)
	case ai.ToolRecommendation:
		query := strings.TrimSpace(in.UserInput)
		if query == "" {
			query = resume
		}
		return r.assistant.RecommendJob(ctx, query)
	default:
		return nil, fmt.Errorf("unsupported tool %q", tool)
	}
}

func validate(tool ai.Tool, in Input) error {
	if tool == ai.ToolRecommendation {
		if strings.TrimSpace(in.UserInput) == "" && strings.TrimSpace(in.resume()) == "" {
			return fmt.Errorf("%w: user input", ai.ErrEmptyInput)
		}
		return nil
	}
	if tool.NeedsResume() && strings.TrimSpace(in.resume()) == "" {
		return fmt.Errorf("%w: resume", ai.ErrEmptyInput)
	}
	if tool.NeedsJob() && strings.TrimSpace(in.JobDescription) == "" {
		return fmt.Errorf("%w: job description", ai.ErrEmptyInput)
	}
	return nil
}

func (r *Runner) analyze(ctx context.Context, resume, job string) (*Analysis, error) {
	result, err := r.matcher.Match(ctx, resume, job)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}

	analysis, err := r.assistant.AnalyzeMatch(ctx, resume, job, result)
	if err != nil {
		return nil, fmt.Errorf("analyze match: %w", err)
	}
	return &Analysis{Match: result, Analysis: analysis}, nil
}

// optionalAnalysis returns nil when there is no job description or the analysis fails.
func (r *Runner) optionalAnalysis(ctx context.Context, log *zap.Logger, resume, job string) *ai.MatchAnalysis {
	if strings.TrimSpace(job) == "" {
		return nil
	}
	out, err := r.analyze(ctx, resume, job)
	if err != nil {
		log.Warn("continuing without match analysis", zap.Error(err))
		return nil
	}
	return out.Analysis
}

func (r *Runner) atsReport(ctx context.Context, log *zap.Logger, in Input) (*ats.Report, error) {
	resume := in.resume()

	checks, err := r.assistant.ATSChecks(ctx, resume)
	if err != nil {
		log.Warn("ai checks unavailable", zap.Error(err))
		checks = nil
	}

	analysis := r.optionalAnalysis(ctx, log, resume, in.JobDescription)

	report := ats.Build(in.Resume, checks, analysis)

	enhancement, err := r.assistant.SuggestEnhancements(ctx, resume, analysis)
	if err != nil {
		log.Warn("enhancement suggestions unavailable", zap.Error(err))
	} else {
		report.Enhancement = enhancement
	}

	log.Info("ats report built",
		zap.Int("parse_rate", report.Standard.ParseRate),
		zap.Int("layout_score", report.Layout.Score),
		zap.Int("missing_sections", len(report.Standard.SectionsMissing)),
	)
	return report, nil
}
