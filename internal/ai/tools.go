package ai

import (
	"fmt"
	"strings"
)

// Tool names a career tool exposed by the CLI and the HTTP API.
type Tool string

const (
	ToolAnalysis       Tool = "analysis"
	ToolEnhancement    Tool = "enhancement"
	ToolATS            Tool = "ats"
	ToolCoverLetter    Tool = "cover-letter"
	ToolLinkedIn       Tool = "linkedin"
	ToolInterview      Tool = "interview"
	ToolRoadmap        Tool = "roadmap"
	ToolRecommendation Tool = "recommendation"
)

var tools = []struct {
	tool        Tool
	title       string
	needsJob    bool
	needsResume bool
}{
	{ToolAnalysis, "Match analysis", true, true},
	{ToolEnhancement, "Resume enhancement", false, true},
	{ToolATS, "ATS optimization report", false, true},
	{ToolCoverLetter, "Cover letter", true, true},
	{ToolLinkedIn, "LinkedIn optimization", false, true},
	{ToolInterview, "Interview preparation", true, true},
	{ToolRoadmap, "Career roadmap", false, true},
	{ToolRecommendation, "Job recommendation", false, false},
}

// Tools lists every tool in menu order.
func Tools() []Tool {
	out := make([]Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, t.tool)
	}
	return out
}

// ParseTool resolves a tool name case-insensitively.
func ParseTool(name string) (Tool, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, t := range tools {
		if string(t.tool) == name {
			return t.tool, nil
		}
	}
	return "", fmt.Errorf("unknown tool %q", name)
}

// Title is the human-readable tool name.
func (t Tool) Title() string {
	for _, d := range tools {
		if d.tool == t {
			return d.title
		}
	}
	return string(t)
}

// NeedsJob reports whether the tool requires a job description.
func (t Tool) NeedsJob() bool {
	for _, d := range tools {
		if d.tool == t {
			return d.needsJob
		}
	}
	return false
}

// NeedsResume reports whether the tool requires a resume. The recommendation
// tool accepts any free-form input instead.
func (t Tool) NeedsResume() bool {
	for _, d := range tools {
		if d.tool == t {
			return d.needsResume
		}
	}
	return true
}
