package ai

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Percent is a 0-100 score. It decodes from integers, fractional numbers and
// numeric strings, rounding to the nearest integer.
type Percent int

func (p *Percent) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*p = 0
		return nil
	}

	v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
	if err != nil {
		return err
	}
	*p = Percent(math.Round(v))
	return nil
}

type ResourceLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// MissingSkill is a skill the job asks for and the resume lacks. Models
// sometimes return a bare string instead of an object; both forms decode.
type MissingSkill struct {
	Skill       string         `json:"skill"`
	Reason      string         `json:"reason,omitempty"`
	Remediation []string       `json:"remediation_suggestions,omitempty"`
	Resources   []ResourceLink `json:"resource_links,omitempty"`
}

func (m *MissingSkill) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*m = MissingSkill{Skill: strings.TrimSpace(name)}
		return nil
	}

	type plain MissingSkill
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = MissingSkill(p)
	return nil
}

type Gap struct {
	Gap         string         `json:"gap"`
	Reason      string         `json:"reason,omitempty"`
	Remediation []string       `json:"remediation_suggestions,omitempty"`
	Resources   []ResourceLink `json:"resource_links,omitempty"`
}

func (g *Gap) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*g = Gap{Gap: strings.TrimSpace(name)}
		return nil
	}

	type plain Gap
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*g = Gap(p)
	return nil
}

type SkillCategory struct {
	Match                  float64        `json:"match"`
	PresentSkills          []string       `json:"present_skills"`
	MissingSkills          []MissingSkill `json:"missing_skills"`
	ImprovementSuggestions []string       `json:"improvement_suggestions"`
}

type ExperienceCategory struct {
	Match                  float64  `json:"match"`
	Strengths              []string `json:"strengths"`
	Gaps                   []Gap    `json:"gaps"`
	ImprovementSuggestions []string `json:"improvement_suggestions"`
}

type EducationCategory struct {
	Match                  float64  `json:"match"`
	RelevantQualifications []string `json:"relevant_qualifications"`
	Gaps                   []Gap    `json:"gaps"`
	ImprovementSuggestions []string `json:"improvement_suggestions"`
}

type MatchCategories struct {
	TechnicalSkills SkillCategory      `json:"technical_skills"`
	SoftSkills      SkillCategory      `json:"soft_skills"`
	Experience      ExperienceCategory `json:"experience"`
	Education       EducationCategory  `json:"education"`
}

type ATSOptimization struct {
	FormattingIssues    []string `json:"formatting_issues"`
	KeywordOptimization []string `json:"keyword_optimization"`
	SectionImprovements []string `json:"section_improvements"`
}

type ImpactScoring struct {
	AchievementMetrics     float64  `json:"achievement_metrics"`
	ActionVerbs            float64  `json:"action_verbs"`
	QuantifiableResults    float64  `json:"quantifiable_results"`
	ImprovementSuggestions []string `json:"improvement_suggestions"`
}

// MatchAnalysis is the detailed resume-versus-job report. The three score
// fields are percentages taken from the hybrid matcher, not from the model.
type MatchAnalysis struct {
	OverallMatch            Percent         `json:"overall_match"`
	KeywordMatchScore       Percent         `json:"keyword_match_score"`
	SemanticSimilarityScore Percent         `json:"semantic_similarity_score"`
	JobKeywords             []string        `json:"keywords_from_job_description"`
	Categories              MatchCategories `json:"categories"`
	ATSOptimization         ATSOptimization `json:"ats_optimization"`
	ImpactScoring           ImpactScoring   `json:"impact_scoring"`
	MatchedKeywords         []string        `json:"matched_keywords,omitempty"`
	MissingKeywords         []string        `json:"missing_keywords,omitempty"`
	LowConfidence           bool            `json:"low_confidence,omitempty"`
}

type SummarySection struct {
	HasSummary    bool     `json:"has_summary"`
	Suggestions   []string `json:"suggestions"`
	SampleSummary string   `json:"sample_summary"`
}

type BulletRewrite struct {
	Original string `json:"original"`
	Improved string `json:"improved"`
	Reason   string `json:"reason"`
}

type BulletPoints struct {
	Strength           float64         `json:"strength"`
	WeakBullets        []BulletRewrite `json:"weak_bullets"`
	GeneralSuggestions []string        `json:"general_suggestions"`
}

type PowerVerbs struct {
	CurrentVerbs   []string `json:"current_verbs"`
	SuggestedVerbs []string `json:"suggested_verbs"`
	Explanation    string   `json:"explanation"`
}

type KeywordAdvice struct {
	PresentKeywords []string `json:"present_keywords"`
	MissingKeywords []string `json:"missing_keywords"`
	Suggestions     []string `json:"suggestions"`
}

type Certification struct {
	Name      string `json:"certification_name"`
	URL       string `json:"url"`
	Relevance string `json:"relevance"`
}

type TechnicalProfile struct {
	TechnologiesToAdd []string        `json:"technologies_to_add"`
	Certifications    []Certification `json:"certifications"`
}

type SoftSkillsAdvice struct {
	ToAdd                  []string `json:"soft_skills_to_add"`
	ImprovementSuggestions []string `json:"soft_skills_improvement_suggestions"`
}

// Enhancement holds job-independent resume improvement suggestions.
type Enhancement struct {
	SummarySection     SummarySection   `json:"summary_section"`
	BulletPoints       BulletPoints     `json:"bullet_points"`
	PowerVerbs         PowerVerbs       `json:"power_verbs"`
	Keywords           KeywordAdvice    `json:"keywords"`
	TechnicalProfile   TechnicalProfile `json:"technical_profile"`
	SoftSkills         SoftSkillsAdvice `json:"soft_skills"`
	OverallSuggestions []string         `json:"overall_suggestions"`
}

// Contact holds applicant details pulled from the resume text before generation.
type Contact struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
}

// CoverLetter is a plain-text letter. Warning is set when the text does not look
// like a complete letter.
type CoverLetter struct {
	Text    string  `json:"text"`
	Date    string  `json:"date"`
	Contact Contact `json:"contact"`
	Warning string  `json:"warning,omitempty"`
}

type HeadlineSuggestion struct {
	Headline  string `json:"headline"`
	Rationale string `json:"rationale"`
}

type AboutSuggestion struct {
	Type            string `json:"type"`
	Suggestion      string `json:"suggestion"`
	ResumeReference string `json:"resume_reference"`
}

type ExperienceSuggestion struct {
	JobTitleCompany string   `json:"job_title_company"`
	Suggestions     []string `json:"suggestions"`
	ResumeReference string   `json:"resume_reference"`
}

type SkillsSuggestions struct {
	SkillsToAdd         []string `json:"skills_to_add"`
	PrioritizeForEndors []string `json:"skills_to_prioritize_endorsements"`
	EndorsementStrategy string   `json:"endorsement_strategy"`
}

type AdditionalSection struct {
	SectionName     string `json:"section_name"`
	Suggestion      string `json:"suggestion"`
	ResumeReference string `json:"resume_reference"`
}

type LinkedInProfile struct {
	Headlines          []HeadlineSuggestion   `json:"headline_suggestions"`
	About              []AboutSuggestion      `json:"about_section_suggestions"`
	Experience         []ExperienceSuggestion `json:"experience_section_suggestions"`
	Skills             SkillsSuggestions      `json:"skills_section_suggestions"`
	Education          []string               `json:"education_section_suggestions"`
	AdditionalSections []AdditionalSection    `json:"additional_sections_suggestions"`
	OverallTips        []string               `json:"overall_profile_tips"`
}

type FocusArea struct {
	Area   string `json:"area"`
	Action string `json:"action"`
}

type DeepDivePrompt struct {
	Prompt          string `json:"prompt"`
	Advice          string `json:"advice"`
	ResumeReference string `json:"resume_reference"`
}

type STARPoints struct {
	Situation string `json:"situation"`
	Task      string `json:"task"`
	Action    string `json:"action"`
	Result    string `json:"result"`
}

type BehavioralQuestion struct {
	Question            string     `json:"question"`
	ResumeExampleSource string     `json:"resume_example_source"`
	STAR                STARPoints `json:"suggested_star_points"`
}

type TechnicalQuestion struct {
	Question        string `json:"question"`
	Advice          string `json:"advice"`
	ResumeReference string `json:"resume_reference"`
}

type CandidateQuestion struct {
	Question string `json:"question"`
	Purpose  string `json:"purpose"`
}

type InterviewTips struct {
	FocusAreas          []FocusArea          `json:"preparation_focus_areas"`
	ResumeDeepDive      []DeepDivePrompt     `json:"resume_deep_dive_prompts"`
	BehavioralQuestions []BehavioralQuestion `json:"potential_behavioral_questions"`
	TechnicalQuestions  []TechnicalQuestion  `json:"potential_technical_questions"`
	QuestionsToAsk      []CandidateQuestion  `json:"questions_candidate_should_ask"`
}

type RoadmapGoal struct {
	ID          string         `json:"id,omitempty"`
	Icon        string         `json:"icon,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Resources   []ResourceLink `json:"resources"`
}

type SkillGroup struct {
	Category string   `json:"category"`
	Skills   []string `json:"skills"`
}

type Roadmap struct {
	ShortTerm []RoadmapGoal `json:"short_term"`
	MidTerm   []RoadmapGoal `json:"mid_term"`
	LongTerm  []RoadmapGoal `json:"long_term"`
}

type CareerRoadmap struct {
	RecommendedFocusArea string       `json:"recommended_focus_area"`
	Justification        string       `json:"justification"`
	Roadmap              Roadmap      `json:"roadmap"`
	KeySkills            []SkillGroup `json:"key_skills_to_develop"`
}

type SkillArea struct {
	Area   string   `json:"skill_area"`
	Skills []string `json:"skills"`
}

type RecommendationRoadmap struct {
	Roadmap
	SkillsTechnologies []SkillArea `json:"skills_technologies"`
}

type CertificationInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

type ProjectIdea struct {
	Level        string   `json:"level"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	URL          string   `json:"url,omitempty"`
}

type JobRecommendation struct {
	RecommendedRole string                `json:"recommended_role"`
	Justification   string                `json:"justification"`
	Roadmap         RecommendationRoadmap `json:"roadmap"`
	Certifications  []CertificationInfo   `json:"certifications"`
	Projects        []ProjectIdea         `json:"projects"`
}

type SpellingError struct {
	Original    string `json:"original"`
	Corrected   string `json:"corrected"`
	Explanation string `json:"explanation"`
}

type SpellingCheck struct {
	Errors  []SpellingError `json:"errors"`
	Message string          `json:"message,omitempty"`
}

type RepeatedWord struct {
	Word        string   `json:"word"`
	Count       int      `json:"count"`
	Suggestions []string `json:"suggestions"`
}

type RepetitionCheck struct {
	RepeatedWords []RepeatedWord `json:"repeated_words"`
	Message       string         `json:"message,omitempty"`
}

type BulletSuggestion struct {
	Bullet     string `json:"bullet"`
	Suggestion string `json:"suggestion"`
}

type QuantificationCheck struct {
	LackingQuantification []BulletSuggestion `json:"lacking_quantification"`
	Message               string             `json:"message,omitempty"`
}

type LongBulletsCheck struct {
	LongBullets []BulletSuggestion `json:"long_bullets"`
	Message     string             `json:"message,omitempty"`
}

type PassiveSentence struct {
	Original string `json:"original"`
	Active   string `json:"active"`
}

type ActiveVoiceCheck struct {
	PassiveSentences []PassiveSentence `json:"passive_sentences"`
	Message          string            `json:"message,omitempty"`
}

type HobbiesCheck struct {
	Found       bool     `json:"found"`
	Analysis    string   `json:"analysis"`
	Suggestions []string `json:"suggestions"`
}

// ATSChecks groups the model-backed resume checks. A check that failed carries
// an explanatory Message and empty findings.
type ATSChecks struct {
	SpellingGrammar SpellingCheck       `json:"spelling_grammar"`
	Repetition      RepetitionCheck     `json:"repetition"`
	Quantification  QuantificationCheck `json:"quantification"`
	LongBullets     LongBulletsCheck    `json:"long_bullets"`
	ActiveVoice     ActiveVoiceCheck    `json:"active_voice"`
	Hobbies         HobbiesCheck        `json:"hobbies"`
}
