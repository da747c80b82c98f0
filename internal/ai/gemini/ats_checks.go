package gemini

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/resume-matcher/internal/ai"
)

type atsCheck struct {
	name        string
	prompt      string
	schema      string
	temperature float32
}

var (
	spellingCheck       = atsCheck{"spelling and grammar", "ats_spelling", "spelling", 0.1}
	repetitionCheck     = atsCheck{"repetition", "ats_repetition", "repetition", 0.2}
	quantificationCheck = atsCheck{"quantification", "ats_quantification", "quantification", 0.2}
	longBulletsCheck    = atsCheck{"long bullets", "ats_long_bullets", "long_bullets", 0.2}
	activeVoiceCheck    = atsCheck{"active voice", "ats_active_voice", "active_voice", 0.1}
	hobbiesCheck        = atsCheck{"hobbies", "ats_hobbies", "hobbies", 0.3}
)

// ATSChecks runs the model-backed resume checks concurrently. A failing check
// leaves an explanatory message in its slot instead of failing the report.
func (a *Assistant) ATSChecks(ctx context.Context, resume string) (*ai.ATSChecks, error) {
	if err := requireText("resume", resume); err != nil {
		return nil, err
	}

	checks := &ai.ATSChecks{}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c := &checks.SpellingGrammar
		if err := a.runCheck(gCtx, spellingCheck, resume, c); err != nil {
			*c = ai.SpellingCheck{Message: failureMessage(spellingCheck, err)}
		} else if len(c.Errors) == 0 {
			c.Message = "No significant spelling or grammar errors found after review."
		}
		return nil
	})

	g.Go(func() error {
		c := &checks.Repetition
		if err := a.runCheck(gCtx, repetitionCheck, resume, c); err != nil {
			*c = ai.RepetitionCheck{Message: failureMessage(repetitionCheck, err)}
		} else if len(c.RepeatedWords) == 0 {
			c.Message = "No significant word repetition found."
		}
		return nil
	})

	g.Go(func() error {
		c := &checks.Quantification
		if err := a.runCheck(gCtx, quantificationCheck, resume, c); err != nil {
			*c = ai.QuantificationCheck{Message: failureMessage(quantificationCheck, err)}
		} else if len(c.LackingQuantification) == 0 {
			c.Message = "All bullet points include quantifiable impact or are descriptive where appropriate."
		}
		return nil
	})

	g.Go(func() error {
		c := &checks.LongBullets
		if err := a.runCheck(gCtx, longBulletsCheck, resume, c); err != nil {
			*c = ai.LongBulletsCheck{Message: failureMessage(longBulletsCheck, err)}
		} else if len(c.LongBullets) == 0 {
			c.Message = "No overly long bullet points found."
		}
		return nil
	})

	g.Go(func() error {
		c := &checks.ActiveVoice
		if err := a.runCheck(gCtx, activeVoiceCheck, resume, c); err != nil {
			*c = ai.ActiveVoiceCheck{Message: failureMessage(activeVoiceCheck, err)}
		} else if len(c.PassiveSentences) == 0 {
			c.Message = "Good use of active voice detected throughout."
		}
		return nil
	})

	g.Go(func() error {
		c := &checks.Hobbies
		if err := a.runCheck(gCtx, hobbiesCheck, resume, c); err != nil {
			*c = ai.HobbiesCheck{Analysis: failureMessage(hobbiesCheck, err)}
			return nil
		}
		if !c.Found && len(c.Suggestions) == 0 {
			c.Suggestions = []string{"Consider adding an 'Interests' section if relevant to the roles you're applying for."}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return checks, nil
}

func (a *Assistant) runCheck(ctx context.Context, check atsCheck, resume string, out any) error {
	prompt, err := renderPrompt(check.prompt, map[string]string{"RESUME": resume})
	if err != nil {
		return err
	}

	err = a.generateJSON(ctx, ai.ToolATS, prompt, "", check.schema, out,
		WithTemperature(check.temperature), WithJSONResponse())
	if err != nil {
		a.logger.Warn("ats check failed", zap.String("check", check.name), zap.Error(err))
	}
	return err
}

func failureMessage(check atsCheck, err error) string {
	return fmt.Sprintf("Could not complete the %s check: %v", check.name, err)
}
