package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score a resume against a job description without calling the AI",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)
	addInputFlags(matchCmd)
}

func match(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()
	defer logger.Sync()

	in, err := readInput(cmd)
	if err != nil {
		logger.Fatal("reading input", zap.Error(err))
	}
	resume := ""
	if in.Resume != nil {
		resume = in.Resume.Text
	}
	if strings.TrimSpace(resume) == "" || strings.TrimSpace(in.JobDescription) == "" {
		logger.Warn("resume or job description is empty, the result will be low confidence",
			zap.String("hint", "use --resume together with --job or --job-text"),
		)
	}

	matcher, err := newMatcher(config.Matching, logger)
	if err != nil {
		logger.Fatal("building matcher", zap.Error(err))
	}

	result, err := matcher.Match(ctx, resume, in.JobDescription)
	if err != nil {
		logger.Fatal("matching", zap.Error(err))
	}

	combined, keyword, semantic := result.Percentages()
	logger.Info("match computed",
		zap.Int("combined", combined),
		zap.Int("keyword", keyword),
		zap.Int("semantic", semantic),
		zap.Bool("low_confidence", result.LowConfidence),
		zap.Bool("degraded", result.Degraded),
	)

	if err := printJSON(cmd, result); err != nil {
		logger.Fatal("printing result", zap.Error(err))
	}
}
