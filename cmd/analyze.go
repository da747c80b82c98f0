package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/tools"
)

const (
	PromptAnotherTool  = "Run another tool"
	PromptResultToFile = "Dump result to file"
	PromptExit         = "Exit"
)

var errExit = errors.New("exit requested")

var actionPrompt = promptui.Select{
	Label: "Next?",
	Items: []string{PromptAnotherTool, PromptResultToFile, PromptExit},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run an AI career tool over a resume and a job description",
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addInputFlags(analyzeCmd)

	analyzeCmd.Flags().StringP("tool", "t", "", fmt.Sprintf("tool to run, one of %v. Asks interactively when unset", ai.Tools()))
}

func analyze(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()
	defer logger.Sync()

	in, err := readInput(cmd)
	if err != nil {
		logger.Fatal("reading input", zap.Error(err))
	}

	runner, err := newRunner(ctx, config, logger)
	if err != nil {
		logger.Fatal("building tools", zap.Error(err))
	}

	name, _ := cmd.Flags().GetString("tool")
	if name != "" {
		tool, err := ai.ParseTool(name)
		if err != nil {
			logger.Fatal("parsing tool", zap.Error(err))
		}
		if _, err := runTool(ctx, cmd, runner, tool, in); err != nil {
			logger.Fatal("running tool", zap.String("tool", string(tool)), zap.Error(err))
		}
		return
	}

	for {
		tool, err := selectTool()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		out, err := runTool(ctx, cmd, runner, tool, in)
		if err != nil {
			// A failed tool does not end the session; the next one may still work.
			logger.Error("running tool", zap.String("tool", string(tool)), zap.Error(err))
		}

		if err := handleAction(logger, tool, out); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func selectTool() (ai.Tool, error) {
	available := ai.Tools()
	titles := make([]string, 0, len(available))
	for _, t := range available {
		titles = append(titles, t.Title())
	}

	toolPrompt := promptui.Select{
		Label: "Choose a tool and press ENTER",
		Items: titles,
	}

	i, _, err := toolPrompt.Run()
	if err != nil {
		return "", err
	}
	return available[i], nil
}

func runTool(ctx context.Context, cmd *cobra.Command, runner *tools.Runner, tool ai.Tool, in tools.Input) (any, error) {
	out, err := runner.Run(ctx, tool, in)
	if err != nil {
		return nil, err
	}
	return out, printJSON(cmd, out)
}

func handleAction(logger *zap.Logger, tool ai.Tool, out any) error {
	for {
		_, action, err := actionPrompt.Run()
		if err != nil {
			return err
		}

		switch action {
		case PromptAnotherTool:
			return nil
		case PromptExit:
			logger.Info("exiting", zap.String("reason", "got exit from prompt"))
			return errExit
		case PromptResultToFile:
			if out == nil {
				logger.Info("nothing to dump", zap.String("tool", string(tool)))
				continue
			}
			filename, err := dumpResult(tool, out)
			if err != nil {
				return fmt.Errorf("dump result to file: %w", err)
			}
			logger.Info("dumping result to file", zap.String("filename", filename))
		default:
			return fmt.Errorf("invalid action: %s", action)
		}
	}
}

func dumpResult(tool ai.Tool, out any) (string, error) {
	file, err := os.CreateTemp("", string(tool)+"_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return "", err
	}
	return file.Name(), nil
}
