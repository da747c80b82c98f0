package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spigell/resume-matcher/internal/extract"
	"github.com/spigell/resume-matcher/internal/tools"
)

// stdinName is accepted in place of a file path.
const stdinName = "-"

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("resume", "r", "", "resume file (pdf, docx or text), '-' for stdin")
	cmd.Flags().StringP("job", "J", "", "job description file, '-' for stdin")
	cmd.Flags().String("job-text", "", "job description text")
	cmd.Flags().String("input", "", "free-form input for the recommendation tool")
}

// readInput collects the documents named by the input flags. Missing inputs are
// left empty; the tool decides what it needs.
func readInput(cmd *cobra.Command) (tools.Input, error) {
	resumePath, _ := cmd.Flags().GetString("resume")
	jobPath, _ := cmd.Flags().GetString("job")
	jobText, _ := cmd.Flags().GetString("job-text")
	userInput, _ := cmd.Flags().GetString("input")

	if resumePath == stdinName && jobPath == stdinName {
		return tools.Input{}, errors.New("only one of --resume and --job can read stdin")
	}

	in := tools.Input{JobDescription: jobText, UserInput: userInput}

	if resumePath != "" {
		doc, err := readDocument(cmd.InOrStdin(), resumePath)
		if err != nil {
			return tools.Input{}, fmt.Errorf("reading resume: %w", err)
		}
		in.Resume = doc
	}

	if jobPath != "" {
		if jobText != "" {
			return tools.Input{}, errors.New("--job and --job-text are mutually exclusive")
		}
		doc, err := readDocument(cmd.InOrStdin(), jobPath)
		if err != nil {
			return tools.Input{}, fmt.Errorf("reading job description: %w", err)
		}
		in.JobDescription = doc.Text
	}

	return in, nil
}

func readDocument(stdin io.Reader, path string) (*extract.Document, error) {
	var (
		data []byte
		err  error
		name = filepath.Base(path)
	)

	if path == stdinName {
		name = "stdin.txt"
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	return extract.Text(name, data)
}

func printJSON(cmd *cobra.Command, v any) error {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(pretty)))
	return err
}
