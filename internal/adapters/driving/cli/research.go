package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driving"
)

var (
	researchFormat  string
	researchTimeout time.Duration
	researchQuiet   bool
)

var researchCmd = &cobra.Command{
	Use:   "research <session-id> <topic>",
	Short: "Generate a research report for a session",
	Long: `Run the research pipeline on a session's sources:

  ingesting     parse every source to plain text
  chunking      split the text into overlapping windows
  retrieving    pick the excerpts most relevant to the topic
  synthesizing  ask the LLM for a structured, cited report

The report replaces the session's previous one only when the run succeeds.
Words after the session ID are joined to form the topic.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().StringVarP(&researchFormat, "format", "f", formatText, "output format: text, json or yaml")
	researchCmd.Flags().DurationVar(&researchTimeout, "timeout", 10*time.Minute, "abort the run after this long")
	researchCmd.Flags().BoolVarP(&researchQuiet, "quiet", "q", false, "do not print stage progress")
	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	if err := requireResearch(); err != nil {
		return err
	}
	if err := validFormat(researchFormat); err != nil {
		return err
	}

	sessionID := args[0]
	topic := strings.TrimSpace(strings.Join(args[1:], " "))

	ctx := cmd.Context()
	if researchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, researchTimeout)
		defer cancel()
	}

	st := newStyles(cmd.ErrOrStderr())
	started := time.Now()
	opts := driving.RunOptions{}
	if !researchQuiet {
		opts.Progress = func(state domain.PipelineState) {
			label := fmt.Sprintf("%-13s %s", state, time.Since(started).Round(time.Millisecond))
			if state == domain.PipelineStateErrored {
				fmt.Fprintln(cmd.ErrOrStderr(), st.errorS.Render(label))
				return
			}
			fmt.Fprintln(cmd.ErrOrStderr(), st.muted.Render(label))
		}
	}

	out, err := researchService.Run(ctx, sessionID, topic, opts)
	if err != nil {
		return explainRunError(sessionID, err)
	}

	if ungrounded := ungroundedCount(out); ungrounded > 0 && !researchQuiet {
		fmt.Fprintln(cmd.ErrOrStderr(), st.warning.Render(
			fmt.Sprintf("%d citation(s) could not be matched to the source text", ungrounded)))
	}

	if researchFormat != formatText {
		return writeStructured(cmd.OutOrStdout(), researchFormat, out)
	}
	renderReport(cmd.OutOrStdout(), topic, out)
	return nil
}

func ungroundedCount(out *domain.ResearchOutput) int {
	if out == nil || out.Grounding == nil {
		return 0
	}
	return len(out.Grounding.Ungrounded)
}

// explainRunError turns a pipeline failure into one actionable message.
func explainRunError(sessionID string, err error) error {
	var synth *domain.SynthesisError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("session %s not found; list sessions with 'sercha-research session list'", sessionID)
	case errors.Is(err, domain.ErrRunInProgress):
		return fmt.Errorf("a research run is already in progress for session %s", sessionID)
	case errors.Is(err, domain.ErrNoUsableSources):
		return fmt.Errorf("no source in session %s could be read: %w", sessionID, err)
	case errors.Is(err, domain.ErrNoChunks):
		return fmt.Errorf("the sources in session %s contain no text: %w", sessionID, err)
	case errors.Is(err, domain.ErrLLMUnavailable):
		return fmt.Errorf("%w; configure one with 'sercha-research settings llm'", err)
	case errors.As(err, &synth) && synth.Stage == domain.SynthesisStageValidate:
		return fmt.Errorf("the model returned a report that does not match the schema: %w", err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("research timed out (raise --timeout): %w", err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("research cancelled: %w", err)
	default:
		return err
	}
}
