package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
)

var (
	sessionTitle  string
	sessionFormat string
	addPaste      string
	addTitle      string
	addType       string
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage research sessions",
	Long:  `Create sessions, attach source documents and inspect stored reports.`,
}

var sessionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a new session",
	Args:  cobra.NoArgs,
	RunE:  runSessionNew,
}

var sessionAddCmd = &cobra.Command{
	Use:   "add <session-id> [file...]",
	Short: "Add sources to a session",
	Long: `Add files or pasted text to a session. The source type is inferred from
the file extension (.pdf, .docx, .pptx, .xlsx, .txt, .md, .html) unless --type is given.

Use --paste "text" to add pasted text, or --paste - to read it from stdin.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSessionAdd,
}

var sessionRemoveCmd = &cobra.Command{
	Use:   "remove <session-id> <source-id>",
	Short: "Remove a source from a session",
	Args:  cobra.ExactArgs(2),
	RunE:  runSessionRemove,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionList,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session and its latest report",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionShow,
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session and its report",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionDelete,
}

func init() {
	sessionNewCmd.Flags().StringVarP(&sessionTitle, "title", "t", "", "session title")

	sessionAddCmd.Flags().StringVar(&addPaste, "paste", "", `pasted text, or "-" to read stdin`)
	sessionAddCmd.Flags().StringVarP(&addTitle, "title", "t", "", "source title (defaults to the file name)")
	sessionAddCmd.Flags().StringVar(&addType, "type", "", "source type: pdf, docx, ppt, sheet or text")

	sessionListCmd.Flags().StringVarP(&sessionFormat, "format", "f", formatText, "output format: text, json or yaml")
	sessionShowCmd.Flags().StringVarP(&sessionFormat, "format", "f", formatText, "output format: text, json or yaml")

	sessionCmd.AddCommand(sessionNewCmd)
	sessionCmd.AddCommand(sessionAddCmd)
	sessionCmd.AddCommand(sessionRemoveCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionNew(cmd *cobra.Command, _ []string) error {
	if err := requireSessions(); err != nil {
		return err
	}

	session, err := sessionService.Create(cmd.Context(), sessionTitle)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	cmd.Println(session.ID)
	return nil
}

func runSessionAdd(cmd *cobra.Command, args []string) error {
	if err := requireSessions(); err != nil {
		return err
	}

	sessionID, files := args[0], args[1:]
	inputs, err := sourceInputs(cmd.InOrStdin(), files)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var failed []error
	for _, input := range inputs {
		src, err := sessionService.AddSource(ctx, sessionID, input)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
			}
			failed = append(failed, fmt.Errorf("%s: %w", describeInput(input), err))
			continue
		}
		cmd.Printf("Added %s %q as %s\n", src.Type, src.Title, src.ID)
	}

	return errors.Join(failed...)
}

// sourceInputs builds inputs from files or the --paste flag.
func sourceInputs(stdin io.Reader, files []string) ([]domain.SourceInput, error) {
	if addPaste != "" {
		if len(files) > 0 {
			return nil, fmt.Errorf("%w: --paste cannot be combined with files", domain.ErrInvalidInput)
		}
		text := addPaste
		if text == "-" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("read stdin: %w", err)
			}
			text = string(data)
		}
		return []domain.SourceInput{{Type: domain.SourceTypePasted, Title: addTitle, Data: []byte(text)}}, nil
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: give at least one file or --paste", domain.ErrInvalidInput)
	}
	if addTitle != "" && len(files) > 1 {
		return nil, fmt.Errorf("%w: --title applies to a single file", domain.ErrInvalidInput)
	}

	inputs := make([]domain.SourceInput, 0, len(files))
	for _, path := range files {
		srcType := domain.SourceType(addType)
		if addType == "" {
			t, err := domain.SourceTypeFromPath(path)
			if err != nil {
				return nil, fmt.Errorf("%s: %w (use --type)", path, err)
			}
			srcType = t
		} else if !srcType.IsValid() {
			return nil, fmt.Errorf("%w: source type %q", domain.ErrUnsupportedType, addType)
		}
		inputs = append(inputs, domain.SourceInput{Type: srcType, Title: addTitle, URI: path})
	}
	return inputs, nil
}

func describeInput(in domain.SourceInput) string {
	if in.URI != "" {
		return in.URI
	}
	return "pasted text"
}

func runSessionRemove(cmd *cobra.Command, args []string) error {
	if err := requireSessions(); err != nil {
		return err
	}

	if err := sessionService.RemoveSource(cmd.Context(), args[0], args[1]); err != nil {
		return fmt.Errorf("remove source: %w", err)
	}
	cmd.Printf("Removed source %s\n", args[1])
	return nil
}

func runSessionList(cmd *cobra.Command, _ []string) error {
	if err := requireSessions(); err != nil {
		return err
	}
	if err := validFormat(sessionFormat); err != nil {
		return err
	}

	sessions, err := sessionService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	if sessionFormat != formatText {
		return writeStructured(cmd.OutOrStdout(), sessionFormat, summarise(sessions))
	}

	if len(sessions) == 0 {
		cmd.Println("No sessions. Create one with 'sercha-research session new --title <title>'.")
		return nil
	}

	st := newStyles(cmd.OutOrStdout())
	cell := lipgloss.NewStyle().PaddingRight(2)
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("ID", "TITLE", "SOURCES", "REPORT", "UPDATED").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.label.PaddingRight(2)
			}
			return cell
		})
	for _, s := range sessions {
		report := "-"
		if s.Results != nil {
			report = s.Topic
		}
		t.Row(s.ID, s.Title, fmt.Sprint(len(s.Sources)), report,
			s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	cmd.Println(t.Render())
	return nil
}

// sessionSummary is the list view of a session, without sources or report bodies.
type sessionSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Topic     string `json:"topic,omitempty"`
	Sources   int    `json:"sources"`
	HasReport bool   `json:"hasReport"`
	UpdatedAt string `json:"updatedAt"`
}

func summarise(sessions []domain.Session) []sessionSummary {
	out := make([]sessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionSummary{
			ID:        s.ID,
			Title:     s.Title,
			Topic:     s.Topic,
			Sources:   len(s.Sources),
			HasReport: s.Results != nil,
			UpdatedAt: s.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return out
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	if err := requireSessions(); err != nil {
		return err
	}
	if err := validFormat(sessionFormat); err != nil {
		return err
	}

	session, err := getSession(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if sessionFormat != formatText {
		return writeStructured(cmd.OutOrStdout(), sessionFormat, withoutSourceBodies(*session))
	}
	renderSession(cmd.OutOrStdout(), session)
	return nil
}

// withoutSourceBodies drops raw bytes and extracted text from structured output.
func withoutSourceBodies(s domain.Session) domain.Session {
	sources := make([]domain.Source, len(s.Sources))
	for i, src := range s.Sources {
		src.Data = nil
		src.Content = ""
		sources[i] = src
	}
	s.Sources = sources
	return s
}

func runSessionDelete(cmd *cobra.Command, args []string) error {
	if err := requireSessions(); err != nil {
		return err
	}

	if err := sessionService.Delete(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("session %s: %w", args[0], err)
		}
		return fmt.Errorf("delete session: %w", err)
	}
	cmd.Printf("Deleted session %s\n", args[0])
	return nil
}

func getSession(ctx context.Context, id string) (*domain.Session, error) {
	id = strings.TrimSpace(id)
	session, err := sessionService.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("session %s: %w", id, err)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}
