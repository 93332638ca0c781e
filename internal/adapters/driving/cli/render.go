package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// styles holds the lipgloss styles for text output. The renderer detects
// the colour profile of the writer, so piped output stays plain.
type styles struct {
	heading lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	errorS  lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		label:   r.NewStyle().Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		success: r.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		warning: r.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
		errorS:  r.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		// Round-trip through JSON so YAML keys follow the json tags.
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: unknown format %q (want text, json or yaml)", domain.ErrInvalidInput, format)
	}
}

func validFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("%w: unknown format %q (want text, json or yaml)", domain.ErrInvalidInput, format)
	}
}

// renderReport writes a human-readable report.
func renderReport(w io.Writer, topic string, out *domain.ResearchOutput) {
	st := newStyles(w)
	p := func(format string, args ...any) { fmt.Fprintf(w, format, args...) }

	if topic != "" {
		p("%s\n\n", st.heading.Render("Research: "+topic))
	}

	p("%s\n", st.label.Render("Summary"))
	p("%s\n", indent(out.ShortSummary.Content, "  "))
	for _, c := range out.ShortSummary.Citations {
		p("    %s\n", citationLine(st, c))
	}
	p("\n")

	if out.ExtendedSummary != "" {
		p("%s\n%s\n\n", st.label.Render("Extended summary"), indent(out.ExtendedSummary, "  "))
	}

	if len(out.Insights) > 0 {
		p("%s\n", st.label.Render("Insights"))
		for i, in := range out.Insights {
			p("  %d. %s\n     %s\n", i+1, in.Content, citationLine(st, in.Citation))
		}
		p("\n")
	}

	if len(out.Quotes) > 0 {
		p("%s\n", st.label.Render("Quotes"))
		for _, q := range out.Quotes {
			p("  %q\n     %s\n", q.Content, citationLine(st, q.Citation))
		}
		p("\n")
	}

	if len(out.NextSteps) > 0 {
		p("%s\n", st.label.Render("Next steps"))
		for i, n := range out.NextSteps {
			p("  %d. %s\n", i+1, n.Content)
			if n.Explanation != "" {
				p("     %s\n", st.muted.Render(n.Explanation))
			}
		}
		p("\n")
	}

	if len(out.Quiz) > 0 {
		p("%s\n", st.label.Render("Quiz"))
		for i, q := range out.Quiz {
			p("  Q%d. %s\n", i+1, q.Question)
			for j, opt := range q.Options {
				marker := " "
				if opt == q.CorrectAnswer {
					marker = "*"
				}
				p("    %s %c) %s\n", marker, 'a'+rune(j%26), opt)
			}
			if q.Explanation != "" {
				p("     %s\n", st.muted.Render(q.Explanation))
			}
			p("     %s\n", citationLine(st, q.Citation))
		}
		p("\n")
	}

	p("%s\n", st.muted.Render(evidenceLine(out)))
	if g := out.Grounding; g != nil {
		line := fmt.Sprintf("Citations: %d/%d grounded (mode %s)", g.Grounded, g.Checked, g.Mode)
		if g.Grounded < g.Checked {
			p("%s\n", st.warning.Render(line))
		} else {
			p("%s\n", st.success.Render(line))
		}
	}
}

func citationLine(st styles, c domain.Citation) string {
	ref := c.SourceTitle
	if c.Page != nil {
		ref = fmt.Sprintf("%s, p. %d", ref, *c.Page)
	}
	line := fmt.Sprintf("[%s] %q", ref, c.Text)
	if c.Grounded != nil && !*c.Grounded {
		return st.warning.Render(line + " (unverified)")
	}
	return st.muted.Render(line)
}

func evidenceLine(out *domain.ResearchOutput) string {
	sources := make(map[string]bool)
	for _, c := range out.EvidenceChunks {
		sources[c.Metadata.SourceTitle] = true
	}
	return fmt.Sprintf("Evidence: %d excerpts from %d sources", len(out.EvidenceChunks), len(sources))
}

// renderSession writes a human-readable session summary.
func renderSession(w io.Writer, s *domain.Session) {
	st := newStyles(w)

	fmt.Fprintf(w, "%s\n", st.heading.Render(s.Title))
	fmt.Fprintf(w, "  ID:      %s\n", s.ID)
	fmt.Fprintf(w, "  Created: %s\n", s.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "  Updated: %s\n", s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	if s.Topic != "" {
		fmt.Fprintf(w, "  Topic:   %s\n", s.Topic)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s\n", st.label.Render(fmt.Sprintf("Sources (%d)", len(s.Sources))))
	if len(s.Sources) == 0 {
		fmt.Fprintf(w, "  %s\n", st.muted.Render("none; add one with 'sercha-research session add'"))
	}
	for _, src := range s.Sources {
		fmt.Fprintf(w, "  %s  %-6s %s  %s\n", src.ID, src.Type, src.Title, statusLabel(st, src))
	}
	fmt.Fprintln(w)

	if s.Results == nil {
		fmt.Fprintf(w, "%s\n", st.muted.Render("No report yet; run 'sercha-research research "+s.ID+" <topic>'"))
		return
	}
	renderReport(w, s.Topic, s.Results)
}

func statusLabel(st styles, src domain.Source) string {
	switch src.Status {
	case domain.SourceStatusComplete:
		return st.success.Render(string(src.Status))
	case domain.SourceStatusError:
		msg := string(src.Status)
		if src.StatusMessage != "" {
			msg += ": " + src.StatusMessage
		}
		return st.errorS.Render(msg)
	default:
		return st.muted.Render(string(src.Status))
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// maskAPIKey masks an API key for display.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
