package domain

// Citation grounds a generated statement in a literal source excerpt.
// Text is expected to be a verbatim substring of a chunk whose
// Metadata.SourceTitle equals SourceTitle.
type Citation struct {
	SourceTitle string `json:"sourceTitle"`
	Page        *int   `json:"page,omitempty"`
	Text        string `json:"text"`

	// Grounded is set by the verification pass; nil means unchecked.
	Grounded *bool `json:"grounded,omitempty"`
}

// Summary is the short summary of a report.
type Summary struct {
	Content   string     `json:"content"`
	Citations []Citation `json:"citations"`
}

// Insight is a single cited finding.
type Insight struct {
	Content  string   `json:"content"`
	Citation Citation `json:"citation"`
}

// Quote is a notable passage with its citation.
type Quote struct {
	Content  string   `json:"content"`
	Citation Citation `json:"citation"`
}

// NextStep is a suggested follow-up action.
type NextStep struct {
	Content     string `json:"content"`
	Explanation string `json:"explanation"`
}

// QuizItem is a multiple-choice comprehension question.
type QuizItem struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Citation      Citation `json:"citation"`
}

// ResearchOutput is the structured report produced by one successful run.
type ResearchOutput struct {
	ShortSummary    Summary    `json:"shortSummary"`
	ExtendedSummary string     `json:"extendedSummary"`
	Insights        []Insight  `json:"insights"`
	Quotes          []Quote    `json:"quotes"`
	NextSteps       []NextStep `json:"nextSteps"`
	Quiz            []QuizItem `json:"quiz"`

	// EvidenceChunks is exactly the chunk set handed to synthesis, in order.
	// It is provenance metadata and never taken from model output.
	EvidenceChunks []Chunk `json:"evidenceChunks"`

	// Grounding summarises citation verification, when it ran.
	Grounding *GroundingReport `json:"grounding,omitempty"`
}

// Citations returns pointers to every citation in the report, in document order:
// short summary, insights, quotes, then quiz.
func (o *ResearchOutput) Citations() []*Citation {
	if o == nil {
		return nil
	}
	out := make([]*Citation, 0, len(o.ShortSummary.Citations)+len(o.Insights)+len(o.Quotes)+len(o.Quiz))
	for i := range o.ShortSummary.Citations {
		out = append(out, &o.ShortSummary.Citations[i])
	}
	for i := range o.Insights {
		out = append(out, &o.Insights[i].Citation)
	}
	for i := range o.Quotes {
		out = append(out, &o.Quotes[i].Citation)
	}
	for i := range o.Quiz {
		out = append(out, &o.Quiz[i].Citation)
	}
	return out
}

// GroundingMode selects what happens to citations that fail verification.
type GroundingMode string

// Available grounding modes.
const (
	// GroundingModeOff skips verification entirely.
	GroundingModeOff GroundingMode = "off"

	// GroundingModeFlag marks ungrounded citations but keeps them.
	GroundingModeFlag GroundingMode = "flag"

	// GroundingModeDrop removes items whose citation is ungrounded.
	GroundingModeDrop GroundingMode = "drop"
)

// IsValid returns true if the grounding mode is recognised.
func (m GroundingMode) IsValid() bool {
	switch m {
	case GroundingModeOff, GroundingModeFlag, GroundingModeDrop:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m GroundingMode) String() string {
	return string(m)
}

// GroundingReport is the outcome of the citation verification pass.
type GroundingReport struct {
	Mode       GroundingMode `json:"mode"`
	Checked    int           `json:"checked"`
	Grounded   int           `json:"grounded"`
	Ungrounded []Citation    `json:"ungrounded,omitempty"`
}
