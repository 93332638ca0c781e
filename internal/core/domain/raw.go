package domain

// RawDocument is the unparsed content of a source as loaded from disk or
// pasted input. Parsers turn it into plain text.
type RawDocument struct {
	// SourceID identifies the source the bytes belong to.
	SourceID string

	// URI is the original location, empty for pasted text.
	URI string

	// MIMEType selects the parser.
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata holds loader-specific details such as file size.
	Metadata map[string]any
}
