// Package connectors provides the SourceLoader implementations that read
// the raw bytes of research sources.
//
// The filesystem connector serves file-backed and pasted sources.
package connectors
