// Package normalisers provides implementations of the Normaliser interface
// for various document formats. Each normaliser knows how to extract text
// content from a specific MIME type.
//
// Registry dispatches a raw document to the highest-priority normaliser
// registered for its MIME type. Default returns a registry holding every
// built-in normaliser.
package normalisers
