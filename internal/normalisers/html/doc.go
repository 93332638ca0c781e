// Package html provides a Normaliser for HTML documents. It extracts the
// readable text of the main content with goquery, dropping scripts, styles
// and page chrome such as navigation and footers.
package html
