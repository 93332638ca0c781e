package filesystem

import "strings"

// LocalPath converts a source URI to a local path.
// Handles file:// URIs and bare paths.
func LocalPath(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		return strings.TrimPrefix(uri, "file://")
	}
	return uri
}
