package bundle

import (
	"path/filepath"
	"strings"
)

// DefaultSignatureMarkers returns the path markers that designate
// signature-only filesystem entities. Their presence or absence varies
// under re-signing and carries no integrity signal.
func DefaultSignatureMarkers() []string {
	return []string{
		"_CodeSignature",
		"CodeResources",
		".DS_Store",
		"embedded.provisionprofile",
		"embedded.mobileprovision",
	}
}

// Filter recognizes paths that are inherently signature metadata.
// The marker list is explicit configuration so tests can exercise
// alternate sets.
type Filter struct {
	markers []string
}

// NewFilter creates a filter with the given substring markers
func NewFilter(markers []string) *Filter {
	return &Filter{markers: markers}
}

// IsSignatureArtifact reports whether the relative path contains any
// marker. Separators are normalized so behavior is identical across
// platforms.
func (f *Filter) IsSignatureArtifact(relPath string) bool {
	normalized := filepath.ToSlash(relPath)
	for _, marker := range f.markers {
		if marker == "" {
			continue
		}
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}
