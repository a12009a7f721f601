// Package documents decides which local files may be uploaded and reads
// them into ingestion parts.
package documents

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Policy is the set of accepted file extensions.
// Matching is case-insensitive and uses only the final extension.
type Policy struct {
	exts map[string]struct{}
}

// NewPolicy builds a Policy. Extensions may be given with or without the dot.
func NewPolicy(exts []string) Policy {
	p := Policy{exts: make(map[string]struct{}, len(exts))}
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		p.exts[ext] = struct{}{}
	}
	return p
}

// Accepts reports whether path has an allowed extension.
func (p Policy) Accepts(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	_, ok := p.exts[ext]
	return ok
}

// Filter splits paths into accepted and rejected, keeping input order.
func (p Policy) Filter(paths []string) (accepted, rejected []string) {
	for _, path := range paths {
		if p.Accepts(path) {
			accepted = append(accepted, path)
		} else {
			rejected = append(rejected, path)
		}
	}
	return accepted, rejected
}

// Extensions returns the allowed extensions, sorted.
func (p Policy) Extensions() []string {
	out := make([]string, 0, len(p.exts))
	for ext := range p.exts {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// String renders the allowed extensions for display, e.g. ".doc, .pdf".
func (p Policy) String() string {
	return strings.Join(p.Extensions(), ", ")
}

// ErrUnsupportedType is returned by Check for files outside the policy.
var ErrUnsupportedType = errors.New("unsupported file type")

// Check returns ErrUnsupportedType when path is not accepted.
func (p Policy) Check(path string) error {
	if p.Accepts(path) {
		return nil
	}
	return fmt.Errorf("%s (allowed: %s): %w", filepath.Base(path), p, ErrUnsupportedType)
}
