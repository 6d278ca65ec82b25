// Package agentref resolves compact `namespace:name` agent references to
// file content, enforcing sandbox containment against the configured
// search roots. Adapted from the directory-discovery shape of the
// Agent Skills loader, generalized to a strict two-segment reference
// grammar and a hard containment check after symlink resolution.
package agentref

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vinayprograms/agentkit/logging"
)

var log = logging.New().WithComponent("agentref")

// Category is the fixed sub-layout segment between namespace and file:
// <root>/<namespace>/<category>/<name>.<ext>.
const (
	defaultCategory = "core"
	defaultExt      = "md"
	maxNameLength   = 255
)

// InvalidReferenceError reports a malformed `namespace:name` reference.
type InvalidReferenceError struct {
	Reference string
	Reason    string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid agent reference %q: %s", e.Reference, e.Reason)
}

// NotFoundError reports a well-formed reference that resolved to no
// containable, readable file under any search root.
type NotFoundError struct {
	Reference string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("agent reference %q not found", e.Reference)
}

// Resolver maps agent references to file content under an ordered list
// of search roots. It holds no cache: every Resolve call re-reads the
// file system, so callers must not assume content stability across
// calls (TOCTOU is the caller's problem to manage, not this package's
// to hide).
type Resolver struct {
	searchRoots []string
}

// New creates a Resolver over searchRoots, consulted in order.
func New(searchRoots []string) *Resolver {
	roots := make([]string, len(searchRoots))
	copy(roots, searchRoots)
	return &Resolver{searchRoots: roots}
}

// Resolve parses reference as `namespace:name`, locates the backing
// file under the first search root where it exists and is physically
// contained within that root, and returns its content.
func (r *Resolver) Resolve(reference string) (string, error) {
	namespace, name, err := parseReference(reference)
	if err != nil {
		return "", err
	}

	for _, root := range r.searchRoots {
		content, ok, err := r.tryRoot(root, namespace, name)
		if err != nil {
			return "", err
		}
		if ok {
			return content, nil
		}
	}
	return "", &NotFoundError{Reference: reference}
}

func (r *Resolver) tryRoot(root, namespace, name string) (content string, ok bool, err error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false, nil
	}
	resolvedRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", false, nil
	}

	candidate := filepath.Join(absRoot, namespace, defaultCategory, name+"."+defaultExt)
	resolvedCandidate, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		// Overlong path, permission denial, or similar: treat as "not found"
		// at this root rather than surfacing a raw OS error.
		return "", false, nil
	}

	if !isContained(resolvedRoot, resolvedCandidate) {
		log.SecurityWarning("agent reference resolved outside its search root", map[string]interface{}{
			"root":      resolvedRoot,
			"candidate": resolvedCandidate,
		})
		return "", false, nil
	}

	info, err := os.Stat(resolvedCandidate)
	if err != nil {
		return "", false, nil
	}
	if !info.Mode().IsRegular() {
		return "", false, nil
	}

	data, err := os.ReadFile(resolvedCandidate)
	if err != nil {
		return "", false, nil
	}
	return string(data), true, nil
}

// isContained reports whether candidate is a strict descendant of root
// (root itself does not count), using the already symlink-resolved
// physical paths.
func isContained(root, candidate string) bool {
	rel, err := filepath.Rel(root, candidate)
	if err != nil {
		return false
	}
	if rel == "." {
		return false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return true
}

// isValidSegment reports whether s matches [A-Za-z0-9_-]+ in full —
// the whitelist each side of a reference must satisfy.
func isValidSegment(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !isAlpha && !isDigit && r != '_' && r != '-' {
			return false
		}
	}
	return true
}

func parseReference(reference string) (namespace, name string, err error) {
	reject := func(reason string) (string, string, error) {
		log.SecurityWarning("rejected agent reference", map[string]interface{}{
			"reference": reference,
			"reason":    reason,
		})
		return "", "", &InvalidReferenceError{Reference: reference, Reason: reason}
	}

	if strings.ContainsAny(reference, "\x00") {
		return reject("contains a null byte — invalid")
	}
	if strings.ContainsRune(reference, 0xFEFF) {
		return reject("contains a zero-width character — invalid")
	}
	if strings.ContainsAny(reference, "/\\") {
		return reject("contains a path separator — invalid")
	}

	idx := strings.IndexByte(reference, ':')
	if idx < 0 {
		return reject("missing ':' separator — invalid")
	}
	if strings.IndexByte(reference[idx+1:], ':') >= 0 {
		return reject("more than one ':' separator — invalid")
	}

	namespace = reference[:idx]
	name = reference[idx+1:]

	if !isValidSegment(namespace) {
		return reject("namespace must match [A-Za-z0-9_-]+ — invalid")
	}
	if !isValidSegment(name) {
		return reject("name must match [A-Za-z0-9_-]+ — invalid")
	}
	if len(name) > maxNameLength || len(namespace) > maxNameLength {
		return reject("segment exceeds maximum length — invalid")
	}

	return namespace, name, nil
}
