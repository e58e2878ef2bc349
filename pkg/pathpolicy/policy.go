// Package pathpolicy canonicalizes and validates the paths the file I/O
// core is allowed to touch. Every request entering the core is resolved
// through a Policy before any filesystem operation is attempted on it.
package pathpolicy

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/ploke-dev/ploke-io/pkg/ioerror"
)

// SymlinkPolicy governs how the Policy reacts when canonicalizing a path
// resolves, via one or more symlinks, to a location outside every
// configured root.
type SymlinkPolicy int

const (
	// Follow allows symlinks to be followed even when they lead outside the
	// configured roots. The root set is treated purely as the set of
	// permitted entry points, not as a sandbox boundary.
	Follow SymlinkPolicy = iota
	// DenyCrossRoot rejects any path whose fully resolved, symlink-free form
	// falls outside every configured root.
	DenyCrossRoot
)

// String renders the policy name.
func (p SymlinkPolicy) String() string {
	if p == DenyCrossRoot {
		return "deny_cross_root"
	}
	return "follow"
}

// Policy holds a canonicalized root set and the symlink policy to enforce
// against it. It is immutable after construction and safe for concurrent
// use by multiple goroutines.
type Policy struct {
	roots         []string
	symlinkPolicy SymlinkPolicy
	// unrestricted is set by AnyAbsolute: an empty root set means "no root
	// restriction" rather than "reject everything", per the data model's
	// definition of an empty Root Set.
	unrestricted bool
}

// New canonicalizes roots and constructs a Policy. Every root must exist;
// roots are made absolute and canonicalized (symlinks resolved) so that
// later containment checks compare like with like. Whether a root is a
// directory is not checked.
func New(roots []string, symlinkPolicy SymlinkPolicy) (*Policy, error) {
	if len(roots) == 0 {
		return nil, ioerror.New(ioerror.KindInvalidInput, "pathpolicy.New", "")
	}
	canonical := make([]string, 0, len(roots))
	for _, root := range roots {
		resolved, err := canonicalize(root)
		if err != nil {
			return nil, ioerror.Wrap(ioerror.KindInvalidInput, "pathpolicy.New", root, err)
		}
		canonical = append(canonical, resolved)
	}
	return &Policy{roots: canonical, symlinkPolicy: symlinkPolicy}, nil
}

// AnyAbsolute returns a Policy with no configured roots: every absolute
// path that canonicalizes successfully is permitted, with no containment
// check. The absolute-path requirement still applies.
func AnyAbsolute() *Policy {
	return &Policy{symlinkPolicy: Follow, unrestricted: true}
}

// Roots returns a defensive copy of the configured root set so that callers
// cannot mutate the Policy's internal state through the returned slice.
func (p *Policy) Roots() []string {
	out := make([]string, len(p.roots))
	copy(out, p.roots)
	return out
}

// SymlinkPolicy returns the configured symlink policy.
func (p *Policy) SymlinkPolicy() SymlinkPolicy {
	return p.symlinkPolicy
}

// Resolve validates that requested is an absolute path rooted under one of
// the policy's configured roots, canonicalizes it (resolving symlinks), and
// re-checks containment against the resolved form according to the
// configured SymlinkPolicy. It returns the canonical, absolute path to use
// for all subsequent filesystem operations.
func (p *Policy) Resolve(op, requested string) (string, error) {
	if requested == "" {
		return "", ioerror.New(ioerror.KindInvalidInput, op, requested)
	}
	if !filepath.IsAbs(requested) {
		return "", ioerror.New(ioerror.KindInvalidInput, op, requested)
	}

	clean := filepath.Clean(requested)
	if !p.containedByAny(clean) {
		return "", ioerror.New(ioerror.KindInvalidInput, op, requested)
	}

	resolved, err := canonicalize(clean)
	if err != nil {
		return "", ioerror.Wrap(ioerror.KindInvalidInput, op, requested, err)
	}

	if !p.containedByAny(resolved) {
		if p.symlinkPolicy == DenyCrossRoot {
			return "", ioerror.New(ioerror.KindInvalidInput, op, requested)
		}
		// Follow: the caller's entry point was inside a configured root,
		// but a symlink led elsewhere. That is permitted under Follow.
	}

	return resolved, nil
}

// containedByAny reports whether path is equal to, or a descendant of, one
// of the policy's configured roots. An unrestricted Policy reports every
// path as contained.
func (p *Policy) containedByAny(path string) bool {
	if p.unrestricted {
		return true
	}
	for _, root := range p.roots {
		if contains(root, path) {
			return true
		}
	}
	return false
}

// contains reports whether path is root itself or lies underneath it,
// comparing path components rather than raw byte prefixes so that sibling
// directories with a shared string prefix (e.g. "/srv/app" and
// "/srv/app-backup") are not mistakenly treated as contained.
func contains(root, path string) bool {
	if root == path {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// canonicalize resolves path to an absolute, symlink-free form. The path
// must already exist; the core operates on a strict canonicalization model
// rather than attempting to canonicalize paths that don't yet exist.
func canonicalize(path string) (string, error) {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrap(err, "unable to make path absolute")
	}
	resolved, err := filepath.EvalSymlinks(absolute)
	if err != nil {
		return "", errors.Wrap(err, "unable to resolve symlinks")
	}
	return resolved, nil
}
