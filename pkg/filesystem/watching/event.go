package watching

import "time"

// ChangeKind categorizes a coalesced filesystem change. Kinds are ordered
// by precedence for the purpose of coalescing multiple raw events against
// the same path within a debounce window: a Removed event for a path beats
// any later Modified or Created event observed for it before the window
// flushes, since the file no longer existing is the fact that matters most
// to a caller than have been holding a stale fingerprint.
type ChangeKind int

const (
	// KindUnknown is used when a raw event could not be classified.
	KindUnknown ChangeKind = iota
	// KindPermissionChanged indicates the file's mode bits changed but its
	// content did not (as far as the watcher could tell).
	KindPermissionChanged
	// KindCreated indicates a new file or directory appeared.
	KindCreated
	// KindRenamed indicates a path was renamed or moved. The underlying
	// notification APIs this watcher is built on report renames as
	// independent events on the old and new names, with no guaranteed
	// correlation between them; the watcher does not correlate them, so
	// OldPath is empty on every rename it observes itself.
	KindRenamed
	// KindModified indicates a file's content changed.
	KindModified
	// KindRemoved indicates a file or directory was deleted.
	KindRemoved
)

// precedence returns the coalescing priority of a kind; higher wins.
func (k ChangeKind) precedence() int {
	switch k {
	case KindRemoved:
		return 5
	case KindModified:
		return 4
	case KindRenamed:
		return 3
	case KindCreated:
		return 2
	case KindPermissionChanged:
		return 1
	default:
		return 0
	}
}

// String renders the kind's name.
func (k ChangeKind) String() string {
	switch k {
	case KindPermissionChanged:
		return "permission_changed"
	case KindCreated:
		return "created"
	case KindRenamed:
		return "renamed"
	case KindModified:
		return "modified"
	case KindRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// ChangeEvent is a single coalesced notification delivered to subscribers.
type ChangeEvent struct {
	// Path is the absolute, canonical path the event pertains to.
	Path string
	// OldPath is the prior name for a KindRenamed event, when known.
	OldPath string
	// Kind is the coalesced change kind.
	Kind ChangeKind
	// Origin identifies the writer that caused this change, for synthetic
	// events published directly by the write path rather than observed
	// from the filesystem. It is empty for events derived from the
	// underlying native watcher.
	Origin string
	// ObservedAt is when the event was flushed to subscribers, not when
	// the first underlying raw event for the path was seen.
	ObservedAt time.Time
}

// pendingChange tracks in-progress coalescing state for a single path.
type pendingChange struct {
	kind      ChangeKind
	oldPath   string
	firstSeen time.Time
}

// absorb merges a newly observed raw kind into the pending state for a
// path, keeping the higher-precedence kind and preserving the original
// firstSeen timestamp so the debounce window is anchored to the first
// observation, not the most recent one.
func (p *pendingChange) absorb(kind ChangeKind, oldPath string) {
	if kind.precedence() >= p.kind.precedence() {
		p.kind = kind
		if oldPath != "" {
			p.oldPath = oldPath
		}
	}
}
