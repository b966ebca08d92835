package layout

// HistoryLimit bounds per-pane navigation history. When full, the
// oldest entry is dropped.
const HistoryLimit = 50

// History is a per-pane navigation trail: a bounded list of note paths
// and a cursor. The zero-ish state (no entries) has index -1. History
// values are persistent: every mutation returns a new value with a
// fresh backing slice, so histories can be carried through leaf clones
// without aliasing.
type History struct {
	entries []string
	index   int
}

// NewHistory returns an empty history.
func NewHistory() History {
	return History{index: -1}
}

// Len returns the number of entries.
func (h History) Len() int { return len(h.entries) }

// Index returns the cursor position, -1 when empty.
func (h History) Index() int { return h.index }

// Current returns the entry under the cursor.
func (h History) Current() (string, bool) {
	if h.index < 0 || h.index >= len(h.entries) {
		return "", false
	}
	return h.entries[h.index], true
}

// CanBack reports whether Back would move the cursor.
func (h History) CanBack() bool { return h.index > 0 }

// CanForward reports whether Forward would move the cursor.
func (h History) CanForward() bool { return h.index >= 0 && h.index < len(h.entries)-1 }

// Push records a navigation to path. Any forward entries beyond the
// cursor are discarded, then path is appended and the cursor moves to
// it. Pushing the entry already under the cursor is a no-op.
func (h History) Push(path string) History {
	if cur, ok := h.Current(); ok && cur == path {
		return h
	}
	next := make([]string, 0, h.index+2)
	next = append(next, h.entries[:h.index+1]...)
	next = append(next, path)
	if len(next) > HistoryLimit {
		next = next[len(next)-HistoryLimit:]
	}
	return History{entries: next, index: len(next) - 1}
}

// Back moves the cursor one entry back and returns the entry there.
// When already at the oldest entry it returns ok=false unchanged.
func (h History) Back() (History, string, bool) {
	if !h.CanBack() {
		return h, "", false
	}
	next := History{entries: h.entries, index: h.index - 1}
	return next, next.entries[next.index], true
}

// Forward moves the cursor one entry forward and returns the entry
// there. When already at the newest entry it returns ok=false
// unchanged.
func (h History) Forward() (History, string, bool) {
	if !h.CanForward() {
		return h, "", false
	}
	next := History{entries: h.entries, index: h.index + 1}
	return next, next.entries[next.index], true
}

// Entries returns a copy of the trail, oldest first.
func (h History) Entries() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}
