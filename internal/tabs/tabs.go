// Package tabs provides the default tab bootstrap used when a note is
// opened "in a new tab": the workspace obtains a tab id from an Opener
// and then binds a layout to it.
package tabs

import (
	"sync"

	"github.com/aldric/tavle/internal/models"
)

// Opener hands out tab ids. The shell embedding the workspace can
// provide its own implementation; Registry is the standalone default.
type Opener interface {
	OpenTab(notePath string) (tabID string)
}

// Registry is an in-memory Opener that records which note each tab was
// opened for. Safe for concurrent use.
type Registry struct {
	mu   sync.Mutex
	tabs map[string]string // tab id -> note path it was opened with
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tabs: make(map[string]string)}
}

// OpenTab allocates a tab id for the given note path.
func (r *Registry) OpenTab(notePath string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := models.NewID()
	r.tabs[id] = notePath
	return id
}

// NotePath returns the note path a tab was opened with.
func (r *Registry) NotePath(tabID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.tabs[tabID]
	return p, ok
}

// Close forgets a tab.
func (r *Registry) Close(tabID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tabs, tabID)
}

// Len returns the number of known tabs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tabs)
}

var _ Opener = (*Registry)(nil)
