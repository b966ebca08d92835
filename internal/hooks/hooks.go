// Package hooks lets extensions observe workspace actions. Listeners
// are fire-and-forget: their results are ignored and a panicking
// listener never takes the workspace down.
package hooks

import (
	"log/slog"
	"sync"
)

// Listener receives workspace events.
type Listener interface {
	NoteOpened(path string)
	NoteSaved(path string)
}

// Emitter fans workspace events out to registered listeners.
type Emitter struct {
	mu        sync.RWMutex
	listeners []Listener
	logger    *slog.Logger
}

// NewEmitter creates an emitter.
func NewEmitter(logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{logger: logger}
}

// Register adds a listener. Registration order is delivery order.
func (e *Emitter) Register(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// EmitNoteOpen notifies listeners that a note was opened in a pane.
func (e *Emitter) EmitNoteOpen(path string) {
	e.emit(path, "note open", Listener.NoteOpened)
}

// EmitNoteSave notifies listeners that a note was saved.
func (e *Emitter) EmitNoteSave(path string) {
	e.emit(path, "note save", Listener.NoteSaved)
}

func (e *Emitter) emit(path, what string, fn func(Listener, string)) {
	e.mu.RLock()
	listeners := make([]Listener, len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.RUnlock()

	for _, l := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("hook listener panicked",
						slog.String("hook", what),
						slog.String("path", path),
						slog.Any("panic", r))
				}
			}()
			fn(l, path)
		}()
	}
}
