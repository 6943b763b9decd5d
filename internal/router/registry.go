package router

import (
	"fmt"
	"strings"

	"github.com/mattjoyce/quickpanel/internal/dialog"
	"github.com/mattjoyce/quickpanel/internal/queue"
)

// Entry is one registered dialog. Queue is set only for sequential dialogs.
type Entry struct {
	Name   string
	Handle dialog.Handle
	Queue  *queue.Sequential
}

func (e Entry) Kind() Kind {
	if e.Queue != nil {
		return KindSequential
	}
	return KindDirect
}

// Registry maps dialog names to handles. It is filled once during startup and
// only read afterwards, so lookups take no lock.
type Registry struct {
	entries map[string]Entry
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Direct registers a dialog that is shown immediately.
func (r *Registry) Direct(name string, h dialog.Handle) error {
	return r.add(Entry{Name: name, Handle: h})
}

// Sequential registers a dialog whose show requests go through q. q must wrap h.
func (r *Registry) Sequential(name string, h dialog.Handle, q *queue.Sequential) error {
	if q == nil {
		return fmt.Errorf("dialog %q: sequential registration needs a queue", name)
	}
	return r.add(Entry{Name: name, Handle: h, Queue: q})
}

func (r *Registry) add(e Entry) error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("dialog name is empty")
	}
	if e.Handle == nil {
		return fmt.Errorf("dialog %q: handle is nil", e.Name)
	}
	if _, exists := r.entries[e.Name]; exists {
		return fmt.Errorf("dialog %q already registered", e.Name)
	}
	r.entries[e.Name] = e
	r.order = append(r.order, e.Name)
	return nil
}

// Lookup returns the entry registered under name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int { return len(r.order) }
