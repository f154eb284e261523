// Package keymap routes key presses in the article view to actions bound
// against the current active entry and visible list.
package keymap

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pders01/fluxrd/internal/storage"
)

type Action string

const (
	ActionClose         Action = "close"
	ActionPrev          Action = "prev"
	ActionNext          Action = "next"
	ActionToggleRead    Action = "toggle_read"
	ActionToggleStarred Action = "toggle_starred"
)

var actions = []Action{ActionClose, ActionPrev, ActionNext, ActionToggleRead, ActionToggleStarred}

// Bindings maps key strings, as bubbletea renders them, to actions.
type Bindings map[string]Action

func DefaultBindings() Bindings {
	return Bindings{
		"esc":   ActionClose,
		"left":  ActionPrev,
		"right": ActionNext,
		"m":     ActionToggleRead,
		"s":     ActionToggleStarred,
	}
}

// Parse builds bindings from an action to key list mapping as found in
// the [keys] config section. Several keys may be given separated by
// commas. Actions missing from m keep their default keys.
func Parse(m map[string]string) (Bindings, error) {
	b := make(Bindings)
	configured := make(map[Action]bool)
	for name, keys := range m {
		action := Action(strings.ToLower(strings.TrimSpace(name)))
		if !known(action) {
			return nil, fmt.Errorf("unknown key action %q", name)
		}
		for _, k := range strings.Split(keys, ",") {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			if prev, dup := b[k]; dup && prev != action {
				return nil, fmt.Errorf("key %q bound to both %s and %s", k, prev, action)
			}
			b[k] = action
			configured[action] = true
		}
	}
	for k, action := range DefaultBindings() {
		if configured[action] {
			continue
		}
		if _, taken := b[k]; !taken {
			b[k] = action
		}
	}
	return b, nil
}

func known(a Action) bool {
	for _, k := range actions {
		if k == a {
			return true
		}
	}
	return false
}

// Keys lists the keys bound to a, sorted.
func (b Bindings) Keys(a Action) []string {
	var keys []string
	for k, action := range b {
		if action == a {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Snapshot is the view state a binding was installed against.
type Snapshot struct {
	Active  *storage.Entry
	Entries []storage.Entry
}

// Handlers perform the bound actions. Open is used by prev and next.
type Handlers struct {
	Close         func()
	Open          func(storage.Entry)
	ToggleRead    func()
	ToggleStarred func()
}

type binding struct {
	snap     Snapshot
	handlers Handlers
}

// Dispatcher holds at most one live binding.
type Dispatcher struct {
	bindings Bindings

	mu      sync.Mutex
	current *binding
}

func NewDispatcher(b Bindings) *Dispatcher {
	if b == nil {
		b = DefaultBindings()
	}
	return &Dispatcher{bindings: b}
}

// Bind replaces the live binding. The returned release removes this
// binding only, and may be called more than once.
func (d *Dispatcher) Bind(snap Snapshot, h Handlers) (release func()) {
	b := &binding{snap: snap, handlers: h}
	d.mu.Lock()
	d.current = b
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		if d.current == b {
			d.current = nil
		}
		d.mu.Unlock()
	}
}

// Bound reports whether a binding is live.
func (d *Dispatcher) Bound() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current != nil
}

// Dispatch runs the action bound to key. It reports the action and
// whether the key was bound at all.
func (d *Dispatcher) Dispatch(key string) (Action, bool) {
	action, ok := d.bindings[key]
	if !ok {
		return "", false
	}
	d.mu.Lock()
	b := d.current
	d.mu.Unlock()
	if b == nil {
		return action, false
	}

	snap, h := b.snap, b.handlers
	switch action {
	case ActionClose:
		if snap.Active != nil && h.Close != nil {
			h.Close()
		}
	case ActionPrev, ActionNext:
		step := 1
		if action == ActionPrev {
			step = -1
		}
		if next, ok := Neighbor(snap.Entries, snap.Active, step); ok && h.Open != nil {
			h.Open(next)
		}
	case ActionToggleRead:
		if snap.Active != nil && h.ToggleRead != nil {
			h.ToggleRead()
		}
	case ActionToggleStarred:
		if snap.Active != nil && h.ToggleStarred != nil {
			h.ToggleStarred()
		}
	}
	return action, true
}

// Neighbor returns the entry step positions away from active in list.
// Stepping past either end yields nothing. With no active entry in the
// list a forward step selects the first entry.
func Neighbor(list []storage.Entry, active *storage.Entry, step int) (storage.Entry, bool) {
	idx := -1
	if active != nil {
		for i := range list {
			if list[i].ID == active.ID {
				idx = i
				break
			}
		}
	}
	if idx == -1 {
		if step > 0 && len(list) > 0 {
			return list[0], true
		}
		return storage.Entry{}, false
	}
	n := idx + step
	if n < 0 || n >= len(list) {
		return storage.Entry{}, false
	}
	return list[n], true
}
