// Package command defines the deferred unit of work routed through the
// pump, and the Binder mapping command variants to callback lists.
//
// A command is any value; its variant is its concrete Go type. The
// default execution behavior is firing the variant's callbacks in
// registration order, each receiving the command instance. A variant
// that needs to control when (or whether) that happens implements
// Runner and calls the supplied fire function itself.
package command

import (
	"context"
	"reflect"
	"sync"
)

// Command is a unit of deferred work. Any value can be a command; the
// pump and the Binder key behavior off its concrete type.
type Command interface{}

// Runner is the explicit override contract for command execution. The
// pump calls Run instead of firing callbacks directly; fire runs the
// default callback path for the command's variant, and the
// implementation chooses when in its own logic to invoke it. Not
// calling fire is valid and suppresses callbacks for this execution.
type Runner interface {
	Run(ctx context.Context, fire func())
}

// Binder maps a command variant to its ordered callback list. It is an
// explicitly constructed object, owned by the registry and handed to
// the pump. Safe for concurrent use; callbacks may bind and remove
// during a Fire, taking effect from the next Fire on.
type Binder struct {
	mu       sync.Mutex
	nextID   uint64
	bindings map[reflect.Type][]*binding
}

type binding struct {
	id uint64
	fn func(context.Context, Command)
}

// NewBinder returns an empty Binder.
func NewBinder() *Binder {
	return &Binder{bindings: make(map[reflect.Type][]*binding)}
}

// Binding is the handle returned by Bind. Remove unregisters the
// callback; calling Remove more than once is a silent no-op.
type Binding struct {
	binder  *Binder
	variant reflect.Type
	id      uint64
}

// Bind registers fn to run whenever a command of variant T executes its
// default behavior. Multiple bindings per variant are allowed and fire
// in registration order; no de-duplication is performed.
func Bind[T Command](b *Binder, fn func(context.Context, T)) *Binding {
	variant := reflect.TypeOf((*T)(nil)).Elem()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.bindings[variant] = append(b.bindings[variant], &binding{
		id: b.nextID,
		fn: func(ctx context.Context, cmd Command) {
			fn(ctx, cmd.(T))
		},
	})
	return &Binding{binder: b, variant: variant, id: b.nextID}
}

// Remove unregisters the callback this handle was returned for. It is
// a silent no-op when the binding is already gone or the Binder has
// been reset.
func (bd *Binding) Remove() {
	if bd == nil || bd.binder == nil {
		return
	}

	bd.binder.mu.Lock()
	defer bd.binder.mu.Unlock()

	list := bd.binder.bindings[bd.variant]
	for i, entry := range list {
		if entry.id == bd.id {
			bd.binder.bindings[bd.variant] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Fire invokes the callbacks bound to cmd's variant, in registration
// order, passing cmd to each. No callbacks bound is a valid silent
// no-op. The callback list is snapshotted first, so bindings added or
// removed during the fire apply to later fires only.
func (b *Binder) Fire(ctx context.Context, cmd Command) {
	if cmd == nil {
		return
	}

	b.mu.Lock()
	list := b.bindings[reflect.TypeOf(cmd)]
	snapshot := make([]*binding, len(list))
	copy(snapshot, list)
	b.mu.Unlock()

	for _, entry := range snapshot {
		entry.fn(ctx, cmd)
	}
}

// Reset removes every binding. Intended for test isolation.
func (b *Binder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bindings = make(map[reflect.Type][]*binding)
}

// VariantName returns a stable, human-readable name for the command's
// concrete type, without the pointer marker. Used in logs and records.
func VariantName(cmd Command) string {
	t := reflect.TypeOf(cmd)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "nil"
	}
	return t.String()
}
