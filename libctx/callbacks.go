package libctx

import (
	"log"

	"golang.org/x/exp/slices"
)

type CallbackKind int

const (
	// Argument: *Context
	CallbackWindowCreated CallbackKind = iota
	// Argument: *Context
	CallbackWindowAboutToBeDestroyed
	// Argument: the scene that is about to be deleted
	CallbackSceneAboutToBeDeleted
	numCallbackKinds
)

func (k CallbackKind) String() string {
	switch k {
	case CallbackWindowCreated:
		return "window created"
	case CallbackWindowAboutToBeDestroyed:
		return "window about to be destroyed"
	case CallbackSceneAboutToBeDeleted:
		return "scene about to be deleted"
	}
	return "unknown"
}

type Callback func(arg any)

type subscription struct {
	id int
	fn Callback
}

// Subscription identifies a registered callback, pass it to Unsubscribe.
type Subscription struct {
	kind CallbackKind
	id   int
}

// CallbackManager dispatches notifications synchronously and in subscription order.
// Handlers run inline, before the action that triggered them continues.
// Not safe for concurrent use.
type CallbackManager struct {
	subscriptions [numCallbackKinds][]subscription
	nextId        int
}

func NewCallbackManager() *CallbackManager {
	return &CallbackManager{}
}

func (m *CallbackManager) Subscribe(kind CallbackKind, fn Callback) Subscription {
	if kind < 0 || kind >= numCallbackKinds {
		log.Panicf("invalid callback kind: %d", kind)
	}
	if fn == nil {
		log.Panicf("nil callback for %v", kind)
	}
	m.nextId++
	m.subscriptions[kind] = append(m.subscriptions[kind], subscription{id: m.nextId, fn: fn})
	return Subscription{kind: kind, id: m.nextId}
}

func (m *CallbackManager) Unsubscribe(sub Subscription) {
	subs := m.subscriptions[sub.kind]
	index := slices.IndexFunc(subs, func(s subscription) bool {
		return s.id == sub.id
	})
	if index == -1 {
		return
	}
	m.subscriptions[sub.kind] = slices.Delete(subs, index, index+1)
}

// Dispatch calls every handler of the given kind.
// Handlers may unsubscribe themselves while being dispatched.
func (m *CallbackManager) Dispatch(kind CallbackKind, arg any) {
	subs := slices.Clone(m.subscriptions[kind])
	for _, s := range subs {
		s.fn(arg)
	}
}

func (m *CallbackManager) Count(kind CallbackKind) int {
	return len(m.subscriptions[kind])
}
