package events

import "sync"

// Event names the process-wide signals emitted by the workspace engine.
type Event string

const (
	// BuildCommandsChanged fires after a compile database merge actually
	// changed the source-file projection.
	BuildCommandsChanged Event = "buildCommandsChanged"
	// SystemPathsChanged fires when parsing discovered a system include
	// path not seen before. Coalesced to one signal per database update.
	SystemPathsChanged Event = "systemPathsChanged"
	// WorkspaceInitialized fires when a reload reaches the ready state.
	WorkspaceInitialized Event = "workspaceInitialized"
	// TestsSetChanged fires when a package build directory appears,
	// hinting that its test targets should be re-discovered.
	TestsSetChanged Event = "testsSetChanged"
)

// Handler receives an event's boolean payload. Events without a meaningful
// payload are emitted with true.
type Handler func(payload bool)

// Notifier is an observer registry owned by a workspace instance. It is
// safe for concurrent use; handlers run synchronously on the emitting
// goroutine, in registration order.
type Notifier struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[Event]map[int]Handler
	order    map[Event][]int
}

// NewNotifier creates an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		handlers: make(map[Event]map[int]Handler),
		order:    make(map[Event][]int),
	}
}

// Subscribe registers a handler for an event and returns a function that
// removes the subscription. Unsubscribing twice is harmless.
func (n *Notifier) Subscribe(event Event, handler Handler) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++

	if n.handlers[event] == nil {
		n.handlers[event] = make(map[int]Handler)
	}
	n.handlers[event][id] = handler
	n.order[event] = append(n.order[event], id)

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.handlers[event], id)
	}
}

// Emit invokes every handler subscribed to the event with the payload.
func (n *Notifier) Emit(event Event, payload bool) {
	n.mu.RLock()
	var fns []Handler
	for _, id := range n.order[event] {
		if h, ok := n.handlers[event][id]; ok {
			fns = append(fns, h)
		}
	}
	n.mu.RUnlock()

	for _, h := range fns {
		h(payload)
	}
}
