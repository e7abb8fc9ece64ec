package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifier_SubscribeAndEmit(t *testing.T) {
	notifier := NewNotifier()

	var got []bool
	notifier.Subscribe(BuildCommandsChanged, func(payload bool) {
		got = append(got, payload)
	})

	notifier.Emit(BuildCommandsChanged, true)
	notifier.Emit(BuildCommandsChanged, false)

	assert.Equal(t, []bool{true, false}, got)
}

func TestNotifier_EmitOnlyMatchingEvent(t *testing.T) {
	notifier := NewNotifier()

	calls := 0
	notifier.Subscribe(SystemPathsChanged, func(bool) { calls++ })

	notifier.Emit(BuildCommandsChanged, true)
	assert.Equal(t, 0, calls)

	notifier.Emit(SystemPathsChanged, true)
	assert.Equal(t, 1, calls)
}

func TestNotifier_Unsubscribe(t *testing.T) {
	notifier := NewNotifier()

	calls := 0
	unsubscribe := notifier.Subscribe(WorkspaceInitialized, func(bool) { calls++ })

	notifier.Emit(WorkspaceInitialized, true)
	unsubscribe()
	unsubscribe() // second call is a no-op
	notifier.Emit(WorkspaceInitialized, true)

	assert.Equal(t, 1, calls)
}

func TestNotifier_MultipleHandlersInOrder(t *testing.T) {
	notifier := NewNotifier()

	var seen []string
	notifier.Subscribe(TestsSetChanged, func(bool) { seen = append(seen, "first") })
	notifier.Subscribe(TestsSetChanged, func(bool) { seen = append(seen, "second") })

	notifier.Emit(TestsSetChanged, true)

	assert.Equal(t, []string{"first", "second"}, seen)
}
