package events

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmitDeliversByType(t *testing.T) {
	e := NewEmitter()
	var commits, failures []Event
	e.Subscribe(EventBlockCommit, func(ev Event) { commits = append(commits, ev) })
	e.Subscribe(EventTxFailed, func(ev Event) { failures = append(failures, ev) })

	e.Emit(Event{Type: EventBlockCommit, BlockIndex: 3})
	e.Emit(Event{Type: EventActionExecuted, BlockIndex: 3})

	require.Len(t, commits, 1)
	require.Equal(t, int64(3), commits[0].BlockIndex)
	require.Empty(t, failures)
}

func TestPanickingHandlerDoesNotStopOthers(t *testing.T) {
	e := NewEmitter()
	called := false
	e.Subscribe(EventTxFailed, func(Event) { panic("bad subscriber") })
	e.Subscribe(EventTxFailed, func(Event) { called = true })

	require.NotPanics(t, func() { e.Emit(Event{Type: EventTxFailed}) })
	require.True(t, called)
}
