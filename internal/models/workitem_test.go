package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleTransitions(t *testing.T) {
	item := NewWorkItem("intake/invoice1.pdf")
	assert.Equal(t, StateIntake, item.State())
	assert.False(t, item.Terminal())

	require.NoError(t, item.Advance(StateClaimed))
	assert.Equal(t, StateClaimed, item.State())

	require.NoError(t, item.Advance(StateSucceeded))
	assert.True(t, item.Terminal())
}

func TestTransitionsAreMonotonic(t *testing.T) {
	tests := []struct {
		name string
		path []ItemState
		next ItemState
	}{
		{"no return to intake", []ItemState{StateClaimed}, StateIntake},
		{"no return from terminal", []ItemState{StateClaimed, StateSucceeded}, StateClaimed},
		{"no skipping claim", nil, StateFailed},
		{"terminal is final", []ItemState{StateClaimed, StateFailed}, StateSucceeded},
		{"no self transition", []ItemState{StateClaimed}, StateClaimed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := NewWorkItem("intake/invoice1.pdf")
			for _, s := range tt.path {
				require.NoError(t, item.Advance(s))
			}
			assert.Error(t, item.Advance(tt.next))
		})
	}
}

func TestNameAndStem(t *testing.T) {
	item := NewWorkItem("intake/invoice1.pdf")
	assert.Equal(t, "invoice1.pdf", item.Name())
	assert.Equal(t, "invoice1", item.Stem())

	nested := NewWorkItem("intake/2026/08/statement.final.pdf")
	assert.Equal(t, "statement.final.pdf", nested.Name())
	assert.Equal(t, "statement.final", nested.Stem())

	bare := NewWorkItem("intake/notes")
	assert.Equal(t, "notes", bare.Name())
	assert.Equal(t, "notes", bare.Stem())
}
