package models

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// ItemState is the position of a work item in the intake state machine
type ItemState string

const (
	StateIntake    ItemState = "intake"
	StateClaimed   ItemState = "claimed"
	StateSucceeded ItemState = "succeeded"
	StateFailed    ItemState = "failed"
)

// stateRank orders states along the lifecycle; transitions only move forward
var stateRank = map[ItemState]int{
	StateIntake:    0,
	StateClaimed:   1,
	StateSucceeded: 2,
	StateFailed:    2,
}

// WorkItem is the unit moving through the pipeline: one object observed
// under the intake prefix, held under its claimed key while processed.
type WorkItem struct {
	OriginalKey string    `json:"originalKey"`
	ClaimedKey  string    `json:"claimedKey"`
	Body        []byte    `json:"-"`
	ClaimedAt   time.Time `json:"claimedAt"`

	state ItemState
}

// NewWorkItem creates an item in the intake state
func NewWorkItem(originalKey string) *WorkItem {
	return &WorkItem{
		OriginalKey: originalKey,
		state:       StateIntake,
	}
}

func (w *WorkItem) State() ItemState {
	return w.state
}

// Advance moves the item to the next state. States are monotonic: an
// item never returns to an earlier state, and terminal states are final.
func (w *WorkItem) Advance(next ItemState) error {
	cur, ok := stateRank[w.state]
	if !ok {
		return fmt.Errorf("unknown state %q", w.state)
	}
	rank, ok := stateRank[next]
	if !ok {
		return fmt.Errorf("unknown state %q", next)
	}
	if rank <= cur {
		return fmt.Errorf("invalid transition %s -> %s", w.state, next)
	}
	if rank > cur+1 {
		return fmt.Errorf("invalid transition %s -> %s: state skipped", w.state, next)
	}
	w.state = next
	return nil
}

// Terminal reports whether the item reached a terminal state
func (w *WorkItem) Terminal() bool {
	return w.state == StateSucceeded || w.state == StateFailed
}

// Name is the logical object name: the base of the original key. It is
// stable across namespace moves.
func (w *WorkItem) Name() string {
	return path.Base(w.OriginalKey)
}

// Stem is the name without its extension, used to derive artifact keys
func (w *WorkItem) Stem() string {
	name := w.Name()
	return strings.TrimSuffix(name, path.Ext(name))
}
