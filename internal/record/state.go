package record

// State is a lifecycle state from the fixed enumerated set.
type State string

const (
	StateDrafting        State = "En elaboración"
	StateDraftingMaps    State = "En elaboración cartografía"
	StateSubcontract     State = "Subcontrato"
	StateTechnicalReview State = "En revisor técnico"
	StateCoordinator     State = "En coordinador"
	StateEditorialReview State = "En revisor editorial"
	StateFinalized       State = "Incorporada"
	StatePending         State = "Pendiente"
)

// Tracked classifies a state for goal purposes.
type Tracked int

const (
	// NotTracked states do not count toward the goal.
	NotTracked Tracked = iota
	// TrackedFinalized is the terminal state.
	TrackedFinalized
	// TrackedEditorial is the near-terminal editorial-review state.
	TrackedEditorial
)

type stateInfo struct {
	order   int
	tracked Tracked
}

var states = map[State]stateInfo{
	StateDrafting:        {order: 0},
	StateDraftingMaps:    {order: 1},
	StateSubcontract:     {order: 2},
	StateTechnicalReview: {order: 3},
	StateCoordinator:     {order: 4},
	StateEditorialReview: {order: 5, tracked: TrackedEditorial},
	StateFinalized:       {order: 6, tracked: TrackedFinalized},
	StatePending:         {order: 7},
}

// Tracked returns the goal classification of s. Unknown states are NotTracked.
func (s State) Tracked() Tracked {
	return states[s].tracked
}

// CountsTowardGoal reports whether s is one of the two tracked states.
func (s State) CountsTowardGoal() bool {
	return s.Tracked() != NotTracked
}

// IsKnown reports whether s belongs to the enumerated set.
func (s State) IsKnown() bool {
	_, ok := states[s]
	return ok
}

// Order returns the display position of s; unknown states sort last.
func (s State) Order() int {
	if info, ok := states[s]; ok {
		return info.order
	}
	return len(states)
}

// States returns the enumerated states in display order.
func States() []State {
	out := make([]State, len(states))
	for s, info := range states {
		out[info.order] = s
	}
	return out
}
