package domain

import (
	"fmt"
)

// FormState represents the current state of a form session
type FormState string

const (
	FormStateLoading    FormState = "loading"
	FormStateReady      FormState = "ready"
	FormStateEditing    FormState = "editing"
	FormStateValidating FormState = "validating"
	FormStateSaving     FormState = "saving"
	FormStateSaved      FormState = "saved"
	FormStateError      FormState = "error"
)

// FormTransition represents an event that can change form state
type FormTransition string

const (
	TransitionLoaded   FormTransition = "loaded"
	TransitionEdit     FormTransition = "edit"
	TransitionValidate FormTransition = "validate"
	TransitionSubmit   FormTransition = "submit"
	TransitionSucceed  FormTransition = "succeed"
	TransitionFail     FormTransition = "fail"
	TransitionRetry    FormTransition = "retry"
)

// FormStateMachine enforces valid state transitions for form sessions.
// Invalid transitions return an error and leave the state unchanged.
type FormStateMachine struct {
	// transitions maps (current state, transition) -> next state
	transitions map[stateTransitionKey]FormState
}

type stateTransitionKey struct {
	state      FormState
	transition FormTransition
}

// NewFormStateMachine creates a state machine with the form lifecycle rules.
// State diagram:
//
//	[loading] --loaded--> [ready] --edit--> [editing] <--edit-- +
//	                         |                  |               |
//	                         +----validate----> [validating] ---+
//	                                                |
//	                                             submit
//	                                                v
//	                      [saved] <--succeed-- [saving] --fail--> [error]
//
//	[error] --retry--> [ready]; loading can also fail into [error]
func NewFormStateMachine() *FormStateMachine {
	sm := &FormStateMachine{
		transitions: make(map[stateTransitionKey]FormState),
	}

	sm.addTransition(FormStateLoading, TransitionLoaded, FormStateReady)
	sm.addTransition(FormStateLoading, TransitionFail, FormStateError)
	sm.addTransition(FormStateReady, TransitionEdit, FormStateEditing)
	sm.addTransition(FormStateReady, TransitionValidate, FormStateValidating)
	sm.addTransition(FormStateEditing, TransitionEdit, FormStateEditing)
	sm.addTransition(FormStateEditing, TransitionValidate, FormStateValidating)
	sm.addTransition(FormStateValidating, TransitionEdit, FormStateEditing)
	sm.addTransition(FormStateValidating, TransitionSubmit, FormStateSaving)
	sm.addTransition(FormStateSaving, TransitionSucceed, FormStateSaved)
	sm.addTransition(FormStateSaving, TransitionFail, FormStateError)
	sm.addTransition(FormStateError, TransitionRetry, FormStateReady)

	return sm
}

func (sm *FormStateMachine) addTransition(from FormState, via FormTransition, to FormState) {
	key := stateTransitionKey{state: from, transition: via}
	sm.transitions[key] = to
}

// Transition attempts to transition from the current state using the given event.
// Returns the new state or an error if the transition is invalid.
func (sm *FormStateMachine) Transition(current FormState, action FormTransition) (FormState, error) {
	key := stateTransitionKey{state: current, transition: action}
	next, ok := sm.transitions[key]
	if !ok {
		return current, fmt.Errorf("invalid form transition: cannot %s from %s", action, current)
	}
	return next, nil
}

// CanTransition checks if a transition is valid without performing it.
func (sm *FormStateMachine) CanTransition(current FormState, action FormTransition) bool {
	key := stateTransitionKey{state: current, transition: action}
	_, ok := sm.transitions[key]
	return ok
}

// ValidTransitions returns all valid transitions from the given state.
func (sm *FormStateMachine) ValidTransitions(state FormState) []FormTransition {
	var result []FormTransition
	for key := range sm.transitions {
		if key.state == state {
			result = append(result, key.transition)
		}
	}
	return result
}

// IsTerminal returns true if the session can no longer change.
func (sm *FormStateMachine) IsTerminal(state FormState) bool {
	return state == FormStateSaved
}
