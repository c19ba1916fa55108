// Package workflow holds the state machines that drive content submissions,
// their audio files and supplier onboarding requests. Every status change in
// the application goes through one of the machines declared here.
package workflow

import (
	"errors"
	"fmt"
)

// ErrIllegalTransition is wrapped by every error returned from Machine.Next
var ErrIllegalTransition = errors.New("illegal transition")

// TransitionError describes a rejected transition
type TransitionError struct {
	Machine string
	From    string
	Event   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s while %s is %s", e.Event, e.Machine, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}

// Machine is a table driven finite state machine. It holds no state of its
// own, callers load the current state from the database, ask for the next
// one and persist it.
type Machine[S ~string, E ~string] struct {
	name  string
	table map[S]map[E]S
}

func NewMachine[S ~string, E ~string](name string, table map[S]map[E]S) *Machine[S, E] {
	return &Machine[S, E]{
		name:  name,
		table: table,
	}
}

// Next returns the state reached by firing ev in state from. If the table
// has no such edge the original state is returned together with a
// *TransitionError.
func (m *Machine[S, E]) Next(from S, ev E) (S, error) {
	if to, ok := m.table[from][ev]; ok {
		return to, nil
	}

	return from, &TransitionError{
		Machine: m.name,
		From:    string(from),
		Event:   string(ev),
	}
}

// Can reports whether ev is accepted in state from
func (m *Machine[S, E]) Can(from S, ev E) bool {
	_, ok := m.table[from][ev]
	return ok
}

// Accepting lists the states in which ev is accepted
func (m *Machine[S, E]) Accepting(ev E) []S {
	var out []S
	for from, edges := range m.table {
		if _, ok := edges[ev]; ok {
			out = append(out, from)
		}
	}

	return out
}
