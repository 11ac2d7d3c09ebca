// Package lts models the legal behaviors of a sequential specification as a
// lazily constructed labeled transition system. States are interned by a
// behavioral equivalence relation so that different operation sequences
// reaching equivalent specification states share one node, keeping the
// search space over interleavings tractable.
package lts

import (
	"fmt"

	"linchk/result"
	"linchk/scenario"
)

// Phase distinguishes the three kinds of transitions an actor can take.
type Phase int

const (
	// First invocation of the actor's operation.
	PhaseRequest Phase = iota
	// Completion of a previously suspended request, addressed by ticket.
	PhaseFollowUp
	// Cancellation of a previously suspended request, addressed by ticket.
	PhaseCancel
)

func (p Phase) String() string {
	switch p {
	case PhaseRequest:
		return "request"
	case PhaseFollowUp:
		return "follow-up"
	case PhaseCancel:
		return "cancel"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// NoTicket marks an operation without a suspension ticket. It is lower than
// every valid ticket.
const NoTicket = -1

// Operation is one element of a state's creation path: the sequence of
// (actor, ticket, phase) steps that reaches the state from the initial
// specification instance.
type Operation struct {
	Actor  scenario.Actor
	Ticket int
	Phase  Phase
}

func (op Operation) String() string {
	if op.Ticket == NoTicket {
		return fmt.Sprintf("%v:%v", op.Actor, op.Phase)
	}
	return fmt.Sprintf("%v:%v#%d", op.Actor, op.Phase, op.Ticket)
}

// RemapFunc translates ticket numbers from the path that produced a
// transition into the canonical numbering of the interned target state. A
// nil RemapFunc is the identity.
type RemapFunc func(ticket int) int

// TransitionInfo describes one legal transition out of a state.
type TransitionInfo struct {
	// The result the sequential specification produced for the operation.
	Result result.Result
	// The interned state the transition leads to.
	NextState *State
	// Ticket assigned to the request if it suspended, in the canonical
	// numbering of NextState; NoTicket otherwise.
	Ticket int
	// Ticket translation to apply to any tickets the caller tracked before
	// taking this transition.
	Remap RemapFunc
}

// RemapTicket applies the transition's remapping to a tracked ticket.
func (ti *TransitionInfo) RemapTicket(ticket int) int {
	if ti.Remap == nil || ticket == NoTicket {
		return ticket
	}
	return ti.Remap(ticket)
}
