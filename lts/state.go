package lts

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"linchk/result"
	"linchk/scenario"
)

// State is one node of the transition system, identified by the canonical
// operation sequence that reaches it from the initial specification
// instance. States are never created eagerly: outgoing transitions are
// computed on first query and memoized per actor or per ticket.
type State struct {
	lts  *LTS
	path []Operation
	info *stateInfo

	mu        sync.Mutex
	requests  map[string]*TransitionInfo
	followUps map[int]*TransitionInfo
	cancels   map[int]*TransitionInfo
}

// Next returns the transition the specification allows for the actor with
// the expected result, or nil if the specification cannot produce that
// result here. Dispatches on the ticket: NoTicket queries the request phase,
// a valid ticket the follow-up phase of the suspended request it addresses.
func (s *State) Next(a scenario.Actor, expected result.Result, ticket int) (*TransitionInfo, error) {
	if ticket == NoTicket {
		return s.nextRequest(a, expected)
	}
	return s.nextFollowUp(a, expected, ticket)
}

// NextCancel returns the cancellation transition for the suspended request
// addressed by the ticket, or nil if the request is not pending in this
// state.
func (s *State) NextCancel(a scenario.Actor, ticket int) (*TransitionInfo, error) {
	if !s.hasPending(ticket) {
		return nil, nil
	}
	s.mu.Lock()
	ti, ok := s.cancels[ticket]
	s.mu.Unlock()
	if !ok {
		op := Operation{Actor: a, Ticket: ticket, Phase: PhaseCancel}
		computed, err := s.computeTransition(op)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cancels[ticket] = computed
		s.mu.Unlock()
		ti = computed
	}
	if ti.Result.Kind() != result.KindCancelled {
		return nil, nil
	}
	return ti, nil
}

// nextRequest computes or recalls the request transition. A request that
// completes immediately is legal only when its result matches the expected
// one; a request that suspends is always legal, since the suspension can
// later resolve to any result.
func (s *State) nextRequest(a scenario.Actor, expected result.Result) (*TransitionInfo, error) {
	key := a.Key()
	s.mu.Lock()
	ti, ok := s.requests[key]
	s.mu.Unlock()
	if !ok {
		op := Operation{Actor: a, Ticket: NoTicket, Phase: PhaseRequest}
		computed, err := s.computeTransition(op)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.requests[key] = computed
		s.mu.Unlock()
		ti = computed
	}
	if ti.Result.Kind() == result.KindSuspended {
		return ti, nil
	}
	if !expected.Equals(ti.Result) {
		return nil, nil
	}
	return ti, nil
}

// nextFollowUp computes or recalls the follow-up transition for a resumed
// request. The follow-up is only available once the resuming operation has
// been applied in this state's history; its result is checked against the
// expected one with the relaxed result equality. A follow-up that suspends
// again is a specification error, not a legal outcome.
func (s *State) nextFollowUp(a scenario.Actor, expected result.Result, ticket int) (*TransitionInfo, error) {
	entry := s.resumedEntry(ticket)
	if entry == nil {
		return nil, nil
	}
	if entry.res.Kind() == result.KindSuspended {
		return nil, errors.Errorf("lts: follow-up of %v (ticket %d) suspended again", a, ticket)
	}
	s.mu.Lock()
	ti, ok := s.followUps[ticket]
	s.mu.Unlock()
	if !ok {
		op := Operation{Actor: a, Ticket: ticket, Phase: PhaseFollowUp}
		computed, err := s.computeTransition(op)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.followUps[ticket] = computed
		s.mu.Unlock()
		ti = computed
	}
	if !expected.Equals(ti.Result) {
		return nil, nil
	}
	return ti, nil
}

// computeTransition replays the state's creation path extended by the
// operation onto a fresh specification instance and interns the resulting
// state.
func (s *State) computeTransition(op Operation) (*TransitionInfo, error) {
	path := append(slices.Clone(s.path), op)
	instance, env, last, err := s.lts.replay(path)
	if err != nil {
		return nil, err
	}

	ticket := NoTicket
	if op.Phase == PhaseRequest && last.Kind() == result.KindSuspended {
		ticket = env.pending.ticket
	}

	next, remap, err := s.lts.intern(path, instance, env)
	if err != nil {
		return nil, err
	}
	if remap != nil && ticket != NoTicket {
		ticket = remap(ticket)
	}
	return &TransitionInfo{
		Result:    last,
		NextState: next,
		Ticket:    ticket,
		Remap:     remap,
	}, nil
}

func (s *State) hasPending(ticket int) bool {
	for _, p := range s.info.pending {
		if p.ticket == ticket {
			return true
		}
	}
	return false
}

func (s *State) resumedEntry(ticket int) *resumptionRef {
	for i := range s.info.resumed {
		if s.info.resumed[i].ticket == ticket {
			return &s.info.resumed[i]
		}
	}
	return nil
}

// PendingCount returns the number of suspended requests in this state.
func (s *State) PendingCount() int {
	return len(s.info.pending)
}
