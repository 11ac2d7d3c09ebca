package lts

import (
	"hash/fnv"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"linchk/result"
	"linchk/scenario"
)

// Equivalence must be implemented by sequential specifications so that
// states can be memoized. Two instances reached by different operation
// sequences but with equal state are merged into one LTS node.
//
// StateEquals and StateHash must be consistent: equal states must hash
// equally.
type Equivalence interface {
	StateEquals(other any) bool
	StateHash() uint64
}

// CheckStateEquivalence verifies that the specification's equivalence
// relation is implemented meaningfully: two freshly constructed instances
// must compare equal with equal hashes. Called once per verifier so a broken
// relation fails fast instead of silently mis-verifying.
func CheckStateEquivalence(newSpec func() any) error {
	a, ok := newSpec().(Equivalence)
	if !ok {
		return errors.Errorf("lts: sequential specification %T must implement lts.Equivalence", newSpec())
	}
	b := newSpec().(Equivalence)
	if !a.StateEquals(b) || a.StateHash() != b.StateHash() {
		return errors.Errorf("lts: two fresh %T instances are not equivalent; implement StateEquals/StateHash over the logical state", a)
	}
	return nil
}

// LTS is the lazily built labeled transition system over states of one
// sequential specification. One LTS lives for the lifetime of a single
// verifier instance, bounding the memory held by interned states.
type LTS struct {
	newSpec func() any

	mu     sync.Mutex
	states map[uint64][]*State
	root   *State
}

// New builds an LTS rooted at a fresh specification instance.
func New(newSpec func() any) (*LTS, error) {
	if _, ok := newSpec().(Equivalence); !ok {
		return nil, errors.Errorf("lts: sequential specification %T must implement lts.Equivalence", newSpec())
	}
	l := &LTS{
		newSpec: newSpec,
		states:  map[uint64][]*State{},
	}
	instance, env, _, err := l.replay(nil)
	if err != nil {
		return nil, err
	}
	root, _, err := l.intern(nil, instance, env)
	if err != nil {
		return nil, err
	}
	l.root = root
	return l, nil
}

// Root returns the initial state.
func (l *LTS) Root() *State { return l.root }

// replay executes the operation sequence against a fresh specification
// instance and returns the instance, the suspension bookkeeping and the
// result of the final operation. Replaying from the root keeps states pure
// and shareable; the sequential specification must be deterministic for the
// replay to be meaningful.
func (l *LTS) replay(path []Operation) (any, *Env, result.Result, error) {
	instance := l.newSpec()
	env := newEnv()
	var last result.Result

	for _, op := range path {
		switch op.Phase {
		case PhaseRequest:
			env.curKey = op.Actor.Key()
			env.pending = nil
			res, err := scenario.Call(instance, op.Actor, env)
			if err != nil {
				return nil, nil, result.Result{}, errors.Wrap(err, "lts: replay failed")
			}
			if res.Kind() == result.KindSuspended && env.pending == nil {
				return nil, nil, result.Result{}, errors.Errorf("lts: %v suspended without parking a waiter", op.Actor)
			}
			last = res
		case PhaseFollowUp:
			w := env.find(op.Ticket)
			if w == nil || w.state != waiterResumed {
				return nil, nil, result.Result{}, errors.Errorf("lts: replay inconsistency, no resumed waiter for ticket %d", op.Ticket)
			}
			last = w.res
			env.drop(op.Ticket)
		case PhaseCancel:
			w := env.find(op.Ticket)
			if w == nil || w.state != waiterPending {
				return nil, nil, result.Result{}, errors.Errorf("lts: replay inconsistency, no pending waiter for ticket %d", op.Ticket)
			}
			w.state = waiterCancelled
			env.drop(op.Ticket)
			last = result.Cancelled()
		}
	}
	return instance, env, last, nil
}

// waiterRef identifies one still-suspended request in a state.
type waiterRef struct {
	actorKey string
	ticket   int
}

// resumptionRef records a (resumed actor, resuming actor, ticket) triple
// together with the result the resumption produced.
type resumptionRef struct {
	resumedKey  string
	resumingKey string
	ticket      int
	res         result.Result
}

// stateInfo is the equivalence key of a state: the specification instance,
// the ordered list of currently suspended requests and the set of resumed
// requests awaiting their follow-up.
type stateInfo struct {
	instance Equivalence
	pending  []waiterRef
	resumed  []resumptionRef
	hash     uint64
}

func buildStateInfo(instance any, env *Env) *stateInfo {
	info := &stateInfo{instance: instance.(Equivalence)}
	for _, w := range env.pendingWaiters() {
		info.pending = append(info.pending, waiterRef{actorKey: w.actorKey, ticket: w.ticket})
	}
	for _, w := range env.resumedWaiters() {
		info.resumed = append(info.resumed, resumptionRef{
			resumedKey:  w.actorKey,
			resumingKey: w.resumedBy,
			ticket:      w.ticket,
			res:         w.res,
		})
	}
	info.hash = info.computeHash()
	return info
}

func (si *stateInfo) computeHash() uint64 {
	h := si.instance.StateHash()
	for _, p := range si.pending {
		h = h*31 + hashString(p.actorKey)
	}
	// The resumed entries form a set; sum their hashes so ordering does not
	// matter.
	var resumedSum uint64
	for _, r := range si.resumed {
		resumedSum += hashString(r.resumedKey + "\x00" + r.resumingKey + "\x00" + r.res.Key())
	}
	return h*31 + resumedSum
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

func (si *stateInfo) equals(other *stateInfo) bool {
	if !si.instance.StateEquals(other.instance) {
		return false
	}
	if len(si.pending) != len(other.pending) || len(si.resumed) != len(other.resumed) {
		return false
	}
	for i, p := range si.pending {
		if p.actorKey != other.pending[i].actorKey {
			return false
		}
	}
	// Multiset comparison of resumed entries.
	matched := make([]bool, len(other.resumed))
	for _, r := range si.resumed {
		found := false
		for j, o := range other.resumed {
			if !matched[j] && r.resumedKey == o.resumedKey && r.resumingKey == o.resumingKey && r.res.Equals(o.res) {
				matched[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// remapTo pairs this info's tickets with the canonical info's tickets and
// returns the translation. Pending waiters pair by list order; resumed
// entries pair greedily by identity, first unmatched wins.
func (si *stateInfo) remapTo(canonical *stateInfo) RemapFunc {
	m := map[int]int{}
	identity := true
	for i, p := range si.pending {
		m[p.ticket] = canonical.pending[i].ticket
		identity = identity && p.ticket == canonical.pending[i].ticket
	}
	used := make([]bool, len(canonical.resumed))
	for _, r := range si.resumed {
		for j, o := range canonical.resumed {
			if !used[j] && r.resumedKey == o.resumedKey && r.resumingKey == o.resumingKey && r.res.Equals(o.res) {
				used[j] = true
				m[r.ticket] = o.ticket
				identity = identity && r.ticket == o.ticket
				break
			}
		}
	}
	if identity {
		return nil
	}
	return func(ticket int) int {
		if mapped, ok := m[ticket]; ok {
			return mapped
		}
		return ticket
	}
}

// intern looks the candidate state up in the global cache, merging it with
// an equivalent existing state when possible. Returns the canonical state
// and the ticket remapping from the candidate's numbering to the canonical
// one (nil when they already agree).
func (l *LTS) intern(path []Operation, instance any, env *Env) (*State, RemapFunc, error) {
	info := buildStateInfo(instance, env)

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, existing := range l.states[info.hash] {
		if info.equals(existing.info) {
			return existing, info.remapTo(existing.info), nil
		}
	}
	s := &State{
		lts:       l,
		path:      slices.Clone(path),
		info:      info,
		requests:  map[string]*TransitionInfo{},
		followUps: map[int]*TransitionInfo{},
		cancels:   map[int]*TransitionInfo{},
	}
	l.states[info.hash] = append(l.states[info.hash], s)
	return s, nil, nil
}

// Size returns the number of interned states, for diagnostics and tests.
func (l *LTS) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, bucket := range l.states {
		n += len(bucket)
	}
	return n
}
