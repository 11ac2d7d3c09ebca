// Package runner drives execution scenarios against a live instance of the
// tested structure: the init and post parts single-threaded, the parallel
// part on one worker goroutine per logical thread, collecting a result per
// actor together with vector clock snapshots.
package runner

import (
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"linchk/clock"
	"linchk/result"
	"linchk/scenario"
)

// DefaultTimeout bounds one invocation of the parallel part. Exceeding it is
// reported as a deadlock in the tested structure.
const DefaultTimeout = 10 * time.Second

// ParallelRunner executes one scenario repeatedly, once per invocation, each
// time against a fresh instance of the tested structure.
type ParallelRunner struct {
	scn         *scenario.ExecutionScenario
	newInstance func() any

	timeout  time.Duration
	stateRep func(any) string
	spin     *spinner
	log      *logrus.Entry

	// Reset at the start of every Run.
	counter *completionCounter
}

// New creates a runner for the scenario. newInstance must return a fresh
// instance of the tested structure; stateRep may be nil.
func New(scn *scenario.ExecutionScenario, newInstance func() any, timeout time.Duration, stateRep func(any) string) (*ParallelRunner, error) {
	if err := scn.Validate(); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ParallelRunner{
		scn:         scn,
		newInstance: newInstance,
		timeout:     timeout,
		stateRep:    stateRep,
		spin:        newSpinner(),
		log:         logrus.WithField("component", "runner"),
	}, nil
}

// Run executes the scenario once and returns the invocation outcome. Safe to
// call repeatedly; every call uses a fresh instance and fresh bookkeeping.
func (r *ParallelRunner) Run() InvocationResult {
	r.counter = &completionCounter{}
	instance := r.newInstance()

	log := r.log.WithField("invocation", uuid.NewString())
	log.WithField("threads", r.scn.Threads()).Debug("starting invocation")

	res := &ExecutionResult{}

	// Init part, single-threaded, validating after every actor.
	for i, a := range r.scn.Init {
		out, err := scenario.Call(instance, a, nil)
		if err != nil {
			return UnexpectedExceptionInvocationResult{Thread: -1, Err: err}
		}
		res.Init = append(res.Init, out)
		if fail := r.validate(instance, &scenario.ExecutionScenario{Init: r.scn.Init[:i+1]}); fail != nil {
			return *fail
		}
	}

	parallel, invRes := r.runParallel(instance)
	if invRes != nil {
		return invRes
	}
	res.Parallel = parallel
	if fail := r.validate(instance, &scenario.ExecutionScenario{Init: r.scn.Init, Parallel: r.scn.Parallel}); fail != nil {
		return *fail
	}

	// Post part, single-threaded, validating after every actor.
	for i, a := range r.scn.Post {
		out, err := scenario.Call(instance, a, nil)
		if err != nil {
			return UnexpectedExceptionInvocationResult{Thread: -1, Err: err}
		}
		res.Post = append(res.Post, out)
		if fail := r.validate(instance, &scenario.ExecutionScenario{Init: r.scn.Init, Parallel: r.scn.Parallel, Post: r.scn.Post[:i+1]}); fail != nil {
			return *fail
		}
	}

	if r.stateRep != nil {
		res.StateRepresentation = r.stateRep(instance)
	}
	return CompletedInvocationResult{Result: res}
}

func (r *ParallelRunner) validate(instance any, prefix *scenario.ExecutionScenario) *ValidationFailureInvocationResult {
	if r.scn.Validation == nil {
		return nil
	}
	if err := r.scn.Validation(instance); err != nil {
		return &ValidationFailureInvocationResult{Prefix: prefix, Err: err}
	}
	return nil
}

// runParallel drives the parallel part: one worker goroutine per logical
// thread, bounded by the runner timeout. On timeout a goroutine dump is
// captured and a deadlock is reported.
func (r *ParallelRunner) runParallel(instance any) ([][]result.ResultWithClock, InvocationResult) {
	nThreads := r.scn.Threads()
	results := make([][]result.ResultWithClock, nThreads)
	for t := range results {
		results[t] = make([]result.ResultWithClock, len(r.scn.Parallel[t]))
	}
	suspendable := r.scn.HasSuspendableActors()

	g := &errgroup.Group{}
	for t := 0; t < nThreads; t++ {
		t := t
		g.Go(func() error {
			return r.worker(instance, t, results[t], suspendable)
		})
	}

	wait := make(chan error, 1)
	go func() { wait <- g.Wait() }()

	select {
	case err := <-wait:
		if err != nil {
			var unexpected UnexpectedExceptionInvocationResult
			if !errors.As(err, &unexpected) {
				unexpected = UnexpectedExceptionInvocationResult{Thread: -1, Err: err}
			}
			return nil, unexpected
		}
		return results, nil
	case <-time.After(r.timeout):
		// Workers stuck inside the tested structure cannot be interrupted;
		// the dump is the diagnostic and the iteration is abandoned.
		return nil, DeadlockInvocationResult{ThreadDump: threadDump()}
	}
}

// worker executes one thread's actor sequence strictly in program order.
func (r *ParallelRunner) worker(instance any, t int, out []result.ResultWithClock, suspendable bool) error {
	env := &Env{thread: t, clock: clock.New(r.scn.Threads())}
	var envArg any
	if suspendable {
		envArg = env
	}

	actors := r.scn.Parallel[t]
	for i, a := range actors {
		env.cur = i
		env.pending = nil

		res, err := scenario.Call(instance, a, envArg)
		if err != nil {
			r.counter.complete()
			return UnexpectedExceptionInvocationResult{Thread: t, Err: err}
		}

		if res.Kind() == result.KindSuspended {
			final, terminal := r.resolveSuspension(env, a)
			if terminal {
				// The suspension can never be resumed: the scenario has
				// globally stalled at this point. Finalize as suspended and
				// mark the rest of the thread as never invoked.
				env.clock.Observe(t, i)
				out[i] = result.WithClock(final, env.clock.Copy())
				for j := i + 1; j < len(actors); j++ {
					out[j] = result.WithClock(result.NoResult(), env.clock.Copy())
				}
				return nil
			}
			res = final
		}

		env.clock.Observe(t, i)
		out[i] = result.WithClock(res, env.clock.Copy())
	}
	r.counter.complete()
	return nil
}

// resolveSuspension finalizes a suspended invocation: cancellation when the
// actor requests it, otherwise a spin-wait on the completion slot until a
// resumer fills it or every other thread has completed or suspended, at
// which point no resumer can ever arrive.
//
// Reports (result, terminal); terminal means the thread executes no further
// actors.
func (r *ParallelRunner) resolveSuspension(env *Env, a scenario.Actor) (result.Result, bool) {
	s := env.pending
	if s == nil {
		// The operation reported a suspension without parking. There is no
		// slot to resume, so the thread is stalled for good.
		r.counter.complete()
		return result.Suspended(), true
	}

	if a.CancelOnSuspension {
		if s.cancel() {
			return result.Cancelled(), false
		}
		// Lost the race: a resumer claimed the slot first. Wait for it to
		// publish before reading the result.
		r.spin.wait(s.resumed, func() bool { return false })
		env.clock.Merge(s.resumerClock)
		return s.res.Resumed(), false
	}

	r.counter.suspend()
	resumed := r.spin.wait(
		s.resumed,
		func() bool { return r.counter.allSettled(r.scn.Threads()) },
	)
	if !resumed {
		// The abort can race a resumer that already claimed the slot; wait
		// out a claim in progress before concluding no resumer exists.
		for s.state.Load() == suspensionClaimed {
			runtime.Gosched()
		}
	}
	if !s.resumed() {
		return result.Suspended(), true
	}
	r.counter.resume()
	env.clock.Merge(s.resumerClock)
	return s.res.Resumed(), false
}

func threadDump() string {
	buf := make([]byte, 1<<20)
	n := runtime.Stack(buf, true)
	return string(buf[:n])
}
