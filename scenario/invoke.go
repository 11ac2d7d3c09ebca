package scenario

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"

	"linchk/result"
)

// ErrSuspended is returned by a suspendable operation after it has parked
// through its environment handle. The invoking engine converts it into a
// suspension instead of treating it as a failure.
var ErrSuspended = errors.New("scenario: operation suspended")

var errType = reflect.TypeOf((*error)(nil)).Elem()

// Call invokes the actor's method on the instance by reflection and maps the
// outcome onto the result model.
//
// If env is non-nil and the method declares one more parameter than the actor
// carries arguments, env is passed as the trailing argument. This is how
// suspendable operations (and the operations resuming them) receive their
// environment handle; plain operations just declare their natural signature.
//
// The mapping is: no non-error return values -> Void, one -> Value, a
// non-nil trailing error -> Exception if the actor declared it handled,
// ErrSuspended -> Suspended. An undeclared error, a panic, or a missing
// method is reported as an invocation error and fails the iteration.
func Call(instance any, a Actor, env any) (res result.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("scenario: panic in %s: %v", a, r)
		}
	}()

	method := reflect.ValueOf(instance).MethodByName(a.Method)
	if !method.IsValid() {
		return result.Result{}, errors.Errorf("scenario: %T has no method %s", instance, a.Method)
	}

	mt := method.Type()
	args := make([]reflect.Value, 0, len(a.Args)+1)
	for i, arg := range a.Args {
		if arg == nil {
			args = append(args, reflect.Zero(mt.In(i)))
			continue
		}
		args = append(args, reflect.ValueOf(arg))
	}
	if env != nil && mt.NumIn() == len(a.Args)+1 {
		args = append(args, reflect.ValueOf(env))
	}
	if len(args) != mt.NumIn() {
		return result.Result{}, errors.Errorf("scenario: %s takes %d arguments, actor carries %d", a.Method, mt.NumIn(), len(a.Args))
	}

	return mapReturns(a, method.Call(args))
}

func mapReturns(a Actor, rets []reflect.Value) (result.Result, error) {
	values := make([]any, 0, len(rets))
	for i, ret := range rets {
		if i == len(rets)-1 && ret.Type().Implements(errType) {
			if ret.IsNil() {
				break
			}
			callErr := ret.Interface().(error)
			if errors.Is(callErr, ErrSuspended) {
				return result.Suspended(), nil
			}
			if a.Handled(callErr) {
				return result.Exception(callErr), nil
			}
			return result.Result{}, errors.Wrapf(callErr, "scenario: unexpected error from %s", a)
		}
		values = append(values, ret.Interface())
	}
	switch len(values) {
	case 0:
		return result.Void(), nil
	case 1:
		return result.Value(values[0]), nil
	default:
		return result.Value(fmt.Sprintf("%v", values)), nil
	}
}
