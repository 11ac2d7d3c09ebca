package result

import (
	"testing"

	"github.com/pkg/errors"
)

func TestValueEquality(t *testing.T) {
	if !Value(1).Equals(Value(1)) {
		t.Errorf("equal values compare unequal")
	}
	if Value(1).Equals(Value(2)) {
		t.Errorf("distinct values compare equal")
	}
	if !Value([]int{1, 2}).Equals(Value([]int{1, 2})) {
		t.Errorf("deep equality not applied to value payloads")
	}
	if Value(1).Equals(Void()) {
		t.Errorf("value compares equal to void")
	}
}

func TestVoidEqualityIgnoresSuspension(t *testing.T) {
	// A void result completed through a resumption is interchangeable with a
	// directly completed one.
	if !Void().Equals(Void().Resumed()) {
		t.Errorf("void and suspended void compare unequal")
	}
	if !Value(1).Resumed().Equals(Value(1)) {
		t.Errorf("resumption marker leaked into value equality")
	}
}

func TestExceptionEquality(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	if !Exception(errA).Equals(Exception(errA)) {
		t.Errorf("identical errors compare unequal")
	}
	// Distinct errors of the same dynamic type still identify the same
	// exceptional outcome.
	if !Exception(errA).Equals(Exception(errB)) {
		t.Errorf("same-typed errors compare unequal")
	}
	type custom struct{ error }
	if Exception(errA).Equals(Exception(custom{errB})) {
		t.Errorf("differently typed errors compare equal")
	}
}

func TestExceptionEqualityUnwraps(t *testing.T) {
	sentinel := errors.New("closed")
	wrapped := errors.Wrap(sentinel, "enqueue failed")
	// A wrapped error identifies the same exceptional outcome as its cause,
	// in either direction.
	if !Exception(wrapped).Equals(Exception(sentinel)) {
		t.Errorf("wrapped error compares unequal to its cause")
	}
	if !Exception(sentinel).Equals(Exception(wrapped)) {
		t.Errorf("cause compares unequal to its wrapped error")
	}
	other := errors.Wrap(errors.New("other"), "enqueue failed")
	if Exception(other).Equals(Exception(sentinel)) {
		t.Errorf("unrelated wrapped error compares equal to the sentinel")
	}
}

func TestMarkerKindsCompareByKind(t *testing.T) {
	kinds := []Result{Suspended(), Cancelled(), NoResult(), Timeout()}
	for i, a := range kinds {
		for j, b := range kinds {
			if (i == j) != a.Equals(b) {
				t.Errorf("%v vs %v: expected equal=%v", a, b, i == j)
			}
		}
	}
}

func TestWasSuspended(t *testing.T) {
	r := Value(1)
	if r.WasSuspended() {
		t.Errorf("fresh result marked as suspended")
	}
	if !r.Resumed().WasSuspended() {
		t.Errorf("Resumed did not mark the result")
	}
	if r.WasSuspended() {
		t.Errorf("Resumed mutated the receiver")
	}
}

func TestKeyDistinguishesKinds(t *testing.T) {
	if Value(1).Key() == Value(2).Key() {
		t.Errorf("keys of distinct values collide")
	}
	if Void().Key() == Suspended().Key() {
		t.Errorf("keys of distinct kinds collide")
	}
}

func TestKeyDistinguishesPayloadTypes(t *testing.T) {
	if Value(int64(1)).Key() == Value("1").Key() {
		t.Errorf("keys of same-rendering payloads of different types collide")
	}
	if Value(1).Key() == Value(int64(1)).Key() {
		t.Errorf("keys of int and int64 payloads collide")
	}
}
