package machine

import (
	"github.com/corentel/stackval/pkg/types"
)

// Stack is the operand stack of a Machine: a LIFO of array values plus a
// named-binding store.
//
// A Stack is created fresh for each Machine and is never shared across
// evaluations. It is not safe for concurrent use; concurrency is achieved by
// giving each goroutine its own Machine.
type Stack struct {
	values   []types.Value
	bindings map[string][]types.Value
}

// NewStack creates an empty stack.
func NewStack() *Stack {
	return &Stack{}
}

// Push appends a value to the top of the stack.
func (s *Stack) Push(v types.Value) {
	s.values = append(s.values, v)
}

// PushScalar pushes a single-element numeric value.
// It is used to seed positional input arguments before execution.
func (s *Stack) PushScalar(f float64) {
	s.Push(types.NewScalar(f))
}

// Pop removes and returns the top of the stack.
// Returns a U1002 error if the stack is empty.
func (s *Stack) Pop() (types.Value, error) {
	if len(s.values) == 0 {
		return types.Value{}, types.NewError(types.ErrEmptyStack, "Pop on empty stack", -1)
	}
	v := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	return v, nil
}

// Peek returns the top of the stack without removing it.
func (s *Stack) Peek() (types.Value, bool) {
	if len(s.values) == 0 {
		return types.Value{}, false
	}
	return s.values[len(s.values)-1], true
}

// Len returns the number of values on the stack.
func (s *Stack) Len() int {
	return len(s.values)
}

// Bind binds a value under name. Rebinding shadows: the previous binding is
// kept underneath and becomes visible again once the newer one is popped.
func (s *Stack) Bind(name string, v types.Value) {
	if s.bindings == nil {
		s.bindings = make(map[string][]types.Value)
	}
	s.bindings[name] = append(s.bindings[name], v)
}

// Load returns a copy of the most recent binding for name without removing
// it. Returns a U1001 error if the name is unbound.
func (s *Stack) Load(name string) (types.Value, error) {
	bs := s.bindings[name]
	if len(bs) == 0 {
		return types.Value{}, types.NewError(types.ErrUnboundName,
			"Unbound name \""+name+"\"", -1).WithToken(name)
	}
	return bs[len(bs)-1], nil
}

// PopNamed removes and returns the most recently bound value under name.
// Returns a U1001 error if the name is unbound.
func (s *Stack) PopNamed(name string) (types.Value, error) {
	bs := s.bindings[name]
	if len(bs) == 0 {
		return types.Value{}, types.NewError(types.ErrUnboundName,
			"Unbound name \""+name+"\"", -1).WithToken(name)
	}
	v := bs[len(bs)-1]
	if len(bs) == 1 {
		delete(s.bindings, name)
	} else {
		s.bindings[name] = bs[:len(bs)-1]
	}
	return v, nil
}

// Bound reports whether name currently has a binding.
func (s *Stack) Bound(name string) bool {
	return len(s.bindings[name]) > 0
}
