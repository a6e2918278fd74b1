package state

import "fmt"

// ErrCallDepthExceeded is returned by PushFrame once MaxCallDepth
// frames are already active, guarding recursive shell functions (and
// `source`'s own positional-parameter stack, which shares the bound)
// against unbounded native-stack growth.
var ErrCallDepthExceeded = fmt.Errorf("maximum function nesting level exceeded (%d)", MaxCallDepth)

// PushFrame enters a new function-call scope with its own positional
// parameters, saving the caller's positional parameters onto the
// frame stack implicitly (Frame.Args holds the callee's $1..).
func (s *Store) PushFrame(args []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) >= MaxCallDepth {
		return ErrCallDepthExceeded
	}
	s.frames = append(s.frames, &Frame{Locals: make(map[string]*Var), Args: args})
	return nil
}

// PopFrame exits the innermost function-call scope.
func (s *Store) PopFrame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.frames); n > 0 {
		s.frames = s.frames[:n-1]
	}
}

// Depth reports the current function-call nesting depth.
func (s *Store) Depth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.frames)
}

// FrameArg returns the current frame's positional parameter n (1-based),
// falling back to the top-level positional parameters outside any
// function call.
func (s *Store) FrameArg(n int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var args []string
	if len(s.frames) > 0 {
		args = s.frames[len(s.frames)-1].Args
	} else {
		args = s.positional
	}
	if n < 1 || n > len(args) {
		return "", false
	}
	return args[n-1], true
}

// FrameArgs returns the active positional-parameter slice (function
// frame if any, else top level).
func (s *Store) FrameArgs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.frames) > 0 {
		return append([]string(nil), s.frames[len(s.frames)-1].Args...)
	}
	return append([]string(nil), s.positional...)
}

// SetFrameArgs replaces the active positional-parameter slice (the
// `shift`/`set --` builtins).
func (s *Store) SetFrameArgs(args []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.frames); n > 0 {
		s.frames[n-1].Args = args
		return
	}
	s.positional = args
}

// Declare a variable local to the current frame. Outside any function
// call, bash treats `local` as an error; den just falls back to a
// global assignment to keep scripts running under `source`.
func (s *Store) DeclareLocal(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.frames); n > 0 {
		s.frames[n-1].Locals[name] = &Var{Scalar: value, Attrs: AttrLocal}
		return
	}
	s.vars[name] = &Var{Scalar: value}
}
