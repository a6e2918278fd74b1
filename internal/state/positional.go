package state

import "fmt"

// ErrSourceDepthExceeded guards `source`'s positional-parameter stack
// against runaway recursive sourcing, sharing MaxCallDepth with
// function_frames per the same resource-budget reasoning.
var ErrSourceDepthExceeded = fmt.Errorf("maximum source nesting level exceeded (%d)", MaxCallDepth)

// PushSourceArgs temporarily overrides the positional parameters for
// the duration of a `source file arg...` invocation that passed extra
// arguments; PopSourceArgs restores the caller's parameters. Sourcing
// with no extra arguments leaves the positional parameters untouched
// and must not call either method.
func (s *Store) PushSourceArgs(args []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sourceStack) >= MaxCallDepth {
		return ErrSourceDepthExceeded
	}
	s.sourceStack = append(s.sourceStack, s.positional)
	s.positional = args
	return nil
}

// PopSourceArgs restores the positional parameters saved by the
// matching PushSourceArgs call.
func (s *Store) PopSourceArgs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.sourceStack); n > 0 {
		s.positional = s.sourceStack[n-1]
		s.sourceStack = s.sourceStack[:n-1]
	}
}

// ScriptName returns $0.
func (s *Store) ScriptName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scriptName
}

// SetScriptName sets $0, changed by `source`'s temporary override and
// restored on return.
func (s *Store) SetScriptName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scriptName = name
}
