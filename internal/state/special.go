package state

// ShellPID returns $$: the shell process's own PID, fixed at startup
// (a subshell inherits the parent's value, matching bash's BASHPID vs
// $$ distinction only at the BASHPID layer, which den does not model).
func (s *Store) ShellPID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shellPID
}

// SetShellPID sets $$, called once at shell startup.
func (s *Store) SetShellPID(pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shellPID = pid
}

// LastBgPID returns $!: the PID of the most recently backgrounded job.
func (s *Store) LastBgPID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastBgPID
}

// SetLastBgPID sets $!, called whenever a command is backgrounded.
func (s *Store) SetLastBgPID(pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastBgPID = pid
}
