package state

// CachedPath returns a previously resolved absolute path for an
// external command name, if the cache hasn't been invalidated since.
func (s *Store) CachedPath(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pathCache[name]
	return p, ok
}

// CachePath records a resolved absolute path for an external command
// name, as `hash` does implicitly on every successful external lookup.
func (s *Store) CachePath(name, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pathCache[name] = path
}

// ForgetPath removes one entry from the PATH cache (`hash -d name`).
func (s *Store) ForgetPath(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pathCache, name)
}

// ClearPathCache invalidates the whole PATH cache: `hash -r`, and
// implicitly whenever PATH itself is reassigned.
func (s *Store) ClearPathCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pathCache = make(map[string]string)
	s.pathCacheGen++
}

// PathCacheSnapshot returns the current cache contents, used by
// `hash` with no arguments to list them.
func (s *Store) PathCacheSnapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.pathCache))
	for k, v := range s.pathCache {
		out[k] = v
	}
	return out
}
