package state

import "sort"

// SetArrayElem assigns one element of an indexed array, creating the
// array (and promoting the variable to AttrArray) if needed.
func (s *Store) SetArrayElem(name string, idx int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.lookupLocked(name)
	if v == nil {
		v = &Var{}
		s.vars[name] = v
	}
	if v.Attrs&AttrReadOnly != 0 {
		return errReadonly(name)
	}
	if v.Array == nil {
		v.Array = make(map[int]string)
	}
	v.Attrs |= AttrArray
	v.Array[idx] = value
	return nil
}

// GetArrayElem reads one indexed-array element.
func (s *Store) GetArrayElem(name string, idx int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.lookupLocked(name)
	if v == nil || v.Array == nil {
		return "", false
	}
	val, ok := v.Array[idx]
	return val, ok
}

// ArrayIndices returns an indexed array's populated indices in
// ascending order, the iteration order `"${arr[@]}"` and `${!arr[@]}`
// rely on.
func (s *Store) ArrayIndices(name string) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.lookupLocked(name)
	if v == nil || v.Array == nil {
		return nil
	}
	idxs := make([]int, 0, len(v.Array))
	for i := range v.Array {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	return idxs
}

// ArrayValues returns an indexed array's values in index order.
func (s *Store) ArrayValues(name string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.lookupLocked(name)
	if v == nil || v.Array == nil {
		return nil
	}
	idxs := make([]int, 0, len(v.Array))
	for i := range v.Array {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	out := make([]string, len(idxs))
	for i, idx := range idxs {
		out[i] = v.Array[idx]
	}
	return out
}

// NextArrayIndex returns the index `arr+=(...)`/`arr[+ ]=` appends at:
// one past the current highest populated index, or 0 for an empty or
// nonexistent array.
func (s *Store) NextArrayIndex(name string) int {
	idxs := s.ArrayIndices(name)
	if len(idxs) == 0 {
		return 0
	}
	return idxs[len(idxs)-1] + 1
}

// SetAssocElem assigns one element of an associative array, promoting
// the variable to AttrAssoc. `declare -A name` must have run first in
// bash; den is lenient and auto-promotes on first assignment.
func (s *Store) SetAssocElem(name, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.lookupLocked(name)
	if v == nil {
		v = &Var{}
		s.vars[name] = v
	}
	if v.Attrs&AttrReadOnly != 0 {
		return errReadonly(name)
	}
	if v.Assoc == nil {
		v.Assoc = make(map[string]string)
	}
	v.Attrs |= AttrAssoc
	v.Assoc[key] = value
	return nil
}

// GetAssocElem reads one associative-array element.
func (s *Store) GetAssocElem(name, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.lookupLocked(name)
	if v == nil || v.Assoc == nil {
		return "", false
	}
	val, ok := v.Assoc[key]
	return val, ok
}

// AssocKeys returns an associative array's keys sorted for
// deterministic iteration (bash itself does not guarantee any
// particular order; den picks a stable one).
func (s *Store) AssocKeys(name string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := s.lookupLocked(name)
	if v == nil || v.Assoc == nil {
		return nil
	}
	keys := make([]string, 0, len(v.Assoc))
	for k := range v.Assoc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func errReadonly(name string) error {
	return &ReadonlyError{Name: name}
}

// ReadonlyError is returned whenever an assignment targets a readonly
// variable.
type ReadonlyError struct{ Name string }

func (e *ReadonlyError) Error() string { return e.Name + ": readonly variable" }
