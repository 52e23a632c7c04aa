package graph

import (
	"sync"
)

// State is the single accumulating record threaded through a run. Fields,
// once written, are never deleted; a later stage may only overwrite them.
// Keys declared as append keys accumulate string slices instead (used for
// collected artifact paths); the append is a set union so re-applying the
// same partial is idempotent.
//
// State is safe for concurrent use. Parallel branches rely on field
// namespacing, not locking, to avoid write contention: the mutex here only
// guarantees memory safety of the map itself.
type State struct {
	mu         sync.RWMutex
	fields     map[string]any
	appendKeys map[string]bool
}

// NewState creates a State seeded with the given fields. The seed map is
// copied; the caller retains ownership of its map.
func NewState(seed map[string]any) *State {
	fields := make(map[string]any, len(seed))
	for key, value := range seed {
		fields[key] = value
	}
	return &State{
		fields:     fields,
		appendKeys: make(map[string]bool),
	}
}

// markAppendKeys declares the keys that accumulate string slices on merge.
// Called once by the executor before the run starts.
func (s *State) markAppendKeys(keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		s.appendKeys[key] = true
	}
}

// Apply merges a partial update into the state. Ordinary keys are
// overwritten (last writer wins); append keys union new entries onto the
// existing slice, preserving order and skipping entries already present.
func (s *State) Apply(partial Partial) {
	if len(partial) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range partial {
		if s.appendKeys[key] {
			s.fields[key] = appendUnique(toStrings(s.fields[key]), toStrings(value))
			continue
		}
		s.fields[key] = value
	}
}

// Get retrieves a field value. The second return reports presence.
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.fields[key]
	return value, ok
}

// Has reports whether the field has been written.
func (s *State) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// GetString returns the field as a string, or "" if absent or not a string.
func (s *State) GetString(key string) string {
	value, ok := s.Get(key)
	if !ok {
		return ""
	}
	str, _ := value.(string)
	return str
}

// GetInt returns the field as an int, accepting int, int64, and float64
// representations. Absent or non-numeric fields return 0.
func (s *State) GetInt(key string) int {
	value, ok := s.Get(key)
	if !ok {
		return 0
	}
	switch n := value.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// GetBool returns the field as a bool, or false if absent or not a bool.
func (s *State) GetBool(key string) bool {
	value, ok := s.Get(key)
	if !ok {
		return false
	}
	b, _ := value.(bool)
	return b
}

// GetStrings returns the field as a string slice. A scalar string is
// returned as a one-element slice; absent fields return nil.
func (s *State) GetStrings(key string) []string {
	value, ok := s.Get(key)
	if !ok {
		return nil
	}
	return toStrings(value)
}

// Snapshot returns a copy of the full field map. The copy is safe to read
// and modify without affecting the state.
func (s *State) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[string]any, len(s.fields))
	for key, value := range s.fields {
		snapshot[key] = value
	}
	return snapshot
}

// Len returns the number of fields written so far.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fields)
}

// toStrings coerces an arbitrary value into a string slice. Supported
// shapes: nil, string, []string, []any of strings.
func toStrings(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// appendUnique unions extra onto base, preserving order and dropping
// entries already present.
func appendUnique(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	out := make([]string, 0, len(base)+len(extra))
	for _, item := range base {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	for _, item := range extra {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}
