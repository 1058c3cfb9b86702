package httpx

import (
	"fmt"
	"strings"
)

// Storage is an insertion-ordered bag of out-of-band values attached to a
// message. It never reaches the wire.
type Storage struct {
	keys   []string
	values map[string]interface{}
}

func NewStorage() *Storage {
	return &Storage{
		values: make(map[string]interface{}),
	}
}

// Set stores value under key. Re-setting a key keeps its position.
func (s *Storage) Set(key string, value interface{}) {
	if s.values == nil {
		s.values = make(map[string]interface{})
	}
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

func (s *Storage) Get(key string) (interface{}, bool) {
	if s == nil {
		return nil, false
	}

	v, ok := s.values[key]
	return v, ok
}

func (s *Storage) Del(key string) {
	if s == nil {
		return
	}
	if _, ok := s.values[key]; !ok {
		return
	}

	delete(s.values, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
}

func (s *Storage) Len() int {
	if s == nil {
		return 0
	}

	return len(s.keys)
}

func (s *Storage) Keys() []string {
	if s == nil {
		return nil
	}

	return append([]string(nil), s.keys...)
}

func (s *Storage) Each(fn func(key string, value interface{})) {
	if s == nil {
		return
	}

	for _, k := range s.keys {
		fn(k, s.values[k])
	}
}

// Description renders the bag for diagnostics:
//
//	Storage:
//	key: value
//	key: value
//
// with "-" in place of the entries when empty and no trailing newline.
func (s *Storage) Description() string {
	var b strings.Builder
	b.WriteString("Storage:\n")

	if s.Len() == 0 {
		b.WriteString("-")
		return b.String()
	}

	for i, k := range s.keys {
		fmt.Fprintf(&b, "%s: %v", k, s.values[k])
		if i < len(s.keys)-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (s *Storage) String() string {
	return s.Description()
}
