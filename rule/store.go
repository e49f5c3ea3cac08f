package rule

import "member-mapper/accessor"

// Store holds at most one Rule per destination path for a type pair.
// Rules keep the position of their first install; replacing a rule keeps
// that position. Store is not safe for concurrent use.
type Store struct {
	order []string
	rules map[string]Rule
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{rules: make(map[string]Rule)}
}

// Get returns the rule for path.
func (s *Store) Get(path accessor.Path) (Rule, bool) {
	r, ok := s.rules[path.Key()]
	return r, ok
}

// Set installs r for r.Dest, fully replacing any previous rule.
// It returns the previous rule and whether there was one.
func (s *Store) Set(r Rule) (Rule, bool) {
	key := r.Key()

	prev, ok := s.rules[key]
	if !ok {
		s.order = append(s.order, key)
	}

	s.rules[key] = r

	return prev, ok
}

// Remove deletes the rule for path and reports whether one existed.
func (s *Store) Remove(path accessor.Path) bool {
	key := path.Key()
	if _, ok := s.rules[key]; !ok {
		return false
	}

	delete(s.rules, key)

	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	return true
}

// Len returns the number of rules.
func (s *Store) Len() int {
	return len(s.order)
}

// Rules returns the rules in install order.
func (s *Store) Rules() []Rule {
	out := make([]Rule, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.rules[k])
	}

	return out
}
