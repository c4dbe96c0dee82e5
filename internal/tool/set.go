package tool

import (
	"fmt"
	"strings"
)

// Set is an ordered collection of enabled tools without duplicates.
type Set struct {
	tools []Tool
}

// NewSet builds a Set from tools, dropping duplicates and keeping the first
// occurrence order.
func NewSet(tools ...Tool) Set {
	var s Set
	for _, t := range tools {
		s.Add(t)
	}
	return s
}

// ParseSet parses tool names into a Set. Empty names are skipped.
func ParseSet(names []string) (Set, error) {
	var s Set
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		t, err := Parse(name)
		if err != nil {
			return Set{}, err
		}
		s.Add(t)
	}
	return s, nil
}

// ParseList parses a comma separated list of tool names.
func ParseList(list string) (Set, error) {
	return ParseSet(strings.Split(list, ","))
}

// Add inserts t unless it is already present.
func (s *Set) Add(t Tool) {
	if s.Contains(t) {
		return
	}
	s.tools = append(s.tools, t)
}

// Contains reports whether t is in the set.
func (s Set) Contains(t Tool) bool {
	for _, have := range s.tools {
		if have == t {
			return true
		}
	}
	return false
}

// Len returns the number of tools in the set.
func (s Set) Len() int {
	return len(s.tools)
}

// Tools returns a copy of the tools in insertion order.
func (s Set) Tools() []Tool {
	return append([]Tool(nil), s.tools...)
}

// Intersect returns the tools of s that are also in other, in s's order.
func (s Set) Intersect(other Set) Set {
	var out Set
	for _, t := range s.tools {
		if other.Contains(t) {
			out.Add(t)
		}
	}
	return out
}

// Lookup returns the tool selected by a CLI keyword.
func (s Set) Lookup(cmd string) (Tool, bool) {
	for _, t := range s.tools {
		if t.Matches(cmd) {
			return t, true
		}
	}
	return "", false
}

// Describe returns the keyword descriptions of all tools, comma separated.
func (s Set) Describe() string {
	descs := make([]string, 0, len(s.tools))
	for _, t := range s.tools {
		descs = append(descs, t.Description())
	}
	return strings.Join(descs, ", ")
}

// String implements fmt.Stringer.
func (s Set) String() string {
	return fmt.Sprint(s.tools)
}
