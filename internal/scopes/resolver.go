package scopes

import "sort"

// Selection maps service names to whether the user enabled them. Missing
// entries count as disabled.
type Selection map[string]bool

// IsEnabled reports whether the named service is enabled.
func (s Selection) IsEnabled(name string) bool {
	return s[name]
}

// Enabled returns the names of enabled services in sorted order.
func (s Selection) Enabled() []string {
	names := make([]string, 0, len(s))
	for name, on := range s {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Equal reports whether both selections enable exactly the same services.
// Entries that are present but disabled are equivalent to absent entries.
func (s Selection) Equal(other Selection) bool {
	for name, on := range s {
		if on && !other[name] {
			return false
		}
	}
	for name, on := range other {
		if on && !s[name] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the selection.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for name, on := range s {
		out[name] = on
	}
	return out
}

// ScopeSet is a deduplicated set of OAuth scope strings. Two sets are equal
// when they contain the same scopes, regardless of order.
type ScopeSet map[string]struct{}

// NewScopeSet builds a ScopeSet from the given scope strings.
func NewScopeSet(scopes ...string) ScopeSet {
	set := make(ScopeSet, len(scopes))
	for _, s := range scopes {
		set[s] = struct{}{}
	}
	return set
}

// Contains reports whether the set includes the given scope.
func (s ScopeSet) Contains(scope string) bool {
	_, ok := s[scope]
	return ok
}

// Equal reports set equality.
func (s ScopeSet) Equal(other ScopeSet) bool {
	if len(s) != len(other) {
		return false
	}
	for scope := range s {
		if _, ok := other[scope]; !ok {
			return false
		}
	}
	return true
}

// Subset reports whether every scope in s is also in other.
func (s ScopeSet) Subset(other ScopeSet) bool {
	for scope := range s {
		if _, ok := other[scope]; !ok {
			return false
		}
	}
	return true
}

// Sorted returns the scopes as a sorted slice, suitable for OAuth requests
// and stable logging.
func (s ScopeSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for scope := range s {
		out = append(out, scope)
	}
	sort.Strings(out)
	return out
}

// Resolve computes the scope set for a selection: the union of the scopes
// required by every enabled service after closing over dependencies.
//
// The closure loop is bounded by the number of catalog services, so it
// terminates even if the dependency table were cyclic; cycles themselves are
// rejected by NewCatalog before a resolver ever sees them.
func (c *Catalog) Resolve(sel Selection) (ScopeSet, error) {
	for name := range sel {
		if !c.Has(name) {
			return nil, &UnknownServiceError{Service: name}
		}
	}

	closed := make(map[string]bool, len(sel))
	for name, on := range sel {
		if on {
			closed[name] = true
		}
	}

	// Fixed point: keep adding dependencies of enabled services until a
	// full pass adds nothing. At most |services| passes.
	for range c.services {
		grew := false
		for name := range closed {
			for _, dep := range c.services[name].Requires {
				if !closed[dep] {
					closed[dep] = true
					grew = true
				}
			}
		}
		if !grew {
			break
		}
	}

	set := make(ScopeSet)
	for name := range closed {
		for _, scope := range c.services[name].Scopes {
			set[scope] = struct{}{}
		}
	}
	return set, nil
}

// ResolveSelection returns the dependency-closed selection itself rather
// than its scopes: every enabled service plus everything it transitively
// requires. Resolving a closed selection yields the same selection.
func (c *Catalog) ResolveSelection(sel Selection) (Selection, error) {
	for name := range sel {
		if !c.Has(name) {
			return nil, &UnknownServiceError{Service: name}
		}
	}

	closed := make(Selection, len(sel))
	for name, on := range sel {
		if on {
			closed[name] = true
		}
	}
	for range c.services {
		grew := false
		for name := range closed {
			for _, dep := range c.services[name].Requires {
				if !closed[dep] {
					closed[dep] = true
					grew = true
				}
			}
		}
		if !grew {
			break
		}
	}
	return closed, nil
}
