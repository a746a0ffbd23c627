package model

// RecursiveState is the set of (symbol, instantiation) pairs under analysis
// on the current call path. It is persistent: With returns a new state that
// shares its parent, so sibling call paths never see each other's entries.
// The nil state is empty.
type RecursiveState struct {
	parent    *RecursiveState
	id        SymbolID
	signature string
	depth     int
}

// Contains reports whether the pair is on the current path
func (s *RecursiveState) Contains(id SymbolID, signature string) bool {
	for n := s; n != nil; n = n.parent {
		if n.id == id && n.signature == signature {
			return true
		}
	}
	return false
}

// With returns the state extended by one pair
func (s *RecursiveState) With(id SymbolID, signature string) *RecursiveState {
	return &RecursiveState{parent: s, id: id, signature: signature, depth: s.Len() + 1}
}

// Len returns the path length
func (s *RecursiveState) Len() int {
	if s == nil {
		return 0
	}
	return s.depth
}
