// Package purity classifies the effects of code units.
//
// Design principle: if a unit is reported pure, it is pure, with two
// deliberate exceptions: members trusted through AssumeIsPure, and call
// cycles, which close to pure when a call re-enters a member already under
// analysis on the current path.
package purity

import (
	"iter"
	"sync"

	"github.com/standardbeagle/purity/internal/knownsymbols"
	"github.com/standardbeagle/purity/internal/model"
	"github.com/standardbeagle/purity/internal/types"
)

// Unit is one body to classify together with the context it runs in.
type Unit struct {
	// Symbol is the member owning the body: a method, accessor, constructor,
	// operator, local function or lambda, or the field or property whose
	// initializer is the body.
	Symbol *model.Symbol
	Body   model.Node

	Strictness types.Strictness

	// Receiver says whose state "this" denotes while the body runs.
	Receiver types.ReceiverMode

	// Subst binds the type parameters of the instantiation being analyzed.
	Subst model.Substitution

	// Combination selects the initializers checked with a constructor body.
	Combination types.InstanceStaticCombination

	// LocalOwner is the callable whose locals and parameters may be
	// written freely. Defaults to Symbol.
	LocalOwner *model.Symbol
}

// UnitFor builds the unit a member is checked as when it carries a purity
// attribute: instance members see their own receiver, static members none,
// and constructors a freshly allocated one.
func UnitFor(sym *model.Symbol, strictness types.Strictness) Unit {
	u := Unit{Symbol: sym, Body: sym.Body, Strictness: strictness, Receiver: types.ReceiverOwn}
	owner := sym
	if sym.Kind == types.SymbolKindAccessor && sym.Container != nil {
		owner = sym.Container
	}
	switch {
	case sym.Kind == types.SymbolKindConstructor && sym.Static:
		u.Receiver = types.ReceiverStatic
		u.Combination = types.CombinationStatic
	case sym.Kind == types.SymbolKindConstructor:
		u.Receiver = types.ReceiverFresh
		u.Combination = types.CombinationInstanceAndStatic
	case owner.Static || sym.Kind == types.SymbolKindOperator:
		u.Receiver = types.ReceiverStatic
	}
	return u
}

// InitializerUnit builds the unit for a field or property initializer.
func InitializerUnit(member *model.Symbol, strictness types.Strictness) Unit {
	u := Unit{Symbol: member, Body: member.Initializer, Strictness: strictness, Receiver: types.ReceiverFresh}
	if member.Static {
		u.Receiver = types.ReceiverStatic
	}
	return u
}

// Engine classifies units against one compilation's known symbols. It is
// safe for concurrent use; the registry is only read.
type Engine struct {
	known   *knownsymbols.Registry
	lambdas []PureLambda

	mu   sync.Mutex
	memo map[memoKey]memoEntry

	usageMu sync.Mutex
	usage   map[*model.Symbol]bool
}

// Option configures an Engine
type Option func(*Engine)

// WithPureLambdas registers higher-order methods whose lambda argument must be pure.
func WithPureLambdas(l ...PureLambda) Option {
	return func(e *Engine) {
		e.lambdas = append(e.lambdas, l...)
	}
}

// NewEngine creates an engine. A nil registry means no known symbols.
func NewEngine(known *knownsymbols.Registry, opts ...Option) *Engine {
	if known == nil {
		known = knownsymbols.Empty()
	}
	e := &Engine{
		known: known,
		memo:  make(map[memoKey]memoEntry),
		usage: make(map[*model.Symbol]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Known returns the registry the engine consults
func (e *Engine) Known() *knownsymbols.Registry {
	return e.known
}

// Classify yields the impurities of the unit. The sequence is produced
// lazily, in traversal order; consumers may stop early. state holds the
// members already under analysis on the current call path and may be nil.
func (e *Engine) Classify(u Unit, state *model.RecursiveState) iter.Seq[types.Impurity] {
	return func(yield func(types.Impurity) bool) {
		if u.Body == nil {
			return
		}
		if u.Symbol != nil {
			k := keyOf(u)
			state = state.With(k.id, k.signature)
		}
		e.newWalker(u, state, yield).run()
	}
}

// Collect drains a sequence, dropping duplicates and sorting by location.
func Collect(seq iter.Seq[types.Impurity]) []types.Impurity {
	seen := make(map[types.Impurity]bool)
	var out []types.Impurity
	for imp := range seq {
		if seen[imp] {
			continue
		}
		seen[imp] = true
		out = append(out, imp)
	}
	types.SortImpurities(out)
	return out
}

// IsPure reports whether the unit has no impurities.
func (e *Engine) IsPure(u Unit) bool {
	for range e.Classify(u, nil) {
		return false
	}
	return true
}

// callKey identifies a member instantiation on the recursion path.
type callKey struct {
	id        model.SymbolID
	signature string
}

func keyOf(u Unit) callKey {
	return callKey{id: u.Symbol.ID, signature: u.Subst.Signature()}
}

type memoKey struct {
	call        callKey
	strictness  types.Strictness
	receiver    types.ReceiverMode
	combination types.InstanceStaticCombination
}

// memoEntry records a sub-analysis result together with every call key the
// analysis checked against the recursion path. The result can be reused on
// any path that contains none of those keys.
type memoEntry struct {
	impure  bool
	touched map[callKey]struct{}
}

func (e *Engine) lookupMemo(k memoKey, state *model.RecursiveState) (memoEntry, bool) {
	e.mu.Lock()
	entry, ok := e.memo[k]
	e.mu.Unlock()
	if !ok {
		return memoEntry{}, false
	}
	for t := range entry.touched {
		if t != k.call && state.Contains(t.id, t.signature) {
			return memoEntry{}, false
		}
	}
	return entry, true
}

func (e *Engine) storeMemo(k memoKey, entry memoEntry) {
	e.mu.Lock()
	e.memo[k] = entry
	e.mu.Unlock()
}

// subImpure classifies a callee unit and reports whether it has any
// impurity. Re-entering a unit already on the path is a cycle-break and
// counts as pure. The parent walker inherits the call keys the callee
// depended on.
func (e *Engine) subImpure(parent *walker, u Unit) bool {
	if u.Body == nil {
		return false
	}
	k := keyOf(u)
	parent.touch(k)
	if parent.state.Contains(k.id, k.signature) {
		return false
	}

	mk := memoKey{call: k, strictness: u.Strictness, receiver: u.Receiver, combination: u.Combination}
	if entry, ok := e.lookupMemo(mk, parent.state); ok {
		parent.touchAll(entry.touched)
		return entry.impure
	}

	impure := false
	child := e.newWalker(u, parent.state.With(k.id, k.signature), func(types.Impurity) bool {
		impure = true
		return false
	})
	child.run()
	parent.touchAll(child.touched)

	clean := true
	for t := range child.touched {
		if t != k && parent.state.Contains(t.id, t.signature) {
			clean = false
			break
		}
	}
	if clean {
		e.storeMemo(mk, memoEntry{impure: impure, touched: child.touched})
	}
	return impure
}
