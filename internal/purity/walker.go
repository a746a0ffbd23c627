package purity

import (
	"github.com/standardbeagle/purity/internal/model"
	"github.com/standardbeagle/purity/internal/types"
)

// walker classifies one unit. Findings are pushed to yield in traversal
// order until the consumer stops.
type walker struct {
	e       *Engine
	unit    Unit
	state   *model.RecursiveState
	yield   func(types.Impurity) bool
	stopped bool

	// touched collects every call key checked against the recursion path,
	// including those of nested sub-analyses.
	touched map[callKey]struct{}

	// localOwner is the callable whose locals are written freely. It moves
	// to each lambda while the lambda body is walked.
	localOwner *model.Symbol

	// fresh holds the locals that only ever refer to objects allocated here
	fresh map[*model.Symbol]bool
}

func (e *Engine) newWalker(u Unit, state *model.RecursiveState, yield func(types.Impurity) bool) *walker {
	owner := u.LocalOwner
	if owner == nil {
		owner = u.Symbol
	}
	w := &walker{
		e:          e,
		unit:       u,
		state:      state,
		yield:      yield,
		touched:    make(map[callKey]struct{}),
		localOwner: owner,
	}
	w.fresh = w.freshLocals(u.Body)
	return w
}

func (w *walker) run() {
	w.node(w.unit.Body)
	if w.unit.Symbol != nil && w.unit.Symbol.Kind == types.SymbolKindConstructor {
		w.constructorEffects()
	}
}

func (w *walker) emit(loc types.Location, kind types.ImpurityKind, format string, args ...interface{}) {
	if w.stopped {
		return
	}
	if !w.yield(types.NewImpurity(loc, kind, format, args...)) {
		w.stopped = true
	}
}

func (w *walker) report(loc types.Location, v verdict) {
	if v.impure() {
		w.emit(loc, v.kind, "%s", v.reason)
	}
}

func (w *walker) touch(k callKey) {
	w.touched[k] = struct{}{}
}

func (w *walker) touchAll(keys map[callKey]struct{}) {
	for k := range keys {
		w.touched[k] = struct{}{}
	}
}

// node walks a statement, or an expression evaluated for its value.
func (w *walker) node(n model.Node) {
	if w.stopped || n == nil {
		return
	}
	switch n := n.(type) {
	case *model.Block:
		if n == nil {
			return
		}
		for _, s := range n.Stmts {
			w.node(s)
		}
	case *model.Return:
		w.expr(n.Value)
	case *model.ExprStmt:
		w.expr(n.X)
	case *model.LocalDecl:
		w.expr(n.Init)
	case model.Expr:
		w.expr(n)
	}
}

func (w *walker) expr(x model.Expr) {
	if w.stopped || x == nil {
		return
	}
	switch x := x.(type) {
	case *model.Literal, *model.Default, *model.TypeExpr, *model.This, *model.Ident:
		// reading a local, a parameter or a constant has no effect
	case *model.MemberAccess:
		w.expr(x.Receiver)
		w.readMember(x)
	case *model.ElementAccess:
		w.expr(x.Receiver)
		w.args(x.Args)
		w.readElement(x)
	case *model.Assign:
		w.assign(x)
	case *model.IncDec:
		w.write(x.Target, x.Location)
		if x.Operator != nil {
			w.report(x.Location, w.judgeOperator(x.Operator))
		}
	case *model.Invocation:
		w.invocation(x)
	case *model.DelegateInvoke:
		w.delegateInvoke(x)
	case *model.ObjectCreation:
		w.creation(x)
	case *model.ArrayCreation:
		for _, s := range x.Sizes {
			w.expr(s)
		}
		for _, e := range x.Elements {
			w.expr(e)
		}
		for _, e := range x.Spreads {
			w.expr(e)
		}
	case *model.Lambda:
		w.lambda(x)
	case *model.MethodGroup:
		w.methodGroup(x)
	case *model.Binary:
		w.binary(x)
	case *model.Unary:
		w.expr(x.Operand)
		if x.Operator != nil {
			w.report(x.Location, w.judgeOperator(x.Operator))
		}
	case *model.Conditional:
		w.expr(x.Cond)
		w.expr(x.Then)
		w.expr(x.Else)
	case *model.SwitchExpr:
		w.expr(x.Subject)
		for _, arm := range x.Arms {
			w.expr(arm.Guard)
			w.expr(arm.Value)
		}
	case *model.Cast:
		w.expr(x.Operand)
	case *model.Interpolation:
		for _, p := range x.Parts {
			w.expr(p)
			w.stringified(p)
		}
	case *model.Effect:
		w.emit(x.Location, types.ImpurityUnsafe, "%s is not allowed in pure code", x.What)
		for _, c := range x.Children {
			w.node(c)
		}
	case *model.Opaque:
		for _, c := range x.Children {
			w.node(c)
		}
	}
}

func (w *walker) args(args []model.Argument) {
	for _, a := range args {
		if a.RefKind == model.RefOut || a.RefKind == model.RefRef {
			w.write(a.Value, a.Value.Loc())
			continue
		}
		w.expr(a.Value)
	}
}

// lambda walks the body inline. Locals of the enclosing callable become
// captured variables while inside.
func (w *walker) lambda(l *model.Lambda) {
	if l.Symbol == nil {
		return
	}
	saved := w.localOwner
	w.localOwner = l.Symbol
	w.node(l.Symbol.Body)
	w.localOwner = saved
}

// ownsLocal reports whether a local or parameter belongs to the callable
// being walked or to a lambda nested in it.
func (w *walker) ownsLocal(sym *model.Symbol) bool {
	if sym.Owner == nil || w.localOwner == nil {
		return true
	}
	for c := sym.Owner; c != nil; c = c.Container {
		if c == w.localOwner {
			return true
		}
	}
	return false
}
