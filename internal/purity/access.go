package purity

import (
	"github.com/standardbeagle/purity/internal/model"
	"github.com/standardbeagle/purity/internal/types"
)

// receiverMode classifies whose state an expression used as a receiver
// refers to.
func (w *walker) receiverMode(x model.Expr) types.ReceiverMode {
	switch x := x.(type) {
	case nil:
		return types.ReceiverStatic
	case *model.TypeExpr:
		return types.ReceiverStatic
	case *model.This:
		return w.unit.Receiver
	case *model.Ident:
		sym := x.Symbol
		if sym == nil {
			return types.ReceiverForeign
		}
		if w.fresh[sym] {
			return types.ReceiverFresh
		}
		// a struct held by value is a private copy
		if sym.Type.IsValueType() && sym.RefKind != model.RefRef &&
			(sym.Kind == types.SymbolKindLocal || sym.Kind == types.SymbolKindParameter) {
			return types.ReceiverFresh
		}
	case *model.ObjectCreation, *model.ArrayCreation:
		return types.ReceiverFresh
	case *model.Cast:
		return w.receiverMode(x.Operand)
	case *model.MemberAccess:
		if x.StaticAccess || (x.Member != nil && x.Member.Static) {
			return types.ReceiverStatic
		}
		// fields of a struct live inside the struct's own storage
		if x.Type.IsValueType() && x.Receiver != nil {
			return w.receiverMode(x.Receiver)
		}
	case *model.Invocation:
		if w.returnsFresh(x) {
			return types.ReceiverFresh
		}
		if x.Receiver != nil && !x.Extension && x.Type != nil &&
			model.SameType(x.Type, x.Receiver.StaticType()) &&
			w.receiverMode(x.Receiver) == types.ReceiverFresh {
			return types.ReceiverFresh
		}
	case *model.Conditional:
		if w.receiverMode(x.Then) == types.ReceiverFresh && w.receiverMode(x.Else) == types.ReceiverFresh {
			return types.ReceiverFresh
		}
	}
	return types.ReceiverForeign
}

// returnsFresh reports whether a call is known to return a new object
func (w *walker) returnsFresh(inv *model.Invocation) bool {
	known := w.e.known
	if m := inv.Method; m != nil {
		return m.Annotated(types.AnnotationReturnsNewObject) || known.ReturnsNewObject(m.QualifiedCandidates()...)
	}
	return known.ReturnsNewObject(known.CallCandidates(inv.Candidates, inv.Namespaces, inv.Name, inv.Receiver != nil)...)
}

// freshLocals finds the locals every assignment of which allocates. The
// set starts from every local with an allocating assignment and shrinks
// until stable, so locals assigned from each other stay fresh together.
func (w *walker) freshLocals(body model.Node) map[*model.Symbol]bool {
	if body == nil {
		return nil
	}
	assigned := make(map[*model.Symbol][]model.Expr)
	spoiled := make(map[*model.Symbol]bool)
	target := func(x model.Expr) *model.Symbol {
		if id, ok := x.(*model.Ident); ok && id.Symbol != nil && id.Symbol.Kind == types.SymbolKindLocal {
			return id.Symbol
		}
		return nil
	}
	model.Inspect(body, true, func(n model.Node) bool {
		switch n := n.(type) {
		case *model.LocalDecl:
			if n.Local != nil && n.Init != nil {
				assigned[n.Local] = append(assigned[n.Local], n.Init)
			}
		case *model.Assign:
			if sym := target(n.Target); sym != nil {
				if n.Op != "=" {
					spoiled[sym] = true
				} else {
					assigned[sym] = append(assigned[sym], n.Value)
				}
			}
		case *model.IncDec:
			if sym := target(n.Target); sym != nil {
				spoiled[sym] = true
			}
		case *model.Invocation:
			spoilRefArgs(n.Args, target, spoiled)
		case *model.ObjectCreation:
			spoilRefArgs(n.Args, target, spoiled)
		case *model.DelegateInvoke:
			spoilRefArgs(n.Args, target, spoiled)
		}
		return true
	})

	fresh := make(map[*model.Symbol]bool)
	for sym, values := range assigned {
		if len(values) > 0 && !spoiled[sym] {
			fresh[sym] = true
		}
	}
	w.fresh = fresh
	for changed := true; changed; {
		changed = false
		for sym := range fresh {
			for _, v := range assigned[sym] {
				if !w.allocates(v) {
					delete(fresh, sym)
					changed = true
					break
				}
			}
		}
	}
	return fresh
}

func spoilRefArgs(args []model.Argument, target func(model.Expr) *model.Symbol, spoiled map[*model.Symbol]bool) {
	for _, a := range args {
		if a.RefKind == model.RefRef || a.RefKind == model.RefOut {
			if sym := target(a.Value); sym != nil {
				spoiled[sym] = true
			}
		}
	}
}

// allocates reports whether an expression's value is an object created by
// the code under analysis, given the current fresh set.
func (w *walker) allocates(x model.Expr) bool {
	switch x := x.(type) {
	case *model.ObjectCreation, *model.ArrayCreation:
		return true
	case *model.Ident:
		return x.Symbol != nil && w.fresh[x.Symbol]
	case *model.Invocation:
		return w.returnsFresh(x)
	case *model.Cast:
		return w.allocates(x.Operand)
	case *model.Conditional:
		return w.allocates(x.Then) && w.allocates(x.Else)
	}
	return false
}

func (w *walker) assign(a *model.Assign) {
	w.write(a.Target, a.Location)
	if a.Operator != nil {
		w.report(a.Location, w.judgeOperator(a.Operator))
	}
	w.expr(a.Value)
}

// write classifies storing into target. Findings are reported at site,
// the assignment as a whole.
func (w *walker) write(target model.Expr, site types.Location) {
	if w.stopped {
		return
	}
	switch t := target.(type) {
	case *model.Ident:
		w.writeVariable(t, site)
	case *model.MemberAccess:
		w.expr(t.Receiver)
		w.writeMember(t, site)
	case *model.ElementAccess:
		w.expr(t.Receiver)
		w.args(t.Args)
		w.writeElement(t, site)
	case *model.This:
		w.writeState(site, w.unit.Receiver, "this")
	case *model.Opaque:
		// deconstruction: (a, this.b) = ...
		for _, c := range t.Children {
			if e, ok := c.(model.Expr); ok {
				w.write(e, site)
			} else {
				w.node(c)
			}
		}
	case *model.Cast:
		w.write(t.Operand, site)
	default:
		w.expr(target)
	}
}

func (w *walker) writeVariable(id *model.Ident, site types.Location) {
	sym := id.Symbol
	if sym == nil {
		return
	}
	switch sym.Kind {
	case types.SymbolKindLocal, types.SymbolKindParameter:
		if !w.ownsLocal(sym) {
			w.emit(site, types.ImpurityCapturedWrite, "writes captured variable %s", sym.Name)
			return
		}
		if sym.Kind == types.SymbolKindParameter && sym.RefKind == model.RefRef {
			w.emit(site, types.ImpurityRefWrite, "writes ref parameter %s", sym.Name)
		}
	case types.SymbolKindField, types.SymbolKindProperty:
		w.writeMember(&model.MemberAccess{Span: id.Span, Member: sym, Name: sym.Name, Type: sym.Type}, site)
	}
}

func (w *walker) writeMember(t *model.MemberAccess, site types.Location) {
	m := t.Member
	if m != nil && (m.Kind == types.SymbolKindProperty || m.Kind == types.SymbolKindIndexer) &&
		!m.AutoProperty && !m.Compiled {
		w.accessorCall(site, m, m.Setter, t.Receiver)
		return
	}
	name := t.Name
	if m != nil {
		name = m.Display()
	}
	if t.StaticAccess || (m != nil && m.Static) {
		if !w.initializesStatic(m) {
			w.emit(site, types.ImpurityStaticWrite, "writes static member %s", name)
		}
		return
	}
	w.writeState(site, w.receiverMode(t.Receiver), name)
}

func (w *walker) writeElement(t *model.ElementAccess, site types.Location) {
	if ix := t.Indexer; ix != nil && !ix.Compiled && !ix.AutoProperty {
		w.accessorCall(site, ix, ix.Setter, t.Receiver)
		return
	}
	w.writeState(site, w.receiverMode(t.Receiver), "an element")
}

// initializesStatic reports whether a static constructor is assigning a
// static member of its own type.
func (w *walker) initializesStatic(m *model.Symbol) bool {
	ctor := w.unit.Symbol
	return m != nil && ctor != nil && ctor.Kind == types.SymbolKindConstructor && ctor.Static &&
		m.DeclaringType() == ctor.DeclaringType()
}

func (w *walker) writeState(site types.Location, mode types.ReceiverMode, name string) {
	switch mode {
	case types.ReceiverFresh:
	case types.ReceiverOwn:
		if !w.unit.Strictness.AllowsReceiverWrite() {
			w.emit(site, types.ImpurityReceiverWrite, "writes %s of this instance", name)
		}
	case types.ReceiverStatic:
		w.emit(site, types.ImpurityStaticWrite, "writes static member %s", name)
	default:
		w.emit(site, types.ImpurityForeignWrite, "writes %s of an object it does not own", name)
	}
}

func (w *walker) readMember(t *model.MemberAccess) {
	m := t.Member
	if m == nil {
		w.readUnresolved(t)
		return
	}
	switch m.Kind {
	case types.SymbolKindField:
		if m.IsMutableState() {
			w.readState(t, m)
		}
	case types.SymbolKindProperty, types.SymbolKindIndexer:
		switch {
		case m.Compiled:
			if m.Static || t.StaticAccess {
				if !w.e.known.IsPureMethod(m.QualifiedCandidates()...) && !m.Annotated(types.AnnotationPure) {
					w.emit(t.Location, types.ImpurityStaticRead, "reads static member %s which is not known to be pure", m.Display())
				}
				return
			}
			w.readShared(t.Location, t.Receiver, m.Display())
		case m.AutoProperty:
			if m.IsMutableState() {
				w.readState(t, m)
			}
		case m.Getter != nil:
			w.accessorCall(t.Location, m, m.Getter, t.Receiver)
		}
	}
}

func (w *walker) readState(t *model.MemberAccess, m *model.Symbol) {
	if m.Static || t.StaticAccess {
		w.emit(t.Location, types.ImpurityStaticRead, "reads mutable static member %s", m.Display())
		return
	}
	switch w.receiverMode(t.Receiver) {
	case types.ReceiverStatic:
		w.emit(t.Location, types.ImpurityStaticRead, "reads mutable member %s of an object held in static state", m.Display())
	case types.ReceiverOwn:
		if !w.unit.Strictness.AllowsReceiverRead() {
			w.emit(t.Location, types.ImpurityReceiverRead, "reads mutable member %s of this instance", m.Display())
		}
	}
}

// readUnresolved handles members of compiled types. Instance state of
// other objects may be read freely; static members must be known.
func (w *walker) readUnresolved(t *model.MemberAccess) {
	switch {
	case t.StaticAccess || t.Receiver == nil:
		if !w.e.known.IsPureMethod(t.Candidates...) {
			w.emit(t.Location, types.ImpurityStaticRead, "reads static member %s which is not known to be pure", displayName(t.Name, t.Candidates))
		}
	case isThis(t.Receiver):
		// inherited from a compiled base class
		if w.unit.Receiver == types.ReceiverOwn && !w.unit.Strictness.AllowsReceiverRead() {
			w.emit(t.Location, types.ImpurityReceiverRead, "reads inherited member %s of this instance", t.Name)
		}
	default:
		w.readShared(t.Location, t.Receiver, t.Name)
	}
}

func (w *walker) readElement(t *model.ElementAccess) {
	ix := t.Indexer
	switch {
	case ix == nil || ix.Compiled:
		w.readShared(t.Location, t.Receiver, "an element")
	case ix.AutoProperty || ix.Getter == nil:
	default:
		w.accessorCall(t.Location, ix, ix.Getter, t.Receiver)
	}
}

// readShared reports reading a compiled object reached through static
// storage. Values and objects of known pure types cannot change under the
// reader.
func (w *walker) readShared(site types.Location, receiver model.Expr, name string) {
	if receiver == nil || isTypeExpr(receiver) || w.receiverMode(receiver) != types.ReceiverStatic {
		return
	}
	t := w.unit.Subst.Apply(receiver.StaticType())
	if t == nil || t.IsValueType() || w.e.known.IsPureType(t.QualifiedNames()...) {
		return
	}
	w.emit(site, types.ImpurityStaticRead, "reads %s of an object held in static state", name)
}

// accessorCall classifies running a property or indexer accessor as a call.
func (w *walker) accessorCall(site types.Location, member, accessor *model.Symbol, receiver model.Expr) {
	if accessor == nil {
		return
	}
	mode := w.receiverMode(receiver)
	if member.Static {
		mode = types.ReceiverStatic
	}
	var recvType *model.TypeRef
	if receiver != nil {
		recvType = receiver.StaticType()
	}
	w.report(site, w.judgeMember(accessor, mode, w.receiverSubst(recvType, accessor)))
}

func isThis(x model.Expr) bool {
	_, ok := x.(*model.This)
	return ok
}

func displayName(name string, candidates []string) string {
	if len(candidates) > 0 {
		return candidates[0]
	}
	return name
}
