package purity

import (
	"fmt"
	"slices"

	"github.com/standardbeagle/purity/internal/generics"
	"github.com/standardbeagle/purity/internal/model"
	"github.com/standardbeagle/purity/internal/types"
)

// verdict is the outcome of judging a callee. The zero value is pure.
type verdict struct {
	kind   types.ImpurityKind
	reason string
}

func (v verdict) impure() bool {
	return v.kind != types.ImpurityNone
}

func impureVerdict(kind types.ImpurityKind, format string, args ...interface{}) verdict {
	return verdict{kind: kind, reason: fmt.Sprintf(format, args...)}
}

// objectMembers are the System.Object members dispatched on the runtime type
var objectMembers = map[string]int{
	"ToString":    0,
	"Equals":      1,
	"GetHashCode": 0,
}

func (w *walker) invocation(inv *model.Invocation) {
	w.expr(inv.Receiver)
	w.args(inv.Args)
	if w.stopped {
		return
	}
	w.upcasts(inv.Args)

	m := inv.Method
	switch {
	case m == nil:
		w.report(inv.Location, w.judgeExternal(inv))
	case m.Kind == types.SymbolKindConstructor:
		// this(...) or base(...)
		w.report(inv.Location, w.judgeConstruction(m.DeclaringType(), m, w.callSubst(inv, m)))
	default:
		m = w.dispatch(inv, m)
		w.report(inv.Location, w.judgeMember(m, w.callMode(inv, m), w.callSubst(inv, m)))
	}
}

func (w *walker) receiverType(inv *model.Invocation) *model.TypeRef {
	if inv.ReceiverType != nil {
		return inv.ReceiverType
	}
	if inv.Receiver != nil {
		return inv.Receiver.StaticType()
	}
	return nil
}

// dispatch re-targets a call made through a type parameter to the member
// of the type argument bound in the current instantiation.
func (w *walker) dispatch(inv *model.Invocation, m *model.Symbol) *model.Symbol {
	recv := w.receiverType(inv)
	if !recv.IsTypeParameter() || inv.Extension {
		return m
	}
	bound := w.unit.Subst.Resolve(recv)
	if bound.IsTypeParameter() {
		bound = classConstraint(bound.Symbol)
	}
	ts := bound.TypeSymbol()
	if ts == nil || ts.Compiled || ts.IsInterface() {
		return m
	}
	if decl := m.DeclaringType(); decl != nil && decl.IsInterface() {
		if impl := ts.Implementation(m); impl != nil {
			return impl
		}
		return m
	}
	if impl := ts.LookupMethod(m.Name, len(m.Parameters)); impl != nil {
		return impl
	}
	return m
}

// classConstraint returns the source class a type parameter is constrained
// to, or nil.
func classConstraint(tp *model.Symbol) *model.TypeRef {
	if tp == nil {
		return nil
	}
	for _, c := range tp.Constraints {
		if cs := c.TypeSymbol(); cs != nil && !cs.Compiled && !cs.IsInterface() {
			return c
		}
	}
	return nil
}

func (w *walker) callMode(inv *model.Invocation, m *model.Symbol) types.ReceiverMode {
	switch {
	case m.Kind == types.SymbolKindLocalFunction:
		return w.unit.Receiver
	case m.Static || inv.Extension:
		return types.ReceiverStatic
	}
	return w.receiverMode(inv.Receiver)
}

// callSubst builds the instantiation a call runs in: the receiver's type
// arguments and the call's own, on top of the bindings the callee shares
// with the current unit.
func (w *walker) callSubst(inv *model.Invocation, m *model.Symbol) model.Substitution {
	s := w.receiverSubst(w.receiverType(inv), m)
	for i, tp := range m.TypeParameters {
		if i < len(inv.TypeArgs) && inv.TypeArgs[i] != nil {
			s = s.Extend(tp, w.unit.Subst.Apply(inv.TypeArgs[i]))
		}
	}
	return s
}

// receiverSubst binds the type parameters of member's declaring type from
// the receiver's type arguments. Members inherited from a generic base keep
// only the bindings shared with the current unit.
func (w *walker) receiverSubst(recv *model.TypeRef, member *model.Symbol) model.Substitution {
	s := w.unit.Subst.Restrict(member)
	decl := member.DeclaringType()
	t := w.unit.Subst.Apply(recv)
	if decl == nil || t == nil || len(t.Args) == 0 || len(decl.TypeParameters) == 0 || t.TypeSymbol() != decl {
		return s
	}
	for i, tp := range decl.TypeParameters {
		if i < len(t.Args) && t.Args[i] != nil {
			s = s.Extend(tp, t.Args[i])
		}
	}
	return s
}

// judgeMember decides whether calling a declared member with the given
// receiver mode is allowed under the unit's strictness.
func (w *walker) judgeMember(m *model.Symbol, mode types.ReceiverMode, subst model.Substitution) verdict {
	switch {
	case m.Kind == types.SymbolKindLocalFunction || m.Kind == types.SymbolKindLambda:
		return w.judgeBody(m, mode, subst)
	case m.AssumedPure():
		return verdict{}
	case m.Kind == types.SymbolKindAccessor && m.Container != nil && m.Container.AutoProperty:
		return w.judgeAutoAccessor(m, mode)
	case m.HasBody() && boundAny(subst, m):
		return w.judgeBody(m, mode, subst)
	}

	if level, ok := declaredLevel(m); ok {
		return w.judgeKnown(m, level, mode, subst)
	}
	if level, ok := w.e.known.MethodStrictness(registryNames(m)...); ok {
		return w.judgeKnown(m, level, mode, subst)
	}
	if decl := m.DeclaringType(); decl != nil && decl.IsInterface() && !m.HasBody() {
		// checked where the implementation is passed as the interface
		return verdict{}
	}
	if m.HasBody() {
		return w.judgeBody(m, mode, subst)
	}
	return impureVerdict(types.ImpurityUnknownCall, "calls %s %s which has no body and is not known to be pure",
		m.Kind, m.Display())
}

func (w *walker) judgeKnown(m *model.Symbol, level types.Strictness, mode types.ReceiverMode, subst model.Substitution) verdict {
	if !w.allowed(level, mode) {
		return impureVerdict(types.ImpurityImpureCall, "calls %s which is only %s on a %s receiver",
			m.Display(), level, mode)
	}
	return w.judgeTypeArgs(m, subst)
}

// allowed reports whether a callee verified at level may be called on a
// receiver of the given mode from the current unit.
func (w *walker) allowed(level types.Strictness, mode types.ReceiverMode) bool {
	switch level {
	case types.PureExceptReadLocally:
		switch mode {
		case types.ReceiverStatic:
			return false
		case types.ReceiverOwn:
			return w.unit.Strictness.AllowsReceiverRead()
		}
		return true
	case types.PureExceptLocally:
		switch mode {
		case types.ReceiverFresh:
			return true
		case types.ReceiverOwn:
			return w.unit.Strictness.AllowsReceiverWrite()
		}
		return false
	}
	return true
}

func (w *walker) judgeBody(m *model.Symbol, mode types.ReceiverMode, subst model.Substitution) verdict {
	u := Unit{
		Symbol:     m,
		Body:       m.Body,
		Strictness: w.unit.Strictness,
		Receiver:   mode,
		Subst:      subst,
		LocalOwner: m,
	}
	if m.Kind == types.SymbolKindConstructor {
		u.Receiver = types.ReceiverFresh
		u.Combination = types.CombinationInstance
	}
	if w.e.subImpure(w, u) {
		return impureVerdict(types.ImpurityImpureCall, "calls impure %s %s", m.Kind, m.Display())
	}
	return verdict{}
}

// judgeAutoAccessor treats an auto-property accessor as the field access it is.
func (w *walker) judgeAutoAccessor(acc *model.Symbol, mode types.ReceiverMode) verdict {
	prop := acc.Container
	if acc == prop.Setter {
		switch mode {
		case types.ReceiverFresh:
			return verdict{}
		case types.ReceiverOwn:
			if w.unit.Strictness.AllowsReceiverWrite() {
				return verdict{}
			}
			return impureVerdict(types.ImpurityReceiverWrite, "writes %s of this instance", prop.Display())
		case types.ReceiverStatic:
			return impureVerdict(types.ImpurityStaticWrite, "writes static member %s", prop.Display())
		}
		return impureVerdict(types.ImpurityForeignWrite, "writes %s of an object it does not own", prop.Display())
	}
	if !prop.IsMutableState() {
		return verdict{}
	}
	switch {
	case prop.Static:
		return impureVerdict(types.ImpurityStaticRead, "reads mutable static member %s", prop.Display())
	case mode == types.ReceiverStatic:
		return impureVerdict(types.ImpurityStaticRead, "reads mutable member %s of an object held in static state", prop.Display())
	case mode == types.ReceiverOwn && !w.unit.Strictness.AllowsReceiverRead():
		return impureVerdict(types.ImpurityReceiverRead, "reads mutable member %s of this instance", prop.Display())
	}
	return verdict{}
}

// declaredLevel returns the strictness a member is annotated with, directly,
// through its property, or through its declaring type.
func declaredLevel(m *model.Symbol) (types.Strictness, bool) {
	for c := m; c != nil; c = c.Container {
		if level, ok := c.Annotations.DeclaredStrictness(); ok {
			return level, true
		}
		if c.Kind == types.SymbolKindType {
			break
		}
	}
	return types.Pure, false
}

// registryNames returns the names a member is listed under. Accessors are
// listed under their property.
func registryNames(m *model.Symbol) []string {
	if m.Kind == types.SymbolKindAccessor && m.Container != nil {
		return m.Container.QualifiedCandidates()
	}
	return m.QualifiedCandidates()
}

func boundAny(s model.Substitution, m *model.Symbol) bool {
	return len(s.TypeArguments(m)) > 0
}

// judgeTypeArgs checks a callee accepted without looking at its body: every
// concrete type argument it may use as an object must have pure object
// members.
func (w *walker) judgeTypeArgs(m *model.Symbol, subst model.Substitution) verdict {
	for _, b := range subst.TypeArguments(m) {
		if b.Argument.IsTypeParameter() || w.notUsedAsObject(m, b.Parameter) {
			continue
		}
		if v := w.objectMembersOf(b.Argument); v.impure() {
			return impureVerdict(types.ImpurityObjectMethod, "calls %s with type argument %s whose %s",
				m.Display(), b.Argument.Display(), v.reason)
		}
	}
	return verdict{}
}

func (w *walker) notUsedAsObject(m, tp *model.Symbol) bool {
	if tp.Annotations.Has(types.AnnotationNotUsedAsObject) || w.e.known.IsNotUsedAsObject(tp.QualifiedName) {
		return true
	}
	if attr, ok := m.Attribute(types.AnnotationDoesNotUseClassTypeParameterAsObject); ok &&
		slices.Contains(attr.Args, tp.Name) {
		return true
	}
	return w.e.typeParameterUnused(tp)
}

// typeParameterUnused reports whether no body in the type parameter's scope
// uses its values as objects. Results are shared across units.
func (e *Engine) typeParameterUnused(tp *model.Symbol) bool {
	scope := tp.Container
	if scope == nil || scope.Compiled {
		return false
	}
	e.usageMu.Lock()
	unused, ok := e.usage[tp]
	e.usageMu.Unlock()
	if ok {
		return unused
	}
	unused = len(generics.FindObjectUsages(scope, tp, e.known)) == 0
	e.usageMu.Lock()
	e.usage[tp] = unused
	e.usageMu.Unlock()
	return unused
}

// objectMembersOf checks the object members of a type argument. Compiled
// types are assumed to keep the System.Object behavior unless overridden in
// source.
func (w *walker) objectMembersOf(t *model.TypeRef) verdict {
	ts := t.TypeSymbol()
	if ts == nil || ts.Compiled || ts.AssumedPure() {
		return verdict{}
	}
	for _, name := range []string{"ToString", "Equals", "GetHashCode"} {
		impl := ts.LookupMethod(name, objectMembers[name])
		if impl == nil {
			continue
		}
		if v := w.judgeMember(impl, types.ReceiverForeign, w.receiverSubst(t, impl)); v.impure() {
			return impureVerdict(v.kind, "%s is impure", impl.Display())
		}
	}
	return verdict{}
}

// judgeObjectMember resolves an object member call through the receiver's
// static type. handled is false for compiled types, which the registry
// decides.
func (w *walker) judgeObjectMember(name string, recv *model.TypeRef, mode types.ReceiverMode) (v verdict, handled bool) {
	argc := objectMembers[name]
	t := w.unit.Subst.Resolve(w.unit.Subst.Apply(recv))
	switch {
	case t == nil, t.IsArray():
		return verdict{}, true
	case t.IsTypeParameter():
		for _, c := range t.Symbol.Constraints {
			cs := c.TypeSymbol()
			if cs == nil || cs.Compiled || cs.IsInterface() {
				continue
			}
			if impl := cs.LookupMethod(name, argc); impl != nil {
				return w.judgeMember(impl, mode, w.receiverSubst(c, impl)), true
			}
		}
		// checked where the type parameter is bound
		return verdict{}, true
	}
	ts := t.TypeSymbol()
	if ts == nil || ts.Compiled {
		return verdict{}, false
	}
	if impl := ts.LookupMethod(name, argc); impl != nil {
		return w.judgeMember(impl, mode, w.receiverSubst(t, impl)), true
	}
	return verdict{}, true
}

// judgeExternal decides a call the front end could not bind to a declaration.
func (w *walker) judgeExternal(inv *model.Invocation) verdict {
	known := w.e.known
	instance := inv.Receiver != nil && !isTypeExpr(inv.Receiver)
	if _, ok := objectMembers[inv.Name]; ok && instance {
		if v, handled := w.judgeObjectMember(inv.Name, w.receiverType(inv), w.receiverMode(inv.Receiver)); handled {
			return v
		}
	}

	names := known.CallCandidates(inv.Candidates, inv.Namespaces, inv.Name, instance)
	display := displayName(inv.Name, names)
	mode := w.receiverMode(inv.Receiver)
	level, ok := known.MethodStrictness(names...)
	if !ok {
		return impureVerdict(types.ImpurityUnknownCall, "calls %s which is not known to be pure", display)
	}
	if !w.allowed(level, mode) {
		return impureVerdict(types.ImpurityImpureCall, "calls %s which is only %s on a %s receiver", display, level, mode)
	}
	for _, ta := range inv.TypeArgs {
		ta = w.unit.Subst.Apply(ta)
		if ta.IsTypeParameter() {
			continue
		}
		if v := w.objectMembersOf(ta); v.impure() {
			return impureVerdict(types.ImpurityObjectMethod, "calls %s with type argument %s whose %s",
				display, ta.Display(), v.reason)
		}
	}
	return verdict{}
}

func (w *walker) judgeOperator(op *model.Symbol) verdict {
	return w.judgeMember(op, types.ReceiverStatic, w.unit.Subst.Restrict(op))
}

func (w *walker) binary(b *model.Binary) {
	w.expr(b.Left)
	w.expr(b.Right)
	if b.Operator != nil {
		w.report(b.Location, w.judgeOperator(b.Operator))
		return
	}
	if b.Op != "+" {
		return
	}
	lt, rt := b.Left.StaticType(), b.Right.StaticType()
	switch {
	case lt.IsString() && !rt.IsString():
		w.stringified(b.Right)
	case rt.IsString() && !lt.IsString():
		w.stringified(b.Left)
	}
}

// stringified classifies the implicit ToString of a value embedded in a string
func (w *walker) stringified(x model.Expr) {
	t := x.StaticType()
	if t == nil || t.IsString() {
		return
	}
	if v, handled := w.judgeObjectMember("ToString", t, w.receiverMode(x)); handled {
		w.report(x.Loc(), v)
	}
}

func (w *walker) delegateInvoke(d *model.DelegateInvoke) {
	w.expr(d.Target)
	w.args(d.Args)
	switch t := d.Target.(type) {
	case *model.Ident, *model.Lambda:
		// delegates held in parameters and locals are analyzed where they are created
	case *model.MemberAccess:
		w.emit(d.Location, types.ImpurityDelegateField, "invokes delegate stored in %s", memberName(t))
	default:
		w.emit(d.Location, types.ImpurityUnknownCall, "invokes a delegate of unknown origin")
	}
}

func (w *walker) methodGroup(g *model.MethodGroup) {
	w.expr(g.Receiver)
	m := g.Method
	if m == nil {
		if !w.e.known.IsPureMethod(g.Candidates...) {
			w.emit(g.Location, types.ImpurityUnknownCall, "method group %s is not known to be pure",
				displayName(g.Name, g.Candidates))
		}
		return
	}
	mode := w.receiverMode(g.Receiver)
	switch {
	case m.Kind == types.SymbolKindLocalFunction:
		mode = w.unit.Receiver
	case m.Static:
		mode = types.ReceiverStatic
	}
	if v := w.judgeMember(m, mode, w.unit.Subst.Restrict(m)); v.impure() {
		w.emit(g.Location, v.kind, "method group %s is impure: %s", m.Display(), v.reason)
	}
}

// upcasts checks source objects passed where a source interface is
// expected: every implementation of the interface's members must be pure.
func (w *walker) upcasts(args []model.Argument) {
	for _, a := range args {
		if a.Param == nil || a.Value == nil {
			continue
		}
		iface := a.Param.Type.TypeSymbol()
		if iface == nil || !iface.IsInterface() || iface.Compiled {
			continue
		}
		cls := w.unit.Subst.Resolve(a.Value.StaticType()).TypeSymbol()
		if cls == nil || cls.IsInterface() || cls.Compiled || cls.AssumedPure() ||
			w.e.known.IsPureType(cls.QualifiedName) {
			continue
		}
		if v := w.implementationOf(cls, iface, w.receiverMode(a.Value)); v.impure() {
			w.emit(a.Value.Loc(), types.ImpurityUpcast, "passes %s as %s but %s", cls.Name, iface.Name, v.reason)
		}
	}
}

func (w *walker) implementationOf(cls, iface *model.Symbol, mode types.ReceiverMode) verdict {
	for _, it := range append([]*model.Symbol{iface}, iface.Interfaces()...) {
		for _, member := range it.Members {
			impl := cls.Implementation(member)
			if impl == nil {
				continue
			}
			for _, c := range impl.Callables() {
				if v := w.judgeMember(c, mode, model.Substitution{}); v.impure() {
					return impureVerdict(v.kind, "%s is impure", impl.Display())
				}
			}
		}
	}
	return verdict{}
}

func isTypeExpr(x model.Expr) bool {
	_, ok := x.(*model.TypeExpr)
	return ok
}

func memberName(m *model.MemberAccess) string {
	if m.Member != nil {
		return m.Member.Display()
	}
	return m.Name
}
