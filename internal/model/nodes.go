package model

import "github.com/standardbeagle/purity/internal/types"

// Node is a bound statement or expression. The set of node types is closed;
// analyses switch over the concrete types below.
type Node interface {
	Loc() types.Location
	node()
}

// Expr is a node producing a value with a (possibly unknown) static type.
type Expr interface {
	Node
	StaticType() *TypeRef
}

// Span is embedded by every node to carry its location.
type Span struct {
	Location types.Location
}

func (s Span) Loc() types.Location { return s.Location }
func (Span) node()                 {}

// Block is a statement list
type Block struct {
	Span
	Stmts []Node
}

// Return is a return statement, or the body of an expression-bodied member.
type Return struct {
	Span
	Value Expr
}

// ExprStmt evaluates an expression for its effects
type ExprStmt struct {
	Span
	X Expr
}

// LocalDecl declares a local variable with an optional initializer
type LocalDecl struct {
	Span
	Local *Symbol
	Init  Expr
}

// LocalFunctionDecl declares a local function. Its body is analyzed where
// the function is called.
type LocalFunctionDecl struct {
	Span
	Symbol *Symbol
}

// Assign is "target op value". Op is "=" or a compound operator such as
// "-=". Operator is the user-defined operator applied by a compound
// assignment, when there is one.
type Assign struct {
	Span
	Target   Expr
	Value    Expr
	Op       string
	Operator *Symbol
}

func (a *Assign) StaticType() *TypeRef { return a.Target.StaticType() }

// IncDec is a prefix or postfix ++ or --
type IncDec struct {
	Span
	Target   Expr
	Op       string
	Operator *Symbol
}

func (n *IncDec) StaticType() *TypeRef { return n.Target.StaticType() }

// Argument is one argument of a call
type Argument struct {
	Value   Expr
	RefKind RefKind
	// Param is the parameter the argument binds to, when resolved.
	Param *Symbol
}

// Invocation calls a named method. Method is nil when the target could not
// be resolved to a declaration; Candidates then holds the qualified names a
// registry lookup should try.
type Invocation struct {
	Span
	Method *Symbol
	// Receiver is nil for static calls. Implicit instance calls carry an
	// implicit This receiver.
	Receiver     Expr
	ReceiverType *TypeRef
	Name         string
	Args         []Argument
	TypeArgs     []*TypeRef
	Type         *TypeRef
	Candidates   []string
	// Extension marks a call written as receiver.M(...) that binds to a
	// static extension method taking the receiver as first argument.
	Extension bool
	// Namespaces lists the namespaces in scope, for extension lookups
	// against the registry.
	Namespaces []string
}

func (n *Invocation) StaticType() *TypeRef { return n.Type }

// DelegateInvoke calls a delegate value
type DelegateInvoke struct {
	Span
	Target Expr
	Args   []Argument
	Type   *TypeRef
}

func (n *DelegateInvoke) StaticType() *TypeRef { return n.Type }

// MemberAccess reads or writes a field or property. Receiver is nil for
// static members.
type MemberAccess struct {
	Span
	Receiver   Expr
	Member     *Symbol
	Name       string
	Type       *TypeRef
	Candidates []string
	// StaticAccess is set when the member was reached through a type name.
	StaticAccess bool
}

func (n *MemberAccess) StaticType() *TypeRef { return n.Type }

// ElementAccess is receiver[args], bound to a declared indexer when there is one
type ElementAccess struct {
	Span
	Receiver Expr
	Indexer  *Symbol
	Args     []Argument
	Type     *TypeRef
}

func (n *ElementAccess) StaticType() *TypeRef { return n.Type }

// Initializer assigns a member of an object being created
type Initializer struct {
	Location types.Location
	Member   *Symbol
	Name     string
	Value    Expr
}

// ObjectCreation is new T(args) { initializers }
type ObjectCreation struct {
	Span
	Type         *TypeRef
	Constructor  *Symbol
	Args         []Argument
	Initializers []Initializer
	Elements     []Expr
}

func (n *ObjectCreation) StaticType() *TypeRef { return n.Type }

// ArrayCreation is an array or collection literal. Spreads holds the
// collections whose elements are copied in with "..".
type ArrayCreation struct {
	Span
	Type     *TypeRef
	Sizes    []Expr
	Elements []Expr
	Spreads  []Expr
}

func (n *ArrayCreation) StaticType() *TypeRef { return n.Type }

// Lambda is an anonymous function. Symbol holds its parameters and body.
type Lambda struct {
	Span
	Symbol *Symbol
}

func (n *Lambda) StaticType() *TypeRef { return n.Symbol.Type }

// MethodGroup references a method without invoking it. Candidates holds
// registry names when the method is not declared in the compilation.
type MethodGroup struct {
	Span
	Method     *Symbol
	Receiver   Expr
	Name       string
	Candidates []string
}

func (n *MethodGroup) StaticType() *TypeRef { return nil }

// This is "this", "base", or the implicit receiver of an unqualified member
type This struct {
	Span
	Type     *TypeRef
	Implicit bool
	Base     bool
}

func (n *This) StaticType() *TypeRef { return n.Type }

// Ident references a local, a parameter, or a local function value
type Ident struct {
	Span
	Symbol *Symbol
	Name   string
}

func (n *Ident) StaticType() *TypeRef {
	if n.Symbol == nil {
		return nil
	}
	return n.Symbol.Type
}

// TypeExpr is a type name used as the receiver of a static member
type TypeExpr struct {
	Span
	Type *TypeRef
}

func (n *TypeExpr) StaticType() *TypeRef { return n.Type }

// Literal is a constant
type Literal struct {
	Span
	Text string
	Type *TypeRef
	Null bool
}

func (n *Literal) StaticType() *TypeRef { return n.Type }

// Binary is "left op right"; Operator is set for user-defined operators
type Binary struct {
	Span
	Op       string
	Left     Expr
	Right    Expr
	Operator *Symbol
	Type     *TypeRef
}

func (n *Binary) StaticType() *TypeRef { return n.Type }

// Unary is a prefix operator other than ++ and --
type Unary struct {
	Span
	Op       string
	Operand  Expr
	Operator *Symbol
	Type     *TypeRef
}

func (n *Unary) StaticType() *TypeRef { return n.Type }

// Conditional is cond ? then : else, also used for ?? with Cond nil
type Conditional struct {
	Span
	Cond Expr
	Then Expr
	Else Expr
	Type *TypeRef
}

func (n *Conditional) StaticType() *TypeRef { return n.Type }

// SwitchArm is one arm of a switch expression
type SwitchArm struct {
	Guard Expr
	Value Expr
}

// SwitchExpr is subject switch { arms }
type SwitchExpr struct {
	Span
	Subject Expr
	Arms    []SwitchArm
	Type    *TypeRef
}

func (n *SwitchExpr) StaticType() *TypeRef { return n.Type }

// Cast is (T)x or x as T
type Cast struct {
	Span
	Type    *TypeRef
	Operand Expr
	As      bool
}

func (n *Cast) StaticType() *TypeRef { return n.Type }

// Default is default(T) or a typed default literal
type Default struct {
	Span
	Type *TypeRef
}

func (n *Default) StaticType() *TypeRef { return n.Type }

// Interpolation is an interpolated string; Parts are the embedded expressions
type Interpolation struct {
	Span
	Parts []Expr
}

func (n *Interpolation) StaticType() *TypeRef { return StringType }

// Effect is a construct that is an effect in itself (lock, unsafe code)
type Effect struct {
	Span
	What     string
	Children []Node
}

func (n *Effect) StaticType() *TypeRef { return nil }

// Opaque is any construct without a dedicated node. Its children are bound
// and analyzed; the construct itself has no effect.
type Opaque struct {
	Span
	What     string
	Children []Node
	Type     *TypeRef
}

func (n *Opaque) StaticType() *TypeRef { return n.Type }
