package purity

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/standardbeagle/purity/internal/model"
	"github.com/standardbeagle/purity/internal/types"
)

// PureLambda names a higher-order method whose argument at position Arg,
// counted among the arguments as written, must be a pure lambda.
type PureLambda struct {
	Type   string
	Method string
	Arg    int
}

func (p PureLambda) String() string {
	return p.Type + "." + p.Method + ":" + strconv.Itoa(p.Arg)
}

// ParsePureLambda reads "Namespace.Type.Method:Arg". The position defaults to 0.
func ParsePureLambda(s string) (PureLambda, error) {
	name, pos, hasPos := strings.Cut(strings.TrimSpace(s), ":")
	arg := 0
	if hasPos {
		n, err := strconv.Atoi(pos)
		if err != nil || n < 0 {
			return PureLambda{}, fmt.Errorf("invalid argument position in %q", s)
		}
		arg = n
	}
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return PureLambda{}, fmt.Errorf("expected Type.Method in %q", s)
	}
	return PureLambda{Type: name[:i], Method: name[i+1:], Arg: arg}, nil
}

// LambdaSite is a call to a configured pure-lambda method
type LambdaSite struct {
	Invocation *model.Invocation
	Owner      *model.Symbol
	Spec       PureLambda
}

// Argument returns the expression in the pure-lambda position, nil when the
// call has fewer arguments.
func (s LambdaSite) Argument() model.Expr {
	if s.Spec.Arg < len(s.Invocation.Args) {
		return s.Invocation.Args[s.Spec.Arg].Value
	}
	return nil
}

// LambdaSites finds the calls to pure-lambda methods inside owner's body,
// including nested lambdas and local functions.
func (e *Engine) LambdaSites(owner *model.Symbol) []LambdaSite {
	if len(e.lambdas) == 0 || owner.Body == nil {
		return nil
	}
	var sites []LambdaSite
	model.Inspect(owner.Body, true, func(n model.Node) bool {
		inv, ok := n.(*model.Invocation)
		if !ok {
			return true
		}
		for _, spec := range e.lambdas {
			if e.matchesLambda(inv, spec) {
				sites = append(sites, LambdaSite{Invocation: inv, Owner: owner, Spec: spec})
				break
			}
		}
		return true
	})
	return sites
}

func (e *Engine) matchesLambda(inv *model.Invocation, spec PureLambda) bool {
	if m := inv.Method; m != nil {
		if m.Name != spec.Method {
			return false
		}
		decl := m.DeclaringType()
		return decl != nil && (decl.QualifiedName == spec.Type || decl.Name == spec.Type)
	}
	if inv.Name != spec.Method {
		return false
	}
	want := spec.Type + "." + spec.Method
	names := e.known.CallCandidates(inv.Candidates, inv.Namespaces, inv.Name, inv.Receiver != nil)
	for _, n := range names {
		if n == want || strings.HasSuffix(n, "."+want) {
			return true
		}
	}
	return false
}

// ClassifyLambda yields the impurities of the lambda passed at a site, or a
// single finding when the argument is not a lambda. The lambda is held to
// Pure; it runs against the receiver of the member that contains it.
func (e *Engine) ClassifyLambda(site LambdaSite) iter.Seq[types.Impurity] {
	return func(yield func(types.Impurity) bool) {
		arg := site.Argument()
		if arg == nil {
			return
		}
		l, ok := arg.(*model.Lambda)
		if !ok || l.Symbol == nil {
			yield(types.NewImpurity(arg.Loc(), types.ImpurityNotLambda, "expected a lambda expression"))
			return
		}
		u := Unit{
			Symbol:     l.Symbol,
			Body:       l.Symbol.Body,
			Strictness: types.Pure,
			Receiver:   UnitFor(site.Owner, types.Pure).Receiver,
			LocalOwner: l.Symbol,
		}
		for imp := range e.Classify(u, nil) {
			if !yield(imp) {
				return
			}
		}
	}
}
