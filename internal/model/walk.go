package model

// Children returns the direct sub-nodes of n in source order. Lambda bodies
// are not children of the lambda node; callers decide whether to descend.
func Children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, c := range nodes {
			if c != nil && !isNilExpr(c) {
				out = append(out, c)
			}
		}
	}
	addArgs := func(args []Argument) {
		for _, a := range args {
			add(a.Value)
		}
	}

	switch n := n.(type) {
	case *Block:
		add(n.Stmts...)
	case *Return:
		add(n.Value)
	case *ExprStmt:
		add(n.X)
	case *LocalDecl:
		add(n.Init)
	case *Assign:
		add(n.Target, n.Value)
	case *IncDec:
		add(n.Target)
	case *Invocation:
		add(n.Receiver)
		addArgs(n.Args)
	case *DelegateInvoke:
		add(n.Target)
		addArgs(n.Args)
	case *MemberAccess:
		add(n.Receiver)
	case *ElementAccess:
		add(n.Receiver)
		addArgs(n.Args)
	case *ObjectCreation:
		addArgs(n.Args)
		for _, i := range n.Initializers {
			add(i.Value)
		}
		for _, e := range n.Elements {
			add(e)
		}
	case *ArrayCreation:
		for _, e := range n.Sizes {
			add(e)
		}
		for _, e := range n.Elements {
			add(e)
		}
		for _, e := range n.Spreads {
			add(e)
		}
	case *MethodGroup:
		add(n.Receiver)
	case *Binary:
		add(n.Left, n.Right)
	case *Unary:
		add(n.Operand)
	case *Conditional:
		add(n.Cond, n.Then, n.Else)
	case *SwitchExpr:
		add(n.Subject)
		for _, arm := range n.Arms {
			add(arm.Guard, arm.Value)
		}
	case *Cast:
		add(n.Operand)
	case *Interpolation:
		for _, p := range n.Parts {
			add(p)
		}
	case *Effect:
		add(n.Children...)
	case *Opaque:
		add(n.Children...)
	}
	return out
}

// isNilExpr catches typed nil pointers stored in interfaces
func isNilExpr(n Node) bool {
	switch v := n.(type) {
	case *Block:
		return v == nil
	case *Invocation:
		return v == nil
	case *MemberAccess:
		return v == nil
	case *Ident:
		return v == nil
	case *This:
		return v == nil
	case *Lambda:
		return v == nil
	case *Opaque:
		return v == nil
	}
	return false
}

// Inspect visits n and its descendants depth-first. When fn returns false
// the children of that node are skipped. Lambda bodies are visited when
// intoLambdas is set.
func Inspect(n Node, intoLambdas bool, fn func(Node) bool) {
	if n == nil || isNilExpr(n) {
		return
	}
	if !fn(n) {
		return
	}
	switch l := n.(type) {
	case *Lambda:
		if intoLambdas && l.Symbol != nil {
			Inspect(l.Symbol.Body, intoLambdas, fn)
		}
		return
	case *LocalFunctionDecl:
		if intoLambdas && l.Symbol != nil {
			Inspect(l.Symbol.Body, intoLambdas, fn)
		}
		return
	}
	for _, c := range Children(n) {
		Inspect(c, intoLambdas, fn)
	}
}

// Returns collects the return statements of a body, not descending into
// lambdas or local functions.
func Returns(body Node) []*Return {
	var out []*Return
	Inspect(body, false, func(n Node) bool {
		if r, ok := n.(*Return); ok {
			out = append(out, r)
		}
		return true
	})
	return out
}
