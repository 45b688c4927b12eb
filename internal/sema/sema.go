// Package sema implements the semantic analyzer: symbol/environment
// management, scalar-type unification, reduction-variable discovery,
// the Apply->Access/BuiltIn rewrite, and per-statement range-constraint
// collection.
package sema

import (
	"fmt"

	"github.com/andidr/teckyl/internal/ast"
	"github.com/andidr/teckyl/internal/diag"
	"github.com/andidr/teckyl/internal/expr"
	"github.com/andidr/teckyl/internal/rangeinfer"
	"github.com/andidr/teckyl/internal/token"
)

// CheckedDef is a Def after a successful (or partially successful) Sema
// pass: the same *ast.Def, mutated in place (RHS expressions rewritten,
// ReductionVars filled in, initialized reductions with no reduction
// variable downgraded to plain assignment), plus the type/range-problem
// side tables Sema attaches without growing the ast package's own node
// shapes.
type CheckedDef struct {
	Def *ast.Def

	// Types gives the scalar type attached to every checked expression
	// node, keyed by the node's pointer identity.
	Types map[ast.Expr]ast.ScalarType

	// Problems gives each comprehension's solved/unsolved range-
	// inference problem, consumed by the IR generator's structured-vs-
	// loop-nest decision.
	Problems map[*ast.Comprehension]*rangeinfer.Problem

	// RangeParameters is the def's final set of dimension-size symbol
	// names, snapshotted before Sema clears its own working copy.
	RangeParameters map[string]bool

	// Outputs gives each return's final binding — its declared type if
	// annotated, or the type inferred from its first write otherwise.
	// The IR generator reads the ast.Param's own annotation first and
	// consults this only for a param that has none.
	Outputs map[string]*Binding
}

// Checker holds the five parallel environments and accumulated
// diagnostics for a single kernel's Sema pass.
type Checker struct {
	diags []diag.Diagnostic

	env                  map[string]*Binding
	annotatedOutputTypes map[string]*Binding
	inputParameters      map[string]bool
	nonTemporaries       map[string]bool
	liveInputNames       map[string]bool
	rangeParameters      map[string]bool

	// initialized tracks, within this kernel, which LHS names have
	// already been written by an earlier statement — used to decide
	// whether a non-"!" reduction has a prior value.
	initialized map[string]bool

	exprTypes map[ast.Expr]ast.ScalarType
	problems  map[*ast.Comprehension]*rangeinfer.Problem

	// Per-statement scratch state, reset at the top of checkComprehension.
	indexEnv map[string]ast.ScalarType
	letEnv   map[string]ast.Expr
	problem  *rangeinfer.Problem
	curStmt  *ast.Comprehension
}

// Check runs Sema over one Def, returning the checked def (rewritten in
// place) and every diagnostic collected.
func Check(def *ast.Def) (*CheckedDef, []diag.Diagnostic) {
	c := &Checker{
		env:                  map[string]*Binding{},
		annotatedOutputTypes: map[string]*Binding{},
		inputParameters:      map[string]bool{},
		nonTemporaries:       map[string]bool{},
		liveInputNames:       map[string]bool{},
		rangeParameters:      map[string]bool{},
		initialized:          map[string]bool{},
		exprTypes:            map[ast.Expr]ast.ScalarType{},
		problems:             map[*ast.Comprehension]*rangeinfer.Problem{},
	}

	// Step 1: record every explicitly-typed return and its dimension
	// identifiers as range parameters.
	for _, r := range def.Returns {
		if r.Type == nil || r.Type.Inferred {
			continue
		}
		b := bindingFromType(r.Type)
		c.annotatedOutputTypes[r.Ident] = b
		c.registerDimParams(b)
	}

	// Step 2: register parameters and returns.
	for _, p := range def.Params {
		b := bindingFromType(p.Type)
		if b == nil {
			c.errorf(p.SrcRange, "parameter %q must have an explicit type", p.Ident)
			continue
		}
		c.env[p.Ident] = b
		c.nonTemporaries[p.Ident] = true
		c.inputParameters[p.Ident] = true
		c.liveInputNames[p.Ident] = true
		c.registerDimParams(b)
	}
	for _, r := range def.Returns {
		c.nonTemporaries[r.Ident] = true
		if b, ok := c.annotatedOutputTypes[r.Ident]; ok {
			c.env[r.Ident] = b
		}
	}

	// Step 3: check every statement.
	for _, stmt := range def.Statements {
		c.checkComprehension(stmt)
	}

	// Step 4: check returns resolve in env, recording each one's final
	// binding (explicit or inferred) in Outputs, since an inferred-type
	// output's real shape only exists in Sema's env.
	outputs := map[string]*Binding{}
	for _, r := range def.Returns {
		b, ok := c.env[r.Ident]
		if !ok {
			c.errorf(r.SrcRange, "output %q is never assigned, and its type cannot be inferred", r.Ident)
			continue
		}
		outputs[r.Ident] = b
	}

	// Step 5: clear rangeParameters — snapshot it first for the IR
	// generator, which needs the final Parameter/Variable classification.
	snapshot := c.rangeParameters
	c.rangeParameters = map[string]bool{}

	return &CheckedDef{
		Def:             def,
		Types:           c.exprTypes,
		Problems:        c.problems,
		RangeParameters: snapshot,
		Outputs:         outputs,
	}, c.diags
}

func (c *Checker) registerDimParams(b *Binding) {
	if b == nil || b.Tensor == nil {
		return
	}
	for _, d := range b.Tensor.Dims {
		if id, ok := d.(*ast.Ident); ok {
			c.rangeParameters[id.Name] = true
		}
	}
}

func bindingFromType(t *ast.TypeExpr) *Binding {
	switch {
	case t == nil || t.Inferred:
		return nil
	case t.Tensor != nil:
		return &Binding{Tensor: t.Tensor}
	default:
		s := *t.Scalar
		return &Binding{Scalar: &s}
	}
}

func (c *Checker) errorf(r token.SourceRange, format string, args ...any) {
	c.diags = append(c.diags, diag.New(r, format, args...))
}

func (c *Checker) warnf(r token.SourceRange, format string, args ...any) {
	c.diags = append(c.diags, diag.Warn(r, format, args...))
}

func (c *Checker) setType(e ast.Expr, t ast.ScalarType) ast.ScalarType {
	c.exprTypes[e] = t
	return t
}

// ---------------------------------------------------------------------------
// Statement checking
// ---------------------------------------------------------------------------

func (c *Checker) checkComprehension(stmt *ast.Comprehension) {
	c.indexEnv = map[string]ast.ScalarType{}
	c.letEnv = map[string]ast.Expr{}
	c.problem = &rangeinfer.Problem{}
	c.curStmt = stmt

	// Writing to a name retires it as a usable range parameter: it can
	// no longer be used as a size in range expressions.
	delete(c.liveInputNames, stmt.Ident)
	delete(c.rangeParameters, stmt.Ident)

	if !c.nonTemporaries[stmt.Ident] {
		c.errorf(stmt.IdentRange, "assignment to %q, which is not a declared parameter or return", stmt.Ident)
	} else if c.inputParameters[stmt.Ident] {
		c.errorf(stmt.IdentRange, "cannot write to input parameter %q", stmt.Ident)
	}

	lhsBinding := c.annotatedOutputTypes[stmt.Ident]
	if lhsBinding == nil {
		lhsBinding = c.env[stmt.Ident]
	}
	if lhsBinding != nil && lhsBinding.Tensor != nil && len(stmt.Indices) != len(lhsBinding.Tensor.Dims) {
		c.errorf(stmt.SrcRange, "tensor defined with %d dimensions but declared as an output with %d dimensions",
			len(stmt.Indices), len(lhsBinding.Tensor.Dims))
	}

	for k, idx := range stmt.Indices {
		c.indexEnv[idx.Name] = int32Type
		if lhsBinding == nil || lhsBinding.Tensor == nil || k >= len(lhsBinding.Tensor.Dims) {
			continue
		}
		if hi, ok := ExprFromTree(lhsBinding.Tensor.Dims[k], c.rangeParameters); ok {
			c.problem.AddConstraints(&expr.Constant{Val: 0}, &expr.Variable{Name: idx.Name}, hi)
		}
	}

	for _, w := range stmt.WhereClauses {
		c.checkWhereClause(w)
	}

	outputScalar := defaultFloat
	if lhsBinding != nil {
		outputScalar = lhsBinding.ScalarType()
	}
	rhs, rhsType := c.checkExprCtx(stmt.RHS, outputScalar)
	stmt.RHS = rhs

	if lhsBinding == nil {
		lhsBinding = c.inferOutputBinding(stmt, rhsType)
		c.env[stmt.Ident] = lhsBinding
	} else if !CanAssignWithoutCast(rhsType, lhsBinding.ScalarType()) {
		c.errorf(stmt.RHS.Range(), "attempting to assign type %s to narrower type %s without an explicit cast",
			rhsType, lhsBinding.ScalarType())
	}

	if stmt.Assignment.IsMinMax() {
		c.errorf(stmt.SrcRange, "min/max reductions are not lowered by this generator")
	}

	hasReductionVars := len(stmt.ReductionVars) > 0
	switch {
	case stmt.Assignment == ast.OpAssign && hasReductionVars:
		c.errorf(stmt.SrcRange, "'=' used with reduction variable %q", stmt.ReductionVars[0])
	case stmt.Assignment.IsInitialized() && !hasReductionVars:
		// An initialized reduction with no reduction variables has
		// nothing to reduce over — downgrade to plain assignment.
		stmt.Assignment = ast.OpAssign
	case stmt.Assignment.IsReduction() && !stmt.Assignment.IsInitialized() &&
		!c.initialized[stmt.Ident] && !c.inputParameters[stmt.Ident]:
		c.warnf(stmt.SrcRange, "reduction without initialization — consider the '!'-suffixed operator")
	}

	c.initialized[stmt.Ident] = true
	c.problems[stmt] = c.problem

	c.indexEnv = nil
	c.letEnv = nil
	c.problem = nil
	c.curStmt = nil
}

func (c *Checker) checkWhereClause(w ast.WhereClause) {
	switch w := w.(type) {
	case *ast.RangeConstraint:
		// A range constraint may name an index not bound anywhere yet;
		// it is then a fresh reduction variable, exactly as a bare
		// identifier first seen on the RHS is. An LHS index constrained
		// here is already in index_env and stays a parallel iterator.
		if _, ok := c.indexEnv[w.Ident]; !ok {
			if _, bound := c.letEnv[w.Ident]; bound {
				c.errorf(w.SrcRange, "range constraint on %q, which is a let binding, not an index", w.Ident)
			} else if _, bound := c.env[w.Ident]; bound {
				c.errorf(w.SrcRange, "range constraint on %q, which is not an index variable", w.Ident)
			} else {
				c.addReductionVar(w.Ident)
			}
		}
		lo, lt := c.checkExprCtx(w.Start, int32Type)
		hi, ht := c.checkExprCtx(w.End, int32Type)
		if !IsIntegral(lt) {
			c.errorf(lo.Range(), "range-constraint bound must be an integer, found %s", lt)
		}
		if !IsIntegral(ht) {
			c.errorf(hi.Range(), "range-constraint bound must be an integer, found %s", ht)
		}
		w.Start, w.End = lo, hi

		loE, ok1 := ExprFromTree(lo, c.rangeParameters)
		hiE, ok2 := ExprFromTree(hi, c.rangeParameters)
		if ok1 && ok2 {
			c.problem.AddConstraints(loE, &expr.Variable{Name: w.Ident}, hiE)
		}

	case *ast.Let:
		rhs, _ := c.checkExprCtx(w.RHS, defaultFloat)
		w.RHS = rhs
		c.letEnv[w.Name] = rhs

	case *ast.Exists:
		exp, existsType := c.checkExprCtx(w.Exp, ast.ScalarType{Kind: ast.KindBool})
		if existsType.Kind != ast.KindBool {
			c.errorf(exp.Range(), "'exists' expression must be boolean, found %s", existsType)
		}
		w.Exp = exp
	}
}

// inferOutputBinding builds the type of an output with no explicit
// annotation, at the point of its first write. A rank-0 write adopts the
// RHS's unified type directly. A ranked write synthesizes one fresh
// range-parameter symbol per dimension, since nothing in the kernel
// otherwise names that dimension's size.
func (c *Checker) inferOutputBinding(stmt *ast.Comprehension, rhsType ast.ScalarType) *Binding {
	if len(stmt.Indices) == 0 {
		s := rhsType
		return &Binding{Scalar: &s}
	}
	dims := make([]ast.Expr, len(stmt.Indices))
	for i, idx := range stmt.Indices {
		name := fmt.Sprintf("$%s_dim%d", stmt.Ident, i)
		c.rangeParameters[name] = true
		dims[i] = &ast.Ident{Name: name, SrcRange: idx.SrcRange}
	}
	return &Binding{Tensor: &ast.TensorType{Scalar: rhsType, Dims: dims, SrcRange: stmt.SrcRange}}
}

// ---------------------------------------------------------------------------
// Expression checking
// ---------------------------------------------------------------------------

func (c *Checker) checkExprCtx(e ast.Expr, ctx ast.ScalarType) (ast.Expr, ast.ScalarType) {
	switch e := e.(type) {
	case *ast.Const:
		return c.checkConst(e, ctx)
	case *ast.Ident:
		return c.checkIdent(e)
	case *ast.Apply:
		return c.checkApply(e)
	case *ast.Cast:
		inner, _ := c.checkExprCtx(e.Exp, e.Target)
		nc := &ast.Cast{Target: e.Target, Exp: inner, SrcRange: e.SrcRange}
		return nc, c.setType(nc, e.Target)
	case *ast.Select:
		return c.checkSelect(e)
	case *ast.UnaryExpr:
		return c.checkUnary(e, ctx)
	case *ast.BinaryExpr:
		return c.checkBinary(e, ctx)
	case *ast.TernaryExpr:
		return c.checkTernary(e, ctx)
	case *ast.Access:
		return e, c.exprTypes[e]
	case *ast.BuiltIn:
		return e, c.exprTypes[e]
	}
	return e, ctx
}

func (c *Checker) checkConst(e *ast.Const, ctx ast.ScalarType) (ast.Expr, ast.ScalarType) {
	if e.IsBool {
		t := ast.ScalarType{Kind: ast.KindBool}
		return e, c.setType(e, t)
	}
	if e.HasSuffix {
		t := scalarFromSuffix(e.Suffix)
		if e.IsFloat && !e.Suffix.IsFloatSuffix() {
			c.errorf(e.SrcRange, "float literal requires an f16/f32/f64 suffix, found %s", t)
		}
		return e, c.setType(e, t)
	}
	if e.IsFloat {
		if ctx.Kind != ast.KindFloatScalar {
			c.errorf(e.SrcRange, "float literal with no suffix requires a float-typed context")
			return e, c.setType(e, defaultFloat)
		}
		return e, c.setType(e, ctx)
	}
	t := ctx
	if !IsNumeric(ctx) {
		t = defaultInt
	}
	return e, c.setType(e, t)
}

// scalarFromSuffix maps a numeric literal's typed suffix to its scalar
// type. "z" (size_t) has no dedicated ScalarKind and is treated as
// uint64; pointer-sized indexing is left to the IR builder.
func scalarFromSuffix(suf token.NumSuffix) ast.ScalarType {
	switch suf {
	case token.SuffixU8:
		return ast.ScalarType{Kind: ast.KindUIntScalar, Bits: 8}
	case token.SuffixU16:
		return ast.ScalarType{Kind: ast.KindUIntScalar, Bits: 16}
	case token.SuffixU32:
		return ast.ScalarType{Kind: ast.KindUIntScalar, Bits: 32}
	case token.SuffixU64, token.SuffixZ:
		return ast.ScalarType{Kind: ast.KindUIntScalar, Bits: 64}
	case token.SuffixI8:
		return ast.ScalarType{Kind: ast.KindIntScalar, Bits: 8}
	case token.SuffixI16:
		return ast.ScalarType{Kind: ast.KindIntScalar, Bits: 16}
	case token.SuffixI32:
		return ast.ScalarType{Kind: ast.KindIntScalar, Bits: 32}
	case token.SuffixI64:
		return ast.ScalarType{Kind: ast.KindIntScalar, Bits: 64}
	case token.SuffixF16:
		return ast.ScalarType{Kind: ast.KindFloatScalar, Bits: 16}
	case token.SuffixF32:
		return ast.ScalarType{Kind: ast.KindFloatScalar, Bits: 32}
	case token.SuffixF64:
		return ast.ScalarType{Kind: ast.KindFloatScalar, Bits: 64}
	}
	return defaultInt
}

// checkIdent resolves a bare identifier in lookup order index_env, then
// let_env, then env. A range parameter (a dimension-size name such as the
// N in "i in 1:N-1") resolves as an int32 size. An identifier found
// nowhere is a fresh reduction variable.
func (c *Checker) checkIdent(e *ast.Ident) (ast.Expr, ast.ScalarType) {
	if t, ok := c.indexEnv[e.Name]; ok {
		return e, c.setType(e, t)
	}
	if rhs, ok := c.letEnv[e.Name]; ok {
		return e, c.setType(e, c.exprTypes[rhs])
	}
	if b, ok := c.env[e.Name]; ok {
		if b.Rank() > 0 {
			c.errorf(e.SrcRange, "expected a scalar but found tensor %q", e.Name)
			return e, c.setType(e, b.ScalarType())
		}
		acc := &ast.Access{Name: e.Name, SrcRange: e.SrcRange}
		return acc, c.setType(acc, b.ScalarType())
	}
	if c.rangeParameters[e.Name] {
		return e, c.setType(e, int32Type)
	}

	c.addReductionVar(e.Name)
	return e, c.setType(e, int32Type)
}

// addReductionVar registers a freshly discovered reduction variable in
// index_env and appends it to the statement's ordered reduction-variable
// list. Re-checking an already-checked statement must not duplicate the
// entry, so the append is guarded.
func (c *Checker) addReductionVar(name string) {
	c.indexEnv[name] = int32Type
	for _, existing := range c.curStmt.ReductionVars {
		if existing == name {
			return
		}
	}
	c.curStmt.ReductionVars = append(c.curStmt.ReductionVars, name)
}

func (c *Checker) checkApply(a *ast.Apply) (ast.Expr, ast.ScalarType) {
	if info, ok := builtins[a.Name]; ok {
		if len(a.Args) != info.Arity {
			c.errorf(a.SrcRange, "built-in %q takes %d argument(s), found %d", a.Name, info.Arity, len(a.Args))
		}
		args := make([]ast.Expr, len(a.Args))
		argType := defaultFloat
		for i, arg := range a.Args {
			ca, t := c.checkExprCtx(arg, defaultFloat)
			args[i] = ca
			if i == 0 {
				argType = t
			}
		}
		result := defaultFloat
		switch {
		case info.ResultType != nil:
			result = *info.ResultType
		case argType.Kind == ast.KindFloatScalar:
			result = argType
		}
		bi := &ast.BuiltIn{Name: a.Name, Args: args, SrcRange: a.SrcRange}
		return bi, c.setType(bi, result)
	}

	b, ok := c.env[a.Name]
	if !ok {
		c.errorf(a.NameRange, "unknown identifier %q (not a tensor, scalar, or built-in function)", a.Name)
		return a, c.setType(a, defaultFloat)
	}

	if b.Tensor == nil {
		if len(a.Args) != 0 {
			c.errorf(a.SrcRange, "scalar %q does not take index arguments", a.Name)
		}
		acc := &ast.Access{Name: a.Name, SrcRange: a.SrcRange}
		return acc, c.setType(acc, *b.Scalar)
	}

	rank := len(b.Tensor.Dims)
	if len(a.Args) != rank {
		c.errorf(a.SrcRange, "wrong number of indices for tensor %q: expected %d, found %d", a.Name, rank, len(a.Args))
	}
	args := make([]ast.Expr, len(a.Args))
	for i, arg := range a.Args {
		ca, t := c.checkExprCtx(arg, int32Type)
		if !IsIntegral(t) {
			c.errorf(ca.Range(), "index argument %d to %q must be integral, found %s", i, a.Name, t)
		}
		args[i] = ca
		if i >= rank {
			continue
		}
		middle, ok1 := ExprFromTree(ca, c.rangeParameters)
		hi, ok2 := ExprFromTree(b.Tensor.Dims[i], c.rangeParameters)
		if ok1 && ok2 {
			c.problem.AddConstraints(&expr.Constant{Val: 0}, middle, hi)
		}
	}
	acc := &ast.Access{Name: a.Name, Args: args, SrcRange: a.SrcRange}
	return acc, c.setType(acc, b.Tensor.Scalar)
}

func (c *Checker) checkSelect(e *ast.Select) (ast.Expr, ast.ScalarType) {
	b, ok := c.env[e.Tensor]
	switch {
	case !ok || b.Tensor == nil:
		c.errorf(e.SrcRange, "%q is not a tensor, and has no dimension %d to select", e.Tensor, e.Dim)
	case e.Dim < 0 || e.Dim >= len(b.Tensor.Dims):
		c.errorf(e.SrcRange, "dimension %d is out of range for tensor %q of rank %d", e.Dim, e.Tensor, len(b.Tensor.Dims))
	}
	return e, c.setType(e, int32Type)
}

func (c *Checker) checkUnary(e *ast.UnaryExpr, ctx ast.ScalarType) (ast.Expr, ast.ScalarType) {
	if e.Op == "!" {
		operand, t := c.checkExprCtx(e.Operand, ast.ScalarType{Kind: ast.KindBool})
		if t.Kind != ast.KindBool {
			c.errorf(operand.Range(), "'!' requires a boolean operand, found %s", t)
		}
		nu := &ast.UnaryExpr{Op: e.Op, Operand: operand, SrcRange: e.SrcRange}
		return nu, c.setType(nu, ast.ScalarType{Kind: ast.KindBool})
	}
	operand, t := c.checkExprCtx(e.Operand, ctx)
	if !IsNumeric(t) {
		c.errorf(operand.Range(), "unary '-' requires a numeric operand, found %s", t)
	}
	nu := &ast.UnaryExpr{Op: e.Op, Operand: operand, SrcRange: e.SrcRange}
	return nu, c.setType(nu, t)
}

func (c *Checker) checkBinary(e *ast.BinaryExpr, ctx ast.ScalarType) (ast.Expr, ast.ScalarType) {
	switch e.Op {
	case "&&", "||":
		l, lt := c.checkExprCtx(e.Left, ast.ScalarType{Kind: ast.KindBool})
		r, rt := c.checkExprCtx(e.Right, ast.ScalarType{Kind: ast.KindBool})
		if lt.Kind != ast.KindBool || rt.Kind != ast.KindBool {
			c.errorf(e.SrcRange, "%q requires boolean operands", e.Op)
		}
		nb := &ast.BinaryExpr{Op: e.Op, Left: l, Right: r, SrcRange: e.SrcRange}
		return nb, c.setType(nb, ast.ScalarType{Kind: ast.KindBool})

	case "==", "!=", "<", ">", "<=", ">=":
		l, lt := c.checkExprCtx(e.Left, ctx)
		r, rt := c.checkExprCtx(e.Right, ctx)
		if _, ok := MatchTypes(lt, rt); !ok {
			c.errorf(e.SrcRange, "cannot compare %s with %s", lt, rt)
		}
		nb := &ast.BinaryExpr{Op: e.Op, Left: l, Right: r, SrcRange: e.SrcRange}
		return nb, c.setType(nb, ast.ScalarType{Kind: ast.KindBool})

	default: // + - * / %
		l, lt := c.checkExprCtx(e.Left, ctx)
		r, rt := c.checkExprCtx(e.Right, ctx)
		unified, ok := MatchTypes(lt, rt)
		if !ok {
			c.errorf(e.SrcRange, "incompatible operand types %s and %s for %q", lt, rt, e.Op)
			unified = lt
		}
		nb := &ast.BinaryExpr{Op: e.Op, Left: l, Right: r, SrcRange: e.SrcRange}
		return nb, c.setType(nb, unified)
	}
}

func (c *Checker) checkTernary(e *ast.TernaryExpr, ctx ast.ScalarType) (ast.Expr, ast.ScalarType) {
	cond, ct := c.checkExprCtx(e.Cond, ast.ScalarType{Kind: ast.KindBool})
	if ct.Kind != ast.KindBool {
		c.errorf(cond.Range(), "ternary condition must be boolean, found %s", ct)
	}
	then_, tt := c.checkExprCtx(e.Then, ctx)
	else_, et := c.checkExprCtx(e.Else, ctx)
	unified, ok := MatchTypes(tt, et)
	if !ok {
		c.errorf(e.SrcRange, "ternary branches have incompatible types %s and %s", tt, et)
		unified = tt
	}
	nt := &ast.TernaryExpr{Cond: cond, Then: then_, Else: else_, SrcRange: e.SrcRange}
	return nt, c.setType(nt, unified)
}
