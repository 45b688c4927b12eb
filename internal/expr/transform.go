package expr

// Distribute pushes multiplication over addition/subtraction until no
// product has a sum on either side: (a + b) * c  ~>  a*c + b*c, and
// symmetrically on the right.
func Distribute(e Expr) Expr {
	switch e := e.(type) {
	case *BinOp:
		l := Distribute(e.L)
		r := Distribute(e.R)
		if e.Op != Times {
			return &BinOp{Op: e.Op, L: l, R: r}
		}
		if lb, ok := l.(*BinOp); ok && IsSumExpr(lb) {
			// (a op b) * r  ~>  (a*r) op (b*r)
			a := Distribute(&BinOp{Op: Times, L: lb.L, R: r})
			b := Distribute(&BinOp{Op: Times, L: lb.R, R: r})
			return &BinOp{Op: lb.Op, L: a, R: b}
		}
		if rb, ok := r.(*BinOp); ok && IsSumExpr(rb) {
			// l * (a op b)  ~>  (l*a) op (l*b)
			a := Distribute(&BinOp{Op: Times, L: l, R: rb.L})
			b := Distribute(&BinOp{Op: Times, L: l, R: rb.R})
			return &BinOp{Op: rb.Op, L: a, R: b}
		}
		return &BinOp{Op: Times, L: l, R: r}
	case *Neg:
		return &Neg{Expr: Distribute(e.Expr)}
	default:
		return e
	}
}

// ConvertSigns pushes every Neg and binary minus down to the leaves, so
// the only remaining signs are Neg wrapping a single atom. Multiplication
// only passes a collected sign down its left operand; the right operand
// is evaluated in a fresh sign context.
func ConvertSigns(e Expr) Expr {
	return convertSigns(e, 0)
}

func convertSigns(e Expr, signs int) Expr {
	switch e := e.(type) {
	case *BinOp:
		switch e.Op {
		case Times:
			l := convertSigns(e.L, signs)
			r := convertSigns(e.R, 0)
			return &BinOp{Op: Times, L: l, R: r}
		case Minus:
			l := convertSigns(e.L, signs)
			r := convertSigns(e.R, signs+1)
			return &BinOp{Op: Plus, L: l, R: r}
		case Plus:
			l := convertSigns(e.L, signs)
			r := convertSigns(e.R, signs)
			return &BinOp{Op: Plus, L: l, R: r}
		}
		return e
	case *Neg:
		return convertSigns(e.Expr, signs+1)
	default:
		if signs%2 == 1 {
			return &Neg{Expr: cloneAtom(e)}
		}
		return cloneAtom(e)
	}
}

func cloneAtom(e Expr) Expr {
	switch e := e.(type) {
	case *Constant:
		c := *e
		return &c
	case *Parameter:
		p := *e
		return &p
	case *Variable:
		v := *e
		return &v
	}
	return e
}

// Normalize brings e into canonical sum-of-monomials form: sign
// conversion, then distribution, then monomial collection, reassembled
// left-associatively (or right-associatively if leftAssoc is false).
func Normalize(e Expr, leftAssoc bool) Expr {
	e1 := ConvertSigns(e)
	e2 := Distribute(e1)
	monos := CollectMonomials(e2)
	if len(monos) == 0 {
		return &Constant{Val: 0}
	}
	if leftAssoc {
		return toExprL(monos)
	}
	return toExprR(monos)
}

func toExprL(monos []Monomial) Expr {
	result := monos[0].ToExprL()
	for _, m := range monos[1:] {
		result = &BinOp{Op: Plus, L: result, R: m.ToExprL()}
	}
	return result
}

func toExprR(monos []Monomial) Expr {
	rev := append([]Monomial(nil), monos...)
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	result := rev[0].ToExprR()
	for _, m := range rev[1:] {
		result = &BinOp{Op: Plus, L: m.ToExprR(), R: result}
	}
	return result
}

// Substitution replaces every Variable or Parameter matching a name
// with a replacement expression, leaving everything else structurally
// unchanged.
type Substitution struct {
	Name   string
	Target SubstTarget
	Expr   Expr
}

// SubstTarget selects whether a Substitution rewrites Variable or
// Parameter references.
type SubstTarget int

const (
	SubstVariable SubstTarget = iota
	SubstParameter
)

// Apply returns e with every matching Variable/Parameter reference
// replaced by s.Expr.
func (s Substitution) Apply(e Expr) Expr {
	switch e := e.(type) {
	case *BinOp:
		return &BinOp{Op: e.Op, L: s.Apply(e.L), R: s.Apply(e.R)}
	case *Neg:
		return &Neg{Expr: s.Apply(e.Expr)}
	case *Variable:
		if s.Target == SubstVariable && e.Name == s.Name {
			return s.Expr
		}
		v := *e
		return &v
	case *Parameter:
		if s.Target == SubstParameter && e.Name == s.Name {
			return s.Expr
		}
		p := *e
		return &p
	case *Constant:
		c := *e
		return &c
	}
	return e
}
