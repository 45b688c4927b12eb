package expr

import "golang.org/x/exp/slices"

// Atoms holds the constants, parameters, and variables collected while
// walking a monomial, plus a parity count of the negations encountered
// above them; the monomial's sign is Negations mod 2.
type Atoms struct {
	Constants  []uint64
	Parameters []string
	Variables  []string
	Negations  int
}

// CollectAtoms walks e and returns every atom found in it, counting
// negations along the way.
func CollectAtoms(e Expr) Atoms {
	var a Atoms
	collectAtoms(e, &a)
	return a
}

func collectAtoms(e Expr, a *Atoms) {
	switch e := e.(type) {
	case *BinOp:
		collectAtoms(e.L, a)
		collectAtoms(e.R, a)
	case *Neg:
		a.Negations++
		collectAtoms(e.Expr, a)
	case *Constant:
		a.Constants = append(a.Constants, e.Val)
	case *Parameter:
		a.Parameters = append(a.Parameters, e.Name)
	case *Variable:
		a.Variables = append(a.Variables, e.Name)
	}
}

// Coefficient is val*prod(parameters), split into its positive and
// negative parts so that neither part has to hold a negative value under
// uint64 arithmetic; the coefficient's value is PositiveFactor minus
// NegativeFactor, which may itself be negative.
type Coefficient struct {
	PositiveFactor uint64
	NegativeFactor uint64
	Parameters     []string
}

// Normalize sorts a coefficient's parameter list in place.
func (c *Coefficient) Normalize() {
	slices.Sort(c.Parameters)
}

// ToExprL renders the coefficient with multiplications associating left.
func (c Coefficient) ToExprL() Expr {
	e := c.preFactorExpr()
	for _, p := range c.Parameters {
		e = &BinOp{Op: Times, L: e, R: &Parameter{Name: p}}
	}
	return e
}

// ToExprR renders the coefficient with multiplications associating right.
func (c Coefficient) ToExprR() Expr {
	e := c.preFactorExpr()
	params := append([]string(nil), c.Parameters...)
	slices.Reverse(params)
	for _, p := range params {
		e = &BinOp{Op: Times, L: &Parameter{Name: p}, R: e}
	}
	return e
}

func (c Coefficient) preFactorExpr() Expr {
	switch {
	case c.PositiveFactor == 0:
		return &Neg{Expr: &Constant{Val: c.NegativeFactor}}
	case c.NegativeFactor == 0:
		return &Constant{Val: c.PositiveFactor}
	default:
		return &BinOp{Op: Minus, L: &Constant{Val: c.PositiveFactor}, R: &Constant{Val: c.NegativeFactor}}
	}
}

// Monomial is a sum of coefficients multiplied by a shared set of
// variables: (c0 + c1 + ...) * v0 * v1 * ...
type Monomial struct {
	Coefficients []Coefficient
	Variables    []string
}

// Normalize sorts the monomial's variables, merges coefficients that
// share the same (sorted) parameter set, and sorts the result by
// parameters — so two monomials that are mathematically identical
// normalize to the same struct value.
func (m *Monomial) Normalize() {
	slices.Sort(m.Variables)

	type key = string
	combined := map[key]*Coefficient{}
	var order []key

	for _, c := range m.Coefficients {
		c.Normalize()
		k := sliceKey(c.Parameters)
		if existing, ok := combined[k]; ok {
			existing.PositiveFactor += c.PositiveFactor
			existing.NegativeFactor += c.NegativeFactor
			continue
		}
		cc := c
		combined[k] = &cc
		order = append(order, k)
	}
	slices.Sort(order)

	m.Coefficients = m.Coefficients[:0]
	for _, k := range order {
		m.Coefficients = append(m.Coefficients, *combined[k])
	}
}

func sliceKey(items []string) string {
	s := ""
	for i, it := range items {
		if i > 0 {
			s += "\x00"
		}
		s += it
	}
	return s
}

// ToExprL renders the monomial with multiplications associating left.
func (m Monomial) ToExprL() Expr {
	e := m.Coefficients[0].ToExprL()
	for _, c := range m.Coefficients[1:] {
		e = &BinOp{Op: Plus, L: e, R: c.ToExprL()}
	}
	for _, v := range m.Variables {
		e = &BinOp{Op: Times, L: e, R: &Variable{Name: v}}
	}
	return e
}

// ToExprR renders the monomial with multiplications associating right.
func (m Monomial) ToExprR() Expr {
	coeffs := append([]Coefficient(nil), m.Coefficients...)
	slices.Reverse(coeffs)

	e := coeffs[0].ToExprR()
	for _, c := range coeffs[1:] {
		e = &BinOp{Op: Plus, L: c.ToExprR(), R: e}
	}

	vars := append([]string(nil), m.Variables...)
	slices.Reverse(vars)
	for _, v := range vars {
		e = &BinOp{Op: Times, L: &Variable{Name: v}, R: e}
	}
	return e
}

// CollectMonomials walks e (assumed already distributed, i.e. free of
// products-over-sums) and groups its additive terms into Monomials keyed
// by their (sorted) variable set.
func CollectMonomials(e Expr) []Monomial {
	byVars := map[string][]string{}   // key -> sorted variable list
	coeffs := map[string][]Coefficient{}
	var order []string

	var visit func(e Expr, negated bool)
	visit = func(e Expr, negated bool) {
		switch e := e.(type) {
		case *BinOp:
			if !IsMonomialExpr(e) {
				visit(e.L, negated)
				// A subtraction contributes its right-hand terms with
				// flipped sign.
				visit(e.R, negated != (e.Op == Minus))
				return
			}
			atoms := CollectAtoms(e)
			vars := append([]string(nil), atoms.Variables...)
			slices.Sort(vars)

			factor := uint64(1)
			for _, c := range atoms.Constants {
				factor *= c
			}
			neg := negated != (atoms.Negations%2 == 1)

			k := sliceKey(vars)
			if _, seen := byVars[k]; !seen {
				order = append(order, k)
				byVars[k] = vars
			}
			coeff := Coefficient{Parameters: atoms.Parameters}
			if neg {
				coeff.NegativeFactor = factor
			} else {
				coeff.PositiveFactor = factor
			}
			coeffs[k] = append(coeffs[k], coeff)

		case *Neg:
			visit(e.Expr, !negated)

		case *Constant:
			k := sliceKey(nil)
			if _, seen := byVars[k]; !seen {
				order = append(order, k)
				byVars[k] = nil
			}
			c := Coefficient{}
			if negated {
				c.NegativeFactor = e.Val
			} else {
				c.PositiveFactor = e.Val
			}
			coeffs[k] = append(coeffs[k], c)

		case *Parameter:
			k := sliceKey(nil)
			if _, seen := byVars[k]; !seen {
				order = append(order, k)
				byVars[k] = nil
			}
			c := Coefficient{Parameters: []string{e.Name}}
			if negated {
				c.NegativeFactor = 1
			} else {
				c.PositiveFactor = 1
			}
			coeffs[k] = append(coeffs[k], c)

		case *Variable:
			k := sliceKey([]string{e.Name})
			if _, seen := byVars[k]; !seen {
				order = append(order, k)
				byVars[k] = []string{e.Name}
			}
			c := Coefficient{}
			if negated {
				c.NegativeFactor = 1
			} else {
				c.PositiveFactor = 1
			}
			coeffs[k] = append(coeffs[k], c)
		}
	}
	visit(e, false)

	result := make([]Monomial, 0, len(order))
	for _, k := range order {
		m := Monomial{Coefficients: coeffs[k], Variables: byVars[k]}
		m.Normalize()
		result = append(result, m)
	}
	return result
}
