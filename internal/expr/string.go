package expr

import "fmt"

// String returns a concise representation of e, used by the driver's
// inference-dump mode to print a statement's solved Ranges and unsolved
// Constraints.
func String(e Expr) string {
	switch e := e.(type) {
	case *BinOp:
		return fmt.Sprintf("(%s %s %s)", String(e.L), e.Op, String(e.R))
	case *Neg:
		return fmt.Sprintf("-%s", String(e.Expr))
	case *Variable:
		return e.Name
	case *Parameter:
		return e.Name
	case *Constant:
		return fmt.Sprintf("%d", e.Val)
	}
	return "<unknown expr>"
}
