package main

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/andidr/teckyl/internal/ast"
	"github.com/andidr/teckyl/internal/diag"
	"github.com/andidr/teckyl/internal/expr"
	"github.com/andidr/teckyl/internal/ir"
	"github.com/andidr/teckyl/internal/ir/irb"
	"github.com/andidr/teckyl/internal/irtest"
	"github.com/andidr/teckyl/internal/sema"
)

// dumpAST implements the "ast-dump" mode: parse filename and print
// every kernel's AST.
func dumpAST(filename string) (string, error) {
	defs, diags, err := parseFile(filename)
	if err != nil {
		return "", err
	}
	printDiagnostics(filename, diags)
	if diag.HasErrors(diags) {
		return "", diag.Combine(diags)
	}

	var b strings.Builder
	for _, def := range defs {
		b.WriteString(ast.DebugString(def))
	}
	return b.String(), nil
}

// dumpInference implements the "inference-dump" mode: check every
// kernel and print each statement's solved Ranges and remaining
// Constraints. A kernel with hard Sema errors is skipped (after
// printing its diagnostics) rather than aborting the whole file, so
// later kernels in the same file still get a chance to check cleanly.
func dumpInference(filename string) (string, error) {
	defs, diags, err := parseFile(filename)
	if err != nil {
		return "", err
	}
	printDiagnostics(filename, diags)
	if diag.HasErrors(diags) {
		return "", diag.Combine(diags)
	}

	var b strings.Builder
	var failed []diag.Diagnostic
	for _, def := range defs {
		checked, semaDiags := sema.Check(def)
		printDiagnostics(filename, semaDiags)
		if diag.HasErrors(semaDiags) {
			failed = append(failed, diag.Errors(semaDiags)...)
			continue
		}

		fmt.Fprintf(&b, "Def %s\n", def.Name)
		for _, stmt := range def.Statements {
			problem := checked.Problems[stmt]
			fmt.Fprintf(&b, "  %s(%s):\n", stmt.Ident, identNames(stmt.Indices))
			for _, r := range problem.Solved {
				fmt.Fprintf(&b, "    range %s in [%s, %s)\n", r.Name, expr.String(r.Low), expr.String(r.Up))
			}
			for _, c := range problem.Constraints {
				fmt.Fprintf(&b, "    constraint %s %s %s\n", expr.String(c.L), c.Op, expr.String(c.R))
			}
		}
	}
	if len(failed) > 0 {
		return "", diag.Combine(failed)
	}
	return b.String(), nil
}

func identNames(idents []*ast.Ident) string {
	return strings.Join(lo.Map(idents, func(id *ast.Ident, _ int) string { return id.Name }), ",")
}

// dumpIR implements the "ir-dump" mode: check and lower every kernel
// against internal/irtest's recording builder and print its event
// trace.
func dumpIR(filename string, opts ir.Options) (string, error) {
	defs, diags, err := parseFile(filename)
	if err != nil {
		return "", err
	}
	printDiagnostics(filename, diags)
	if diag.HasErrors(diags) {
		return "", diag.Combine(diags)
	}

	var b strings.Builder
	var failed []diag.Diagnostic
	for _, def := range defs {
		checked, semaDiags := sema.Check(def)
		printDiagnostics(filename, semaDiags)
		if diag.HasErrors(semaDiags) {
			failed = append(failed, diag.Errors(semaDiags)...)
			continue
		}

		rec := irtest.New()
		if err := ir.Lower(checked, rec, opts); err != nil {
			failed = append(failed, diag.New(def.SrcRange, "%s", err))
			continue
		}

		fmt.Fprintf(&b, "Func %s\n", def.Name)
		for _, ev := range rec.Events {
			fmt.Fprintf(&b, "  %s\n", eventString(ev))
		}
	}
	if len(failed) > 0 {
		return "", diag.Combine(failed)
	}
	return b.String(), nil
}

func eventString(ev irtest.Event) string {
	switch ev.Op {
	case "CreateFunction":
		return fmt.Sprintf("%s %s %v -> %v", ev.Op, ev.Name, ev.Params, ev.Result)
	case "NamedOp":
		return fmt.Sprintf("%s %s %v -> %v", ev.Op, ev.Name, ev.Args, ev.Result)
	case "ConstInt":
		return fmt.Sprintf("%s %d:%d -> %v", ev.Op, ev.Int, ev.Bits, ev.Result)
	case "ConstFloat":
		return fmt.Sprintf("%s %g:%d -> %v", ev.Op, ev.Float, ev.Bits, ev.Result)
	case "Dim":
		return fmt.Sprintf("%s %v[%d] -> %v", ev.Op, ev.Args, ev.Int, ev.Result)
	case "BinOp":
		return fmt.Sprintf("%s %v %v -> %v", binOpName(ev.BinOp), ev.Elem, ev.Args, ev.Result)
	case "StructuredReductionBegin":
		return fmt.Sprintf("%s operands=%v iters=%v -> %v", ev.Op, ev.Args, ev.Iters, ev.Result)
	default:
		return fmt.Sprintf("%s %v -> %v", ev.Op, ev.Args, ev.Result)
	}
}

func binOpName(op irb.BinOpKind) string {
	switch op {
	case irb.Add:
		return "BinOp(+)"
	case irb.Sub:
		return "BinOp(-)"
	case irb.Mul:
		return "BinOp(*)"
	case irb.Div:
		return "BinOp(/)"
	case irb.Rem:
		return "BinOp(%)"
	}
	return "BinOp(?)"
}
