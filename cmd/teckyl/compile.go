package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/andidr/teckyl/internal/ast"
	"github.com/andidr/teckyl/internal/diag"
	"github.com/andidr/teckyl/internal/lexer"
	"github.com/andidr/teckyl/internal/parser"
	"github.com/andidr/teckyl/internal/token"
)

// readSource reads filename's contents, treating "-" as stdin. Failure
// to open or read the file is an I/O failure, not a compile diagnostic,
// so it is wrapped rather than turned into a diag.Diagnostic.
func readSource(filename string) (*token.Source, error) {
	var data []byte
	var err error
	if filename == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(filename)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	return token.NewSource(filename, string(data)), nil
}

// parseFile lexes and parses one source file into its Defs, folding the
// lexer's and parser's diagnostics into a single slice: every lexical
// diagnostic first, then every parser diagnostic. The parser runs even
// when the lexer reported errors.
func parseFile(filename string) ([]*ast.Def, []diag.Diagnostic, error) {
	src, err := readSource(filename)
	if err != nil {
		return nil, nil, err
	}

	toks, lexDiags := lexer.Lex(src)
	defs, parseDiags := parser.Parse(toks)

	all := make([]diag.Diagnostic, 0, len(lexDiags)+len(parseDiags))
	all = append(all, lexDiags...)
	all = append(all, parseDiags...)
	return defs, all, nil
}

// printDiagnostics writes every diagnostic to stderr, warnings and
// errors alike; warnings never abort compilation.
func printDiagnostics(filename string, diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "%s: %s\n", filename, d.Error())
	}
}
