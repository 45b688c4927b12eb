// Package headergen emits C99 declarations for checked kernels: one
// prototype per kernel with a flattened memref signature, plus an inline
// wrapper that accepts bare pointers and one integer per symbolic
// dimension, with strides computed as row-major products of trailing
// sizes.
//
// Generate takes checked kernels (*sema.CheckedDef) rather than raw
// defs: an output's real shape lives in CheckedDef.Outputs even when the
// source left its return type inferred.
package headergen

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/andidr/teckyl/internal/ast"
	"github.com/andidr/teckyl/internal/sema"
)

// cType returns the C99 spelling for a scalar type. The scalar type
// tables never produce a width outside this switch, so the panic is
// unreachable in practice.
func cType(t ast.ScalarType) string {
	switch t.Kind {
	case ast.KindBool:
		return "bool"
	case ast.KindUIntScalar:
		return fmt.Sprintf("uint%d_t", t.Bits)
	case ast.KindIntScalar:
		return fmt.Sprintf("int%d_t", t.Bits)
	case ast.KindFloatScalar:
		switch t.Bits {
		case 32:
			return "float"
		case 64:
			return "double"
		default:
			return fmt.Sprintf("_Float%d", t.Bits)
		}
	}
	panic("headergen: unsupported scalar type")
}

// tensorOf returns p's tensor type, consulting outputs for a return whose
// own ast.Param.Type may still say "inferred".
func tensorOf(p *ast.Param, outputs map[string]*sema.Binding) *ast.TensorType {
	if p.Type != nil && p.Type.Tensor != nil {
		return p.Type.Tensor
	}
	if b, ok := outputs[p.Ident]; ok {
		return b.Tensor
	}
	return nil
}

// genMemrefSignature writes the flattened-memref C function prototype
// for def: per tensor, the allocated and aligned pointers, the offset,
// then one size and one stride per dimension.
func genMemrefSignature(b *strings.Builder, def *ast.Def, outputs map[string]*sema.Binding) {
	fmt.Fprintf(b, "void %s(", def.Name)

	first := true
	genParam := func(p *ast.Param, isInput bool) {
		tt := tensorOf(p, outputs)
		if tt == nil {
			panic(fmt.Sprintf("headergen: %q has no resolved tensor type", p.Ident))
		}
		ct := cType(tt.Scalar)

		write := func(s string) {
			if first {
				first = false
			} else {
				b.WriteString(", ")
			}
			b.WriteString(s)
		}

		constPrefix := ""
		if isInput {
			constPrefix = "const "
		}
		write(fmt.Sprintf("%s%s* %s_allocatedPtr", constPrefix, ct, p.Ident))
		write(fmt.Sprintf("%s%s* %s_alignedPtr", constPrefix, ct, p.Ident))
		write(fmt.Sprintf("int64_t %s_offset", p.Ident))
		for i := range tt.Dims {
			write(fmt.Sprintf("int64_t %s_size%d", p.Ident, i))
		}
		for i := range tt.Dims {
			write(fmt.Sprintf("int64_t %s_stride%d", p.Ident, i))
		}
	}

	for _, p := range def.Params {
		genParam(p, true)
	}
	for _, r := range def.Returns {
		genParam(r, false)
	}
	b.WriteString(");\n")
}

// dimText renders a single dim expression (*ast.Ident or *ast.Const).
func dimText(e ast.Expr) string {
	switch d := e.(type) {
	case *ast.Ident:
		return d.Name
	case *ast.Const:
		return fmt.Sprintf("%d", d.IntValue)
	default:
		return ast.ExprString(e)
	}
}

// genParamWrapper writes the "_wrap" inline wrapper taking bare
// pointers and one uint64_t per distinct symbolic dimension, with
// strides computed as row-major trailing-size products.
func genParamWrapper(b *strings.Builder, def *ast.Def, outputs map[string]*sema.Binding) {
	seen := map[string]bool{}
	var sizeParams []string

	fmt.Fprintf(b, "static inline void %s_wrap(", def.Name)

	all := append(append([]*ast.Param{}, def.Params...), def.Returns...)

	first := true
	write := func(s string) {
		if first {
			first = false
		} else {
			b.WriteString(", ")
		}
		b.WriteString(s)
	}

	for i, p := range all {
		isInput := i < len(def.Params)
		tt := tensorOf(p, outputs)
		if tt == nil {
			panic(fmt.Sprintf("headergen: %q has no resolved tensor type", p.Ident))
		}
		constPrefix := ""
		if isInput {
			constPrefix = "const "
		}
		write(fmt.Sprintf("%s%s* %s", constPrefix, cType(tt.Scalar), p.Ident))
		for _, dim := range tt.Dims {
			if id, ok := dim.(*ast.Ident); ok && !seen[id.Name] {
				seen[id.Name] = true
				sizeParams = append(sizeParams, id.Name)
			}
		}
	}

	for _, name := range sizeParams {
		write(fmt.Sprintf("uint64_t %s", name))
	}
	b.WriteString(") {\n")

	b.WriteString("\t" + def.Name + "(")
	argFirst := true
	writeArg := func(s string) {
		if argFirst {
			argFirst = false
		} else {
			b.WriteString(", ")
		}
		b.WriteString(s)
	}
	for _, p := range all {
		tt := tensorOf(p, outputs)
		writeArg(fmt.Sprintf("%s, %s, 0", p.Ident, p.Ident))
		for _, dim := range tt.Dims {
			writeArg(dimText(dim))
		}
		for i := range tt.Dims {
			if i == len(tt.Dims)-1 {
				writeArg("1")
				continue
			}
			var factors []string
			for j := i + 1; j < len(tt.Dims); j++ {
				factors = append(factors, dimText(tt.Dims[j]))
			}
			writeArg(strings.Join(factors, "*"))
		}
	}
	b.WriteString(");\n}\n")
}

// Generate emits a complete C99 header guarding declarations for every
// kernel in defs under includeGuard. Kernels are emitted in name order
// for deterministic output.
func Generate(defs map[string]*sema.CheckedDef, includeGuard string) string {
	names := maps.Keys(defs)
	slices.Sort(names)

	var b strings.Builder
	fmt.Fprintf(&b, "#ifndef %s\n#define %s\n\n#include <stdint.h>\n#include <stdlib.h>\n\n", includeGuard, includeGuard)

	for _, name := range names {
		checked := defs[name]
		genMemrefSignature(&b, checked.Def, checked.Outputs)
		b.WriteString("\n")
		genParamWrapper(&b, checked.Def, checked.Outputs)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "#endif /* %s */\n", includeGuard)
	return b.String()
}
