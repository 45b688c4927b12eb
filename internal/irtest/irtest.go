// Package irtest is a recording fake implementation of internal/ir/irb's
// Builder interface, standing in for a concrete tensor-IR back end:
// rather than emitting real IR, it appends one Event per builder call to
// a flat log that a test compares against an expected sequence. The
// driver's ir-dump mode prints the same log.
package irtest

import (
	"github.com/andidr/teckyl/internal/ast"
	"github.com/andidr/teckyl/internal/ir/irb"
)

// Val is the Recorder's own Value representation: a small sequential ID,
// comparable with == so go-cmp can diff Event slices structurally.
type Val int

// Event is one recorded builder call. Only the fields relevant to Op are
// populated; the rest stay at their zero value, so a test's expected
// Event literal only needs to name what it cares about.
type Event struct {
	Op       string
	Name     string // function/NamedOp name
	Params   []irb.MemrefType
	Int      int64 // ConstInt/ConstIndex value, or Dim's index i
	Bits     int
	Float    float64
	BinOp    irb.BinOpKind
	CmpOp    irb.CmpOpKind
	Convert  irb.ConvertKind
	Combiner irb.Combiner
	Elem     ast.ScalarType
	Maps     []irb.AffineMap
	Iters    []irb.IterKind
	Args     []Val
	Result   Val
}

// Recorder implements irb.Builder by logging every call to Events and
// returning freshly minted Vals, never touching real IR state.
type Recorder struct {
	Events []Event

	nextVal int
	nextFn  int
}

func New() *Recorder { return &Recorder{} }

func (r *Recorder) newVal() Val {
	v := Val(r.nextVal)
	r.nextVal++
	return v
}

func toVal(v irb.Value) Val {
	val, ok := v.(Val)
	if !ok {
		panic("irtest: value did not originate from this Recorder")
	}
	return val
}

func toVals(vs []irb.Value) []Val {
	out := make([]Val, len(vs))
	for i, v := range vs {
		out[i] = toVal(v)
	}
	return out
}

func (r *Recorder) CreateFunction(name string, params []irb.MemrefType) irb.Value {
	fn := r.newVal()
	r.Events = append(r.Events, Event{Op: "CreateFunction", Name: name, Params: params, Result: fn})
	return fn
}

func (r *Recorder) AddEntryBlock(fn irb.Value) []irb.Value {
	// The number of block arguments is recovered from the preceding
	// CreateFunction event rather than threaded separately, mirroring
	// how a real builder looks up the function's own signature.
	var params []irb.MemrefType
	for _, e := range r.Events {
		if e.Op == "CreateFunction" && e.Result == toVal(fn) {
			params = e.Params
			break
		}
	}
	args := make([]irb.Value, len(params))
	vals := make([]Val, len(params))
	for i := range params {
		v := r.newVal()
		args[i] = v
		vals[i] = v
	}
	r.Events = append(r.Events, Event{Op: "AddEntryBlock", Args: append([]Val{toVal(fn)}, vals...)})
	return args
}

func (r *Recorder) FinishFunction(fn irb.Value) {
	r.Events = append(r.Events, Event{Op: "FinishFunction", Args: []Val{toVal(fn)}})
}

func (r *Recorder) ConstInt(value int64, bits int) irb.Value {
	v := r.newVal()
	r.Events = append(r.Events, Event{Op: "ConstInt", Int: value, Bits: bits, Result: v})
	return v
}

func (r *Recorder) ConstFloat(value float64, bits int) irb.Value {
	v := r.newVal()
	r.Events = append(r.Events, Event{Op: "ConstFloat", Float: value, Bits: bits, Result: v})
	return v
}

func (r *Recorder) ConstIndex(value int64) irb.Value {
	v := r.newVal()
	r.Events = append(r.Events, Event{Op: "ConstIndex", Int: value, Result: v})
	return v
}

func (r *Recorder) Dim(memref irb.Value, i int) irb.Value {
	v := r.newVal()
	r.Events = append(r.Events, Event{Op: "Dim", Int: int64(i), Args: []Val{toVal(memref)}, Result: v})
	return v
}

func (r *Recorder) BinOp(op irb.BinOpKind, elem ast.ScalarType, l, r2 irb.Value) irb.Value {
	v := r.newVal()
	r.Events = append(r.Events, Event{Op: "BinOp", BinOp: op, Elem: elem, Args: []Val{toVal(l), toVal(r2)}, Result: v})
	return v
}

func (r *Recorder) Cmp(op irb.CmpOpKind, elem ast.ScalarType, l, r2 irb.Value) irb.Value {
	v := r.newVal()
	r.Events = append(r.Events, Event{Op: "Cmp", CmpOp: op, Elem: elem, Args: []Val{toVal(l), toVal(r2)}, Result: v})
	return v
}

func (r *Recorder) Load(memref irb.Value, indices []irb.Value) irb.Value {
	v := r.newVal()
	args := append([]Val{toVal(memref)}, toVals(indices)...)
	r.Events = append(r.Events, Event{Op: "Load", Args: args, Result: v})
	return v
}

func (r *Recorder) Store(memref irb.Value, indices []irb.Value, val irb.Value) {
	args := append([]Val{toVal(memref)}, toVals(indices)...)
	args = append(args, toVal(val))
	r.Events = append(r.Events, Event{Op: "Store", Args: args})
}

func (r *Recorder) Loop(lo, hi irb.Value, body func(iv irb.Value)) {
	iv := r.newVal()
	r.Events = append(r.Events, Event{Op: "LoopBegin", Args: []Val{toVal(lo), toVal(hi)}, Result: iv})
	body(iv)
	r.Events = append(r.Events, Event{Op: "LoopEnd"})
}

func (r *Recorder) StructuredReduction(operands []irb.Value, maps []irb.AffineMap, iters []irb.IterKind,
	combiner irb.Combiner, elem ast.ScalarType, body func(args []irb.Value) irb.Value) irb.Value {

	blockArgs := make([]irb.Value, len(operands))
	for i := range operands {
		blockArgs[i] = r.newVal()
	}
	result := r.newVal()
	r.Events = append(r.Events, Event{
		Op: "StructuredReductionBegin", Args: toVals(operands), Maps: maps, Iters: iters,
		Combiner: combiner, Elem: elem, Result: result,
	})
	yielded := body(blockArgs)
	r.Events = append(r.Events, Event{Op: "StructuredReductionYield", Args: []Val{toVal(yielded)}})
	return result
}

func (r *Recorder) NamedOp(name string, operands []irb.Value, elem ast.ScalarType) irb.Value {
	v := r.newVal()
	r.Events = append(r.Events, Event{Op: "NamedOp", Name: name, Elem: elem, Args: toVals(operands), Result: v})
	return v
}

func (r *Recorder) Convert(val irb.Value, kind irb.ConvertKind, target ast.ScalarType) irb.Value {
	v := r.newVal()
	r.Events = append(r.Events, Event{Op: "Convert", Convert: kind, Elem: target, Args: []Val{toVal(val)}, Result: v})
	return v
}

func (r *Recorder) SubView(memref irb.Value, offsets, sizes, strides []irb.Value) irb.Value {
	v := r.newVal()
	args := []Val{toVal(memref)}
	args = append(args, toVals(offsets)...)
	args = append(args, toVals(sizes)...)
	args = append(args, toVals(strides)...)
	r.Events = append(r.Events, Event{Op: "SubView", Args: args, Result: v})
	return v
}

func (r *Recorder) Intrinsic(name string, elem ast.ScalarType, args []irb.Value) irb.Value {
	v := r.newVal()
	r.Events = append(r.Events, Event{Op: "Intrinsic", Name: name, Elem: elem, Args: toVals(args), Result: v})
	return v
}

func (r *Recorder) Choose(cond, t, f irb.Value, elem ast.ScalarType) irb.Value {
	v := r.newVal()
	r.Events = append(r.Events, Event{Op: "Choose", Elem: elem, Args: []Val{toVal(cond), toVal(t), toVal(f)}, Result: v})
	return v
}

var _ irb.Builder = (*Recorder)(nil)
