package formula

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/bingo-rules/bingo/internal/value"
)

// exprProgram adapts a compiled expr-lang *vm.Program to the Program
// interface.
type exprProgram struct {
	prog *vm.Program
}

func (p *exprProgram) Eval(fields map[string]value.Value) (value.Value, error) {
	env := fieldsToEnv(fields)
	// expr-lang's custom functions are resolved through the environment
	// map when Env() was supplied at compile time with matching keys, so
	// register them here too: every Eval call gets the same four helpers
	// regardless of which fields the fact carries.
	env["max"] = exprMax
	env["min"] = exprMin
	env["abs"] = exprAbs
	env["round"] = exprRound

	out, err := expr.Run(p.prog, env)
	if err != nil {
		return value.Value{}, fmt.Errorf("formula: eval: %w", err)
	}
	return fromNative(out)
}

// compileExpr compiles translated expr-lang source text into a Program.
// Compilation does not have field names available up front (facts carry
// arbitrary fields), so it runs untyped — expr.AllowUndefinedVariables
// lets the expression reference fields that happen to be absent on a
// given fact without failing compilation.
func compileExpr(source string) (Program, error) {
	prog, err := expr.Compile(source, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	return &exprProgram{prog: prog}, nil
}
