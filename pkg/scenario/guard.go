package scenario

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Env is the environment `when` guards are evaluated in.
//
// Example guards:
//
//	viewport == "mobile"
//	outputs.published_url != ""
//	status == "published" && step > 2
type Env struct {
	Viewport string            `expr:"viewport"`
	Status   string            `expr:"status"`
	Account  string            `expr:"account"`
	Step     int               `expr:"step"`
	Outputs  map[string]string `expr:"outputs"`
}

// Guard is a compiled `when` expression.
type Guard struct {
	source  string
	program *vm.Program
}

// CompileGuard compiles a boolean guard expression.
// Identifiers outside Env fail compilation; missing output keys read as "".
func CompileGuard(source string) (*Guard, error) {
	program, err := expr.Compile(source,
		expr.Env(Env{}),
		expr.AsBool(),
	)
	if err != nil {
		return nil, err
	}
	return &Guard{source: source, program: program}, nil
}

// String returns the guard source.
func (g *Guard) String() string {
	return g.source
}

// Eval reports whether the guarded step should run.
func (g *Guard) Eval(env Env) (bool, error) {
	if env.Outputs == nil {
		env.Outputs = map[string]string{}
	}
	out, err := expr.Run(g.program, env)
	if err != nil {
		return false, fmt.Errorf("guard %q: %w", g.source, err)
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("guard %q returned %T, expected bool", g.source, out)
	}
	return ok, nil
}
