package dispatch

// Expr is one expression in a declarative middleware list: a single unit, a
// group, a branch of a conditional, or the expansion of a bounded iteration.
// Expressions are evaluated exactly once, when constructed — conditions are
// ordinary bool arguments, so inclusion is decided at build time, never per
// request. Expressions nest arbitrarily: a conditional branch may contain an
// iteration, a group may contain conditionals, and so on.
//
//	handler := dispatch.BuildChain(terminal,
//	    dispatch.Use(middleware.Recovery(logger)),
//	    dispatch.When(cfg.CORS.Enabled, dispatch.Use(middleware.CORS(corsOpts))),
//	    dispatch.WhenElse(verbose,
//	        dispatch.Use(debugLog),
//	        dispatch.Use(terseLog),
//	    ),
//	    dispatch.Maybe(extra), // nil contributes nothing
//	)
type Expr struct {
	units []Middleware
}

// Use contributes a single middleware.
func Use(m Middleware) Expr {
	return Expr{units: []Middleware{m}}
}

// Group contributes the concatenation of the given expressions, in order.
func Group(exprs ...Expr) Expr {
	return Expr{units: flatten(exprs)}
}

// When contributes the given expressions when cond is true, nothing
// otherwise.
func When(cond bool, exprs ...Expr) Expr {
	if !cond {
		return Expr{}
	}
	return Group(exprs...)
}

// WhenElse contributes exactly one branch: then when cond is true, otherwise
// when it is false. Never both.
func WhenElse(cond bool, then, otherwise Expr) Expr {
	if cond {
		return then
	}
	return otherwise
}

// Maybe contributes m when non-nil, nothing otherwise. It is the optional-
// unwrap form: a caller holding a possibly-absent middleware passes it
// directly instead of branching.
func Maybe(m Middleware) Expr {
	if m == nil {
		return Expr{}
	}
	return Use(m)
}

// Times contributes n middleware produced by produce, in ascending index
// order.
func Times(n int, produce func(i int) Middleware) Expr {
	if n <= 0 {
		return Expr{}
	}
	units := make([]Middleware, 0, n)
	for i := range n {
		units = append(units, produce(i))
	}
	return Expr{units: units}
}

// Build flattens the expressions into one ordered middleware list, equal to
// the concatenation of each expression's contribution in argument order.
// The result is fixed: the chain built from it dispatches requests in list
// order and responses in reverse list order, and nothing at request time can
// reorder it.
func Build(exprs ...Expr) []Middleware {
	return flatten(exprs)
}

// BuildChain is Chain(Build(exprs...)...)(terminal).
func BuildChain(terminal Handler, exprs ...Expr) Handler {
	return Chain(Build(exprs...)...)(terminal)
}

func flatten(exprs []Expr) []Middleware {
	total := 0
	for _, e := range exprs {
		total += len(e.units)
	}
	out := make([]Middleware, 0, total)
	for _, e := range exprs {
		out = append(out, e.units...)
	}
	return out
}
