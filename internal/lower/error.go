// Package lower walks a parsed syntax.Block and emits it into an ir.Block:
// the AST → IR lowering stage. It owns the compile-error taxonomy from
// spec.md §7 (UnresolvedSymbol, IncorrectArity, NotImplemented) since
// lowering is where each of those is first detected.
package lower

import "fmt"

// UnresolvedSymbolError reports a reference to an identifier with no
// binding anywhere in the current scope chain.
type UnresolvedSymbolError struct {
	Name string
}

func (e *UnresolvedSymbolError) Error() string { return fmt.Sprintf("%s is not defined", e.Name) }

// IncorrectArityError reports a function call whose argument count doesn't
// match the callee's declared arity.
type IncorrectArityError struct {
	Name           string
	Expected, Actual int
}

func (e *IncorrectArityError) Error() string {
	return fmt.Sprintf("function %q expects %d parameters but %d were given", e.Name, e.Expected, e.Actual)
}

// NotImplementedError reports a construct this compiler deliberately
// rejects: division, more than six call arguments, a comparison used
// outside a predicate, functions used as values, or calling a non-function
// symbol.
type NotImplementedError struct {
	Reason string
}

func (e *NotImplementedError) Error() string { return "not yet implemented: " + e.Reason }
