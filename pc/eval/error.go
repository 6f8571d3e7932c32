package eval

import (
	"fmt"

	"github.com/c360studio/pcforge/pc/vdom"
)

// EvalError is a localized evaluation failure: the evaluator never aborts
// the whole pass on one bad expression or unresolved reference. It embeds
// an Error VNode in place of the failing element and keeps walking.
type EvalError struct {
	Kind    vdom.ErrorKind
	Message string
}

func (e *EvalError) Error() string { return e.Message }

func errUnknownVariable(name string) *EvalError {
	return &EvalError{Kind: vdom.ErrUnknownVariable, Message: fmt.Sprintf("unknown variable %q", name)}
}

func errUnknownComponent(name string) *EvalError {
	return &EvalError{Kind: vdom.ErrUnknownComponent, Message: fmt.Sprintf("unknown component %q", name)}
}

func errSlotMismatch(name string) *EvalError {
	return &EvalError{Kind: vdom.ErrSlotMismatch, Message: fmt.Sprintf("no slot named %q on this component", name)}
}

func errNonIterable() *EvalError {
	return &EvalError{Kind: vdom.ErrNonIterable, Message: "repeat expression did not evaluate to a list"}
}

func errVariantNotFound(name string) *EvalError {
	return &EvalError{Kind: vdom.ErrVariantNotFound, Message: fmt.Sprintf("unknown variant %q", name)}
}

func errDivideByZero() *EvalError {
	return &EvalError{Kind: vdom.ErrDivideByZero, Message: "division by zero"}
}
