package heap

import "fmt"

// FatalError marks a condition the heap cannot recover from: the contract
// with the mutator is succeed or terminate, with no error-return channel.
// A host may recover() at its own risk, but this is unsupported.
type FatalError struct {
	Kind string
	Msg  string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("heap: %s: %s", e.Kind, e.Msg)
}

func fatal(kind, msg string) {
	panic(&FatalError{Kind: kind, Msg: msg})
}

const (
	kindAlreadyInitialized = "AlreadyInitialized"
	kindNotInitialized     = "NotInitialized"
	kindOutOfMemory        = "OutOfMemory"
)
