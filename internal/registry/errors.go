// internal/registry/errors.go
package registry

import (
	"errors"
	"fmt"
)

// ErrNameReserved means the script name is already tagged to another
// customer. First writer wins; there is no transfer mechanism.
var ErrNameReserved = errors.New("script name already reserved")

// InvalidInputError is a client-side problem with the upload request. The
// message is shown to the caller and should describe the expected shape.
type InvalidInputError struct {
	Msg string
}

func (e *InvalidInputError) Error() string { return e.Msg }

// InternalError is a store or platform failure the caller cannot act on. The
// wrapped cause is logged server-side, never shown to the caller.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *InternalError) Unwrap() error { return e.Err }

// DispatchError covers everything that can go wrong while forwarding a
// request to a script: the name resolves to nothing, or the invocation
// faults. Callers translate it to one opaque response either way.
type DispatchError struct {
	Script string
	Err    error
}

func (e *DispatchError) Error() string { return fmt.Sprintf("dispatch %s: %v", e.Script, e.Err) }
func (e *DispatchError) Unwrap() error { return e.Err }
