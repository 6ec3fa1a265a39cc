package pffutil

import (
	"errors"
	"fmt"

	"github.com/pfftools/pff-rec/pfftree"
)

// Error is the taxonomy of §7: every error pffutil raises itself can
// be tested against one of the sentinels below with errors.Is, the
// same way the teacher's btrfstree.notExistError maps onto
// io/fs.ErrNotExist. Errors that come from the cursor are not an
// *Error: they are returned wrapped by wrapCursor and match none of
// these sentinels.
type Error struct {
	Op    string
	kind  error
	msg   string
	cause error
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind error, cause error, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Is(target error) bool { return target == e.kind }

// Error kinds, per spec §7's error taxonomy.
var (
	// ErrInvalidArgument is a null required input or an output slot
	// that was already populated.
	ErrInvalidArgument = kind("invalid argument")

	// ErrOutOfBounds covers both a descriptor identifier that
	// exceeds uint32 and a recursion depth that exceeded the
	// configured limit.
	ErrOutOfBounds = kind("out of bounds")

	// ErrAllocationFailure is a node or descriptor allocation
	// failure.
	ErrAllocationFailure = kind("allocation failure")

	// ErrStructuralCorruption is a promised-non-null child that
	// was null, or a sub-node count mismatch.
	ErrStructuralCorruption = kind("structural corruption")

	// ErrDuplicateRoot is a second self-parented leaf encountered
	// during a build.
	ErrDuplicateRoot = kind("duplicate root")
)

type kind string

func (k kind) Error() string { return string(k) }

// wrapCursor wraps an error returned by the cursor with the operation
// that triggered it, per §7's propagation policy ("context ... without
// swallowing or rewriting the underlying cause"). A *pfftree.IoError
// remains unwrappable to itself via errors.As/errors.Is; this just
// adds the call-site context the original's libcerror_error_set calls
// provide.
func wrapCursor(op string, err error) error {
	return fmt.Errorf("pffutil: %s: %w", op, err)
}

// isCursorIoError reports whether err is (or wraps) a *pfftree.IoError,
// the one cursor failure the builder ever tolerates — and only at the
// top of a subtree (see builder.go).
func isCursorIoError(err error) (*pfftree.IoError, bool) {
	var ioErr *pfftree.IoError
	ok := errors.As(err, &ioErr)
	return ioErr, ok
}
