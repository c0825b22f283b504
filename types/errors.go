package types

import (
	"errors"
	"fmt"
)

var (
	// ErrPaletteSize means a palette does not have exactly K colors.
	ErrPaletteSize = errors.New("palette must have exactly K colors")
	// ErrEmptyImage means the image has no pixels.
	ErrEmptyImage = errors.New("image has no pixels")
	// ErrInsufficientBins means the image has fewer distinct colors than
	// palette entries, so k-means cannot be seeded.
	ErrInsufficientBins = errors.New("cannot sample enough initial points for k-means")
	// ErrOutOfGamut means a target palette color cannot be displayed.
	ErrOutOfGamut = errors.New("palette color is outside the sRGB gamut")
	// ErrSingular means a linear system has no unique solution.
	ErrSingular      = errors.New("singular linear system")
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrInvariant is matched by every *InvariantError.
	ErrInvariant = errors.New("internal invariant violated")
)

// InvariantError signals a broken precondition inside the engine, as opposed
// to bad input. It is raised with panic and converted into an ordinary error
// at the public API boundary.
type InvariantError struct {
	Op  string
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvariant, e.Op, e.Msg)
}

func (e *InvariantError) Unwrap() error { return ErrInvariant }

// Invariant panics with an *InvariantError when cond is false.
func Invariant(cond bool, op, format string, args ...any) {
	if !cond {
		panic(&InvariantError{Op: op, Msg: fmt.Sprintf(format, args...)})
	}
}

// RecoverInvariant converts a pending *InvariantError panic into *err. Any
// other panic is re-raised. Must be called directly by defer.
func RecoverInvariant(err *error) {
	if r := recover(); r != nil {
		ie, ok := r.(*InvariantError)
		if !ok {
			panic(r)
		}
		*err = ie
	}
}
