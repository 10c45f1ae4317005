package layout

import (
	"errors"
	"fmt"

	"typesim/internal/combin"
)

// LayoutErrorKind enumerates layout query failures that are not registry
// errors.
type LayoutErrorKind uint8

const (
	// LayoutErrUnknownMode indicates a Mode outside the closed set.
	LayoutErrUnknownMode LayoutErrorKind = iota + 1
	// LayoutErrOverflow indicates a size or alignment that does not fit in
	// an int.
	LayoutErrOverflow
)

// LayoutError represents an invalid layout query.
type LayoutError struct {
	Kind LayoutErrorKind
	Mode Mode
	Name string // for LayoutErrOverflow: innermost named type, if any
	Err  error
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrUnknownMode:
		return fmt.Sprintf("unknown packing mode %d", uint8(e.Mode))
	case LayoutErrOverflow:
		if e.Name == "" {
			return fmt.Sprintf("%s layout overflows int", e.Mode)
		}
		return fmt.Sprintf("%s layout of %q overflows int", e.Mode, e.Name)
	default:
		return fmt.Sprintf("layout error kind=%d", e.Kind)
	}
}

func (e *LayoutError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsOverflow reports whether err is a LayoutErrOverflow.
func IsOverflow(err error) bool {
	var le *LayoutError
	return errors.As(err, &le) && le.Kind == LayoutErrOverflow
}

func errUnknownMode(m Mode) *LayoutError {
	return &LayoutError{Kind: LayoutErrUnknownMode, Mode: m}
}

// arithError turns a combin overflow into a LayoutErrOverflow for mode.
// Other errors are returned as they are.
func arithError(mode Mode, err error) error {
	if errors.Is(err, combin.ErrOverflow) {
		return &LayoutError{Kind: LayoutErrOverflow, Mode: mode, Err: err}
	}
	return err
}
