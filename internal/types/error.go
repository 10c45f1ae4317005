package types

import (
	"errors"
	"fmt"
)

// ErrorKind enumerates registry validation failures.
//
// ErrInvalidVariant is only reachable from Go callers that assemble a
// Variant by hand. Text commands, definition files and snapshots build
// variants with NewAtomic, NewStruct or NewUnion, so their payload always
// matches the kind.
type ErrorKind uint8

const (
	// ErrTypeRedefinition: the name is already registered.
	ErrTypeRedefinition ErrorKind = iota + 1
	// ErrNoZeroSizedType: an atomic with size 0.
	ErrNoZeroSizedType
	// ErrNoZeroAlign: an atomic with alignment 0.
	ErrNoZeroAlign
	// ErrEmptyCompoundType: a struct or union without members.
	ErrEmptyCompoundType
	// ErrTypeDoesNotExist: a referenced or requested name is not registered.
	ErrTypeDoesNotExist
	// ErrInvalidVariant: the variant payload does not match its kind.
	ErrInvalidVariant
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTypeRedefinition:
		return "TypeRedefinition"
	case ErrNoZeroSizedType:
		return "NoZeroSizedType"
	case ErrNoZeroAlign:
		return "NoZeroAlign"
	case ErrEmptyCompoundType:
		return "EmptyCompoundType"
	case ErrTypeDoesNotExist:
		return "TypeDoesNotExist"
	case ErrInvalidVariant:
		return "InvalidVariant"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// TypeError is returned by registry operations.
type TypeError struct {
	Kind ErrorKind
	Name string // the offending type name
}

func (e *TypeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case ErrTypeRedefinition:
		return fmt.Sprintf("type %q is already defined", e.Name)
	case ErrNoZeroSizedType:
		return fmt.Sprintf("type %q: zero-sized types are not allowed", e.Name)
	case ErrNoZeroAlign:
		return fmt.Sprintf("type %q: alignment must be positive", e.Name)
	case ErrEmptyCompoundType:
		return fmt.Sprintf("type %q: empty compound types are not allowed", e.Name)
	case ErrTypeDoesNotExist:
		return fmt.Sprintf("type %q does not exist", e.Name)
	case ErrInvalidVariant:
		return fmt.Sprintf("type %q: malformed definition", e.Name)
	default:
		return fmt.Sprintf("type error kind=%d name=%q", e.Kind, e.Name)
	}
}

// Is matches any *TypeError of the same kind, so callers can write
// errors.Is(err, &types.TypeError{Kind: types.ErrNoZeroAlign}).
// A target with a non-empty Name must also match the name.
func (e *TypeError) Is(target error) bool {
	t, ok := target.(*TypeError)
	if !ok || e == nil || t == nil {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Name == "" || t.Name == e.Name
}

// KindOf extracts the ErrorKind from err, or 0 if err is not a *TypeError.
func KindOf(err error) ErrorKind {
	var te *TypeError
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}
