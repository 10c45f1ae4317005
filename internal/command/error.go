package command

import "fmt"

// ErrorKind enumerates command parsing failures.
type ErrorKind uint8

const (
	ErrNotEnoughArgs ErrorKind = iota + 1
	ErrTooManyArgs
	ErrInvalidAction
	ErrInvalidArgument
	ErrSyntax
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNotEnoughArgs:
		return "NotEnoughArgs"
	case ErrTooManyArgs:
		return "TooManyArgs"
	case ErrInvalidAction:
		return "InvalidAction"
	case ErrInvalidArgument:
		return "InvalidArgument"
	case ErrSyntax:
		return "Syntax"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// Error describes why a line could not be parsed.
type Error struct {
	Kind   ErrorKind
	Token  string // offending token, if any
	Column int    // 1-based column of Token, 0 if unknown
	Err    error  // underlying cause for ErrInvalidArgument and ErrSyntax
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case ErrNotEnoughArgs:
		return "not enough arguments"
	case ErrTooManyArgs:
		return fmt.Sprintf("too many arguments (unexpected %q at column %d)", e.Token, e.Column)
	case ErrInvalidAction:
		return fmt.Sprintf("%q is not a valid action", e.Token)
	case ErrInvalidArgument:
		return fmt.Sprintf("invalid argument %q at column %d", e.Token, e.Column)
	case ErrSyntax:
		if e.Err != nil {
			return fmt.Sprintf("syntax error: %v", e.Err)
		}
		return "syntax error"
	default:
		return fmt.Sprintf("command error kind=%d", e.Kind)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
